package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobradar/jobradar/internal/testutil"
)

func TestRedisCacheRepo_SetGetDelete(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	cache := NewRedisCacheRepo(client)

	require.NoError(t, cache.Set(ctx, "results", []byte(`{"hits":3}`), time.Minute))

	got, err := cache.Get(ctx, "results")
	require.NoError(t, err)
	assert.Equal(t, `{"hits":3}`, string(got))

	existed, err := cache.Delete(ctx, "results")
	require.NoError(t, err)
	assert.True(t, existed)

	got, err = cache.Get(ctx, "results")
	require.NoError(t, err)
	assert.Nil(t, got, "missing key is a miss, not an error")

	existed, err = cache.Delete(ctx, "results")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestRedisCacheRepo_EmptyKey(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	cache := NewRedisCacheRepo(client)

	assert.Error(t, cache.Set(ctx, "", []byte("v"), 0))
	_, err := cache.Get(ctx, "")
	assert.Error(t, err)
	_, err = cache.Delete(ctx, "")
	assert.Error(t, err)
}

func TestRedisCacheRepo_Health(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer func() { _ = client.Close() }()

	cache := NewRedisCacheRepo(client)
	assert.NoError(t, cache.Health(context.Background()))
}
