package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCreatedAt(t *testing.T) {
	t.Run("iso with offset", func(t *testing.T) {
		got := ParseCreatedAt("2025-08-20T10:30:00+03:00")
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2025, 8, 20, 7, 30, 0, 0, time.UTC), *got)
	})

	t.Run("z suffix", func(t *testing.T) {
		got := ParseCreatedAt("2025-08-20T10:30:00Z")
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2025, 8, 20, 10, 30, 0, 0, time.UTC), *got)
	})

	t.Run("compact offset", func(t *testing.T) {
		got := ParseCreatedAt("2025-08-20T10:30:00+0300")
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2025, 8, 20, 7, 30, 0, 0, time.UTC), *got)
	})

	t.Run("naive treated as utc", func(t *testing.T) {
		got := ParseCreatedAt("2025-08-20T10:30:00")
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2025, 8, 20, 10, 30, 0, 0, time.UTC), *got)
	})

	t.Run("epoch seconds", func(t *testing.T) {
		got := ParseCreatedAt("1755685800")
		require.NotNil(t, got)
		assert.Equal(t, int64(1755685800), got.Unix())
	})

	t.Run("epoch milliseconds", func(t *testing.T) {
		got := ParseCreatedAt("1755685800000")
		require.NotNil(t, got)
		assert.Equal(t, int64(1755685800), got.Unix())
	})

	t.Run("date-only prefix", func(t *testing.T) {
		got := ParseCreatedAt("2025-08-20 whatever trails")
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC), *got)
	})

	t.Run("garbage and empty", func(t *testing.T) {
		assert.Nil(t, ParseCreatedAt(""))
		assert.Nil(t, ParseCreatedAt("  "))
		assert.Nil(t, ParseCreatedAt("not a date"))
	})
}

func TestParseEpoch(t *testing.T) {
	got := ParseEpoch(1755685800000) // milliseconds
	require.NotNil(t, got)
	assert.Equal(t, int64(1755685800), got.Unix())
	assert.Nil(t, ParseEpoch(0))
}

func TestExtractSalary(t *testing.T) {
	t.Run("k suffixed range", func(t *testing.T) {
		lo, hi := ExtractSalary("base 120k to 150k per year")
		require.NotNil(t, lo)
		require.NotNil(t, hi)
		assert.Equal(t, 120000.0, *lo)
		assert.Equal(t, 150000.0, *hi)
	})

	t.Run("single value", func(t *testing.T) {
		lo, hi := ExtractSalary("pays 95k")
		require.NotNil(t, lo)
		assert.Equal(t, 95000.0, *lo)
		assert.Nil(t, hi)
	})

	t.Run("no numbers", func(t *testing.T) {
		lo, hi := ExtractSalary("competitive compensation")
		assert.Nil(t, lo)
		assert.Nil(t, hi)
	})
}
