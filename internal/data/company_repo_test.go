package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobradar/jobradar/internal/domain/model"
	"github.com/jobradar/jobradar/internal/testutil"
)

func TestCompanyRepo_UpsertAndGet(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewCompanyRepo(db)

		created, err := repo.Upsert(ctx, model.CompanyInput{
			Name:     "Acme",
			City:     "Herzliya",
			Provider: "Greenhouse",
			Org:      "acme",
		})
		require.NoError(t, err)
		assert.Equal(t, "greenhouse", created.Provider, "provider is lowered")
		require.NotNil(t, created.City)
		assert.Equal(t, "Herzliya", *created.City)

		// empty incoming fields never erase stored values
		updated, err := repo.Upsert(ctx, model.CompanyInput{
			Provider:   "greenhouse",
			Org:        "acme",
			CareersURL: "https://boards.greenhouse.io/acme",
		})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		require.NotNil(t, updated.City)
		assert.Equal(t, "Herzliya", *updated.City)
		require.NotNil(t, updated.CareersURL)
		assert.Equal(t, "https://boards.greenhouse.io/acme", *updated.CareersURL)

		got, err := repo.GetByKey(ctx, "greenhouse", "acme")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)

		_, err = repo.GetByKey(ctx, "lever", "acme")
		assert.ErrorIs(t, err, ErrCompanyNotFound)
	})
}

func TestCompanyRepo_UpsertValidation(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewCompanyRepo(db)
		_, err := repo.Upsert(context.Background(), model.CompanyInput{Provider: "greenhouse"})
		assert.ErrorIs(t, err, model.ErrCompanyInputInvalid)
	})
}

func TestCompanyRepo_List(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewCompanyRepo(db)

		for _, in := range []model.CompanyInput{
			{Name: "Zeta", Provider: "lever", Org: "zeta"},
			{Name: "Acme", Provider: "greenhouse", Org: "acme"},
		} {
			_, err := repo.Upsert(ctx, in)
			require.NoError(t, err)
		}

		companies, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, companies, 2)
		assert.Equal(t, "greenhouse", companies[0].Provider)
		assert.Equal(t, "lever", companies[1].Provider)
	})
}
