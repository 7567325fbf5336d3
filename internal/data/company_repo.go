package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jobradar/jobradar/internal/data/pgxutil"
	"github.com/jobradar/jobradar/internal/domain/model"
)

// CompanyRepo provides database operations for company records.
type CompanyRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCompanyRepo creates a new CompanyRepo instance with the given database connection.
func NewCompanyRepo(db *sql.DB) *CompanyRepo {
	return &CompanyRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// companyColumns defines the column list for company SELECT queries to ensure consistent field mapping.
const companyColumns = `id, name, city, provider, org, careers_url, created_at, updated_at`

// Upsert inserts or updates a company keyed by (provider, org). Existing
// values win over empty incoming ones so discovery cannot erase curated data.
func (r *CompanyRepo) Upsert(ctx context.Context, input model.CompanyInput) (*model.Company, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now()
	query := `
		INSERT INTO companies (name, city, provider, org, careers_url, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), $6, $6)
		ON CONFLICT (provider, org) DO UPDATE SET
			name        = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE companies.name END,
			city        = COALESCE(NULLIF(EXCLUDED.city, ''), companies.city),
			careers_url = COALESCE(NULLIF(EXCLUDED.careers_url, ''), companies.careers_url),
			updated_at  = EXCLUDED.updated_at
		RETURNING ` + companyColumns

	var company model.Company
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query,
			input.Name, input.City, input.Provider, input.Org, input.CareersURL, now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		company, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Company])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upsert company: %w", err)
	}

	return &company, nil
}

// GetByKey retrieves a company by its (provider, org) identity.
func (r *CompanyRepo) GetByKey(ctx context.Context, provider, org string) (*model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE provider = $1 AND org = $2`

	var company model.Company
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, provider, org)
		if err != nil {
			return err
		}
		defer rows.Close()

		company, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Company])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("get company by key: %w", err)
	}

	return &company, nil
}

// List returns all companies ordered by provider then org.
func (r *CompanyRepo) List(ctx context.Context) ([]model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies ORDER BY provider, org`

	var companies []model.Company
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		companies, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Company])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}

	return companies, nil
}
