package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/data/pgxutil"
	"github.com/jobradar/jobradar/internal/domain/model"
)

// JobRepo provides database operations for canonical job postings.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewJobRepo creates a new JobRepo instance with the given database connection.
func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// jobColumns defines the column list for job SELECT queries to ensure consistent field mapping.
const jobColumns = `id, job_key, provider, org, company_id, company_name, company_city, title, location, url, remote, work_mode, description, created_at, last_seen_at, is_active, external_id, raw_json, score, reasons`

const upsertJobQuery = `
	INSERT INTO jobs (
		job_key, provider, org, company_id, company_name, company_city,
		title, location, url, remote, work_mode, description, created_at,
		last_seen_at, is_active, external_id, raw_json, score, reasons
	)
	VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''),
		NULLIF($8, ''), $9, $10, NULLIF($11, ''), NULLIF($12, ''), $13,
		$14, TRUE, NULLIF($15, ''), $16, $17, NULLIF($18, ''))
	ON CONFLICT (job_key) DO UPDATE SET
		title        = COALESCE(NULLIF(EXCLUDED.title, ''), jobs.title),
		location     = COALESCE(NULLIF(EXCLUDED.location, ''), jobs.location),
		url          = CASE WHEN EXCLUDED.url <> '' THEN EXCLUDED.url ELSE jobs.url END,
		remote       = EXCLUDED.remote,
		work_mode    = COALESCE(NULLIF(EXCLUDED.work_mode, ''), jobs.work_mode),
		description  = COALESCE(NULLIF(EXCLUDED.description, ''), jobs.description),
		created_at   = COALESCE(EXCLUDED.created_at, jobs.created_at),
		last_seen_at = EXCLUDED.last_seen_at,
		is_active    = TRUE,
		external_id  = COALESCE(NULLIF(EXCLUDED.external_id, ''), jobs.external_id),
		raw_json     = COALESCE(EXCLUDED.raw_json, jobs.raw_json),
		score        = EXCLUDED.score,
		reasons      = COALESCE(NULLIF(EXCLUDED.reasons, ''), jobs.reasons),
		company_id   = EXCLUDED.company_id,
		company_name = COALESCE(NULLIF(EXCLUDED.company_name, ''), jobs.company_name),
		company_city = COALESCE(NULLIF(EXCLUDED.company_city, ''), jobs.company_city)
	RETURNING job_key`

// SyncCompanyJobs upserts the company row, upserts every draft, and marks
// postings of the same (provider, org) that were not seen this pass inactive.
// The whole pass runs in a single transaction.
func (r *JobRepo) SyncCompanyJobs(
	ctx context.Context,
	input model.CompanyInput,
	drafts []model.JobDraft,
	seenAt time.Time,
) (core.JobSyncResult, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return core.JobSyncResult{}, err
	}

	var result core.JobSyncResult
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		companyID, companyName, companyCity, err := upsertCompanyTx(ctx, tx, input, seenAt)
		if err != nil {
			return err
		}

		seenKeys := make([]string, 0, len(drafts))
		for _, d := range drafts {
			key, err := upsertJobTx(ctx, tx, jobRowParams{
				draft:       d,
				companyID:   companyID,
				companyName: companyName,
				companyCity: companyCity,
				provider:    input.Provider,
				org:         input.Org,
				seenAt:      seenAt,
			})
			if err != nil {
				return err
			}
			seenKeys = append(seenKeys, key)
			result.Written++
		}

		inactive, err := markInactiveTx(ctx, tx, input.Provider, input.Org, seenKeys, seenAt)
		if err != nil {
			return err
		}
		result.MarkedInactive = inactive
		return nil
	}})
	if err != nil {
		return core.JobSyncResult{}, fmt.Errorf("sync company jobs %s/%s: %w", input.Provider, input.Org, err)
	}
	return result, nil
}

type jobRowParams struct {
	draft       model.JobDraft
	companyID   int64
	companyName string
	companyCity string
	provider    string
	org         string
	seenAt      time.Time
}

func upsertCompanyTx(ctx context.Context, tx pgx.Tx, input model.CompanyInput, now time.Time) (int64, string, string, error) {
	row := tx.QueryRow(ctx, `
		INSERT INTO companies (name, city, provider, org, careers_url, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), $6, $6)
		ON CONFLICT (provider, org) DO UPDATE SET
			name        = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE companies.name END,
			city        = COALESCE(NULLIF(EXCLUDED.city, ''), companies.city),
			careers_url = COALESCE(NULLIF(EXCLUDED.careers_url, ''), companies.careers_url),
			updated_at  = EXCLUDED.updated_at
		RETURNING id, name, COALESCE(city, '')`,
		input.Name, input.City, input.Provider, input.Org, input.CareersURL, now,
	)
	var id int64
	var name, city string
	if err := row.Scan(&id, &name, &city); err != nil {
		return 0, "", "", fmt.Errorf("upsert company: %w", err)
	}
	return id, name, city, nil
}

func upsertJobTx(ctx context.Context, tx pgx.Tx, p jobRowParams) (string, error) {
	d := p.draft
	jobKey := model.BuildJobKey(p.provider, p.org, d.ExternalID, d.URL)

	url := d.URL
	if url == "" {
		url = jobKey
	}

	var rawJSON []byte
	if len(d.Raw) > 0 {
		b, err := json.Marshal(d.Raw)
		if err != nil {
			return "", fmt.Errorf("marshal raw json: %w", err)
		}
		rawJSON = b
	}

	row := tx.QueryRow(ctx, upsertJobQuery,
		jobKey, p.provider, p.org, p.companyID, p.companyName, p.companyCity,
		d.Title, d.Location, url, d.Remote, strings.ToLower(d.WorkMode), d.Description,
		d.CreatedAt, p.seenAt, d.ExternalID, rawJSON, d.Score, d.Reasons,
	)
	var key string
	if err := row.Scan(&key); err != nil {
		return "", fmt.Errorf("upsert job %s: %w", jobKey, err)
	}
	return key, nil
}

func markInactiveTx(ctx context.Context, tx pgx.Tx, provider, org string, seenKeys []string, seenAt time.Time) (int, error) {
	var tag pgconn.CommandTag
	var err error
	if len(seenKeys) > 0 {
		tag, err = tx.Exec(ctx, `
			UPDATE jobs SET is_active = FALSE, last_seen_at = $4
			WHERE provider = $1 AND org = $2 AND NOT (job_key = ANY($3))`,
			provider, org, seenKeys, seenAt,
		)
	} else {
		tag, err = tx.Exec(ctx, `
			UPDATE jobs SET is_active = FALSE, last_seen_at = $3
			WHERE provider = $1 AND org = $2`,
			provider, org, seenAt,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("mark inactive: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// QueryPage reads one page of jobs ordered created_at DESC NULLS LAST, id
// DESC, applying only the SQL-pushdown filters. In-memory filtering happens
// in the query service.
func (r *JobRepo) QueryPage(ctx context.Context, q core.JobQuery) ([]model.Job, error) {
	if q.Limit <= 0 {
		return nil, nil
	}

	conds := make([]string, 0, 4)
	args := make([]any, 0, 6)
	if q.OnlyActive {
		conds = append(conds, "is_active = TRUE")
	}
	if p := strings.ToLower(strings.TrimSpace(q.Provider)); p != "" {
		args = append(args, p)
		conds = append(conds, fmt.Sprintf("provider = $%d", len(args)))
	}
	if len(q.Orgs) > 0 {
		args = append(args, lowerAll(q.Orgs))
		conds = append(conds, fmt.Sprintf("LOWER(org) = ANY($%d)", len(args)))
	}
	if len(q.CompanyNames) > 0 {
		args = append(args, lowerAll(q.CompanyNames))
		conds = append(conds, fmt.Sprintf("LOWER(company_name) = ANY($%d)", len(args)))
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, q.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC NULLS LAST, id DESC LIMIT $%d", len(args))
	args = append(args, q.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	var jobs []model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		jobs, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Job])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query jobs page: %w", err)
	}

	return jobs, nil
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
