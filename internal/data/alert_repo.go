package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/data/pgxutil"
	"github.com/jobradar/jobradar/internal/domain/model"
)

// AlertRepo provides database operations for alert users, saved-search alerts
// and their notification memory.
type AlertRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAlertRepo creates a new AlertRepo instance with the given database connection.
func NewAlertRepo(db *sql.DB) *AlertRepo {
	return &AlertRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// alertColumns defines the column list for saved_search_alerts SELECT queries.
const alertColumns = `id, user_id, name, filter_hash, cities, keywords, title_keywords, provider, remote, min_score, max_age_days, only_active, send_limit, frequency_minutes, is_active, next_run_at, last_run_at, last_sent_at, created_at, updated_at`

// GetOrCreateUser returns the alert user for a normalized email, creating the
// row when missing. A unique-violation race resolves by re-reading.
func (r *AlertRepo) GetOrCreateUser(ctx context.Context, email string) (*model.AlertUser, error) {
	normalized := model.NormalizeEmail(email)
	if normalized == "" {
		return nil, model.ErrEmailRequired
	}

	now := r.timeProvider.Now()
	var user model.AlertUser
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		insert := func() error {
			rows, err := pgxConn.Query(ctx, `
				INSERT INTO alert_users (email, created_at, updated_at)
				VALUES ($1, $2, $2)
				RETURNING id, email, created_at, updated_at`,
				normalized, now,
			)
			if err != nil {
				return err
			}
			defer rows.Close()
			user, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.AlertUser])
			return err
		}

		get := func() error {
			rows, err := pgxConn.Query(ctx,
				`SELECT id, email, created_at, updated_at FROM alert_users WHERE email = $1`,
				normalized,
			)
			if err != nil {
				return err
			}
			defer rows.Close()
			user, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.AlertUser])
			return err
		}

		if err := get(); err == nil {
			return nil
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		err := insert()
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return get()
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get or create alert user: %w", err)
	}

	return &user, nil
}

// UserEmail returns the normalized email for an alert user id.
func (r *AlertRepo) UserEmail(ctx context.Context, userID int64) (string, error) {
	var email string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		return pgxConn.QueryRow(ctx,
			`SELECT email FROM alert_users WHERE id = $1`, userID,
		).Scan(&email)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get alert user email: %w", err)
	}
	return email, nil
}

// UpsertAlert creates or updates the alert identified by (userID, filter
// hash). Updates replace the filter payload, reactivate the alert and reset
// next_run_at to now so the next scheduler pass evaluates it.
func (r *AlertRepo) UpsertAlert(
	ctx context.Context,
	userID int64,
	name *string,
	filters model.AlertFilters,
) (*model.SavedSearchAlert, bool, error) {
	filterHash := filters.FilterHash()
	now := r.timeProvider.Now()

	cities, err := jsonList(filters.Cities)
	if err != nil {
		return nil, false, err
	}
	keywords, err := jsonList(filters.Keywords)
	if err != nil {
		return nil, false, err
	}
	titleKeywords, err := jsonList(filters.TitleKeywords)
	if err != nil {
		return nil, false, err
	}

	var trimmedName *string
	if name != nil {
		if n := strings.TrimSpace(*name); n != "" {
			trimmedName = &n
		}
	}

	query := `
		INSERT INTO saved_search_alerts (
			user_id, name, filter_hash, cities, keywords, title_keywords,
			provider, remote, min_score, max_age_days, only_active,
			send_limit, frequency_minutes, is_active, next_run_at,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, TRUE, $14, $14, $14)
		ON CONFLICT (user_id, filter_hash) DO UPDATE SET
			name              = COALESCE(EXCLUDED.name, saved_search_alerts.name),
			cities            = EXCLUDED.cities,
			keywords          = EXCLUDED.keywords,
			title_keywords    = EXCLUDED.title_keywords,
			provider          = EXCLUDED.provider,
			remote            = EXCLUDED.remote,
			min_score         = EXCLUDED.min_score,
			max_age_days      = EXCLUDED.max_age_days,
			only_active       = EXCLUDED.only_active,
			send_limit        = EXCLUDED.send_limit,
			frequency_minutes = EXCLUDED.frequency_minutes,
			is_active         = TRUE,
			next_run_at       = EXCLUDED.next_run_at,
			updated_at        = EXCLUDED.updated_at
		RETURNING ` + alertColumns + `, (xmax = 0) AS inserted`

	var alert model.SavedSearchAlert
	var created bool
	err = pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		row := pgxConn.QueryRow(ctx, query,
			userID, trimmedName, filterHash, cities, keywords, titleKeywords,
			filters.Provider, filters.Remote, filters.MinScore, filters.MaxAgeDays,
			filters.OnlyActive, filters.SendLimit, filters.FrequencyMinutes, now,
		)
		return scanAlertWithInserted(row, &alert, &created)
	})
	if err != nil {
		return nil, false, fmt.Errorf("upsert saved search alert: %w", err)
	}

	return &alert, created, nil
}

// ListAlerts returns the active alerts owned by an email, newest first.
func (r *AlertRepo) ListAlerts(ctx context.Context, email string) ([]model.SavedSearchAlert, error) {
	normalized := model.NormalizeEmail(email)
	if normalized == "" {
		return nil, nil
	}

	query := `
		SELECT ` + prefixColumns(alertColumns, "a") + `
		FROM saved_search_alerts a
		JOIN alert_users u ON u.id = a.user_id
		WHERE u.email = $1 AND a.is_active = TRUE
		ORDER BY a.created_at DESC, a.id DESC`

	var alerts []model.SavedSearchAlert
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, normalized)
		if err != nil {
			return err
		}
		defer rows.Close()

		alerts, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.SavedSearchAlert])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list saved search alerts: %w", err)
	}

	return alerts, nil
}

// GetAlert fetches one alert by id; a non-empty email scopes the lookup to
// that owner.
func (r *AlertRepo) GetAlert(ctx context.Context, id int64, email string) (*model.SavedSearchAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM saved_search_alerts WHERE id = $1`
	args := []any{id}
	if email != "" {
		query = `
			SELECT ` + prefixColumns(alertColumns, "a") + `
			FROM saved_search_alerts a
			JOIN alert_users u ON u.id = a.user_id
			WHERE a.id = $1 AND u.email = $2`
		args = append(args, model.NormalizeEmail(email))
	}

	var alert model.SavedSearchAlert
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		alert, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.SavedSearchAlert])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("get saved search alert: %w", err)
	}

	return &alert, nil
}

// DeleteAlert removes one alert, scoped to the owner when email is non-empty.
// Seen-job history and deliveries cascade.
func (r *AlertRepo) DeleteAlert(ctx context.Context, id int64, email string) error {
	alert, err := r.GetAlert(ctx, id, email)
	if err != nil {
		return err
	}

	err = pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		_, err := pgxConn.Exec(ctx, `DELETE FROM saved_search_alerts WHERE id = $1`, alert.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete saved search alert: %w", err)
	}
	return nil
}

// DueAlerts returns active alerts whose next_run_at has passed, ordered by
// next_run_at then id. Limit is clamped to 1..1000.
func (r *AlertRepo) DueAlerts(ctx context.Context, now time.Time, limit int) ([]model.SavedSearchAlert, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 1000 {
		limit = 1000
	}

	query := `
		SELECT ` + alertColumns + `
		FROM saved_search_alerts
		WHERE is_active = TRUE AND next_run_at <= $1
		ORDER BY next_run_at ASC, id ASC
		LIMIT $2`

	var alerts []model.SavedSearchAlert
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, now, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		alerts, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.SavedSearchAlert])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list due alerts: %w", err)
	}

	return alerts, nil
}

// SeenJobKeys reports which of the candidate keys this alert has already been
// notified about.
func (r *AlertRepo) SeenJobKeys(ctx context.Context, alertID int64, keys []string) (map[string]struct{}, error) {
	normalized := dedupeKeys(keys)
	if len(normalized) == 0 {
		return map[string]struct{}{}, nil
	}

	seen := make(map[string]struct{}, len(normalized))
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx,
			`SELECT job_key FROM alert_seen_jobs WHERE alert_id = $1 AND job_key = ANY($2)`,
			alertID, normalized,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				return err
			}
			seen[key] = struct{}{}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get seen job keys: %w", err)
	}

	return seen, nil
}

// MarkSeen appends job keys to the alert's notification memory. Keys already
// present are skipped.
func (r *AlertRepo) MarkSeen(ctx context.Context, alertID int64, keys []string, seenAt time.Time) error {
	normalized := dedupeKeys(keys)
	if len(normalized) == 0 {
		return nil
	}

	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		_, err := pgxConn.Exec(ctx, `
			INSERT INTO alert_seen_jobs (alert_id, job_key, first_seen_at)
			SELECT $1, unnest($2::text[]), $3
			ON CONFLICT (alert_id, job_key) DO NOTHING`,
			alertID, normalized, seenAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("mark seen job keys: %w", err)
	}
	return nil
}

// RecordDelivery appends one audit row for a scheduler evaluation.
func (r *AlertRepo) RecordDelivery(ctx context.Context, delivery model.AlertDelivery) error {
	status := strings.ToLower(strings.TrimSpace(delivery.Status))
	if status == "" {
		status = "unknown"
	}
	jobsCount := delivery.JobsCount
	if jobsCount < 0 {
		jobsCount = 0
	}
	sentAt := delivery.SentAt
	if sentAt.IsZero() {
		sentAt = r.timeProvider.Now()
	}

	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		_, err := pgxConn.Exec(ctx, `
			INSERT INTO alert_deliveries (alert_id, sent_at, status, jobs_count, subject, error_text)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			delivery.AlertID, sentAt, status, jobsCount,
			emptyToNil(delivery.Subject), emptyToNil(delivery.ErrorText),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("record alert delivery: %w", err)
	}
	return nil
}

// CompleteRun stamps last_run_at (and last_sent_at when a send happened) and
// advances next_run_at by the alert's clamped frequency.
func (r *AlertRepo) CompleteRun(ctx context.Context, update core.AlertRunUpdate) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		_, err := pgxConn.Exec(ctx, `
			UPDATE saved_search_alerts
			SET last_run_at = $2,
				last_sent_at = COALESCE($3, last_sent_at),
				next_run_at = $4,
				updated_at = $2
			WHERE id = $1`,
			update.AlertID, update.RanAt, update.SentAt, update.NextRunAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("complete alert run: %w", err)
	}
	return nil
}

func scanAlertWithInserted(row pgx.Row, alert *model.SavedSearchAlert, inserted *bool) error {
	var cities, keywords, titleKeywords []byte
	err := row.Scan(
		&alert.ID, &alert.UserID, &alert.Name, &alert.FilterHash,
		&cities, &keywords, &titleKeywords,
		&alert.Provider, &alert.Remote, &alert.MinScore, &alert.MaxAgeDays,
		&alert.OnlyActive, &alert.SendLimit, &alert.FrequencyMinutes,
		&alert.IsActive, &alert.NextRunAt, &alert.LastRunAt, &alert.LastSentAt,
		&alert.CreatedAt, &alert.UpdatedAt, inserted,
	)
	if err != nil {
		return err
	}
	for _, pair := range []struct {
		raw []byte
		dst *[]string
	}{
		{cities, &alert.Cities},
		{keywords, &alert.Keywords},
		{titleKeywords, &alert.TitleKeywords},
	} {
		if len(pair.raw) == 0 {
			*pair.dst = []string{}
			continue
		}
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return fmt.Errorf("decode filter list: %w", err)
		}
	}
	return nil
}

func jsonList(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode filter list: %w", err)
	}
	return b, nil
}

func prefixColumns(columns, alias string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

func dedupeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	if strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
