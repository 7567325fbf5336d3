// Package core defines the ports of the aggregation system. Services depend
// on these interfaces; the data and adapters layers provide implementations.
package core

import (
	"context"
	"time"

	"github.com/jobradar/jobradar/internal/domain/model"
)

// FetchHints carries optional per-company context for a provider fetch.
type FetchHints struct {
	// CareersURL is the company's board URL when known; token-negotiating
	// providers scrape it instead of guessing the board location.
	CareersURL string
	// Cities are the wanted cities, used by facet-paginating providers to
	// narrow server-side.
	Cities []string
}

// Provider fetches raw postings for one organization from an ATS vendor.
type Provider interface {
	// Name returns the registry slug, e.g. "greenhouse".
	Name() string
	// Fetch returns the organization's current postings. Implementations
	// return vendor-shaped values mapped into RawPosting; they do not score
	// or filter.
	Fetch(ctx context.Context, org string, hints FetchHints) ([]model.RawPosting, error)
}

// ProviderRegistry resolves provider adapters by slug.
type ProviderRegistry interface {
	// Get returns the adapter for a slug, case-insensitively.
	Get(name string) (Provider, bool)
	// Supported reports whether a slug names a known provider.
	Supported(name string) bool
}

// CompanyRepository persists company records keyed by (provider, org).
type CompanyRepository interface {
	Upsert(ctx context.Context, input model.CompanyInput) (*model.Company, error)
	GetByKey(ctx context.Context, provider, org string) (*model.Company, error)
	List(ctx context.Context) ([]model.Company, error)
}

// JobSyncResult summarizes one company's persistence pass.
type JobSyncResult struct {
	Written        int
	MarkedInactive int
}

// JobQuery is the database-level job page request. Post-SQL filtering
// (work mode, cities, score) happens in the service layer.
type JobQuery struct {
	Provider     string
	Orgs         []string
	CompanyNames []string
	OnlyActive   bool
	Offset       int
	Limit        int
}

// JobRepository persists canonical jobs.
type JobRepository interface {
	// SyncCompanyJobs upserts the company and its drafts and marks postings
	// absent from drafts inactive, all in one transaction.
	SyncCompanyJobs(ctx context.Context, input model.CompanyInput, drafts []model.JobDraft, seenAt time.Time) (JobSyncResult, error)
	// QueryPage reads one ordered page (created_at DESC, id DESC) applying
	// the SQL-pushdown filters only.
	QueryPage(ctx context.Context, q JobQuery) ([]model.Job, error)
}

// AlertRunUpdate finalizes one scheduler evaluation of an alert.
type AlertRunUpdate struct {
	AlertID   int64
	NextRunAt time.Time
	RanAt     time.Time
	// SentAt is set only when a notification went out.
	SentAt *time.Time
}

// AlertRepository persists alert users, saved-search alerts and their
// notification memory.
type AlertRepository interface {
	GetOrCreateUser(ctx context.Context, email string) (*model.AlertUser, error)
	// UserEmail resolves the recipient address for an alert's owner.
	UserEmail(ctx context.Context, userID int64) (string, error)
	// UpsertAlert creates or updates the alert identified by
	// (userID, filters hash). The second return reports whether a new row
	// was created.
	UpsertAlert(ctx context.Context, userID int64, name *string, filters model.AlertFilters) (*model.SavedSearchAlert, bool, error)
	ListAlerts(ctx context.Context, email string) ([]model.SavedSearchAlert, error)
	// GetAlert fetches one alert. A non-empty email scopes the lookup to
	// that owner.
	GetAlert(ctx context.Context, id int64, email string) (*model.SavedSearchAlert, error)
	// DeleteAlert removes one alert, scoped to the owner when email is
	// non-empty.
	DeleteAlert(ctx context.Context, id int64, email string) error
	// DueAlerts returns active alerts with next_run_at <= now, ordered by
	// next_run_at then id, up to limit.
	DueAlerts(ctx context.Context, now time.Time, limit int) ([]model.SavedSearchAlert, error)
	// SeenJobKeys reports which of the candidate keys the alert has already
	// notified about.
	SeenJobKeys(ctx context.Context, alertID int64, keys []string) (map[string]struct{}, error)
	MarkSeen(ctx context.Context, alertID int64, keys []string, seenAt time.Time) error
	RecordDelivery(ctx context.Context, delivery model.AlertDelivery) error
	CompleteRun(ctx context.Context, update AlertRunUpdate) error
}

// SearchClient performs one web search request. The discovery service is its
// only consumer.
type SearchClient interface {
	Search(ctx context.Context, params map[string]string) (map[string]any, error)
}

// OutboundMessage is one notification to deliver.
type OutboundMessage struct {
	To      string
	Subject string
	Body    string
}

// MessageSender delivers alert notifications.
type MessageSender interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// CacheRepository defines the query-cache operations. Implementations: the
// file cache (default) and Redis.
type CacheRepository interface {
	// Set stores a value with the given TTL. A zero TTL never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get retrieves a value, or nil when the key is missing or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes a key, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// Health checks the backing store.
	Health(ctx context.Context) error
}
