package model

import (
	"crypto/sha1" //nolint:gosec // identity digest, part of the cross-run job_key contract
	"encoding/hex"
	"strings"
	"time"
)

// Work-mode classification inferred from posting text.
const (
	WorkModeRemote  = "remote"
	WorkModeHybrid  = "hybrid"
	WorkModeOnsite  = "onsite"
	WorkModeUnknown = ""
)

// RawPosting is the vendor-agnostic record returned by a provider adapter.
// Field values are passed through as the vendor supplied them; parsing and
// inference happen in the normalization engine.
type RawPosting struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Location    string         `json:"location"`
	URL         string         `json:"url"`
	CreatedAt   string         `json:"created_at"`
	Remote      *bool          `json:"remote"`
	Description string         `json:"description"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// JobDraft is a normalized, scored posting before persistence. Drafts are what
// scan returns and what refresh feeds into the job repo.
type JobDraft struct {
	ExternalID  string         `json:"id"`
	Title       string         `json:"title"`
	CompanyName string         `json:"company"`
	CompanyCity string         `json:"company_city,omitempty"`
	Provider    string         `json:"provider"`
	Org         string         `json:"org"`
	Location    string         `json:"location"`
	URL         string         `json:"url"`
	CreatedAt   *time.Time     `json:"created_at"`
	Remote      bool           `json:"remote"`
	WorkMode    string         `json:"work_mode"`
	Description string         `json:"description,omitempty"`
	Raw         map[string]any `json:"extra,omitempty"`
	Score       int            `json:"score"`
	Reasons     string         `json:"reasons,omitempty"`
}

// JobKey returns the stable dedupe key for the draft. See BuildJobKey.
func (d *JobDraft) JobKey() string {
	return BuildJobKey(d.Provider, d.Org, d.ExternalID, d.URL)
}

// Job is a persisted canonical posting.
type Job struct {
	ID          int64          `json:"-"            db:"id"`
	JobKey      string         `json:"job_key"      db:"job_key"`
	Provider    string         `json:"provider"     db:"provider"`
	Org         string         `json:"org"          db:"org"`
	CompanyID   *int64         `json:"-"            db:"company_id"`
	CompanyName *string        `json:"company"      db:"company_name"`
	CompanyCity *string        `json:"company_city" db:"company_city"`
	Title       *string        `json:"title"        db:"title"`
	Location    *string        `json:"location"     db:"location"`
	URL         string         `json:"url"          db:"url"`
	Remote      *bool          `json:"remote"       db:"remote"`
	WorkMode    *string        `json:"work_mode"    db:"work_mode"`
	Description *string        `json:"-"            db:"description"`
	CreatedAt   *time.Time     `json:"created_at"   db:"created_at"`
	LastSeenAt  time.Time      `json:"last_seen_at" db:"last_seen_at"`
	IsActive    bool           `json:"is_active"    db:"is_active"`
	ExternalID  *string        `json:"-"            db:"external_id"`
	RawJSON     map[string]any `json:"extra"        db:"raw_json"`
	Score       *int           `json:"score"        db:"score"`
	Reasons     *string        `json:"reasons"      db:"reasons"`
}

// DisplayID mirrors the external id when the vendor supplied one, else the job key.
func (j *Job) DisplayID() string {
	if j.ExternalID != nil && *j.ExternalID != "" {
		return *j.ExternalID
	}
	return j.JobKey
}

// BuildJobKey derives the stable canonical job identity:
// provider:org:<external_id> when the vendor supplies a stable id,
// provider:url:sha1(url) when only a URL exists, and a deterministic
// fallback hash otherwise so every fetched posting gets a key.
func BuildJobKey(provider, org, externalID, url string) string {
	prov := strings.ToLower(strings.TrimSpace(provider))
	orgSlug := strings.ToLower(strings.TrimSpace(org))
	if externalID != "" {
		return prov + ":" + orgSlug + ":" + externalID
	}
	if url != "" {
		return prov + ":url:" + sha1Hex(url)
	}
	return prov + ":url:" + sha1Hex(prov+":"+orgSlug+":fallback")
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec // identity digest, not security
	return hex.EncodeToString(sum[:])
}
