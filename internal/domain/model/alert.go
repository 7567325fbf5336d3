package model

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"
)

// Delivery statuses recorded per scheduler run per alert.
const (
	DeliveryStatusSent  = "sent"
	DeliveryStatusNoop  = "noop"
	DeliveryStatusError = "error"
)

// Bounds applied during filter canonicalization.
const (
	MinScoreFloor        = 0
	MinScoreCeil         = 1000
	DefaultSendLimit     = 200
	SendLimitFloor       = 1
	SendLimitCeil        = 500
	DefaultFrequencyMins = 60
	FrequencyMinsFloor   = 5
	FrequencyMinsCeil    = 10080
)

// AlertUser is an alert recipient, identified by normalized email.
type AlertUser struct {
	ID        int64     `json:"id"         db:"id"`
	Email     string    `json:"email"      db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SavedSearchAlert is a persisted saved-search subscription. Identity is
// (user_id, filter_hash), which makes creation idempotent for logically
// equivalent filter sets.
type SavedSearchAlert struct {
	ID               int64      `json:"id"                db:"id"`
	UserID           int64      `json:"-"                 db:"user_id"`
	Name             *string    `json:"name"              db:"name"`
	FilterHash       string     `json:"-"                 db:"filter_hash"`
	Cities           []string   `json:"cities"            db:"cities"`
	Keywords         []string   `json:"keywords"          db:"keywords"`
	TitleKeywords    []string   `json:"title_keywords"    db:"title_keywords"`
	Provider         *string    `json:"provider"          db:"provider"`
	Remote           string     `json:"remote"            db:"remote"`
	MinScore         int        `json:"min_score"         db:"min_score"`
	MaxAgeDays       *int       `json:"max_age_days"      db:"max_age_days"`
	OnlyActive       bool       `json:"only_active"       db:"only_active"`
	SendLimit        int        `json:"send_limit"        db:"send_limit"`
	FrequencyMinutes int        `json:"frequency_minutes" db:"frequency_minutes"`
	IsActive         bool       `json:"is_active"         db:"is_active"`
	NextRunAt        time.Time  `json:"next_run_at"       db:"next_run_at"`
	LastRunAt        *time.Time `json:"last_run_at"       db:"last_run_at"`
	LastSentAt       *time.Time `json:"last_sent_at"      db:"last_sent_at"`
	CreatedAt        time.Time  `json:"created_at"        db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"        db:"updated_at"`
}

// AlertSeenJob is the append-only per-alert notification memory. A job key
// present here is permanently excluded from that alert's future notifications.
type AlertSeenJob struct {
	ID          int64     `json:"id"            db:"id"`
	AlertID     int64     `json:"alert_id"      db:"alert_id"`
	JobKey      string    `json:"job_key"       db:"job_key"`
	FirstSeenAt time.Time `json:"first_seen_at" db:"first_seen_at"`
}

// AlertDelivery is an append-only audit row per scheduler run per alert.
type AlertDelivery struct {
	ID        int64     `json:"id"         db:"id"`
	AlertID   int64     `json:"alert_id"   db:"alert_id"`
	SentAt    time.Time `json:"sent_at"    db:"sent_at"`
	Status    string    `json:"status"     db:"status"`
	JobsCount int       `json:"jobs_count" db:"jobs_count"`
	Subject   *string   `json:"subject"    db:"subject"`
	ErrorText *string   `json:"error_text" db:"error_text"`
}

// AlertFilters is the canonicalized filter set for one alert. Produce it with
// CanonicalizeAlertFilters; the zero value is not canonical.
type AlertFilters struct {
	Cities           []string
	Keywords         []string
	TitleKeywords    []string
	Provider         *string
	Remote           string
	MinScore         int
	MaxAgeDays       *int
	OnlyActive       bool
	SendLimit        int
	FrequencyMinutes int
}

// UpsertAlertRequest carries one alert submission. Lists accept comma-joined
// values inside elements; everything is canonicalized before hashing.
type UpsertAlertRequest struct {
	Email            string   `json:"email"`
	Name             string   `json:"name,omitempty"`
	Cities           []string `json:"cities,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	TitleKeywords    []string `json:"title_keywords,omitempty"`
	Provider         string   `json:"provider,omitempty"`
	Remote           string   `json:"remote,omitempty"`
	MinScore         int      `json:"min_score,omitempty"`
	MaxAgeDays       *int     `json:"max_age_days,omitempty"`
	OnlyActive       *bool    `json:"only_active,omitempty"`
	SendLimit        *int     `json:"send_limit,omitempty"`
	FrequencyMinutes *int     `json:"frequency_minutes,omitempty"`
}

// ErrEmailRequired is returned when an alert operation lacks a usable email.
var ErrEmailRequired = errors.New("email is required")

// Validate checks whole-operation preconditions for an alert submission.
func (r *UpsertAlertRequest) Validate() error {
	if NormalizeEmail(r.Email) == "" {
		return ErrEmailRequired
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email for identity comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CanonicalizeAlertFilters produces the canonical filter set: lists are
// comma-split, trimmed, case-insensitively deduped and sorted; scalar values
// normalized and clamped. Two logically equivalent submissions canonicalize to
// identical AlertFilters and therefore identical filter hashes.
func (r *UpsertAlertRequest) CanonicalizeAlertFilters() AlertFilters {
	var provider *string
	if p := strings.ToLower(strings.TrimSpace(r.Provider)); p != "" {
		provider = &p
	}
	remote := strings.ToLower(strings.TrimSpace(r.Remote))
	if remote == "" {
		remote = "any"
	}
	onlyActive := true
	if r.OnlyActive != nil {
		onlyActive = *r.OnlyActive
	}
	sendLimit := DefaultSendLimit
	if r.SendLimit != nil {
		sendLimit = *r.SendLimit
	}
	frequency := DefaultFrequencyMins
	if r.FrequencyMinutes != nil {
		frequency = *r.FrequencyMinutes
	}
	return AlertFilters{
		Cities:           NormalizeTextList(r.Cities),
		Keywords:         NormalizeTextList(r.Keywords),
		TitleKeywords:    NormalizeTextList(r.TitleKeywords),
		Provider:         provider,
		Remote:           remote,
		MinScore:         clampInt(r.MinScore, MinScoreFloor, MinScoreCeil),
		MaxAgeDays:       r.MaxAgeDays,
		OnlyActive:       onlyActive,
		SendLimit:        clampInt(sendLimit, SendLimitFloor, SendLimitCeil),
		FrequencyMinutes: clampInt(frequency, FrequencyMinsFloor, FrequencyMinsCeil),
	}
}

// filterIdentity is the hashed subset of AlertFilters. Field order is
// alphabetical so the compact JSON encoding is byte-stable across runs.
type filterIdentity struct {
	Cities        []string `json:"cities"`
	Keywords      []string `json:"keywords"`
	MaxAgeDays    *int     `json:"max_age_days"`
	MinScore      int      `json:"min_score"`
	OnlyActive    bool     `json:"only_active"`
	Provider      *string  `json:"provider"`
	Remote        string   `json:"remote"`
	TitleKeywords []string `json:"title_keywords"`
}

// FilterHash returns the stable digest that forms half of the alert identity.
// Delivery knobs (send_limit, frequency_minutes) are deliberately excluded:
// changing them updates the existing alert instead of forking a new one.
func (f AlertFilters) FilterHash() string {
	identity := filterIdentity{
		Cities:        nonNil(f.Cities),
		Keywords:      nonNil(f.Keywords),
		MaxAgeDays:    f.MaxAgeDays,
		MinScore:      f.MinScore,
		OnlyActive:    f.OnlyActive,
		Provider:      f.Provider,
		Remote:        f.Remote,
		TitleKeywords: nonNil(f.TitleKeywords),
	}
	raw, err := json.Marshal(identity)
	if err != nil {
		// Marshal of a plain struct cannot fail; keep the identity total anyway.
		return sha1Hex("filters:unmarshalable")
	}
	return sha1Hex(string(raw))
}

// NormalizeTextList splits comma-joined elements, trims, drops empties,
// dedupes case-insensitively (first spelling wins) and sorts case-insensitively.
func NormalizeTextList(values []string) []string {
	raw := make([]string, 0, len(values))
	for _, item := range values {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				raw = append(raw, part)
			}
		}
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

func clampInt(v, floor, ceil int) int {
	if v < floor {
		return floor
	}
	if v > ceil {
		return ceil
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
