package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/jobradar/jobradar/internal/domain/model"
)

// InferWorkMode classifies a posting from its title, location and remote flag.
// Hybrid wins over remote, remote over onsite, unknown when nothing matches.
func InferWorkMode(title, location string, remoteFlag *bool) string {
	titleLower := strings.ToLower(title)
	locationLower := strings.ToLower(location)
	if strings.Contains(titleLower, "hybrid") || strings.Contains(locationLower, "hybrid") {
		return model.WorkModeHybrid
	}
	if (remoteFlag != nil && *remoteFlag) ||
		strings.Contains(titleLower, "remote") ||
		strings.Contains(locationLower, "remote") ||
		strings.Contains(locationLower, "work from home") {
		return model.WorkModeRemote
	}
	if strings.Contains(titleLower, "onsite") || strings.Contains(titleLower, "on-site") ||
		strings.Contains(locationLower, "onsite") || strings.Contains(locationLower, "on-site") {
		return model.WorkModeOnsite
	}
	return model.WorkModeUnknown
}

// NormalizeRaw converts a vendor posting into a JobDraft: trims fields, falls
// back across vendor field variants carried in Extra, parses the timestamp,
// infers the work mode and extracts a salary range from the description.
func NormalizeRaw(company model.CompanyInput, provider string, raw model.RawPosting) model.JobDraft {
	org := company.Org
	if org == "" {
		org = company.Name
	}
	title := strings.TrimSpace(raw.Title)
	location := strings.TrimSpace(firstNonEmpty(raw.Location, extraString(raw.Extra, "city"), extraString(raw.Extra, "office")))
	url := strings.TrimSpace(firstNonEmpty(raw.URL, extraString(raw.Extra, "apply_url"), extraString(raw.Extra, "absolute_url")))
	id := strings.TrimSpace(firstNonEmpty(raw.ID, extraString(raw.Extra, "job_id"), url))
	if id == "" {
		id = fmt.Sprintf("%s:%s:%s", provider, org, title)
	}
	createdRaw := strings.TrimSpace(firstNonEmpty(raw.CreatedAt, extraString(raw.Extra, "updated_at"), extraString(raw.Extra, "published_at")))

	workMode := InferWorkMode(title, location, raw.Remote)
	remote := workMode == model.WorkModeRemote
	if raw.Remote != nil {
		remote = *raw.Remote
	}

	extra := make(map[string]any, len(raw.Extra)+3)
	for k, v := range raw.Extra {
		extra[k] = v
	}
	extra["work_mode"] = workMode
	if _, ok := extra["salary_min"]; !ok {
		if lo, hi := ExtractSalary(raw.Description); lo != nil {
			extra["salary_min"] = *lo
			if hi != nil {
				extra["salary_max"] = *hi
			}
		}
	}

	companyName := strings.TrimSpace(firstNonEmpty(company.Name, org))

	return model.JobDraft{
		ExternalID:  id,
		Title:       title,
		CompanyName: companyName,
		CompanyCity: strings.TrimSpace(company.City),
		Provider:    provider,
		Org:         org,
		Location:    location,
		URL:         url,
		CreatedAt:   ParseCreatedAt(createdRaw),
		Remote:      remote,
		WorkMode:    workMode,
		Description: raw.Description,
		Raw:         extra,
	}
}

// CityMatch reports whether any city appears as a case-insensitive substring
// of the location.
func CityMatch(location string, cities []string) bool {
	loc := strings.ToLower(location)
	for _, c := range cities {
		c2 := strings.ToLower(strings.TrimSpace(c))
		if c2 != "" && strings.Contains(loc, c2) {
			return true
		}
	}
	return false
}

// Dedupe collapses drafts sharing a dedupe key (external id, else URL) while
// preserving first-seen order. On collision the draft with the later parseable
// created_at wins; a dated draft always beats an undated one.
func Dedupe(drafts []model.JobDraft) []model.JobDraft {
	seen := make(map[string]model.JobDraft)
	order := make([]string, 0, len(drafts))
	keyless := make([]model.JobDraft, 0)
	for _, d := range drafts {
		key := d.ExternalID
		if key == "" {
			key = d.URL
		}
		if key == "" {
			keyless = append(keyless, d)
			continue
		}
		existing, ok := seen[key]
		if !ok {
			seen[key] = d
			order = append(order, key)
			continue
		}
		if laterCreated(d.CreatedAt, existing.CreatedAt) {
			seen[key] = d
		}
	}
	out := make([]model.JobDraft, 0, len(order)+len(keyless))
	out = append(out, keyless...)
	for _, key := range order {
		out = append(out, seen[key])
	}
	return out
}

func laterCreated(curr, prev *time.Time) bool {
	if curr == nil {
		return false
	}
	if prev == nil {
		return true
	}
	return curr.After(*prev)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func extraString(extra map[string]any, key string) string {
	if extra == nil {
		return ""
	}
	if v, ok := extra[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
