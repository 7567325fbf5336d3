package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/domain/model"
)

var workablePatterns = []string{
	"https://apply.workable.com/api/v3/accounts/%s/jobs",
	"https://apply.workable.com/api/v1/accounts/%s/jobs",
}

// Workable exposes multiple API shapes across accounts; the common ones are
// tried in order and the first pattern that yields jobs wins.
type Workable struct {
	f *fetcher

	patterns []string
}

func (p *Workable) Name() string { return "workable" }

func (p *Workable) Fetch(ctx context.Context, org string, _ core.FetchHints) ([]model.RawPosting, error) {
	patterns := p.patterns
	if patterns == nil {
		patterns = workablePatterns
	}
	for _, pattern := range patterns {
		data, err := p.f.getJSON(ctx, fmt.Sprintf(pattern, url.PathEscape(org)), nil)
		if err != nil {
			continue
		}

		results := workableResults(data)
		if results == nil {
			continue
		}

		var out []model.RawPosting
		for _, v := range results {
			j := asMap(v)
			if j == nil {
				continue
			}

			shortcode := strings.Trim(field(j, "shortcode"), "/")
			jobURL := field(j, "url", "application_url")
			if jobURL == "" && shortcode != "" {
				jobURL = fmt.Sprintf("https://apply.workable.com/%s/j/%s/", org, shortcode)
			}

			var remote *bool
			if wt := field(j, "workplace_type"); wt != "" {
				b := wt == "remote"
				remote = &b
			} else {
				remote = boolField(j, "remote")
			}

			out = append(out, model.RawPosting{
				ID:          field(j, "id", "shortcode", "slug"),
				Title:       field(j, "title"),
				Location:    workableLocation(j["location"]),
				URL:         jobURL,
				CreatedAt:   field(j, "published_at", "updated_at"),
				Remote:      remote,
				Description: field(j, "description"),
			})
		}
		if len(out) > 0 {
			return out, nil
		}
	}
	return nil, nil
}

func workableResults(data any) []any {
	if s := asSlice(data); s != nil {
		return s
	}
	m := asMap(data)
	if m == nil {
		return nil
	}
	for _, k := range []string{"results", "jobs", "data"} {
		if s := asSlice(m[k]); s != nil {
			return s
		}
		if nested := asMap(m[k]); nested != nil {
			for _, nk := range []string{"results", "jobs", "data"} {
				if s := asSlice(nested[nk]); s != nil {
					return s
				}
			}
		}
	}
	return nil
}

func workableLocation(v any) string {
	loc := asMap(v)
	if loc == nil {
		return stringify(v)
	}
	var parts []string
	for _, k := range []string{"city", "region", "country"} {
		s := field(loc, k)
		if k == "region" && s == "" {
			s = field(loc, "state")
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
