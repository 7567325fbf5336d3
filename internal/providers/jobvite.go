package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/domain/model"
)

// Jobvite has no single public endpoint shape; the common patterns are tried
// in order and results from every responding one are accumulated.
var jobvitePatterns = []string{
	"https://%s.jobvite.com/api/v2/jobs",
	"https://jobs.jobvite.com/%s/api/v2/jobs",
}

type Jobvite struct {
	f *fetcher

	patterns []string
}

func (p *Jobvite) Name() string { return "jobvite" }

func (p *Jobvite) Fetch(ctx context.Context, org string, _ core.FetchHints) ([]model.RawPosting, error) {
	patterns := p.patterns
	if patterns == nil {
		patterns = jobvitePatterns
	}

	var out []model.RawPosting
	for _, pattern := range patterns {
		data, err := p.f.getJSON(ctx, fmt.Sprintf(pattern, url.PathEscape(org)), nil)
		if err != nil {
			continue
		}

		jobList := asSlice(data)
		if m := asMap(data); m != nil {
			jobList = asSlice(m["jobs"])
			if jobList == nil {
				jobList = asSlice(m["positions"])
			}
		}

		for _, v := range jobList {
			j := asMap(v)
			if j == nil {
				continue
			}
			location := field(j, "location")
			if location == "" {
				location = strings.TrimSuffix(field(j, "city")+", "+field(j, "state"), ", ")
			}
			out = append(out, model.RawPosting{
				ID:          field(j, "id", "jobId"),
				Title:       field(j, "title", "jobTitle"),
				Location:    strings.TrimPrefix(location, ", "),
				URL:         field(j, "applyUrl", "url"),
				CreatedAt:   field(j, "date", "postedDate"),
				Remote:      boolField(j, "remote"),
				Description: field(j, "description"),
			})
		}
	}
	return out, nil
}
