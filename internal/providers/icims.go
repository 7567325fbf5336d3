package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/domain/model"
)

var icimsPatterns = []string{
	"https://careers-%s.icims.com/jobs/search",
	"https://%s.icims.com/jobs/search",
}

// ICIMS probes the common iCIMS search endpoint shapes.
type ICIMS struct {
	f *fetcher

	patterns []string
}

func (p *ICIMS) Name() string { return "icims" }

func (p *ICIMS) Fetch(ctx context.Context, org string, _ core.FetchHints) ([]model.RawPosting, error) {
	patterns := p.patterns
	if patterns == nil {
		patterns = icimsPatterns
	}

	var out []model.RawPosting
	for _, pattern := range patterns {
		endpoint := fmt.Sprintf(pattern, url.PathEscape(org))
		data, err := p.f.getJSON(ctx, endpoint, url.Values{"pr": {"0"}, "format": {"json"}})
		if err != nil {
			continue
		}

		jobList := asSlice(data)
		if m := asMap(data); m != nil {
			jobList = asSlice(m["searchResults"])
			if jobList == nil {
				jobList = asSlice(m["jobs"])
			}
		}

		for _, v := range jobList {
			j := asMap(v)
			if j == nil {
				continue
			}
			out = append(out, model.RawPosting{
				ID:          field(j, "jobId", "id"),
				Title:       field(j, "jobTitle", "title"),
				Location:    field(j, "jobLocation", "location"),
				URL:         field(j, "jobUrl", "url"),
				CreatedAt:   field(j, "postedDate", "datePosted"),
				Description: field(j, "jobDescription"),
			})
		}
	}
	return out, nil
}
