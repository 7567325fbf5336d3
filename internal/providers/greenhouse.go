package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/domain/model"
)

const greenhouseAPI = "https://boards-api.greenhouse.io/v1/boards/%s/jobs"

// Greenhouse fetches from the public Greenhouse board API.
type Greenhouse struct {
	f *fetcher

	// api overrides the endpoint pattern in tests.
	api string
}

func (p *Greenhouse) Name() string { return "greenhouse" }

func (p *Greenhouse) Fetch(ctx context.Context, org string, _ core.FetchHints) ([]model.RawPosting, error) {
	endpoint := fmt.Sprintf(orDefault(p.api, greenhouseAPI), url.PathEscape(org))
	data, err := p.f.getJSON(ctx, endpoint, url.Values{"content": {"true"}})
	if err != nil {
		return nil, err
	}

	var out []model.RawPosting
	for _, v := range asSlice(asMap(data)["jobs"]) {
		j := asMap(v)
		if j == nil {
			continue
		}
		out = append(out, model.RawPosting{
			ID:          field(j, "id"),
			Title:       field(j, "title"),
			Location:    field(asMap(j["location"]), "name"),
			URL:         field(j, "absolute_url"),
			CreatedAt:   field(j, "updated_at", "created_at"),
			Description: field(j, "content"),
		})
	}
	return out, nil
}
