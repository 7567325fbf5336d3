package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/domain/model"
)

const breezyAPI = "https://%s.breezy.hr/api/v3/positions"

// Breezy fetches from Breezy HR. Most orgs require authentication; a failed
// request means no public board, not an error.
type Breezy struct {
	f *fetcher

	api string
}

func (p *Breezy) Name() string { return "breezy" }

func (p *Breezy) Fetch(ctx context.Context, org string, _ core.FetchHints) ([]model.RawPosting, error) {
	data, err := p.f.getJSON(ctx, fmt.Sprintf(orDefault(p.api, breezyAPI), url.PathEscape(org)), nil)
	if err != nil {
		return nil, nil
	}

	var out []model.RawPosting
	for _, v := range asSlice(data) {
		j := asMap(v)
		if j == nil {
			continue
		}
		location := field(j, "location")
		if loc := asMap(j["location"]); loc != nil {
			location = field(loc, "name")
		}
		out = append(out, model.RawPosting{
			ID:          field(j, "id"),
			Title:       field(j, "name"),
			Location:    location,
			URL:         field(j, "url", "public_url"),
			CreatedAt:   field(j, "created_at", "published_at"),
			Remote:      boolField(j, "remote"),
			Description: field(j, "description"),
		})
	}
	return out, nil
}
