package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/domain/model"
)

const recruiteeAPI = "https://api.recruitee.com/c/%s/offers"

// Recruitee fetches from the public careers offers API.
type Recruitee struct {
	f *fetcher

	api string
}

func (p *Recruitee) Name() string { return "recruitee" }

func (p *Recruitee) Fetch(ctx context.Context, org string, _ core.FetchHints) ([]model.RawPosting, error) {
	data, err := p.f.getJSON(ctx, fmt.Sprintf(orDefault(p.api, recruiteeAPI), url.PathEscape(org)), nil)
	if err != nil {
		return nil, nil
	}

	offers := asSlice(data)
	if m := asMap(data); m != nil {
		offers = asSlice(m["offers"])
	}

	var out []model.RawPosting
	for _, v := range offers {
		j := asMap(v)
		if j == nil {
			continue
		}
		var parts []string
		for _, k := range []string{"city", "country"} {
			if s := field(j, k); s != "" {
				parts = append(parts, s)
			}
		}
		out = append(out, model.RawPosting{
			ID:          field(j, "id"),
			Title:       field(j, "title"),
			Location:    strings.Join(parts, ", "),
			URL:         field(j, "careers_url", "url"),
			CreatedAt:   field(j, "created_at", "published_at"),
			Remote:      boolField(j, "remote"),
			Description: field(j, "description"),
		})
	}
	return out, nil
}
