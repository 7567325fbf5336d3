package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/domain/model"
)

const leverAPI = "https://api.lever.co/v0/postings/%s?mode=json"

// Lever fetches from the public Lever postings API. Timestamps arrive as
// epoch milliseconds and are converted to ISO before normalization.
type Lever struct {
	f *fetcher

	api string
}

func (p *Lever) Name() string { return "lever" }

func (p *Lever) Fetch(ctx context.Context, org string, _ core.FetchHints) ([]model.RawPosting, error) {
	data, err := p.f.getJSON(ctx, fmt.Sprintf(orDefault(p.api, leverAPI), url.PathEscape(org)), nil)
	if err != nil {
		return nil, err
	}

	var out []model.RawPosting
	for _, v := range asSlice(data) {
		j := asMap(v)
		if j == nil {
			continue
		}

		created := epochMillisToISO(j["createdAt"])
		if created == "" {
			created = epochMillisToISO(j["updatedAt"])
		}

		// Section lists carry the closest thing to a description.
		desc := ""
		if lists := asSlice(j["lists"]); len(lists) > 0 {
			if b, merr := json.Marshal(lists); merr == nil {
				desc = string(b)
			}
		}

		out = append(out, model.RawPosting{
			ID:          field(j, "id", "data", "hostedUrl"),
			Title:       field(j, "text"),
			Location:    field(asMap(j["categories"]), "location"),
			URL:         field(j, "hostedUrl"),
			CreatedAt:   created,
			Description: desc,
		})
	}
	return out, nil
}

func epochMillisToISO(v any) string {
	s := stringify(v)
	if s == "" {
		return ""
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05") + "Z"
}
