package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/domain/model"
)

const (
	smartRecruitersListAPI   = "https://api.smartrecruiters.com/v1/companies/%s/postings"
	smartRecruitersDetailAPI = "https://api.smartrecruiters.com/v1/companies/%s/postings/%s"
	smartRecruitersPageLimit = 100
	smartRecruitersWorkers   = 12
)

// SmartRecruiters fetches from the public postings API. The list endpoint
// omits the human posting URL, so each posting's detail record is resolved in
// a bounded pool; a failed detail lookup falls back to the API ref link.
type SmartRecruiters struct {
	f *fetcher

	listAPI   string
	detailAPI string
}

type smartRecruitersListing struct {
	pid       string
	fallback  string
	title     string
	location  string
	createdAt string
}

func (p *SmartRecruiters) Name() string { return "smartrecruiters" }

func (p *SmartRecruiters) Fetch(ctx context.Context, org string, _ core.FetchHints) ([]model.RawPosting, error) {
	endpoint := fmt.Sprintf(orDefault(p.listAPI, smartRecruitersListAPI), url.PathEscape(org))
	data, err := p.f.getJSON(ctx, endpoint, url.Values{"limit": {fmt.Sprint(smartRecruitersPageLimit)}})
	if err != nil {
		// The list endpoint 404s for unknown orgs; absent means no postings.
		return nil, nil
	}

	var listings []smartRecruitersListing
	for _, v := range asSlice(asMap(data)["content"]) {
		j := asMap(v)
		if j == nil {
			continue
		}
		loc := asMap(j["location"])
		var parts []string
		for _, k := range []string{"city", "country"} {
			if s := field(loc, k); s != "" {
				parts = append(parts, s)
			}
		}
		listings = append(listings, smartRecruitersListing{
			pid:       field(j, "id", "refNumber"),
			fallback:  field(j, "ref"),
			title:     field(j, "name"),
			location:  strings.Join(parts, ", "),
			createdAt: field(j, "releasedDate", "createdOn"),
		})
		if len(listings) >= smartRecruitersPageLimit {
			break
		}
	}
	if len(listings) == 0 {
		return nil, nil
	}

	urls := make([]string, len(listings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(smartRecruitersWorkers, len(listings)))
	for i, listing := range listings {
		i, listing := i, listing
		g.Go(func() error {
			urls[i] = p.resolveURL(gctx, org, listing)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]model.RawPosting, 0, len(listings))
	for i, listing := range listings {
		out = append(out, model.RawPosting{
			ID:        listing.pid,
			Title:     listing.title,
			Location:  listing.location,
			URL:       urls[i],
			CreatedAt: listing.createdAt,
		})
	}
	return out, nil
}

func (p *SmartRecruiters) resolveURL(ctx context.Context, org string, listing smartRecruitersListing) string {
	if listing.pid == "" {
		return listing.fallback
	}
	endpoint := fmt.Sprintf(orDefault(p.detailAPI, smartRecruitersDetailAPI), url.PathEscape(org), url.PathEscape(listing.pid))
	data, err := p.f.getJSON(ctx, endpoint, nil)
	if err != nil {
		return listing.fallback
	}
	if u := field(asMap(data), "postingUrl", "applyUrl"); u != "" {
		return u
	}
	return listing.fallback
}
