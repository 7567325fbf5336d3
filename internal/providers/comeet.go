package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/net/html"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/domain/model"
)

const (
	comeetPositionsAPI = "https://www.comeet.co/careers-api/2.0/company/%s/positions"
	comeetJobsPage     = "https://www.comeet.com/jobs/%s"
)

// Comeet tries the public positions endpoint first. Most companies gate it
// behind a session token embedded in their careers page, so on failure the
// adapter scrapes the page, pulls the token and company uid out of the
// embedded JSON blob, and retries with the token. Any scrape or parse failure
// means no public board, not an error.
type Comeet struct {
	f *fetcher

	positionsAPI string
	jobsPage     string
}

func (p *Comeet) Name() string { return "comeet" }

func (p *Comeet) Fetch(ctx context.Context, org string, hints core.FetchHints) ([]model.RawPosting, error) {
	positionsAPI := orDefault(p.positionsAPI, comeetPositionsAPI)
	params := url.Values{"details": {"false"}}

	data, err := p.f.getJSON(ctx, fmt.Sprintf(positionsAPI, url.PathEscape(org)), params)
	if err == nil {
		if out := comeetPositions(asSlice(data)); len(out) > 0 {
			return out, nil
		}
	}

	pageURL := hints.CareersURL
	if pageURL == "" {
		pageURL = fmt.Sprintf(orDefault(p.jobsPage, comeetJobsPage), url.PathEscape(org))
	}
	page, _, err := p.f.getHTML(ctx, pageURL)
	if err != nil {
		return nil, nil
	}

	blob := comeetEmbeddedJSON(page)
	if blob == nil {
		return nil, nil
	}
	token, _ := jmespath.Search("company.token", blob)
	uid, _ := jmespath.Search("company.uid", blob)

	tokenStr := stringify(token)
	uidStr := stringify(uid)
	if uidStr == "" {
		uidStr = org
	}
	if tokenStr == "" {
		return nil, nil
	}

	params.Set("token", tokenStr)
	data, err = p.f.getJSON(ctx, fmt.Sprintf(positionsAPI, url.PathEscape(uidStr)), params)
	if err != nil {
		return nil, nil
	}
	return comeetPositions(asSlice(data)), nil
}

// comeetEmbeddedJSON finds the COMEET_DATA assignment inside a script tag and
// decodes the object literal that follows it.
func comeetEmbeddedJSON(page string) any {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil
	}

	var blob any
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if blob != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" && n.FirstChild != nil {
			text := n.FirstChild.Data
			if idx := strings.Index(text, "COMEET_DATA"); idx >= 0 {
				start := strings.Index(text[idx:], "{")
				end := strings.LastIndex(text, "}")
				if start >= 0 && idx+start < end {
					var v any
					if json.Unmarshal([]byte(text[idx+start:end+1]), &v) == nil {
						blob = v
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return blob
}

func comeetPositions(list []any) []model.RawPosting {
	var out []model.RawPosting
	for _, v := range list {
		j := asMap(v)
		if j == nil {
			continue
		}

		loc := asMap(j["location"])
		location := field(loc, "name")
		if location == "" {
			location = strings.Trim(field(loc, "city")+", "+field(loc, "country"), ", ")
		}

		remote := strings.EqualFold(field(j, "workplace_type"), "remote")
		out = append(out, model.RawPosting{
			ID:        field(j, "uid"),
			Title:     field(j, "name"),
			Location:  location,
			URL:       field(j, "url_active_page", "url_comeet_hosted_page"),
			CreatedAt: field(j, "time_updated"),
			Remote:    &remote,
		})
	}
	return out
}
