package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/domain/match"
	"github.com/jobradar/jobradar/internal/domain/model"
)

const (
	workdayAPIPath  = "https://%s/wday/cxs/%s/%s/jobs"
	workdayPageSize = 20
)

// The older inline endpoints answer for some tenants and need no token.
var workdayLegacyPatterns = []string{
	"https://%[1]s/wday/cxs/inline/%[2]s/jobpostings",
	"https://%[1]s/%[2]s/job",
}

var (
	workdayLocaleRe    = regexp.MustCompile(`^[a-z]{2}(?:-[A-Za-z]{2})?$`)
	workdayNumLocsRe   = regexp.MustCompile(`^\d+\s+Locations$`)
	workdayConfigKeys  = []string{"tenant", "siteId", "token", "requestLocale"}
	workdayConfigValRe = map[string]*regexp.Regexp{}
)

func init() {
	for _, key := range workdayConfigKeys {
		workdayConfigValRe[key] = regexp.MustCompile(regexp.QuoteMeta(key) + `\s*:\s*['"]([^'"]+)['"]`)
	}
}

// Workday paginates the cxs jobs endpoint. Tenant, site id and CSRF token
// come from the careers page HTML; wanted cities are mapped to server-side
// location facets via a one-row seed query.
type Workday struct {
	f *fetcher

	legacyPatterns []string
	apiPattern     string
}

func (p *Workday) Name() string { return "workday" }

func (p *Workday) Fetch(ctx context.Context, org string, hints core.FetchHints) ([]model.RawPosting, error) {
	baseURL := ensureURL(hints.CareersURL)
	if baseURL == "" {
		baseURL = "https://" + workdayHost(org, "")
	}

	legacyHost := workdayHost(org, baseURL)
	if jobs := p.fetchLegacy(ctx, org, legacyHost); len(jobs) > 0 {
		return jobs, nil
	}

	page, finalURL, err := p.f.getHTML(ctx, baseURL)
	if err != nil {
		return nil, nil
	}

	cfg := workdayScrapeConfig(page)
	tenant := cfg["tenant"]
	if tenant == "" {
		tenant = org
	}
	siteID := cfg["siteId"]
	token := cfg["token"]
	requestLocale := cfg["requestLocale"]

	effURL := finalURL
	if effURL == "" {
		effURL = baseURL
	}
	locale, siteFromURL := workdayLocaleAndSite(effURL)
	if siteID == "" {
		siteID = siteFromURL
	}
	if siteID == "" {
		siteID = org
	}

	host := hostOf(effURL)
	if host == "" {
		host = workdayHost(org, hints.CareersURL)
	}

	appliedFacets := map[string][]string{}
	var selectedLabels []string
	if len(hints.Cities) > 0 {
		// Seed query fetches the facet tree so cities map to facet ids.
		if seed, serr := p.postJobs(ctx, host, tenant, siteID, nil, 0, 1, token); serr == nil {
			appliedFacets, selectedLabels = matchLocationFacets(asSlice(seed["facets"]), hints.Cities)
		}
	} else if ids := workdayLocationIDs(effURL); len(ids) > 0 {
		appliedFacets = map[string][]string{"locations": ids}
	}

	var jobs []model.RawPosting
	offset := 0
	total := -1
	for {
		data, perr := p.postJobs(ctx, host, tenant, siteID, appliedFacets, offset, workdayPageSize, token)
		if perr != nil {
			break
		}
		if total < 0 {
			if n, ok := data["total"].(json.Number); ok {
				if v, ierr := n.Int64(); ierr == nil {
					total = int(v)
				}
			}
		}

		jobList := asSlice(data["jobPostings"])
		if len(jobList) == 0 {
			break
		}

		for _, v := range jobList {
			j := asMap(v)
			if j == nil {
				continue
			}
			jobs = append(jobs, workdayPosting(j, host, siteID, locale, requestLocale, selectedLabels))
		}

		offset += len(jobList)
		if total >= 0 && offset >= total {
			break
		}
		if len(jobList) < workdayPageSize {
			break
		}
	}
	return jobs, nil
}

func workdayPosting(j map[string]any, host, siteID, locale, requestLocale string, selectedLabels []string) model.RawPosting {
	externalPath := field(j, "externalPath")

	rawLocation := field(j, "locationsText", "location")
	location := rawLocation
	if location == "" || workdayNumLocsRe.MatchString(strings.TrimSpace(location)) {
		switch {
		case len(selectedLabels) > 0:
			location = strings.Join(selectedLabels, ", ")
		default:
			if fromPath := workdayLocationFromPath(externalPath); fromPath != "" {
				location = fromPath
			} else {
				location = rawLocation
			}
		}
	}

	jobURL := ""
	if externalPath != "" {
		if strings.HasPrefix(externalPath, "http") {
			jobURL = externalPath
		} else {
			useLocale := requestLocale
			if useLocale == "" {
				useLocale = locale
			}
			prefix := ""
			if useLocale != "" {
				prefix = "/" + useLocale
			}
			basePath := prefix
			switch {
			case siteID != "" && strings.Contains(externalPath, "/"+siteID+"/"):
				basePath = ""
			case siteID != "":
				basePath = prefix + "/" + siteID
			}
			ext := externalPath
			if !strings.HasPrefix(ext, "/") {
				ext = "/" + ext
			}
			jobURL = "https://" + host + basePath + ext
		}
	}

	id := ""
	if bullets := asSlice(j["bulletFields"]); len(bullets) > 0 {
		id = stringify(bullets[0])
	}
	if id == "" {
		id = field(j, "jobPostingId", "id")
	}
	if id == "" {
		id = externalPath
	}

	return model.RawPosting{
		ID:          id,
		Title:       field(j, "title", "jobTitle"),
		Location:    location,
		URL:         jobURL,
		CreatedAt:   field(j, "postedOn", "createdAt"),
		Remote:      boolField(j, "remote"),
		Description: field(j, "description"),
	}
}

func (p *Workday) fetchLegacy(ctx context.Context, org, host string) []model.RawPosting {
	patterns := p.legacyPatterns
	if patterns == nil {
		patterns = workdayLegacyPatterns
	}
	for _, pattern := range patterns {
		data, err := p.f.getJSON(ctx, fmt.Sprintf(pattern, host, url.PathEscape(org)), nil)
		if err != nil {
			continue
		}

		jobList := asSlice(data)
		if m := asMap(data); m != nil {
			for _, k := range []string{"jobPostings", "jobs", "data"} {
				if s := asSlice(m[k]); s != nil {
					jobList = s
					break
				}
			}
		}

		var jobs []model.RawPosting
		for _, v := range jobList {
			j := asMap(v)
			if j == nil {
				continue
			}
			location := field(j, "location")
			if location == "" {
				if locs := asSlice(j["locations"]); len(locs) > 0 {
					location = field(asMap(locs[0]), "name")
				}
			}
			jobs = append(jobs, model.RawPosting{
				ID:          field(j, "jobPostingId", "id", "externalPath"),
				Title:       field(j, "title", "jobTitle"),
				Location:    location,
				URL:         field(j, "externalPath", "url"),
				CreatedAt:   field(j, "postedOn", "createdAt"),
				Remote:      boolField(j, "remote"),
				Description: field(j, "description", "jobDescription"),
			})
		}
		if len(jobs) > 0 {
			return jobs
		}
	}
	return nil
}

func (p *Workday) postJobs(ctx context.Context, host, tenant, siteID string, facets map[string][]string, offset, limit int, token string) (map[string]any, error) {
	if facets == nil {
		facets = map[string][]string{}
	}
	endpoint := fmt.Sprintf(orDefault(p.apiPattern, workdayAPIPath), host, url.PathEscape(tenant), url.PathEscape(siteID))
	payload := map[string]any{
		"appliedFacets": facets,
		"limit":         limit,
		"offset":        offset,
		"searchText":    "",
	}
	headers := map[string]string{}
	if token != "" {
		headers["X-CALYPSO-CSRF-TOKEN"] = token
	}
	data, err := p.f.postJSON(ctx, endpoint, payload, headers)
	if err != nil {
		return nil, err
	}
	return asMap(data), nil
}

// workdayScrapeConfig pulls the embedded page config values out of script tags.
func workdayScrapeConfig(page string) map[string]string {
	cfg := map[string]string{}
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return cfg
	}

	var scripts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" && n.FirstChild != nil {
			scripts = append(scripts, n.FirstChild.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, key := range workdayConfigKeys {
		re := workdayConfigValRe[key]
		for _, s := range scripts {
			if m := re.FindStringSubmatch(s); m != nil {
				cfg[key] = m[1]
				break
			}
		}
	}
	return cfg
}

func matchLocationFacets(facets []any, cities []string) (map[string][]string, []string) {
	var locations, countries []map[string]any
	for _, fv := range facets {
		f := asMap(fv)
		if field(f, "facetParameter") != "locationMainGroup" {
			continue
		}
		for _, gv := range asSlice(f["values"]) {
			g := asMap(gv)
			switch field(g, "facetParameter") {
			case "locations":
				locations = mapsOf(asSlice(g["values"]))
			case "locationHierarchy1":
				countries = mapsOf(asSlice(g["values"]))
			}
		}
	}
	if len(locations) == 0 && len(countries) == 0 {
		return nil, nil
	}

	var cityNorms []string
	for _, c := range cities {
		if n := match.NormalizeText(c); n != "" {
			cityNorms = append(cityNorms, n)
		}
	}
	if len(cityNorms) == 0 {
		return nil, nil
	}

	var locIDs, locLabels, countryIDs, countryLabels []string
	for _, cn := range cityNorms {
		if cn == "israel" {
			for _, v := range countries {
				if match.NormalizeText(field(v, "descriptor")) != "israel" {
					continue
				}
				id := field(v, "id")
				if id == "" || containsString(countryIDs, id) {
					continue
				}
				countryIDs = append(countryIDs, id)
				label := field(v, "descriptor")
				if label == "" {
					label = "Israel"
				}
				countryLabels = append(countryLabels, label)
			}
			continue
		}
		for _, v := range locations {
			desc := field(v, "descriptor")
			if !strings.Contains(match.NormalizeText(desc), cn) {
				continue
			}
			id := field(v, "id")
			if id == "" || containsString(locIDs, id) {
				continue
			}
			locIDs = append(locIDs, id)
			locLabels = append(locLabels, desc)
		}
	}

	if len(locIDs) > 0 {
		return map[string][]string{"locations": locIDs}, locLabels
	}
	if len(countryIDs) > 0 {
		return map[string][]string{"locationHierarchy1": countryIDs}, countryLabels
	}
	return nil, nil
}

// workdayLocationFromPath recovers a location from paths like
// /job/Israel-Raanana/Engineer_R123.
func workdayLocationFromPath(externalPath string) string {
	if externalPath == "" {
		return ""
	}
	path := externalPath
	if unescaped, err := url.PathUnescape(externalPath); err == nil {
		path = unescaped
	}
	parts := splitPathSegments(path)
	if len(parts) == 0 {
		return ""
	}

	var loc string
	switch {
	case strings.EqualFold(parts[0], "job") && len(parts) > 1:
		loc = parts[1]
	case workdayLocaleRe.MatchString(parts[0]) && len(parts) > 2 && strings.EqualFold(parts[1], "job"):
		loc = parts[2]
	default:
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(loc, "-", " "))
}

func workdayHost(org, careersURL string) string {
	if careersURL != "" {
		if u, err := url.Parse(careersURL); err == nil {
			host := strings.ToLower(u.Host)
			if host != "" && strings.HasSuffix(host, "myworkdayjobs.com") {
				return host
			}
		}
	}
	return org + ".myworkdayjobs.com"
}

func workdayLocaleAndSite(raw string) (string, string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", ""
	}
	segs := splitPathSegments(u.Path)
	if len(segs) == 0 {
		return "", ""
	}
	if workdayLocaleRe.MatchString(segs[0]) {
		site := ""
		if len(segs) > 1 {
			site = segs[1]
		}
		return segs[0], site
	}
	return "", segs[0]
}

func workdayLocationIDs(raw string) []string {
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	var out []string
	for _, val := range u.Query()["locations"] {
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func ensureURL(u string) string {
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "https://" + strings.TrimLeft(u, "/")
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

func splitPathSegments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func mapsOf(values []any) []map[string]any {
	var out []map[string]any
	for _, v := range values {
		if m := asMap(v); m != nil {
			out = append(out, m)
		}
	}
	return out
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
