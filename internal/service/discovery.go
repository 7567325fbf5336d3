package service

import (
	"context"
	"crypto/sha1" //nolint:gosec // cache key digest, not security
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/domain/match"
)

// ErrMissingAPIKey is returned when discovery runs without a search API key.
var ErrMissingAPIKey = errors.New("discovery requires a search API key")

const searchEndpoint = "https://serpapi.com/search.json"

// Discovery result page size bounds imposed by the search engine.
const (
	discoverNumFloor   = 10
	discoverNumCeil    = 100
	discoverNumDefault = 100
)

const defaultDiscoverLimit = 50

// DiscoveryConfig tunes the company discovery pass.
type DiscoveryConfig struct {
	// APIKey authenticates against the search API. Required.
	APIKey string
	// NumResults per query, clamped to [10, 100]. Zero means 100.
	NumResults int
	// NoCache asks the search engine for fresh results and bypasses the
	// local response cache.
	NoCache bool
	// CityMode "or" (default) folds all cities into one query;
	// "split" issues one query per city.
	CityMode string
	// ProviderMode "or" (default) folds all provider site: clauses into one
	// query; anything else issues one query per provider.
	ProviderMode string
	// CacheTTL bounds the local response cache. Zero or less disables it.
	CacheTTL time.Duration
}

// DiscoveryService finds companies hosting boards on known ATS vendors via
// web search over the vendors' public hostnames.
type DiscoveryService struct {
	search core.SearchClient
	cache  core.CacheRepository
	cfg    DiscoveryConfig
	logger *slog.Logger
}

// DiscoveryServiceOptions contains dependencies for DiscoveryService.
type DiscoveryServiceOptions struct {
	Search core.SearchClient
	Cache  core.CacheRepository
	Config DiscoveryConfig
	Logger *slog.Logger
}

// NewDiscoveryService creates a DiscoveryService with the given options.
func NewDiscoveryService(opts DiscoveryServiceOptions) *DiscoveryService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &DiscoveryService{
		search: opts.Search,
		cache:  opts.Cache,
		cfg:    opts.Config,
		logger: opts.Logger,
	}
}

// DiscoverOptions parameterizes one discovery pass.
type DiscoverOptions struct {
	Cities   []string
	Keywords []string
	// Sources restricts the searched providers; empty means all known.
	Sources []string
	// Limit caps the number of discovered companies. Zero means 50.
	Limit int
}

// DiscoveredCompany is one board found by discovery.
type DiscoveredCompany struct {
	Name       string `json:"name"`
	Org        string `json:"org"`
	Provider   string `json:"provider"`
	CareersURL string `json:"careers_url"`
	City       string `json:"city,omitempty"`
}

// Discover issues provider-site search queries and extracts deduplicated
// (provider, org) pairs from the result links. Results preserve query order;
// the pass stops as soon as the limit is reached.
func (s *DiscoveryService) Discover(ctx context.Context, opts DiscoverOptions) ([]DiscoveredCompany, error) {
	if s.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultDiscoverLimit
	}
	sources := opts.Sources
	if len(sources) == 0 {
		sources = providerOrder
	}

	citiesExpanded := match.ExpandCityAliases(match.CleanList(opts.Cities))
	qKeywords := strings.Join(match.CleanList(opts.Keywords), " ")

	num := s.cfg.NumResults
	if num <= 0 {
		num = discoverNumDefault
	}
	num = min(max(num, discoverNumFloor), discoverNumCeil)

	combineCities := strings.ToLower(strings.TrimSpace(s.cfg.CityMode)) != "split"
	combineProviders := providerModeOr(s.cfg.ProviderMode)
	cityQueries := buildCityQueries(citiesExpanded, combineCities)
	providerQueries := buildProviderQueries(sources, combineProviders)

	seen := make(map[[2]string]struct{})
	var out []DiscoveredCompany

	for _, pq := range providerQueries {
		hostHint := ""
		if pq.provider != "" {
			hostHint = providerHosts[pq.provider]
		}
		for _, cq := range cityQueries {
			var qParts []string
			if pq.clause != "" {
				qParts = append(qParts, pq.clause)
			}
			if cq.clause != "" {
				qParts = append(qParts, cq.clause)
			}
			if qKeywords != "" {
				qParts = append(qParts, qKeywords)
			}
			params := map[string]string{
				"engine":  "google",
				"q":       strings.Join(qParts, " "),
				"num":     strconv.Itoa(num),
				"hl":      "en",
				"api_key": s.cfg.APIKey,
			}
			if s.cfg.NoCache {
				params["no_cache"] = "true"
			}

			data, err := s.cachedSearch(ctx, params)
			if err != nil {
				return nil, err
			}

			for _, v := range toSlice(data["organic_results"]) {
				item, ok := v.(map[string]any)
				if !ok {
					continue
				}
				link, _ := item["link"].(string)
				if link == "" {
					continue
				}
				provider := pq.provider
				if provider == "" {
					provider = providerFromURL(link)
				}
				if provider == "" {
					continue
				}
				host, ok := providerHosts[provider]
				if !ok {
					continue
				}
				if hostHint != "" && !strings.Contains(link, hostHint) {
					continue
				}
				org := extractOrgFromURL(provider, link)
				if org == "" {
					continue
				}
				key := [2]string{provider, org}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}

				city := cq.city
				if city == "" {
					city = extractCityFromResult(item, citiesExpanded)
				}
				var careersURL string
				switch provider {
				case "comeet":
					careersURL = normalizeComeetCareersURL(link)
					if careersURL == "" {
						careersURL = link
					}
				case "workday":
					careersURL = link
				default:
					careersURL = "https://" + host + "/" + org
				}
				out = append(out, DiscoveredCompany{
					Name:       org,
					Org:        org,
					Provider:   provider,
					CareersURL: careersURL,
					City:       city,
				})
				if len(out) >= limit {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

// cachedSearch wraps the search client with the local response cache. The
// cache key covers the full endpoint and parameter set, so any query change
// misses.
func (s *DiscoveryService) cachedSearch(ctx context.Context, params map[string]string) (map[string]any, error) {
	useCache := s.cache != nil && s.cfg.CacheTTL > 0 && !s.cfg.NoCache
	key := searchCacheKey(searchEndpoint, params)

	if useCache {
		raw, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("search cache read failed", "error", err)
		} else if raw != nil {
			var payload map[string]any
			if json.Unmarshal(raw, &payload) == nil {
				return payload, nil
			}
		}
	}

	data, err := s.search.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	if useCache {
		if raw, err := json.Marshal(data); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.cfg.CacheTTL); err != nil {
				s.logger.Warn("search cache write failed", "error", err)
			}
		}
	}
	return data, nil
}

// searchCacheKey digests the endpoint and the sorted parameter pairs. The
// JSON encoding is compact with alphabetical keys so the digest is stable.
func searchCacheKey(endpoint string, params map[string]string) string {
	pairs := make([][2]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, [2]string{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	payload := struct {
		Params [][2]string `json:"params"`
		URL    string      `json:"url"`
	}{Params: pairs, URL: endpoint}
	raw, _ := json.Marshal(payload)
	sum := sha1.Sum(raw) //nolint:gosec // cache key digest, not security
	return "serpapi:" + hex.EncodeToString(sum[:])
}

type cityQuery struct {
	clause string
	// city is set when the clause names exactly one city.
	city string
}

func buildCityQueries(cities []string, combine bool) []cityQuery {
	var cleaned []string
	seen := map[string]struct{}{}
	for _, c := range cities {
		c = strings.TrimSpace(strings.ReplaceAll(c, `"`, ""))
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, c)
	}

	if len(cleaned) == 0 {
		return []cityQuery{{}}
	}
	if combine && len(cleaned) > 1 {
		quoted := make([]string, len(cleaned))
		for i, c := range cleaned {
			quoted[i] = `"` + c + `"`
		}
		return []cityQuery{{clause: "(" + strings.Join(quoted, " OR ") + ")"}}
	}
	out := make([]cityQuery, len(cleaned))
	for i, c := range cleaned {
		out[i] = cityQuery{clause: `"` + c + `"`, city: c}
	}
	return out
}

type providerQuery struct {
	// provider is set when the clause targets exactly one provider.
	provider string
	clause   string
}

func buildProviderQueries(providers []string, combine bool) []providerQuery {
	var cleaned []string
	seen := map[string]struct{}{}
	for _, p := range providers {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		if _, known := providerHosts[p]; !known {
			continue
		}
		seen[p] = struct{}{}
		cleaned = append(cleaned, p)
	}

	if len(cleaned) == 0 {
		return nil
	}
	if combine && len(cleaned) > 1 {
		sites := make([]string, len(cleaned))
		for i, p := range cleaned {
			sites[i] = "site:" + providerHosts[p]
		}
		return []providerQuery{{clause: "(" + strings.Join(sites, " OR ") + ")"}}
	}
	out := make([]providerQuery, len(cleaned))
	for i, p := range cleaned {
		out[i] = providerQuery{provider: p, clause: "site:" + providerHosts[p]}
	}
	return out
}

func providerModeOr(mode string) bool {
	m := strings.ToLower(strings.TrimSpace(mode))
	return m == "" || m == "or"
}

func toSlice(v any) []any {
	s, _ := v.([]any)
	return s
}
