package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearch struct {
	mu      sync.Mutex
	queries []map[string]string
	results map[string]map[string]any // keyed on the q parameter
}

func (s *stubSearch) Search(_ context.Context, params map[string]string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, params)
	if res, ok := s.results[params["q"]]; ok {
		return res, nil
	}
	return map[string]any{"organic_results": []any{}}, nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *memCache) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok, nil
}

func (c *memCache) Health(context.Context) error { return nil }

func organic(items ...map[string]any) map[string]any {
	list := make([]any, len(items))
	for i, item := range items {
		list[i] = item
	}
	return map[string]any{"organic_results": list}
}

func newTestDiscovery(search *stubSearch, cache *memCache, cfg DiscoveryConfig) *DiscoveryService {
	return NewDiscoveryService(DiscoveryServiceOptions{
		Search: search,
		Cache:  cache,
		Config: cfg,
		Logger: testLogger(),
	})
}

func TestDiscoverRequiresAPIKey(t *testing.T) {
	svc := newTestDiscovery(&stubSearch{}, nil, DiscoveryConfig{})
	_, err := svc.Discover(context.Background(), DiscoverOptions{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestDiscoverExtractsAndDedupes(t *testing.T) {
	search := &stubSearch{results: map[string]map[string]any{}}
	svc := newTestDiscovery(search, nil, DiscoveryConfig{APIKey: "k"})

	// default or-modes fold two providers and all city spellings into one query
	q := `(site:boards.greenhouse.io OR site:jobs.lever.co) ("Tel Aviv" OR "tel-aviv" OR "tel aviv-yafo" OR "tel aviv yafo") golang`
	search.results[q] = organic(
		map[string]any{"link": "https://boards.greenhouse.io/acme", "snippet": "Careers in Tel Aviv"},
		map[string]any{"link": "https://boards.greenhouse.io/acme/jobs/1"}, // duplicate org
		map[string]any{"link": "https://jobs.lever.co/globex/abc-123"},
		map[string]any{"link": "https://boards.greenhouse.io/jobs"}, // reserved slug
		map[string]any{"link": "https://example.com/careers"},      // unknown host
	)

	out, err := svc.Discover(context.Background(), DiscoverOptions{
		Cities:   []string{"Tel Aviv"},
		Keywords: []string{"golang"},
		Sources:  []string{"greenhouse", "lever"},
	})
	require.NoError(t, err)

	require.Len(t, search.queries, 1)
	assert.Equal(t, q, search.queries[0]["q"])
	assert.Equal(t, "google", search.queries[0]["engine"])
	assert.Equal(t, "100", search.queries[0]["num"])

	require.Len(t, out, 2)
	assert.Equal(t, DiscoveredCompany{
		Name: "acme", Org: "acme", Provider: "greenhouse",
		CareersURL: "https://boards.greenhouse.io/acme", City: "Tel Aviv",
	}, out[0])
	assert.Equal(t, "globex", out[1].Org)
	assert.Equal(t, "lever", out[1].Provider)
	assert.Equal(t, "https://jobs.lever.co/globex", out[1].CareersURL)
}

func TestDiscoverSplitModesFanOut(t *testing.T) {
	search := &stubSearch{}
	svc := newTestDiscovery(search, nil, DiscoveryConfig{
		APIKey:       "k",
		CityMode:     "split",
		ProviderMode: "per-provider",
	})

	_, err := svc.Discover(context.Background(), DiscoverOptions{
		Cities:  []string{"Herzliya", "Netanya"},
		Sources: []string{"greenhouse", "lever"},
	})
	require.NoError(t, err)

	// 2 providers x (2 cities + their alias spellings)
	var qs []string
	for _, params := range search.queries {
		qs = append(qs, params["q"])
	}
	assert.Contains(t, qs, `site:boards.greenhouse.io "Herzliya"`)
	assert.Contains(t, qs, `site:jobs.lever.co "Netanya"`)
}

func TestDiscoverHostHintRejectsForeignLinks(t *testing.T) {
	search := &stubSearch{results: map[string]map[string]any{
		`site:boards.greenhouse.io`: organic(
			map[string]any{"link": "https://jobs.lever.co/globex"},
		),
	}}
	svc := newTestDiscovery(search, nil, DiscoveryConfig{APIKey: "k", ProviderMode: "per-provider"})

	out, err := svc.Discover(context.Background(), DiscoverOptions{Sources: []string{"greenhouse"}})
	require.NoError(t, err)
	assert.Empty(t, out, "a greenhouse-scoped query must not yield lever orgs")
}

func TestDiscoverVendorCareersURLs(t *testing.T) {
	search := &stubSearch{results: map[string]map[string]any{
		`(site:comeet.com OR site:myworkdayjobs.com)`: organic(
			map[string]any{"link": "https://app.comeet.com/jobs/acme-co/A1.234?ref=x"},
			map[string]any{"link": "https://corp.wd5.myworkdayjobs.com/en-US/External/job/Israel/Engineer_R1"},
		),
	}}
	svc := newTestDiscovery(search, nil, DiscoveryConfig{APIKey: "k"})

	out, err := svc.Discover(context.Background(), DiscoverOptions{Sources: []string{"comeet", "workday"}})
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, "comeet", out[0].Provider)
	assert.Equal(t, "acme-co", out[0].Org)
	assert.Equal(t, "https://www.comeet.com/jobs/acme-co/A1.234", out[0].CareersURL)

	assert.Equal(t, "workday", out[1].Provider)
	assert.Equal(t, "external", out[1].Org)
	assert.Equal(t, "https://corp.wd5.myworkdayjobs.com/en-US/External/job/Israel/Engineer_R1", out[1].CareersURL)
}

func TestDiscoverLimitStopsEarly(t *testing.T) {
	search := &stubSearch{results: map[string]map[string]any{
		`site:boards.greenhouse.io`: organic(
			map[string]any{"link": "https://boards.greenhouse.io/one-co"},
			map[string]any{"link": "https://boards.greenhouse.io/two-co"},
			map[string]any{"link": "https://boards.greenhouse.io/three-co"},
		),
	}}
	svc := newTestDiscovery(search, nil, DiscoveryConfig{APIKey: "k"})

	out, err := svc.Discover(context.Background(), DiscoverOptions{Sources: []string{"greenhouse"}, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestDiscoverCachesResponses(t *testing.T) {
	search := &stubSearch{results: map[string]map[string]any{
		`site:boards.greenhouse.io`: organic(
			map[string]any{"link": "https://boards.greenhouse.io/acme"},
		),
	}}
	cache := newMemCache()
	svc := newTestDiscovery(search, cache, DiscoveryConfig{APIKey: "k", CacheTTL: time.Hour})

	opts := DiscoverOptions{Sources: []string{"greenhouse"}}
	first, err := svc.Discover(context.Background(), opts)
	require.NoError(t, err)
	second, err := svc.Discover(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, search.queries, 1, "the repeat pass is served from cache")

	// NoCache bypasses the local cache and changes the parameter set
	svc = newTestDiscovery(search, cache, DiscoveryConfig{APIKey: "k", CacheTTL: time.Hour, NoCache: true})
	_, err = svc.Discover(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, search.queries, 2)
	assert.Equal(t, "true", search.queries[1]["no_cache"])
}

func TestSearchCacheKeyStable(t *testing.T) {
	a := searchCacheKey(searchEndpoint, map[string]string{"q": "x", "num": "100"})
	b := searchCacheKey(searchEndpoint, map[string]string{"num": "100", "q": "x"})
	c := searchCacheKey(searchEndpoint, map[string]string{"q": "y", "num": "100"})
	assert.Equal(t, a, b, "parameter order must not change the key")
	assert.NotEqual(t, a, c)
}

func TestExtractOrgFromURL(t *testing.T) {
	cases := []struct {
		provider string
		link     string
		want     string
	}{
		{"greenhouse", "https://boards.greenhouse.io/acme", "acme"},
		{"greenhouse", "https://boards.greenhouse.io/jobs", ""},
		{"lever", "https://jobs.lever.co/globex/abc", "globex"},
		{"comeet", "https://www.comeet.com/jobs/acme-co/12.3", "acme-co"},
		{"comeet", "https://www.comeet.com/careers", ""},
		{"icims", "https://careers-acme.icims.com/jobs/search", "acme"},
		{"icims", "https://careers.icims.com/jobs/search", ""},
		{"icims", "https://icims.com/initech", "initech"},
		{"workday", "https://acme.wd5.myworkdayjobs.com", "acme"},
		{"workday", "https://corp.myworkdayjobs.com/en-US/ExternalSite/job/R1", "externalsite"},
		{"workday", "https://corp.myworkdayjobs.com/wday/cxs/inline/initech/jobs", "initech"},
		{"workday", "https://corp.myworkdayjobs.com/careers", "corp"},
		{"workable", "https://apply.workable.com/acme/j/ABC/", "acme"},
		{"greenhouse", "https://boards.greenhouse.io/x", ""},  // one char
		{"greenhouse", "https://boards.greenhouse.io/42", ""}, // no letters
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, extractOrgFromURL(tc.provider, tc.link), "%s %s", tc.provider, tc.link)
	}
}

func TestIsValidOrgSlug(t *testing.T) {
	assert.True(t, isValidOrgSlug("acme"))
	assert.True(t, isValidOrgSlug("acme-co_2"))
	assert.False(t, isValidOrgSlug("careers"))
	assert.False(t, isValidOrgSlug("a"))
	assert.False(t, isValidOrgSlug("a1"))
	assert.False(t, isValidOrgSlug("-acme"))
	assert.False(t, isValidOrgSlug("acme-"))
	assert.False(t, isValidOrgSlug(""))
}

func TestExtractCityFromResult(t *testing.T) {
	item := map[string]any{
		"title":   "Engineering jobs",
		"snippet": "Open roles in Israel and Ra'anana",
	}
	got := extractCityFromResult(item, []string{"Israel", "Raanana"})
	assert.Equal(t, "Raanana", got, "a concrete city outranks the country")

	got = extractCityFromResult(map[string]any{"snippet": "Roles in Israel"}, []string{"Israel", "Haifa"})
	assert.Equal(t, "Israel", got)

	got = extractCityFromResult(item, nil)
	assert.Empty(t, got)
}

func TestNormalizeComeetCareersURL(t *testing.T) {
	assert.Equal(t, "https://www.comeet.com/jobs/acme/U1",
		normalizeComeetCareersURL("https://app.comeet.com/jobs/acme/U1/extra"))
	assert.Equal(t, "https://www.comeet.com/jobs/acme",
		normalizeComeetCareersURL("https://www.comeet.com/jobs/acme"))
	assert.Equal(t, "https://careers.acme.io/positions",
		normalizeComeetCareersURL("https://careers.acme.io/positions/123"))
	assert.Empty(t, normalizeComeetCareersURL(""))
}
