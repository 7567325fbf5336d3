package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobradar/jobradar/internal/core"
)

func testFetcher() *fetcher {
	return &fetcher{client: &http.Client{Timeout: 5 * time.Second}}
}

func serveJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(nil)

	for _, name := range Names {
		p, ok := reg.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, name, p.Name())
	}

	_, ok := reg.Get("GREENHOUSE")
	assert.True(t, ok, "lookup is case-insensitive")
	assert.False(t, reg.Supported("taleo"))
	assert.Len(t, Names, 11)
}

func TestGreenhouse_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/boards/acme/jobs", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("content"))
		serveJSON(w, map[string]any{
			"jobs": []any{
				map[string]any{
					"id":           4012345,
					"title":        "Backend Engineer",
					"location":     map[string]any{"name": "Tel Aviv, Israel"},
					"absolute_url": "https://boards.greenhouse.io/acme/jobs/4012345",
					"updated_at":   "2025-08-01T10:00:00-04:00",
					"content":      "Go services",
				},
			},
		})
	}))
	defer srv.Close()

	p := &Greenhouse{f: testFetcher(), api: srv.URL + "/boards/%s/jobs"}
	jobs, err := p.Fetch(context.Background(), "acme", core.FetchHints{})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "4012345", jobs[0].ID, "numeric ids keep their digits")
	assert.Equal(t, "Backend Engineer", jobs[0].Title)
	assert.Equal(t, "Tel Aviv, Israel", jobs[0].Location)
	assert.Equal(t, "2025-08-01T10:00:00-04:00", jobs[0].CreatedAt)
	assert.Equal(t, "Go services", jobs[0].Description)
	assert.Nil(t, jobs[0].Remote)
}

func TestGreenhouse_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := &Greenhouse{f: testFetcher(), api: srv.URL + "/boards/%s/jobs"}
	_, err := p.Fetch(context.Background(), "acme", core.FetchHints{})
	assert.Error(t, err, "board API failures propagate so the aggregator records a fail status")
}

func TestLever_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/postings/acme", r.URL.Path)
		serveJSON(w, []any{
			map[string]any{
				"id":        "ab-12",
				"text":      "Data Engineer",
				"hostedUrl": "https://jobs.lever.co/acme/ab-12",
				"createdAt": 1700000000000,
				"categories": map[string]any{
					"location": "Herzliya",
				},
				"lists": []any{map[string]any{"text": "Requirements", "content": "SQL"}},
			},
		})
	}))
	defer srv.Close()

	p := &Lever{f: testFetcher(), api: srv.URL + "/postings/%s?mode=json"}
	jobs, err := p.Fetch(context.Background(), "acme", core.FetchHints{})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "ab-12", jobs[0].ID)
	assert.Equal(t, "2023-11-14T22:13:20Z", jobs[0].CreatedAt, "epoch millis become ISO")
	assert.Equal(t, "Herzliya", jobs[0].Location)
	assert.Contains(t, jobs[0].Description, "SQL")
}

func TestAshby_Stub(t *testing.T) {
	p := &Ashby{}
	jobs, err := p.Fetch(context.Background(), "acme", core.FetchHints{})
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestSmartRecruiters_Fetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/companies/acme/postings", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/companies/acme/postings" {
			return
		}
		serveJSON(w, map[string]any{
			"content": []any{
				map[string]any{
					"id":           "a1",
					"name":         "Platform Engineer",
					"ref":          "https://api.smartrecruiters.com/v1/companies/acme/postings/a1",
					"releasedDate": "2025-07-01T00:00:00Z",
					"location":     map[string]any{"city": "Tel Aviv", "country": "Israel"},
				},
				map[string]any{
					"id":        "b2",
					"name":      "SRE",
					"ref":       "https://api.smartrecruiters.com/v1/companies/acme/postings/b2",
					"createdOn": "2025-06-01T00:00:00Z",
					"location":  map[string]any{"city": "Haifa"},
				},
			},
		})
	})
	mux.HandleFunc("/companies/acme/postings/a1", func(w http.ResponseWriter, _ *http.Request) {
		serveJSON(w, map[string]any{"postingUrl": "https://jobs.smartrecruiters.com/acme/a1"})
	})
	mux.HandleFunc("/companies/acme/postings/b2", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := &SmartRecruiters{
		f:         testFetcher(),
		listAPI:   srv.URL + "/companies/%s/postings",
		detailAPI: srv.URL + "/companies/%s/postings/%s",
	}
	jobs, err := p.Fetch(context.Background(), "acme", core.FetchHints{})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "https://jobs.smartrecruiters.com/acme/a1", jobs[0].URL, "detail lookup resolves the human URL")
	assert.Equal(t, "Tel Aviv, Israel", jobs[0].Location)
	assert.Equal(t, "https://api.smartrecruiters.com/v1/companies/acme/postings/b2", jobs[1].URL, "failed detail falls back to the ref link")
}

func TestWorkable_PatternFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/accounts/acme/jobs", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/v1/accounts/acme/jobs", func(w http.ResponseWriter, _ *http.Request) {
		serveJSON(w, map[string]any{
			"results": []any{
				map[string]any{
					"shortcode":      "AB12CD",
					"title":          "Fullstack Engineer",
					"location":       map[string]any{"city": "Ramat Gan", "country": "Israel"},
					"published_at":   "2025-08-10",
					"workplace_type": "remote",
				},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := &Workable{f: testFetcher(), patterns: []string{
		srv.URL + "/v3/accounts/%s/jobs",
		srv.URL + "/v1/accounts/%s/jobs",
	}}
	jobs, err := p.Fetch(context.Background(), "acme", core.FetchHints{})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "AB12CD", jobs[0].ID)
	assert.Equal(t, "https://apply.workable.com/acme/j/AB12CD/", jobs[0].URL)
	assert.Equal(t, "Ramat Gan, Israel", jobs[0].Location)
	require.NotNil(t, jobs[0].Remote)
	assert.True(t, *jobs[0].Remote)
}

func TestJobvite_AccumulatesPatterns(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/first/acme/jobs", func(w http.ResponseWriter, _ *http.Request) {
		serveJSON(w, map[string]any{"jobs": []any{
			map[string]any{"id": "1", "title": "Engineer", "location": "Tel Aviv"},
		}})
	})
	mux.HandleFunc("/second/acme/jobs", func(w http.ResponseWriter, _ *http.Request) {
		serveJSON(w, map[string]any{"positions": []any{
			map[string]any{"jobId": "2", "jobTitle": "Analyst", "city": "Haifa", "state": "IL"},
		}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := &Jobvite{f: testFetcher(), patterns: []string{
		srv.URL + "/first/%s/jobs",
		srv.URL + "/second/%s/jobs",
	}}
	jobs, err := p.Fetch(context.Background(), "acme", core.FetchHints{})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "1", jobs[0].ID)
	assert.Equal(t, "2", jobs[1].ID)
	assert.Equal(t, "Haifa, IL", jobs[1].Location)
}

func TestBreezy_AuthWallIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := &Breezy{f: testFetcher(), api: srv.URL + "/%s/positions"}
	jobs, err := p.Fetch(context.Background(), "acme", core.FetchHints{})
	require.NoError(t, err, "gated boards are empty, not failures")
	assert.Empty(t, jobs)
}

func TestComeet_PublicEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/company/acme/positions", r.URL.Path)
		serveJSON(w, []any{
			map[string]any{
				"uid":             "p-77",
				"name":            "Backend Developer",
				"location":        map[string]any{"name": "Tel Aviv"},
				"url_active_page": "https://www.comeet.com/jobs/acme/p-77",
				"time_updated":    "2025-08-01T00:00:00Z",
				"workplace_type":  "Remote",
			},
		})
	}))
	defer srv.Close()

	p := &Comeet{f: testFetcher(), positionsAPI: srv.URL + "/company/%s/positions"}
	jobs, err := p.Fetch(context.Background(), "acme", core.FetchHints{})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "p-77", jobs[0].ID)
	require.NotNil(t, jobs[0].Remote)
	assert.True(t, *jobs[0].Remote)
}

func TestComeet_TokenScrape(t *testing.T) {
	var tokenedPath string
	mux := http.NewServeMux()
	mux.HandleFunc("/company/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		tokenedPath = r.URL.Path
		serveJSON(w, []any{
			map[string]any{
				"uid":                    "p-1",
				"name":                   "Data Engineer",
				"location":               map[string]any{"city": "Herzliya", "country": "Israel"},
				"url_comeet_hosted_page": "https://www.comeet.com/jobs/acme/p-1",
			},
		})
	})
	mux.HandleFunc("/jobs/acme", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `<html><head><script>
window.COMEET_DATA = {"company":{"uid":"acme-uid","token":"tok123"}};
</script></head><body></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := &Comeet{
		f:            testFetcher(),
		positionsAPI: srv.URL + "/company/%s/positions",
		jobsPage:     srv.URL + "/jobs/%s",
	}
	jobs, err := p.Fetch(context.Background(), "acme", core.FetchHints{})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "/company/acme-uid/positions", tokenedPath, "retry uses the scraped company uid")
	assert.Equal(t, "Herzliya, Israel", jobs[0].Location)
}

func TestComeet_ScrapeFailureIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := &Comeet{
		f:            testFetcher(),
		positionsAPI: srv.URL + "/company/%s/positions",
		jobsPage:     srv.URL + "/jobs/%s",
	}
	jobs, err := p.Fetch(context.Background(), "acme", core.FetchHints{})
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
