package serpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchSendsParamsAndDecodes(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic_results": [{"link": "https://jobs.lever.co/acme"}]}`))
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{Endpoint: srv.URL})
	result, err := client.Search(context.Background(), map[string]string{
		"engine":  "google",
		"q":       "site:jobs.lever.co golang",
		"api_key": "sekret",
	})
	require.NoError(t, err)

	assert.Equal(t, "google", gotQuery["engine"])
	assert.Equal(t, "site:jobs.lever.co golang", gotQuery["q"])
	assert.Equal(t, "sekret", gotQuery["api_key"])

	organic, ok := result["organic_results"].([]any)
	require.True(t, ok)
	assert.Len(t, organic, 1)
}

func TestSearchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{Endpoint: srv.URL})
	_, err := client.Search(context.Background(), map[string]string{"q": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestSearchAPIErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": "Invalid API key"}`))
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{Endpoint: srv.URL})
	_, err := client.Search(context.Background(), map[string]string{"q": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestSearchRedactsAPIKeyFromTransportErrors(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close() // force a connection error

	client := NewClient(ClientOptions{Endpoint: srv.URL})
	_, err := client.Search(context.Background(), map[string]string{"q": "x", "api_key": "supersecret"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "supersecret")
}
