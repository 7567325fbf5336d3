// Package serpapi implements the outbound search client used by company
// discovery, backed by the SerpAPI Google Search endpoint.
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultEndpoint = "https://serpapi.com/search.json"

// Client performs search requests against SerpAPI. It implements
// core.SearchClient.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// HTTPClient is the client used for outbound requests. Defaults to a
	// client with a 30 second timeout.
	HTTPClient *http.Client

	// Endpoint overrides the search endpoint, for tests.
	Endpoint string
}

// NewClient creates a search client with the given options.
func NewClient(opts ClientOptions) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}
	return &Client{httpClient: opts.HTTPClient, endpoint: opts.Endpoint}
}

// Search issues a GET request with params as the query string and decodes the
// JSON response. Error messages never carry the api_key parameter.
func (c *Client) Search(ctx context.Context, params map[string]string) (map[string]any, error) {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "jobradar/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", redactAPIKey(err, params["api_key"]))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if msg, ok := result["error"].(string); ok && msg != "" {
		return nil, fmt.Errorf("search API error: %s", msg)
	}
	return result, nil
}

// redactAPIKey strips the key from transport errors, which echo the full URL.
func redactAPIKey(err error, key string) error {
	if key == "" {
		return err
	}
	msg := strings.ReplaceAll(err.Error(), key, "REDACTED")
	if msg == err.Error() {
		return err
	}
	return fmt.Errorf("%s", msg)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
