package config

// DiscoveryConfig contains company discovery (search API) configuration.
type DiscoveryConfig struct {
	// APIKey authenticates against the SerpAPI search endpoint. Discovery is
	// unavailable without it.
	APIKey string `env:"SERPAPI_API_KEY" envDefault:""`

	// NumResults is the per-query result count requested from the search API.
	NumResults int `env:"SERPAPI_NUM_RESULTS" envDefault:"100"`

	// NoCache forces fresh results from the search API and bypasses the local
	// response cache.
	NoCache bool `env:"SERPAPI_NO_CACHE" envDefault:"false"`

	// CityMode controls query fan-out across cities.
	// Valid values: combined (one OR-joined query), split (one query per city).
	CityMode string `env:"SERPAPI_CITY_MODE" envDefault:"combined"`

	// ProviderMode controls query fan-out across providers.
	// Valid values: or (one site: OR-joined query), per-provider.
	ProviderMode string `env:"SERPAPI_PROVIDER_MODE" envDefault:"or"`
}

// Sanitize applies guardrails to discovery configuration values.
func (d *DiscoveryConfig) Sanitize() {
	if d.NumResults < 10 {
		d.NumResults = 10
	}
	if d.NumResults > 100 {
		d.NumResults = 100
	}
	if d.CityMode != "split" {
		d.CityMode = "combined"
	}
	if d.ProviderMode != "per-provider" {
		d.ProviderMode = "or"
	}
}
