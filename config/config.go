// Package config holds the application configuration, loaded from environment
// variables via github.com/caarlos0/env. See the individual files for the
// available variables per domain:
//   - database.go: Postgres, Redis and cache configuration
//   - discovery.go: company discovery (search API) configuration
//   - mail.go: SMTP configuration for alert notifications
//   - services.go: service mode and runner configuration
package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
type AppConfig struct {
	// IsDev controls development mode behavior (text log handler, relaxed
	// validation). Set DEV=true for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// CompaniesFile is the static company list consumed by refresh and scan.
	CompaniesFile string `env:"COMPANIES_FILE" envDefault:"static/companies.json"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Cache    CacheConfig

	// Services is a comma-delimited list of enabled services.
	// Valid values: alert-runner, refresh-runner
	Services string `env:"SERVICES" envDefault:"alert-runner"`

	// Discovery configuration
	Discovery DiscoveryConfig

	// SMTP configuration for alert notifications
	Mail MailConfig

	// Alert runner configuration
	AlertRunner AlertRunnerConfig

	// Refresh runner configuration
	RefreshRunner RefreshRunnerConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Cache.Sanitize()
	c.Discovery.Sanitize()
	c.AlertRunner.Sanitize()
	c.RefreshRunner.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks NODE_ENV as a fallback for the DEV flag.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsAlertRunnerEnabled returns true if the alert runner service is enabled.
func (c *AppConfig) IsAlertRunnerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeAlertRunner]
}

// IsRefreshRunnerEnabled returns true if the refresh runner service is enabled.
func (c *AppConfig) IsRefreshRunnerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeRefreshRunner]
}
