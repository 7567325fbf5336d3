package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeAlertRunner runs the saved-search alert delivery loop.
	ServiceModeAlertRunner ServiceMode = "alert-runner"
	// ServiceModeRefreshRunner runs the scheduled company refresh.
	ServiceModeRefreshRunner ServiceMode = "refresh-runner"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeAlertRunner,
		ServiceModeRefreshRunner,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeAlertRunner, ServiceModeRefreshRunner:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: alert-runner, refresh-runner)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// AlertRunnerConfig contains alert runner service configuration.
type AlertRunnerConfig struct {
	// Interval is the poll interval between due-alert sweeps.
	Interval time.Duration `env:"ALERTS_INTERVAL" envDefault:"15m"`

	// BatchLimit caps how many due alerts a single sweep processes.
	BatchLimit int `env:"ALERTS_BATCH_LIMIT" envDefault:"200"`
}

// Sanitize applies guardrails to alert runner configuration values.
func (a *AlertRunnerConfig) Sanitize() {
	if a.Interval < 5*time.Second {
		a.Interval = 5 * time.Second
	}
	if a.BatchLimit < 1 {
		a.BatchLimit = 1
	}
	if a.BatchLimit > 1000 {
		a.BatchLimit = 1000
	}
}

// RefreshRunnerConfig contains the scheduled company refresh configuration.
type RefreshRunnerConfig struct {
	// CronSpec is the cron expression driving refresh runs.
	CronSpec string `env:"REFRESH_CRON" envDefault:"0 */6 * * *"`

	// Cities narrows scoring to postings near these cities.
	Cities []string `env:"REFRESH_CITIES" envDefault:""`

	// Keywords are scoring keywords applied to fetched postings.
	Keywords []string `env:"REFRESH_KEYWORDS" envDefault:""`

	// Provider restricts the refresh to a single provider when set.
	Provider string `env:"REFRESH_PROVIDER" envDefault:""`
}

// Sanitize applies guardrails to refresh runner configuration values.
func (r *RefreshRunnerConfig) Sanitize() {
	if strings.TrimSpace(r.CronSpec) == "" {
		r.CronSpec = "0 */6 * * *"
	}
}
