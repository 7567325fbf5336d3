package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"jobradar"`
	Password string `env:"PASSWORD" envDefault:"jobradar"`
	Name     string `env:"NAME"     envDefault:"jobradar"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration, used when the cache backend is redis.
type RedisConfig struct {
	URI      string `env:"URI"      envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// CacheConfig controls the search-response cache used by company discovery.
type CacheConfig struct {
	// Backend selects the cache implementation. Valid values: file, redis.
	Backend string `env:"CACHE_BACKEND" envDefault:"file"`

	// Dir is the directory for the file backend.
	Dir string `env:"CACHE_DIR" envDefault:".cache/serpapi"`

	// TTL is how long cached search responses stay fresh. Zero disables caching.
	TTL time.Duration `env:"CACHE_TTL" envDefault:"24h"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.Backend != "redis" {
		c.Backend = "file"
	}
	if c.TTL < 0 {
		c.TTL = 0
	}
}
