// internal/workers/providers/search-providers/config.go
package searchproviders

import "time"

type Config struct {
	// PreferCache serves a cached result list without calling the backend.
	PreferCache bool
	Timeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
