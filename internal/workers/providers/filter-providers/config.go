// internal/workers/providers/filter-providers/config.go
package filterproviders

import "time"

type Config struct {
	PageSize int
	Timeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		PageSize: 10,
		Timeout:  5 * time.Second,
	}
}
