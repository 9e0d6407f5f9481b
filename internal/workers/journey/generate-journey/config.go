// internal/workers/journey/generate-journey/config.go
package generatejourney

import "time"

type Config struct {
	AIEnabled bool
	// FallbackToDefault serves the built-in checklist when the AI plan fails.
	FallbackToDefault bool
	Timeout           time.Duration
}

func LoadConfig() *Config {
	return &Config{
		AIEnabled:         true,
		FallbackToDefault: true,
		Timeout:           60 * time.Second,
	}
}
