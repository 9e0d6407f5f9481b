// internal/workers/relocation/parse-address/config.go
package parseaddress

import "time"

type Config struct {
	FallbackCity  string
	FallbackState string
	VerifyEnabled bool
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
