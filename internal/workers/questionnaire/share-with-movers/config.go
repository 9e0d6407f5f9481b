// internal/workers/questionnaire/share-with-movers/config.go
package sharewithmovers

import "time"

type Config struct {
	Endpoint   string
	SMSEnabled bool
	Timeout    time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Endpoint:   "/api/share-with-movers",
		SMSEnabled: true,
		Timeout:    20 * time.Second,
	}
}
