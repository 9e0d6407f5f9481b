// internal/workers/questionnaire/save-questionnaire/config.go
package savequestionnaire

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
