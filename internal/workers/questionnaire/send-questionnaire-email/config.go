// internal/workers/questionnaire/send-questionnaire-email/config.go
package sendquestionnaireemail

import "time"

type Config struct {
	Enabled bool
	Subject string
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Enabled: true,
		Subject: "Your Ezrelo moving questionnaire",
		Timeout: 15 * time.Second,
	}
}
