// internal/workers/assessment/send-assessment-email/config.go
package sendassessmentemail

import "time"

type Config struct {
	EmailEnabled  bool
	FromEmail     string
	SubjectPrefix string
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EmailEnabled:  true,
		SubjectPrefix: "Your Insider Risk Index results",
		Timeout:       20 * time.Second,
	}
}
