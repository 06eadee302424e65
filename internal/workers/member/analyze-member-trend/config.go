// internal/workers/member/analyze-member-trend/config.go
package analyzemembertrend

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
