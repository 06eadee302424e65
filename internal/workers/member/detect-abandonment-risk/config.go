// internal/workers/member/detect-abandonment-risk/config.go
package detectabandonmentrisk

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
