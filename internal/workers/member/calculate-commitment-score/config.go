// internal/workers/member/calculate-commitment-score/config.go
package calculatecommitmentscore

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
