// internal/workers/member/generate-followup-recommendations/config.go
package generatefollowuprecommendations

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
