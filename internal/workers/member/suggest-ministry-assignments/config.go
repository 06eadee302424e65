// internal/workers/member/suggest-ministry-assignments/config.go
package suggestministryassignments

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
