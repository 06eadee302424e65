// internal/workers/data-access/search-members/config.go
package searchmembers

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultIndex string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		DefaultIndex: "members",
	}
}
