// internal/workers/registration/assess-pastor-application/config.go
package assesspastorapplication

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
