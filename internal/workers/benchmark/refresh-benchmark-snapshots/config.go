// internal/workers/benchmark/refresh-benchmark-snapshots/config.go
package refreshbenchmarksnapshots

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 2 * time.Minute,
	}
}
