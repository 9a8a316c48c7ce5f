package submitdeals

import "time"

type Config struct {
	// MinInterval is the minimum spacing between two calls to the record store.
	MinInterval time.Duration
}

func LoadConfig() *Config {
	return &Config{MinInterval: 500 * time.Millisecond}
}
