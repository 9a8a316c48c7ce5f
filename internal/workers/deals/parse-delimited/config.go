package parsedelimited

// Config limits a single batch.
type Config struct {
	MaxDeals int
}

func LoadConfig() *Config {
	return &Config{MaxDeals: 50}
}
