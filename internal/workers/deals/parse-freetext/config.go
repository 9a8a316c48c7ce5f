package parsefreetext

type Config struct {
	GeoRegistryPath string
	MaxDeals        int
}

func LoadConfig() *Config {
	return &Config{
		GeoRegistryPath: "configs/geo-registry.json",
		MaxDeals:        50,
	}
}
