package registry

// GeoRegistry maps country codes onto the region tags deals are filed under.
type GeoRegistry struct {
	Version     string   `json:"version"`
	LastUpdated string   `json:"lastUpdated"`
	Regions     []Region `json:"regions"`
}

type Region struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Geos        []string `json:"geos"`
}
