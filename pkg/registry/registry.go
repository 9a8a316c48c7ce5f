package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

func LoadRegistry(path string) (*GeoRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg GeoRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse geo registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry as indented JSON.
func (r *GeoRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Lookup returns the region for a geo. Composite geos ("UK|IE") resolve through their first known code.
func (r *GeoRegistry) Lookup(geo string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, code := range strings.FieldsFunc(geo, isGeoSeparator) {
		code = strings.ToUpper(strings.TrimSpace(code))
		for _, region := range r.Regions {
			for _, g := range region.Geos {
				if strings.EqualFold(g, code) {
					return region.Name, true
				}
			}
		}
	}
	return "", false
}

// Add assigns geo to region, moving it out of any other region.
func (r *GeoRegistry) Add(region, geo string) {
	geo = strings.ToUpper(strings.TrimSpace(geo))
	region = strings.ToUpper(strings.TrimSpace(region))

	target := -1
	for i := range r.Regions {
		r.Regions[i].Geos = without(r.Regions[i].Geos, geo)
		if strings.EqualFold(r.Regions[i].Name, region) {
			target = i
		}
	}
	if target < 0 {
		r.Regions = append(r.Regions, Region{Name: region})
		target = len(r.Regions) - 1
	}
	r.Regions[target].Geos = append(r.Regions[target].Geos, geo)
	sort.Strings(r.Regions[target].Geos)
}

// Validate reports registry problems: unknown region names and geos listed more than once.
func (r *GeoRegistry) Validate(knownRegion func(string) bool) []string {
	var problems []string
	seen := make(map[string]string)
	for _, region := range r.Regions {
		if knownRegion != nil && !knownRegion(region.Name) {
			problems = append(problems, fmt.Sprintf("unknown region %q", region.Name))
		}
		for _, g := range region.Geos {
			key := strings.ToUpper(g)
			if prev, ok := seen[key]; ok {
				problems = append(problems, fmt.Sprintf("geo %s listed in both %s and %s", key, prev, region.Name))
				continue
			}
			seen[key] = region.Name
		}
	}
	return problems
}

func without(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if !strings.EqualFold(s, v) {
			out = append(out, s)
		}
	}
	return out
}

func isGeoSeparator(r rune) bool {
	return r == '|' || r == ',' || r == '/' || r == ' '
}
