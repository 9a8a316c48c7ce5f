// cmd/tools/geo-registry/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"deal-intake/internal/models"
	"deal-intake/pkg/registry"
)

const defaultPath = "configs/geo-registry.json"

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	lookupCmd := flag.NewFlagSet("lookup", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	addPath := addCmd.String("path", defaultPath, "Path to registry file")
	region := addCmd.String("region", "", "Region tag (e.g., TIER1)")
	geos := addCmd.String("geo", "", "Country code(s), comma separated (e.g., DE,AT)")

	lookupPath := lookupCmd.String("path", defaultPath, "Path to registry file")
	validatePath := validateCmd.String("path", defaultPath, "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *region == "" || *geos == "" {
			fmt.Println("Error: region and geo are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		if !models.KnownRegion(*region) {
			fmt.Printf("Error: unknown region %q (known: %s)\n", *region, strings.Join(models.Regions, ", "))
			os.Exit(1)
		}
		added, err := addGeos(*addPath, *region, strings.Split(*geos, ","))
		if err != nil {
			fmt.Printf("Error adding geos: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Filed %s under %s\n", strings.Join(added, ", "), strings.ToUpper(*region))

	case "lookup":
		lookupCmd.Parse(os.Args[2:])
		if lookupCmd.NArg() == 0 {
			fmt.Println("Error: lookup needs at least one geo.")
			os.Exit(1)
		}
		reg, err := registry.LoadRegistry(*lookupPath)
		if err != nil {
			fmt.Printf("Error loading registry: %v\n", err)
			os.Exit(1)
		}
		for _, geo := range lookupCmd.Args() {
			if name, ok := reg.Lookup(geo); ok {
				fmt.Printf("%s\t%s\n", geo, name)
			} else {
				fmt.Printf("%s\t(unmapped)\n", geo)
			}
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(*validatePath); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func addGeos(path, region string, geos []string) ([]string, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.GeoRegistry{Version: "1.0.0"}
	}

	var added []string
	for _, g := range geos {
		g = strings.ToUpper(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		reg.Add(region, g)
		added = append(added, g)
	}
	if len(added) == 0 {
		return nil, fmt.Errorf("no geo codes given")
	}

	reg.LastUpdated = time.Now().Format("2006-01-02")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := reg.Save(path); err != nil {
		return nil, fmt.Errorf("failed to write registry file: %w", err)
	}
	return added, nil
}

func validateRegistry(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if len(reg.Regions) == 0 {
		return fmt.Errorf("registry contains no regions")
	}

	if problems := reg.Validate(models.KnownRegion); len(problems) > 0 {
		for _, p := range problems {
			fmt.Println("  -", p)
		}
		return fmt.Errorf("%d problem(s) found", len(problems))
	}

	total := 0
	for _, r := range reg.Regions {
		total += len(r.Geos)
	}
	fmt.Printf("Registry validation passed. Found %d regions, %d geos.\n", len(reg.Regions), total)
	return nil
}

func help() {
	fmt.Print(`
Usage: geo-registry <command> [flags]

Commands:
  add       File one or more country codes under a region
  lookup    Print the region each given geo resolves to
  validate  Check the registry for unknown regions and duplicate geos
  help      Show this help message

Examples:
  geo-registry add -region TIER1 -geo DE,AT
  geo-registry lookup UK|IE BR
  geo-registry validate -path configs/geo-registry.json

Use 'geo-registry <command> -h' for more information about a command.
`)
}
