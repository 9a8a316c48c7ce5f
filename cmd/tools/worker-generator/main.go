// cmd/tools/worker-generator/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
)

// WorkerData holds data for templates
type WorkerData struct {
	Name        string
	PackageName string
	TaskType    string
	Description string
	Module      string
}

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

const configTemplate = `package {{ .PackageName }}

type Config struct {
	MaxDeals int
}

func LoadConfig() *Config {
	return &Config{MaxDeals: 50}
}
`

const modelsTemplate = `package {{ .PackageName }}

import "{{ .Module }}/internal/models"

type Input struct {
	Deals []models.DealRecord ` + "`json:\"deals\"`" + `
}

type Output struct {
	Deals []models.DealRecord ` + "`json:\"deals\"`" + `
}
`

const handlerTemplate = `package {{ .PackageName }}

import (
	"context"
	"errors"

	"{{ .Module }}/internal/common/logger"
)

// {{ .Description }}

const TaskType = "{{ .TaskType }}"

var ErrNoDeals = errors.New("NO_DEALS")

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || len(input.Deals) == 0 {
		return nil, ErrNoDeals
	}

	h.logger.Info("{{ .Name }} completed", map[string]interface{}{
		"deals": len(input.Deals),
	})
	return &Output{Deals: input.Deals}, nil
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"{{ .Module }}/internal/common/logger"
	"{{ .Module }}/internal/models"
)

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(nil, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Deals: []models.DealRecord{ {Partner: "Acme"} }})
	require.NoError(t, err)
	assert.Len(t, out.Deals, 1)

	_, err = h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrNoDeals)
}
`

func main() {
	name := flag.String("name", "", "Stage name in kebab case (e.g., enrich-partner)")
	description := flag.String("description", "", "One-line description of the stage")
	module := flag.String("module", "deal-intake", "Go module path")
	outDir := flag.String("out", "internal/workers/deals", "Parent directory for the new stage")
	force := flag.Bool("force", false, "Overwrite existing files")
	flag.Parse()

	if !namePattern.MatchString(*name) {
		fmt.Println("Error: -name must be kebab case, e.g. enrich-partner")
		flag.Usage()
		os.Exit(1)
	}
	if *description == "" {
		*description = fmt.Sprintf("Handler runs the %s stage over a batch of deals.", *name)
	}

	data := WorkerData{
		Name:        *name,
		PackageName: strings.ReplaceAll(*name, "-", ""),
		TaskType:    *name,
		Description: strings.TrimSuffix(*description, ".") + ".",
		Module:      *module,
	}

	dir := filepath.Join(*outDir, *name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}

	templates := map[string]string{
		"config.go":       configTemplate,
		"models.go":       modelsTemplate,
		"handler.go":      handlerTemplate,
		"handler_test.go": testTemplate,
	}
	for filename, tmplStr := range templates {
		path := filepath.Join(dir, filename)
		if _, err := os.Stat(path); err == nil && !*force {
			fmt.Printf("Skipping %s (exists, use -force to overwrite)\n", path)
			continue
		}
		if err := render(path, filename, tmplStr, data); err != nil {
			fmt.Printf("Error generating %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s\n", path)
	}
	fmt.Printf("\nStage %s scaffolded in %s\n", data.TaskType, dir)
}

func render(path, name, tmplStr string, data WorkerData) error {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return tmpl.Execute(f, data)
}
