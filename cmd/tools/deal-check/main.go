// cmd/tools/deal-check/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/common/logger"
	"deal-intake/internal/models"
	cf "deal-intake/internal/workers/deals/classify-format"
	pd "deal-intake/internal/workers/deals/parse-delimited"
	pf "deal-intake/internal/workers/deals/parse-freetext"
)

// separator splits a file into independent messages.
const separator = "---"

func main() {
	file := flag.String("file", "", "Read messages from file (default: stdin)")
	registryPath := flag.String("registry", "configs/geo-registry.json", "GEO registry used for free-text region lookup")
	verbose := flag.Bool("v", false, "Log pipeline steps")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: deal-check [-file path] [-registry path] [-v]\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Messages are separated by a line containing only %q.\n\n", separator)
		flag.PrintDefaults()
	}
	flag.Parse()

	var in io.Reader = os.Stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		fmt.Printf("Error reading input: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewNoOpLogger()
	if *verbose {
		log = logger.NewStructured("debug", "console")
	}
	c := &checker{
		classifier: cf.NewHandler(log),
		freeText:   pf.NewHandler(&pf.Config{GeoRegistryPath: *registryPath, MaxDeals: 50}, log),
		out:        os.Stdout,
	}

	bad := 0
	for i, msg := range splitMessages(string(raw)) {
		if !c.check(context.Background(), i+1, msg) {
			bad++
		}
	}
	if bad > 0 {
		os.Exit(2)
	}
}

type checker struct {
	classifier *cf.Handler
	freeText   *pf.Handler
	out        io.Writer
}

// check prints the verdict and per-line results. It reports false when nothing usable was found.
func (c *checker) check(ctx context.Context, n int, text string) bool {
	res, err := c.classifier.Execute(ctx, &cf.Input{Text: text})
	if err != nil {
		fmt.Fprintf(c.out, "#%d error: %v\n", n, err)
		return false
	}
	v := res.Verdict
	fmt.Fprintf(c.out, "#%d %s (confidence %.2f, structured %.2f, unstructured %.2f)\n",
		n, v.Kind, v.Confidence, res.Scores.Structured, res.Scores.Unstructured)

	switch v.Kind {
	case models.FormatStructured:
		return c.checkDelimited(text)
	case models.FormatUnstructured:
		return c.checkFreeText(ctx, text)
	}
	fmt.Fprintln(c.out, "  not a deal message")
	return false
}

func (c *checker) checkDelimited(text string) bool {
	ok := 0
	for i, line := range pd.SplitLines(text) {
		deal, err := pd.ParseLine(line)
		if err != nil {
			fmt.Fprintf(c.out, "  %d ✗ [%s] %v\n", i+1, apperrors.CodeOf(err), err)
			continue
		}
		ok++
		fmt.Fprintf(c.out, "  %d ✓ %s\n", i+1, pd.FormatLine(deal))
	}
	return ok > 0
}

func (c *checker) checkFreeText(ctx context.Context, text string) bool {
	out, err := c.freeText.Execute(ctx, &pf.Input{Text: text})
	if err != nil {
		fmt.Fprintf(c.out, "  ✗ %v\n", err)
		return false
	}
	for i, d := range out.Deals {
		mark := "✓"
		if !d.Valid() {
			mark = "⚠"
		}
		fmt.Fprintf(c.out, "  %d %s %s\n", i+1, mark, pd.FormatLine(&d.Deal))
		if len(d.Missing) > 0 {
			fmt.Fprintf(c.out, "      missing: %s\n", strings.Join(d.Missing, ", "))
		}
	}
	return out.ValidCount() > 0
}

func splitMessages(raw string) []string {
	var msgs []string
	var cur []string
	flush := func() {
		if text := strings.TrimSpace(strings.Join(cur, "\n")); text != "" {
			msgs = append(msgs, text)
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == separator {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return msgs
}
