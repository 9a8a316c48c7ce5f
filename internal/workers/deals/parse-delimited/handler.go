package parsedelimited

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/common/logger"
	"deal-intake/internal/common/metrics"
)

const (
	TaskType = "parse-delimited"
)

var ErrEmptyInput = errors.New("EMPTY_INPUT")

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

// Execute parses every non-empty line of input.Text independently.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	lines := SplitLines(input.Text)
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no deal lines in message", ErrEmptyInput)
	}
	if h.config.MaxDeals > 0 && len(lines) > h.config.MaxDeals {
		return nil, apperrors.NewTooManyDealsError(len(lines), h.config.MaxDeals)
	}

	output := ParseBatch(lines)
	for _, f := range output.Failures {
		code := string(apperrors.CodeOf(f.Err))
		metrics.LinesParsed.WithLabelValues("failed", code).Inc()
		h.logger.Debug("deal line rejected", map[string]interface{}{
			"lineIndex": f.Index,
			"errorCode": code,
			"error":     f.Err.Error(),
		})
	}
	metrics.LinesParsed.WithLabelValues("parsed", "").Add(float64(len(output.Deals)))

	h.logger.Info("delimited batch parsed", map[string]interface{}{
		"total":   output.Total,
		"valid":   len(output.Deals),
		"invalid": len(output.Failures),
	})
	return output, nil
}

// ParseBatch parses each line on its own; one bad line never stops the batch.
func ParseBatch(lines []string) *Output {
	out := &Output{Total: len(lines)}
	for i, line := range lines {
		deal, err := ParseLine(line)
		if err != nil {
			out.Failures = append(out.Failures, LineFailure{Index: i + 1, Line: line, Err: err})
			continue
		}
		out.Deals = append(out.Deals, *deal)
	}
	return out
}

// SplitLines returns the trimmed, non-empty lines of text.
func SplitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
