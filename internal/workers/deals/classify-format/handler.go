package classifyformat

import (
	"context"

	"deal-intake/internal/common/logger"
	"deal-intake/internal/common/metrics"
)

const TaskType = "classify-format"

type Handler struct {
	logger logger.Logger
}

func NewHandler(log logger.Logger) *Handler {
	return &Handler{
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	verdict, scores := Explain(input.Text)
	metrics.FormatsClassified.WithLabelValues(string(verdict.Kind)).Inc()

	h.logger.Debug("format classified", map[string]interface{}{
		"kind":              string(verdict.Kind),
		"confidence":        verdict.Confidence,
		"structuredScore":   scores.Structured,
		"unstructuredScore": scores.Unstructured,
		"indicatorScore":    scores.Indicator,
		"samples":           len(verdict.SampleMatches),
	})
	return &Output{Verdict: verdict, Scores: scores}, nil
}
