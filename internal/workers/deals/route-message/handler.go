package routemessage

import (
	"context"
	"errors"

	"deal-intake/internal/common/logger"
	"deal-intake/internal/common/metrics"
)

const TaskType = "route-message"

var ErrMissingUpdate = errors.New("MISSING_UPDATE")

type Handler struct {
	router *Router
	logger logger.Logger
}

func NewHandler(router *Router, log logger.Logger) *Handler {
	if router == nil {
		router = NewRouter(nil)
	}
	return &Handler{
		router: router,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.Update == nil {
		return nil, ErrMissingUpdate
	}

	d := h.router.Route(input.Update, input.State)
	metrics.MessagesRouted.WithLabelValues(string(d.Flow)).Inc()

	fields := map[string]interface{}{
		"sessionId":  input.Update.SessionID(),
		"updateKind": input.Update.Kind(),
		"flow":       string(d.Flow),
		"reason":     d.Reason,
	}
	if d.Verdict != nil {
		fields["format"] = string(d.Verdict.Kind)
		fields["confidence"] = d.Verdict.Confidence
	}
	if d.Callback != CallbackNone {
		fields["callbackType"] = string(d.Callback)
	}
	h.logger.Info("message routed", fields)

	return &Output{Decision: d}, nil
}
