package parsefreetext

import (
	"context"
	"errors"
	"fmt"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/common/logger"
	"deal-intake/internal/common/metrics"
	"deal-intake/pkg/registry"
)

const (
	TaskType = "parse-freetext"
)

var (
	ErrNoDeals      = errors.New("NO_DEALS_FOUND")
	ErrUnknownField = errors.New("UNKNOWN_FIELD")
)

type Handler struct {
	config    *Config
	logger    logger.Logger
	extractor *Extractor
}

// NewHandler loads the geo registry from config. A missing registry only disables region lookup.
func NewHandler(config *Config, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	reg, err := registry.LoadRegistry(config.GeoRegistryPath)
	if err != nil {
		log.Warn("geo registry unavailable, regions will not be inferred", map[string]interface{}{
			"path":  config.GeoRegistryPath,
			"error": err.Error(),
		})
		reg = nil
	}
	return NewHandlerWithRegistry(config, log, reg)
}

func NewHandlerWithRegistry(config *Config, log logger.Logger, reg *registry.GeoRegistry) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	return &Handler{
		config:    config,
		logger:    log,
		extractor: NewExtractor(reg),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	deals := h.extractor.Extract(input.Text)
	if len(deals) == 0 {
		return nil, fmt.Errorf("%w: no partner, geo or pricing found", ErrNoDeals)
	}
	if h.config.MaxDeals > 0 && len(deals) > h.config.MaxDeals {
		return nil, apperrors.NewTooManyDealsError(len(deals), h.config.MaxDeals)
	}

	out := &Output{Deals: deals}
	for i, d := range deals {
		if d.Valid() {
			metrics.LinesParsed.WithLabelValues("parsed", "").Inc()
			continue
		}
		metrics.LinesParsed.WithLabelValues("incomplete", string(apperrors.ErrCodeDealValidationFailed)).Inc()
		h.logger.Debug("extracted deal is incomplete", map[string]interface{}{
			"dealIndex": i + 1,
			"partner":   d.Deal.Partner,
			"missing":   d.Missing,
		})
	}

	h.logger.Info("free text deals extracted", map[string]interface{}{
		"total": len(deals),
		"valid": out.ValidCount(),
	})
	return out, nil
}
