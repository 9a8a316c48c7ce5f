package submitdeals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/common/logger"
	"deal-intake/internal/common/metrics"
	"deal-intake/internal/store"
)

const TaskType = "submit-deals"

var (
	ErrNoRecords   = errors.New("NO_RECORDS")
	ErrEmptyResult = errors.New("EMPTY_STORE_RESULT")
)

// Handler submits records one at a time. The limiter is shared by every batch so the
// spacing holds across concurrent conversations.
type Handler struct {
	config  *Config
	logger  logger.Logger
	store   store.Store
	limiter *rate.Limiter
}

func NewHandler(config *Config, st store.Store, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	limit := rate.Inf
	if config.MinInterval > 0 {
		limit = rate.Every(config.MinInterval)
	}
	return &Handler{
		config:  config,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType, "store": st.Name()}),
		store:   st,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Execute submits every record in order. Per-record failures are collected; only a fatal store
// error or context cancellation stops the batch, and the partial output is returned with it.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.Records) == 0 {
		return nil, ErrNoRecords
	}

	out := &Output{BatchID: input.BatchID, Total: len(input.Records)}
	if out.BatchID == "" {
		out.BatchID = uuid.New().String()
	}
	ctx = store.WithBatchID(ctx, out.BatchID)
	log := h.logger.WithFields(map[string]interface{}{"batchId": out.BatchID})

	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
		metrics.SubmissionDuration.WithLabelValues(h.store.Name()).Observe(out.Duration.Seconds())
	}()

	attrs := Assemble(input.Records)
	for i, rec := range input.Records {
		if input.Progress != nil {
			input.Progress(ctx, i+1, out.Total, rec)
		}

		if err := h.limiter.Wait(ctx); err != nil {
			return out, fmt.Errorf("submission interrupted after %d of %d records: %w", i, out.Total, err)
		}

		results, err := h.store.Submit(ctx, attrs[i:i+1])
		if err == nil && len(results) == 0 {
			err = ErrEmptyResult
		}
		if err != nil {
			out.Failed = append(out.Failed, SubmissionFailure{Index: i + 1, Partner: rec.Partner, Err: err})
			metrics.DealsSubmitted.WithLabelValues(h.store.Name(), "failed").Inc()
			if apperrors.IsFatal(err) {
				log.Error("record store unusable, aborting batch", map[string]interface{}{
					"index":     i + 1,
					"errorCode": string(apperrors.CodeOf(err)),
					"error":     err.Error(),
				})
				return out, err
			}
			log.Warn("record submission failed", map[string]interface{}{"index": i + 1, "error": err.Error()})
			continue
		}

		res := results[0]
		if !res.OK {
			out.Failed = append(out.Failed, SubmissionFailure{Index: i + 1, Partner: rec.Partner, Err: res.Err})
			metrics.DealsSubmitted.WithLabelValues(h.store.Name(), "rejected").Inc()
			log.Warn("record rejected by store", map[string]interface{}{
				"index":   i + 1,
				"partner": rec.Partner,
				"error":   errString(res.Err),
			})
			continue
		}

		out.Submitted++
		out.ExternalIDs = append(out.ExternalIDs, res.ExternalID)
		metrics.DealsSubmitted.WithLabelValues(h.store.Name(), "submitted").Inc()
	}

	log.Info("batch submitted", map[string]interface{}{
		"total":     out.Total,
		"submitted": out.Submitted,
		"failed":    len(out.Failed),
	})
	return out, nil
}

func errString(err error) string {
	if err == nil {
		return "rejected"
	}
	return err.Error()
}

// StoreName is the name of the record store batches are submitted to.
func (h *Handler) StoreName() string {
	return h.store.Name()
}
