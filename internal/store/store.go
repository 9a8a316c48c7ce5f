// Package store submits assembled deal records to the configured record store.
package store

import (
	"context"
	"fmt"
	"net/http"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/models"
)

// Result is the outcome of submitting one record.
type Result struct {
	Index      int    `json:"index"`
	OK         bool   `json:"ok"`
	ExternalID string `json:"externalId,omitempty"`
	Err        error  `json:"-"`
}

// Store accepts attribute mappings and reports success per item.
// Submit returns a non-nil error only when the store as a whole cannot be used
// (unreachable, bad credentials); the results gathered before that point are still returned.
type Store interface {
	Name() string
	Submit(ctx context.Context, records []models.Attributes) ([]Result, error)
	Ping(ctx context.Context) error
}

type batchKey struct{}

// WithBatchID tags ctx with the submission batch the records belong to.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, batchKey{}, batchID)
}

// BatchID returns the batch id set by WithBatchID, or "".
func BatchID(ctx context.Context) string {
	id, _ := ctx.Value(batchKey{}).(string)
	return id
}

// classifyStatus maps an HTTP status onto a per-item error or a fatal store error.
func classifyStatus(store string, status int, detail string) (itemErr, fatal error) {
	switch {
	case status >= 200 && status < 300:
		return nil, nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, apperrors.NewStoreCredentialMissingError(store, fmt.Sprintf("status %d: %s", status, detail))
	case status == http.StatusTooManyRequests:
		e := apperrors.NewStoreSubmissionRejectedError(store, fmt.Sprintf("rate limited: %s", detail))
		e.Retryable = true
		return e, nil
	case status >= 500:
		return nil, apperrors.NewStoreUnavailableError(store, fmt.Errorf("status %d: %s", status, detail))
	}
	return apperrors.NewStoreSubmissionRejectedError(store, fmt.Sprintf("status %d: %s", status, detail)), nil
}

func amountArg(a models.Attributes, key string) interface{} {
	if v := a.Amount(key); v != nil {
		return *v
	}
	return nil
}

func funnelsOf(a models.Attributes) []string {
	if f := a.Funnels(); f != nil {
		return f
	}
	return []string{}
}
