package submitdeals

import (
	"context"
	"time"

	"deal-intake/internal/models"
)

// ProgressFunc is called before each record is submitted. current is 1-based.
type ProgressFunc func(ctx context.Context, current, total int, record models.DealRecord)

type Input struct {
	Records  []models.DealRecord `json:"records"`
	BatchID  string              `json:"batchId,omitempty"`
	Progress ProgressFunc        `json:"-"`
}

type SubmissionFailure struct {
	Index   int    `json:"index"` // 1-based position in Input.Records
	Partner string `json:"partner"`
	Err     error  `json:"-"`
}

type Output struct {
	BatchID     string              `json:"batchId"`
	Total       int                 `json:"total"`
	Submitted   int                 `json:"submitted"`
	Failed      []SubmissionFailure `json:"failed,omitempty"`
	ExternalIDs []string            `json:"externalIds,omitempty"`
	Duration    time.Duration       `json:"duration"`
}

// Attempted is the number of records that reached the store.
func (o *Output) Attempted() int {
	return o.Submitted + len(o.Failed)
}
