package parsedelimited

import "deal-intake/internal/models"

type Input struct {
	Text string `json:"text"`
}

// LineFailure pairs an input line with the reason it was rejected.
type LineFailure struct {
	Index int    `json:"index"` // 1-based position among non-empty lines
	Line  string `json:"line"`
	Err   error  `json:"-"`
}

type Output struct {
	Deals    []models.DealRecord `json:"deals"`
	Failures []LineFailure       `json:"failures"`
	Total    int                 `json:"total"`
}

// AllFailed reports whether no line produced a valid deal.
func (o *Output) AllFailed() bool {
	return len(o.Deals) == 0
}
