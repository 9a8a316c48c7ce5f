package parsefreetext

import "deal-intake/internal/models"

type Input struct {
	Text string `json:"text"`
}

// ExtractedDeal is one deal found in free text. Invalid deals are kept so they can be edited.
type ExtractedDeal struct {
	Deal    models.DealRecord `json:"deal"`
	Missing []string          `json:"missing,omitempty"`
	Raw     string            `json:"raw"`
}

func (e ExtractedDeal) Valid() bool {
	return len(e.Missing) == 0
}

type Output struct {
	Deals []ExtractedDeal `json:"deals"`
}

// Records returns the extracted deals in order.
func (o *Output) Records() []models.DealRecord {
	out := make([]models.DealRecord, len(o.Deals))
	for i, d := range o.Deals {
		out[i] = d.Deal
	}
	return out
}

// ValidCount counts the deals with no missing fields.
func (o *Output) ValidCount() int {
	n := 0
	for _, d := range o.Deals {
		if d.Valid() {
			n++
		}
	}
	return n
}
