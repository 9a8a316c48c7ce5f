package routemessage

import "deal-intake/internal/models"

// Flow names the handler a message is dispatched to.
type Flow string

const (
	FlowSimple  Flow = "simple"
	FlowComplex Flow = "complex"
	FlowInvalid Flow = "invalid"
)

// CallbackType groups inline button payloads by prefix.
type CallbackType string

const (
	CallbackNone       CallbackType = ""
	CallbackAction     CallbackType = "action"
	CallbackEdit       CallbackType = "edit"
	CallbackNavigation CallbackType = "navigation"
	CallbackBack       CallbackType = "back"
	CallbackUnknown    CallbackType = "unknown"
)

// Decision is the outcome of routing one update. Payload is empty when the flow gets no text.
type Decision struct {
	Flow     Flow                  `json:"flow"`
	Payload  string                `json:"payload,omitempty"`
	Verdict  *models.FormatVerdict `json:"verdict,omitempty"`
	Callback CallbackType          `json:"callback,omitempty"`
	Reason   string                `json:"reason"`
}

type Input struct {
	Update *models.Update            `json:"update"`
	State  *models.ConversationState `json:"state"`
}

type Output struct {
	Decision Decision `json:"decision"`
}
