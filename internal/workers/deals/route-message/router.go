package routemessage

import (
	"strings"

	"deal-intake/internal/models"
	classifyformat "deal-intake/internal/workers/deals/classify-format"
)

// Routing reasons, used in logs and tests.
const (
	ReasonNoUpdate           = "no_update"
	ReasonEditedMessage      = "edited_message"
	ReasonEmptyText          = "empty_text"
	ReasonEditing            = "editing"
	ReasonCallback           = "callback"
	ReasonCallbackStructured = "callback_structured_origin"
	ReasonClassified         = "classified"
)

// OriginResolver finds the text a button press refers to.
type OriginResolver interface {
	OriginText(cb *models.CallbackQuery) (string, bool)
}

// ReplyOrigin resolves a callback to the message its button message replied to.
type ReplyOrigin struct{}

func (ReplyOrigin) OriginText(cb *models.CallbackQuery) (string, bool) {
	if cb == nil || cb.Message == nil || cb.Message.ReplyToMessage == nil {
		return "", false
	}
	text := strings.TrimSpace(cb.Message.ReplyToMessage.Text)
	return text, text != ""
}

// Router decides which flow handles an update.
type Router struct {
	classify func(string) models.FormatVerdict
	origin   OriginResolver
}

func NewRouter(origin OriginResolver) *Router {
	if origin == nil {
		origin = ReplyOrigin{}
	}
	return &Router{classify: classifyformat.Classify, origin: origin}
}

// Route maps an update and the session's state onto a flow.
//
// Button presses go to the complex flow unless the message they belong to is a delimited
// batch. A session that is editing a field takes the next text verbatim. Everything else is
// classified.
func (r *Router) Route(u *models.Update, state *models.ConversationState) Decision {
	if u == nil {
		return Decision{Flow: FlowInvalid, Reason: ReasonNoUpdate}
	}

	if cb := u.CallbackQuery; cb != nil {
		d := Decision{Flow: FlowComplex, Callback: ClassifyCallback(cb.Data), Reason: ReasonCallback}
		if text, ok := r.origin.OriginText(cb); ok {
			v := r.classify(text)
			d.Verdict = &v
			if v.Kind == models.FormatStructured {
				d.Flow = FlowSimple
				d.Payload = text
				d.Reason = ReasonCallbackStructured
			}
		}
		return d
	}

	if u.Message == nil {
		reason := ReasonNoUpdate
		if u.EditedMessage != nil {
			reason = ReasonEditedMessage
		}
		return Decision{Flow: FlowInvalid, Reason: reason}
	}

	text := strings.TrimSpace(u.Message.Text)
	if text == "" {
		return Decision{Flow: FlowInvalid, Reason: ReasonEmptyText}
	}

	if state.Mode() == models.ModeEditing {
		return Decision{Flow: FlowComplex, Payload: text, Reason: ReasonEditing}
	}

	v := r.classify(text)
	d := Decision{Verdict: &v, Reason: ReasonClassified}
	switch v.Kind {
	case models.FormatStructured:
		d.Flow, d.Payload = FlowSimple, text
	case models.FormatUnstructured:
		d.Flow, d.Payload = FlowComplex, text
	default:
		d.Flow = FlowInvalid
	}
	return d
}

var defaultRouter = NewRouter(nil)

// Route uses the default router.
func Route(u *models.Update, state *models.ConversationState) Decision {
	return defaultRouter.Route(u, state)
}

// ClassifyCallback maps button data onto its callback type.
func ClassifyCallback(data string) CallbackType {
	switch {
	case data == "":
		return CallbackUnknown
	case hasAnyPrefix(data, "approve_", "reject_"):
		return CallbackAction
	case hasAnyPrefix(data, "edit_", "editfield_"):
		return CallbackEdit
	case hasAnyPrefix(data, "next_", "prev_"):
		return CallbackNavigation
	case strings.HasPrefix(data, "back_"):
		return CallbackBack
	}
	return CallbackUnknown
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
