package errors

// Logger is the subset of logger.Logger the handler needs. Declared here to avoid an import cycle.
type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// ErrorHandler normalizes and logs errors that escape a request.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err against the session and returns its normalized form.
// Retryable errors are logged as warnings.
func (h *ErrorHandler) Handle(sessionID string, err error) *StandardError {
	if err == nil {
		return nil
	}
	stdErr := Normalize(err)

	fields := map[string]interface{}{
		"sessionId":     sessionID,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if stdErr.Retryable {
		h.logger.Warn("request failed", fields)
	} else {
		h.logger.Error("request failed", fields)
	}
	return stdErr
}

// UserMessage renders a StandardError as a short chat reply.
func UserMessage(e *StandardError) string {
	if e == nil {
		return ""
	}
	switch e.Code {
	case ErrCodeStoreUnavailable:
		return "❌ The deal store is unreachable right now. Nothing was lost, please try again shortly."
	case ErrCodeStoreCredentialMissing:
		return "❌ The deal store rejected our credentials. Please contact an administrator."
	case ErrCodeSessionLockTimeout:
		return "⏳ Still working on your previous message. Please wait a moment and resend."
	case ErrCodeTooManyDeals, ErrCodeMessageTooLong:
		return "❌ " + e.Message
	}
	return "❌ An error occurred while processing your deals.\nPlease check the format and try again."
}
