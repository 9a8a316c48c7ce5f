// Package errors provides the error codes and structured errors shared by the deal pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeFieldCountMismatch    ErrorCode = "FIELD_COUNT_MISMATCH"
	ErrCodeNumericFormatInvalid  ErrorCode = "NUMERIC_FORMAT_INVALID"
	ErrCodeDealValidationFailed  ErrorCode = "DEAL_VALIDATION_FAILED"
	ErrCodeClassificationUnknown ErrorCode = "CLASSIFICATION_UNKNOWN"
	ErrCodeTooManyDeals          ErrorCode = "TOO_MANY_DEALS"
	ErrCodeMessageTooLong        ErrorCode = "MESSAGE_TOO_LONG"

	ErrCodeStoreUnavailable        ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeStoreCredentialMissing  ErrorCode = "STORE_CREDENTIAL_MISSING"
	ErrCodeStoreSubmissionRejected ErrorCode = "STORE_SUBMISSION_REJECTED"

	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeSessionLockTimeout ErrorCode = "SESSION_LOCK_TIMEOUT"

	ErrCodeTelegramAPIFailed   ErrorCode = "TELEGRAM_API_FAILED"
	ErrCodeWebhookUnauthorized ErrorCode = "WEBHOOK_UNAUTHORIZED"
	ErrCodeInvalidUpdate       ErrorCode = "INVALID_UPDATE"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func newStandard(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewStoreUnavailableError marks the record store as unreachable for the whole request.
func NewStoreUnavailableError(store string, err error) *StandardError {
	return newStandard(ErrCodeStoreUnavailable, "Record store unavailable",
		fmt.Sprintf("store: %s, error: %v", store, err), true, err)
}

// NewStoreCredentialMissingError is returned when the store rejects or lacks credentials.
func NewStoreCredentialMissingError(store, details string) *StandardError {
	return newStandard(ErrCodeStoreCredentialMissing, "Record store credential missing or rejected",
		fmt.Sprintf("store: %s, %s", store, details), false, nil)
}

// NewStoreSubmissionRejectedError is a per-record failure; the batch continues.
func NewStoreSubmissionRejectedError(store, details string) *StandardError {
	return newStandard(ErrCodeStoreSubmissionRejected, "Record rejected by store",
		fmt.Sprintf("store: %s, %s", store, details), false, nil)
}

func NewSessionStoreFailedError(op string, err error) *StandardError {
	return newStandard(ErrCodeSessionStoreFailed, "Session store operation failed",
		fmt.Sprintf("op: %s, error: %v", op, err), true, err)
}

func NewSessionLockTimeoutError(sessionID string) *StandardError {
	return newStandard(ErrCodeSessionLockTimeout, "Timed out waiting for session lock",
		fmt.Sprintf("sessionId: %s", sessionID), true, nil)
}

// NewTelegramAPIError wraps a failed Bot API call.
func NewTelegramAPIError(method string, status int, description string) *StandardError {
	e := newStandard(ErrCodeTelegramAPIFailed, "Telegram API call failed",
		fmt.Sprintf("method: %s, status: %d, description: %s", method, status, description),
		status == 429 || status >= 500, nil)
	e.Metadata = map[string]interface{}{"method": method, "status": status}
	return e
}

func NewWebhookUnauthorizedError() *StandardError {
	return newStandard(ErrCodeWebhookUnauthorized, "Webhook secret mismatch", "", false, nil)
}

func NewInvalidUpdateError(details string) *StandardError {
	return newStandard(ErrCodeInvalidUpdate, "Invalid update payload", details, false, nil)
}

func NewTooManyDealsError(count, max int) *StandardError {
	return newStandard(ErrCodeTooManyDeals, fmt.Sprintf("Too many deals (%d). Maximum is %d.", count, max),
		"", false, nil)
}

func NewMessageTooLongError(length, max int) *StandardError {
	return newStandard(ErrCodeMessageTooLong, "Message too long. Please split into smaller batches.",
		fmt.Sprintf("length: %d, max: %d", length, max), false, nil)
}

func NewNotificationSendFailedError(provider string, err error) *StandardError {
	return newStandard(ErrCodeNotificationSendFailed, "Failed to send failure report",
		fmt.Sprintf("provider: %s, error: %v", provider, err), true, err)
}

// Normalize converts any error into a StandardError. Typed pipeline errors keep their codes.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	var coded interface{ Code() ErrorCode }
	if stderrors.As(err, &coded) {
		return newStandard(coded.Code(), err.Error(), "", false, err)
	}
	return newStandard(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// CodeOf returns the error code carried by err, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return Normalize(err).Code
}

// IsFatal reports whether err aborts the whole request rather than a single record.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case ErrCodeStoreUnavailable, ErrCodeStoreCredentialMissing:
		return true
	}
	return false
}

// IsRetryable reports whether the operation may succeed on a later attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Normalize(err).Retryable
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "FIELD_COUNT") || strings.Contains(codeStr, "NUMERIC") ||
		strings.Contains(codeStr, "CLASSIFICATION"):
		return "parse"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "TOO_"):
		return "validation"
	case strings.HasPrefix(codeStr, "STORE_"):
		return "store"
	case strings.HasPrefix(codeStr, "SESSION_"):
		return "session"
	case strings.Contains(codeStr, "TELEGRAM") || strings.Contains(codeStr, "WEBHOOK") ||
		strings.Contains(codeStr, "UPDATE") || strings.Contains(codeStr, "NOTIFICATION"):
		return "transport"
	default:
		return "internal"
	}
}
