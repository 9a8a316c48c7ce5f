package errors

import (
	"fmt"
	"strings"
)

// FieldCountError is returned when a delimited line does not split into the expected number of fields.
type FieldCountError struct {
	Expected int
	Actual   int
}

func (e *FieldCountError) Error() string {
	return fmt.Sprintf("expected %d fields, got %d", e.Expected, e.Actual)
}

func (e *FieldCountError) Code() ErrorCode { return ErrCodeFieldCountMismatch }

// NumericFormatError names a numeric field whose token is neither a number nor the placeholder.
type NumericFormatError struct {
	Field string
	Token string
}

func (e *NumericFormatError) Error() string {
	return fmt.Sprintf("invalid %s value '%s': must be a number or '&'", e.Field, e.Token)
}

func (e *NumericFormatError) Code() ErrorCode { return ErrCodeNumericFormatInvalid }

// ValidationError lists every field that is missing or invalid on a parsed record.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Code() ErrorCode { return ErrCodeDealValidationFailed }

// Has reports whether field is among the invalid fields.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// ClassificationUnknownError surfaces an UNKNOWN format verdict as an invalid-format outcome.
type ClassificationUnknownError struct {
	Confidence float64
}

func (e *ClassificationUnknownError) Error() string {
	return "message does not look like a deal in any supported format"
}

func (e *ClassificationUnknownError) Code() ErrorCode { return ErrCodeClassificationUnknown }
