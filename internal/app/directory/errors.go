package directory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/bloodlink/internal/app/system/inputval"
)

var (
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("invalid input")
	// ErrDuplicatePhone means a donor with the same phone was found before
	// insert (or, with the unique index enabled, at insert).
	ErrDuplicatePhone = errors.New("this phone number is already registered")
	// ErrNotFound covers unknown IDs and empty phone lookups.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable wraps any failure from the database layer.
	ErrStoreUnavailable = errors.New("directory store unavailable")
)

// ValidationError lists the fields that failed their preconditions. It is
// returned before any store call is made.
type ValidationError struct {
	Fields []inputval.FieldError
}

func newValidationError(res inputval.Result) *ValidationError {
	return &ValidationError{Fields: res.Errors}
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: []inputval.FieldError{{Field: field, Message: msg}}}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "invalid input: " + strings.Join(msgs, " ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Field is the name of the first failing field.
func (e *ValidationError) Field() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0].Field
}

// Message is the first failure message.
func (e *ValidationError) Message() string {
	return inputval.Result{Errors: e.Fields}.First()
}

// ByField maps field name to its first message for inline display.
func (e *ValidationError) ByField() map[string]string {
	return inputval.Result{Errors: e.Fields}.ByField()
}

// AsValidation unwraps err to a *ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
