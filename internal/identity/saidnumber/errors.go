package saidnumber

import "fmt"

// ErrorKind is the machine-readable reason an identity number was rejected.
type ErrorKind string

const (
	// InvalidLength means the input is not exactly 13 digits after normalisation.
	InvalidLength ErrorKind = "InvalidLength"
	// InvalidDate means the embedded month or day is out of range.
	InvalidDate ErrorKind = "InvalidDate"
	// InvalidChecksum means the check digit does not match the first 12 digits.
	InvalidChecksum ErrorKind = "InvalidChecksum"
)

// Kinds lists every ErrorKind in the order checks are applied.
var Kinds = []ErrorKind{InvalidLength, InvalidDate, InvalidChecksum}

// ValidationError reports why Parse rejected its input.
type ValidationError struct {
	Kind   ErrorKind
	Detail string
}

// Sentinels for errors.Is matching. Matching compares Kind only.
var (
	ErrInvalidLength   = &ValidationError{Kind: InvalidLength}
	ErrInvalidDate     = &ValidationError{Kind: InvalidDate}
	ErrInvalidChecksum = &ValidationError{Kind: InvalidChecksum}
)

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("identity number: %s", e.Kind)
	}
	return fmt.Sprintf("identity number: %s: %s", e.Kind, e.Detail)
}

// Is reports whether target is a ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
