// Package errors provides standardized error types for expression planning
// and evaluation. ExprError carries the failing operation, a kind that
// separates planning failures from execution failures, and an optional
// wrapped cause.
package errors

import (
	"errors"
	"fmt"

	crdberrors "github.com/cockroachdb/errors"
)

// Kind classifies an ExprError
type Kind int

const (
	// KindInvalidInput is a malformed argument (wrong child count, bad flag, ...)
	KindInvalidInput Kind = iota
	// KindTypeMismatch is an operand type combination rejected while planning
	KindTypeMismatch
	// KindInternal is a broken invariant; never user-actionable
	KindInternal
	// KindUnsupportedType is a runtime type combination no kernel handles
	KindUnsupportedType
	// KindOverflow is an arithmetic result outside its target type's range
	KindOverflow
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindTypeMismatch:
		return "type mismatch"
	case KindInternal:
		return "internal error"
	case KindUnsupportedType:
		return "unsupported type"
	case KindOverflow:
		return "arithmetic overflow"
	default:
		return "unknown"
	}
}

// ExprError represents standardized errors across expression operations
type ExprError struct {
	Op      string // Operation name (e.g., "DateTimeIntervalExpr", "Evaluate")
	Kind    Kind   // Error classification
	Message string // Human-readable error description
	Hint    string // Optional remediation hint
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *ExprError) Error() string {
	msg := fmt.Sprintf("%s failed (%s): %s", e.Op, e.Kind, e.Message)
	if e.Hint != "" {
		msg += ". Hint: " + e.Hint
	}
	return msg
}

// Unwrap returns the underlying cause for error wrapping support
func (e *ExprError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is()
func (e *ExprError) Is(target error) bool {
	var other *ExprError
	if errors.As(target, &other) {
		return e.Op == other.Op && e.Kind == other.Kind && e.Message == other.Message
	}
	return false
}

// WithHint returns a copy of the error carrying a remediation hint
func (e *ExprError) WithHint(hint string) *ExprError {
	c := *e
	c.Hint = hint
	return &c
}

// NewTypeMismatchError creates an error for an operand type combination
// rejected at plan-build time.
func NewTypeMismatchError(op string, left fmt.Stringer, operator string, right fmt.Stringer) *ExprError {
	return &ExprError{
		Op:      op,
		Kind:    KindTypeMismatch,
		Message: fmt.Sprintf("invalid operation %s between '%s' and '%s'", operator, left, right),
	}
}

// NewInternalError creates an error for a broken invariant. The cause is an
// assertion failure so that callers can tell it apart from user errors.
func NewInternalError(op, format string, args ...interface{}) *ExprError {
	cause := crdberrors.AssertionFailedf(format, args...)
	return &ExprError{
		Op:      op,
		Kind:    KindInternal,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// NewUnsupportedTypeError creates an error for a runtime type combination
// that no kernel handles.
func NewUnsupportedTypeError(op, message string) *ExprError {
	return &ExprError{
		Op:      op,
		Kind:    KindUnsupportedType,
		Message: message,
	}
}

// NewOverflowError creates an error for an arithmetic result that does not
// fit its target type.
func NewOverflowError(op, message string) *ExprError {
	return &ExprError{
		Op:      op,
		Kind:    KindOverflow,
		Message: message,
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *ExprError {
	return &ExprError{
		Op:      op,
		Kind:    KindInvalidInput,
		Message: message,
	}
}

func hasKind(err error, kind Kind) bool {
	var e *ExprError
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsTypeMismatch reports whether err is a plan-time type mismatch
func IsTypeMismatch(err error) bool { return hasKind(err, KindTypeMismatch) }

// IsInvalidInput reports whether err is a malformed argument
func IsInvalidInput(err error) bool { return hasKind(err, KindInvalidInput) }

// IsInternal reports whether err is an internal invariant violation
func IsInternal(err error) bool { return hasKind(err, KindInternal) }

// IsUnsupportedType reports whether err is an unsupported runtime type combination
func IsUnsupportedType(err error) bool { return hasKind(err, KindUnsupportedType) }

// IsOverflow reports whether err is an arithmetic overflow
func IsOverflow(err error) bool { return hasKind(err, KindOverflow) }

// Predefined error variables for common cases
var (
	// ErrMismatchedLength indicates length mismatches in array-array operations
	ErrMismatchedLength = &ExprError{
		Op:      "validation",
		Kind:    KindInvalidInput,
		Message: "arrays must have the same length",
	}
)
