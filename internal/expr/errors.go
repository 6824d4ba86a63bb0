package expr

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Every SpecError matches ErrSpecification and
// every UnsupportedExpressionError matches ErrUnsupportedExpression.
var (
	ErrSpecification         = errors.New("invalid command specification")
	ErrUnsupportedExpression = errors.New("unsupported expression")
)

// SpecErrorCode categorizes specification errors.
type SpecErrorCode string

const (
	// ErrCodeEmptyList indicates a list renderer received no elements.
	ErrCodeEmptyList SpecErrorCode = "EMPTY_LIST"

	// ErrCodeEmptyRecord indicates a record with no bindings.
	ErrCodeEmptyRecord SpecErrorCode = "EMPTY_RECORD"

	// ErrCodeDuplicateBinding indicates two bindings with the same name.
	ErrCodeDuplicateBinding SpecErrorCode = "DUPLICATE_BINDING"

	// ErrCodeNestedRecord indicates a record below the root of a
	// specification.
	ErrCodeNestedRecord SpecErrorCode = "NESTED_RECORD"

	// ErrCodeForeignSlot indicates a field access on a slot that is not a
	// parameter of the enclosing specification.
	ErrCodeForeignSlot SpecErrorCode = "FOREIGN_SLOT"

	// ErrCodeMissingConflictColumns indicates an upsert without conflict
	// columns.
	ErrCodeMissingConflictColumns SpecErrorCode = "MISSING_CONFLICT_COLUMNS"

	// ErrCodeDuplicateConflictColumn indicates a repeated conflict column.
	ErrCodeDuplicateConflictColumn SpecErrorCode = "DUPLICATE_CONFLICT_COLUMN"

	// ErrCodeConflictColumnNotInserted indicates a conflict column that the
	// insert specification does not assign.
	ErrCodeConflictColumnNotInserted SpecErrorCode = "CONFLICT_COLUMN_NOT_INSERTED"

	// ErrCodeUnknownField indicates a field with no column mapping.
	ErrCodeUnknownField SpecErrorCode = "UNKNOWN_FIELD"

	// ErrCodeInvalidParameter indicates a name that cannot be used as a
	// placeholder or alias.
	ErrCodeInvalidParameter SpecErrorCode = "INVALID_PARAMETER"

	// ErrCodeAmbiguousParameter indicates two distinct parameters that
	// would share one placeholder name.
	ErrCodeAmbiguousParameter SpecErrorCode = "AMBIGUOUS_PARAMETER"

	// ErrCodeInvalidOutput indicates an output binding that is not a plain
	// field access on the output row.
	ErrCodeInvalidOutput SpecErrorCode = "INVALID_OUTPUT"

	// ErrCodeMissingPart indicates a required part (slot, body, value) is
	// nil.
	ErrCodeMissingPart SpecErrorCode = "MISSING_PART"
)

// SpecError reports a malformed command specification. These are caller
// bugs, never transient conditions.
type SpecError struct {
	// Code identifies the error category.
	Code SpecErrorCode

	// Field names the offending part, e.g. "update.Version" or "conflict".
	Field string

	// Message is a human-readable description.
	Message string
}

// NewSpecError creates a SpecError with a formatted message.
func NewSpecError(code SpecErrorCode, field, format string, args ...any) *SpecError {
	return &SpecError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *SpecError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SpecError) Is(target error) bool {
	return target == ErrSpecification
}

// UnsupportedExpressionError reports a construct outside the expression
// model.
type UnsupportedExpressionError struct {
	Node   Node
	Reason string
}

func (e *UnsupportedExpressionError) Error() string {
	if e.Node == nil {
		return fmt.Sprintf("unsupported expression: %s", e.Reason)
	}
	return fmt.Sprintf("unsupported expression %T: %s", e.Node, e.Reason)
}

func (e *UnsupportedExpressionError) Is(target error) bool {
	return target == ErrUnsupportedExpression
}

// Unsupported creates an UnsupportedExpressionError.
func Unsupported(n Node, format string, args ...any) *UnsupportedExpressionError {
	return &UnsupportedExpressionError{Node: n, Reason: fmt.Sprintf(format, args...)}
}

// IsSpecError returns true if err is or wraps a specification error.
// Uses errors.Is so errors from other packages matching ErrSpecification
// are included.
func IsSpecError(err error) bool {
	return errors.Is(err, ErrSpecification)
}

// IsUnsupported returns true if err is or wraps an unsupported expression
// error.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedExpression)
}

// SpecErrorCodeOf returns the code of a wrapped SpecError.
func SpecErrorCodeOf(err error) (SpecErrorCode, bool) {
	var se *SpecError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}
