package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies schema construction and mutation failures.
type ErrorKind string

const (
	KindInvalidOptions            ErrorKind = "invalidOptions"
	KindIncompatibleRule          ErrorKind = "incompatibleRule"
	KindReferencedByVisibility    ErrorKind = "referencedByVisibility"
	KindForwardReferenceViolation ErrorKind = "forwardReferenceViolation"
	KindInvalidReference          ErrorKind = "invalidReference"
	KindCycleDetected             ErrorKind = "cycleDetected"
	KindStaleVersion              ErrorKind = "staleVersion"
	KindInvalidType               ErrorKind = "invalidType"
	KindInvalidRule               ErrorKind = "invalidRule"
	KindInvalidCondition          ErrorKind = "invalidCondition"
	KindDuplicateField            ErrorKind = "duplicateField"
	KindUnknownField              ErrorKind = "unknownField"
	KindInvalidOrder              ErrorKind = "invalidOrder"
	KindReservedID                ErrorKind = "reservedId"
)

// Sentinels for errors.Is checks against a kind.
var (
	ErrInvalidOptions            = &SchemaError{Kind: KindInvalidOptions}
	ErrIncompatibleRule          = &SchemaError{Kind: KindIncompatibleRule}
	ErrReferencedByVisibility    = &SchemaError{Kind: KindReferencedByVisibility}
	ErrForwardReferenceViolation = &SchemaError{Kind: KindForwardReferenceViolation}
	ErrInvalidReference          = &SchemaError{Kind: KindInvalidReference}
	ErrCycleDetected             = &SchemaError{Kind: KindCycleDetected}
	ErrStaleVersion              = &SchemaError{Kind: KindStaleVersion}
	ErrInvalidType               = &SchemaError{Kind: KindInvalidType}
	ErrInvalidRule               = &SchemaError{Kind: KindInvalidRule}
	ErrInvalidCondition          = &SchemaError{Kind: KindInvalidCondition}
	ErrDuplicateField            = &SchemaError{Kind: KindDuplicateField}
	ErrUnknownField              = &SchemaError{Kind: KindUnknownField}
	ErrInvalidOrder              = &SchemaError{Kind: KindInvalidOrder}
	ErrReservedID                = &SchemaError{Kind: KindReservedID}
)

// SchemaError reports an invalid schema definition or a rejected mutation.
// It is never swallowed: a schema that produced one must not be persisted.
type SchemaError struct {
	Kind    ErrorKind `json:"kind"`
	FieldID string    `json:"fieldId,omitempty"`
	Message string    `json:"message,omitempty"`
}

// NewSchemaError formats a SchemaError of the given kind.
func NewSchemaError(kind ErrorKind, fieldID, format string, args ...any) *SchemaError {
	return &SchemaError{
		Kind:    kind,
		FieldID: fieldID,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *SchemaError) Error() string {
	if e == nil {
		return "schema: <nil>"
	}
	msg := "schema: " + string(e.Kind)
	if e.FieldID != "" {
		msg += fmt.Sprintf(" (field %q)", e.FieldID)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is matches any SchemaError of the same kind, so the Err* sentinels work
// with errors.Is.
func (e *SchemaError) Is(target error) bool {
	var other *SchemaError
	if !errors.As(target, &other) || other == nil || e == nil {
		return false
	}
	return other.Kind == e.Kind
}

// KindOf extracts the SchemaError kind from err.
func KindOf(err error) (ErrorKind, bool) {
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) && schemaErr != nil {
		return schemaErr.Kind, true
	}
	return "", false
}
