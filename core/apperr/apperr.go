// Package apperr defines the error taxonomy shared by the core services.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindInternal is any error outside the taxonomy.
	KindInternal Kind = iota
	// KindValidation means a precondition failed.
	KindValidation
	// KindNotFound means a referenced entity is absent.
	KindNotFound
	// KindConflict means the transition is not permitted from the current state.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Machine readable codes carried by Error.
const (
	CodeInvalidInput          = "INVALID_INPUT"
	CodeInvalidInterval       = "INVALID_INTERVAL"
	CodeDriverUnavailable     = "DRIVER_UNAVAILABLE"
	CodeTractorNotOperational = "TRACTOR_NOT_OPERATIONAL"
	CodeTractorBound          = "TRACTOR_BOUND"
	CodeTripExists            = "TRIP_EXISTS"
	CodeTripFinalized         = "TRIP_FINALIZED"
	CodeWeekLocked            = "WEEK_LOCKED"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeNotEditable           = "NOT_EDITABLE"
	CodeAlreadyClosed         = "ALREADY_CLOSED"
	CodeMaintenanceOpen       = "MAINTENANCE_OPEN"
	CodeNotFound              = "NOT_FOUND"
)

// Error is a classified failure.
type Error struct {
	Kind Kind
	Code string
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Msg
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a KindValidation error.
func Validation(op, code, format string, args ...any) error {
	return &Error{Kind: KindValidation, Code: code, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a KindNotFound error for entity id.
func NotFound(op, entity string, id any) error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Op: op, Msg: fmt.Sprintf("%s %v not found", entity, id)}
}

// Conflict returns a KindConflict error.
func Conflict(op, code, format string, args ...any) error {
	return &Error{Kind: KindConflict, Code: code, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }

// Required returns a validation error naming field when value is blank.
func Required(op, field, value string) error {
	if value == "" {
		return Validation(op, CodeInvalidInput, "%s is required", field)
	}
	return nil
}
