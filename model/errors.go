package model

import (
	"errors"
	"fmt"
)

// Kinds of ledger failures. Compare with errors.Is.
var (
	ErrValidation           = errors.New("VALIDATION_ERROR")
	ErrInsufficientBalance  = errors.New("INSUFFICIENT_BALANCE")
	ErrInsufficientPosition = errors.New("INSUFFICIENT_POSITION")
	ErrInvariantViolation   = errors.New("INVARIANT_VIOLATION")
	ErrPriceInvalid         = errors.New("PRICE_INVALID")
)

var ErrNotFound = errors.New("NOT_FOUND")

// ExecutionError is the typed failure of a ledger operation
type ExecutionError struct {
	Kind   error
	Reason string
}

func NewExecutionError(kind error, format string, args ...interface{}) *ExecutionError {
	return &ExecutionError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func (e *ExecutionError) Error() string {
	if e.Reason == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Reason
}

func (e *ExecutionError) Unwrap() error {
	return e.Kind
}

// Kind returns the taxonomy sentinel carried by err, or nil when err is not a ledger failure
func Kind(err error) error {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Kind
	}
	return nil
}

// Reason returns the human readable part of a ledger failure
func Reason(err error) string {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
