package model

import (
	"errors"
	"fmt"
)

// MalformedInputError marks an input row with missing or unparseable fields.
// The row is skipped and the run continues.
type MalformedInputError struct {
	Source string // e.g. "items", "orders", "refunds", "ledger"
	Row    int    // 1-based data row, 0 when unknown
	Field  string
	Err    error
}

func (e *MalformedInputError) Error() string {
	loc := e.Source
	if e.Row > 0 {
		loc = fmt.Sprintf("%s row %d", e.Source, e.Row)
	}
	if e.Field != "" {
		return fmt.Sprintf("malformed input (%s, field %q): %v", loc, e.Field, e.Err)
	}
	return fmt.Sprintf("malformed input (%s): %v", loc, e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// InvariantViolation marks an order, refund or transaction the engine refuses
// to act on: totals that do not reconcile, duplicate ids, or a match that
// cannot be resolved deterministically.
type InvariantViolation struct {
	Key    string
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation for %s: %s", e.Key, e.Reason)
}

// CollaboratorError wraps a failure reported by the ledger service for one
// plan entry.
type CollaboratorError struct {
	TransactionID string
	Op            string
	Err           error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("ledger %s failed for transaction %s: %v", e.Op, e.TransactionID, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// ErrNotFound is returned by ledger implementations for unknown transaction ids.
var ErrNotFound = errors.New("transaction not found")

// IsMalformed reports whether err is or wraps a MalformedInputError.
func IsMalformed(err error) bool {
	var target *MalformedInputError
	return errors.As(err, &target)
}

// IsInvariantViolation reports whether err is or wraps an InvariantViolation.
func IsInvariantViolation(err error) bool {
	var target *InvariantViolation
	return errors.As(err, &target)
}
