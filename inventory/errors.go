/*
errors.go - Centralized error types for the inventory engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The HTTP layer maps these onto status codes; callers classify with
  errors.Is / errors.As.

ERROR CATEGORIES:
  1. Input errors - malformed requests, rejected before any lock is taken
  2. Stock errors - sufficiency failures found at commit time
  3. Transition errors - lifecycle actions from a state that forbids them
  4. Lock timeouts - bounded waits that expired under contention
  5. Consistency violations - ledger replay disagreeing with the view
     (internal; forces a replay-based rebuild, never silently swallowed)

SEE ALSO:
  - ledger.go: Uses the input errors
  - reconcile.go: Uses InsufficientStockError
  - locks.go: Uses LockTimeoutError
*/
package inventory

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidationInput is returned for malformed requests: missing product
	// or location references, non-positive quantity where one is required.
	// Always rejected before any lock is taken.
	ErrValidationInput = errors.New("invalid input")

	// ErrInsufficientStock is returned when a transfer or a validation found
	// inadequate stock at commit time.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidTransition is returned when a lifecycle action is requested
	// from a state that does not permit it. A caller logic error, never
	// retried automatically.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrLockTimeout is returned when contention exceeded the bounded wait.
	// Retryable by the caller; not data corruption.
	ErrLockTimeout = errors.New("lock wait timed out")

	// ErrConsistencyViolation indicates the materialized view disagreed with
	// a full ledger replay. Should never surface to callers: the affected
	// entry is rebuilt from replay and the violation reported for operators.
	ErrConsistencyViolation = errors.New("stock view inconsistent with ledger")

	// ErrNotFound is returned when a referenced operation, product or
	// location does not exist.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidMoveError reports a Move rejected by the ledger before append:
// zero quantity, or location/product references missing for its type.
type InvalidMoveError struct {
	Type   MoveType
	Reason string
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("invalid %s move: %s", e.Type, e.Reason)
}

func (e *InvalidMoveError) Unwrap() error { return ErrValidationInput }

// InsufficientStockError details a sufficiency failure. For operations it
// lists every short line; for transfers exactly one entry.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	if len(e.Shortfalls) == 1 {
		s := e.Shortfalls[0]
		return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
			s.Product, s.Requested, s.Available)
	}
	return fmt.Sprintf("insufficient stock on %d lines", len(e.Shortfalls))
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InvalidTransitionError reports a lifecycle action from a forbidding state.
type InvalidTransitionError struct {
	Operation OperationID
	From      OperationStatus
	Action    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s operation %s while %s", e.Action, e.Operation, e.From)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// LockTimeoutError reports which mutation point could not be acquired.
type LockTimeoutError struct {
	Key  string
	Wait time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", e.Wait, e.Key)
}

func (e *LockTimeoutError) Unwrap() error { return ErrLockTimeout }

// ConsistencyViolationError reports a view entry that disagreed with replay.
type ConsistencyViolationError struct {
	Product  ProductID
	Location LocationID
	View     int64
	Replay   int64
}

func (e *ConsistencyViolationError) Error() string {
	return fmt.Sprintf("stock view for %s@%s holds %d, ledger replay gives %d",
		e.Product, e.Location, e.View, e.Replay)
}

func (e *ConsistencyViolationError) Unwrap() error { return ErrConsistencyViolation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}

// IsClientError returns true if the error is due to the caller's input or
// timing rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidationInput) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrNotFound)
}
