package models

import (
	"errors"
	"fmt"
)

// InvalidRequestError marks malformed or contradictory input: empty terms
// with no filter, unknown weight keys, bad paging. Never retried.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// CapExceededError marks page math that would require fetching past the
// configured candidate cap. A validation error, never retried.
type CapExceededError struct {
	Requested int
	Cap       int
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("candidate cap exceeded: need %d, cap %d", e.Requested, e.Cap)
}

// RetrievalUnavailableError marks an index store that stayed unreachable
// after the internal retry budget. Retryable by the caller.
type RetrievalUnavailableError struct {
	Attempts int
	Err      error
}

func (e *RetrievalUnavailableError) Error() string {
	return fmt.Sprintf("index store unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetrievalUnavailableError) Unwrap() error { return e.Err }

// ContractViolationError marks a store response that violates the expected
// shape. Indicates version skew, not a transient fault; never retried.
type ContractViolationError struct {
	Detail string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("index store contract violation: %s", e.Detail)
}

// IsInvalidRequest reports whether err is an InvalidRequestError or a
// CapExceededError (both are caller input faults).
func IsInvalidRequest(err error) bool {
	var ir *InvalidRequestError
	var ce *CapExceededError
	return errors.As(err, &ir) || errors.As(err, &ce)
}

// IsRetrievalUnavailable reports whether err wraps a RetrievalUnavailableError.
func IsRetrievalUnavailable(err error) bool {
	var ru *RetrievalUnavailableError
	return errors.As(err, &ru)
}

// IsContractViolation reports whether err wraps a ContractViolationError.
func IsContractViolation(err error) bool {
	var cv *ContractViolationError
	return errors.As(err, &cv)
}
