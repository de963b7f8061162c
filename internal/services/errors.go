package services

// Service error types, mapped to HTTP error envelopes in the handlers
// package. All of them are recoverable by the caller through
// re-fetch-and-retry.

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

// ConflictError signals that an optimistic-concurrency precondition
// failed: the caller's view of the record is stale and it should
// re-fetch before retrying.
type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

// InvalidStateError signals an operation against a challenge whose
// current status disallows it, e.g. answering a pending duel.
type InvalidStateError struct{ Message string }

func (e *InvalidStateError) Error() string { return e.Message }
