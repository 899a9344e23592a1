package gitobj

import (
	"errors"
	"fmt"
)

// The error kinds below form the closed taxonomy required by spec.md §7.
// Every public gitkit operation either succeeds or returns an error that
// satisfies exactly one of the Is* predicates below (via errors.As), never a
// bare string to be pattern-matched.

// NotFoundError reports that an object id, ref name, path or pack entry is
// absent. A caller that sees NotFoundError from the object store has
// checked every backing store (loose + every pack); NotFoundError from one
// backend alone is not surfaced on its own (spec.md §7).
type NotFoundError struct {
	What string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("not found: %s: %v", e.What, e.Err)
	}
	return "not found: " + e.What
}
func (e *NotFoundError) Unwrap() error { return e.Err }

// NewNotFoundError builds a NotFoundError naming what was missing.
func NewNotFoundError(what string) *NotFoundError { return &NotFoundError{What: what} }

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// AlreadyExistsError reports a ref create without force, or a file conflict
// on an atomic rename.
type AlreadyExistsError struct{ What string }

func (e *AlreadyExistsError) Error() string { return "already exists: " + e.What }

// NewAlreadyExistsError builds an AlreadyExistsError naming what conflicted.
func NewAlreadyExistsError(what string) *AlreadyExistsError {
	return &AlreadyExistsError{What: what}
}

// IsAlreadyExists reports whether err is, or wraps, an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var e *AlreadyExistsError
	return errors.As(err, &e)
}

// CorruptionError reports a hash mismatch, malformed envelope, malformed
// pack header, broken delta chain, or checksum mismatch. Corruption errors
// are never swallowed; they abort the current operation (spec.md §7).
type CorruptionError struct {
	What string
	Err  error
}

func (e *CorruptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corruption: %s: %v", e.What, e.Err)
	}
	return "corruption: " + e.What
}
func (e *CorruptionError) Unwrap() error { return e.Err }

// NewCorruptionError builds a CorruptionError, optionally wrapping a lower
// level cause.
func NewCorruptionError(what string, cause error) *CorruptionError {
	return &CorruptionError{What: what, Err: cause}
}

// IsCorruption reports whether err is, or wraps, a CorruptionError.
func IsCorruption(err error) bool {
	var e *CorruptionError
	return errors.As(err, &e)
}

// InvalidArgumentError reports a bad ref name, bad id format, invalid tree
// entry mode, or a path that escapes its root.
type InvalidArgumentError struct{ What string }

func (e *InvalidArgumentError) Error() string { return "invalid argument: " + e.What }

// NewInvalidArgumentError builds an InvalidArgumentError.
func NewInvalidArgumentError(what string) *InvalidArgumentError {
	return &InvalidArgumentError{What: what}
}

// IsInvalidArgument reports whether err is, or wraps, an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var e *InvalidArgumentError
	return errors.As(err, &e)
}

// CasConflictError reports that a ref update's compare-and-swap precondition
// failed. It carries the value actually observed so the caller can retry or
// report it (spec.md §4.4, §8 property 8).
type CasConflictError struct {
	Ref      string
	Expected string
	Observed string
}

func (e *CasConflictError) Error() string {
	return fmt.Sprintf("cas conflict on %s: expected %q, observed %q", e.Ref, e.Expected, e.Observed)
}

// IsCasConflict reports whether err is, or wraps, a CasConflictError, and
// returns it for inspection.
func IsCasConflict(err error) (*CasConflictError, bool) {
	var e *CasConflictError
	ok := errors.As(err, &e)
	return e, ok
}

// ConflictingStateError reports that an operation was attempted while a
// transformation (merge/rebase/cherry-pick/revert) is already in progress,
// or that a tree-write was attempted with stage > 0 entries present.
type ConflictingStateError struct{ What string }

func (e *ConflictingStateError) Error() string { return "conflicting state: " + e.What }

// NewConflictingStateError builds a ConflictingStateError.
func NewConflictingStateError(what string) *ConflictingStateError {
	return &ConflictingStateError{What: what}
}

// IsConflictingState reports whether err is, or wraps, a ConflictingStateError.
func IsConflictingState(err error) bool {
	var e *ConflictingStateError
	return errors.As(err, &e)
}

// ChainTooDeepError reports a symbolic-ref resolution chain or a delta chain
// that exceeds its configured depth limit.
type ChainTooDeepError struct {
	What  string
	Limit int
}

func (e *ChainTooDeepError) Error() string {
	return fmt.Sprintf("chain too deep: %s exceeds limit of %d", e.What, e.Limit)
}

// NewChainTooDeepError builds a ChainTooDeepError.
func NewChainTooDeepError(what string, limit int) *ChainTooDeepError {
	return &ChainTooDeepError{What: what, Limit: limit}
}

// IsChainTooDeep reports whether err is, or wraps, a ChainTooDeepError.
func IsChainTooDeep(err error) bool {
	var e *ChainTooDeepError
	return errors.As(err, &e)
}

// NotImplementedError reports an optional capability a particular backend
// does not support (e.g. pack-refs on a memory-only ref store).
type NotImplementedError struct{ What string }

func (e *NotImplementedError) Error() string { return "not implemented: " + e.What }

// NewNotImplementedError builds a NotImplementedError.
func NewNotImplementedError(what string) *NotImplementedError {
	return &NotImplementedError{What: what}
}

// IsNotImplemented reports whether err is, or wraps, a NotImplementedError.
func IsNotImplemented(err error) bool {
	var e *NotImplementedError
	return errors.As(err, &e)
}

// BackendError wraps an underlying storage error (I/O, KV backend) without
// interpreting it further. Raw-storage and filesystem errors propagate
// unchanged, wrapped in BackendError, at the layer that first touches them.
type BackendError struct{ Err error }

func (e *BackendError) Error() string { return "backend error: " + e.Err.Error() }
func (e *BackendError) Unwrap() error { return e.Err }

// WrapBackend wraps a lower-level error as a BackendError. It returns nil if
// err is nil, so it is safe to use as `return gitobj.WrapBackend(err)`.
func WrapBackend(err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Err: err}
}

// IsBackend reports whether err is, or wraps, a BackendError.
func IsBackend(err error) bool {
	var e *BackendError
	return errors.As(err, &e)
}
