// Package ingesterror defines the error taxonomy of the ingestion and
// classification engine.
package ingesterror

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// DuplicateKey names the uniqueness constraint that identified a duplicate.
type DuplicateKey string

const (
	KeyExternalID    DuplicateKey = "external_id"
	KeyCanonicalHash DuplicateKey = "canonical_hash"
)

// DuplicateError means the event is already stored. It is control flow,
// reported to callers as a skipped outcome.
type DuplicateError struct {
	Key        DuplicateKey
	ExistingID string // empty when detected by an insert-time constraint
	Err        error
}

func (e *DuplicateError) Error() string {
	if e.ExistingID != "" {
		return fmt.Sprintf("duplicate transaction by %s (existing %s)", e.Key, e.ExistingID)
	}
	return fmt.Sprintf("duplicate transaction by %s", e.Key)
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// Reason returns the outcome reason for the key: duplicate_id or duplicate_hash.
func (e *DuplicateError) Reason() string {
	if e.Key == KeyExternalID {
		return "duplicate_id"
	}
	return "duplicate_hash"
}

// AccountResolutionError means the organization has no account the event can
// be booked on. Re-sending the event will not help.
type AccountResolutionError struct {
	OrganizationID string
	AccountRef     string
}

func (e *AccountResolutionError) Error() string {
	return fmt.Sprintf("no active account for organization %s (account ref %q)", e.OrganizationID, e.AccountRef)
}

// PersistenceError wraps an infrastructure failure. Safe to retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// MalformedInputError rejects an event before any side effect.
type MalformedInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("malformed input: %s='%s': %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("malformed input: %s: %s", e.Field, e.Reason)
}

// CategorizationError represents a classification failure for one transaction.
type CategorizationError struct {
	TransactionID string
	Strategy      string
	Err           error
}

func (e *CategorizationError) Error() string {
	return fmt.Sprintf("categorization failed for %s using %s: %v",
		e.TransactionID, e.Strategy, e.Err)
}

func (e *CategorizationError) Unwrap() error {
	return e.Err
}

// InvalidFormatError represents an import file that does not conform to the
// expected format.
type InvalidFormatError struct {
	FilePath       string
	ExpectedFormat string
	Msg            string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

// AsDuplicate returns the DuplicateError in err's chain, if any.
func AsDuplicate(err error) (*DuplicateError, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}

// IsDuplicate reports whether err is a DuplicateError.
func IsDuplicate(err error) bool {
	_, ok := AsDuplicate(err)
	return ok
}

// IsAccountResolution reports whether err is an AccountResolutionError.
func IsAccountResolution(err error) bool {
	var target *AccountResolutionError
	return errors.As(err, &target)
}

// IsMalformed reports whether err is a MalformedInputError.
func IsMalformed(err error) bool {
	var target *MalformedInputError
	return errors.As(err, &target)
}

// IsRetryable reports whether the caller may retry the operation that
// produced err. Only persistence failures qualify.
func IsRetryable(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}
