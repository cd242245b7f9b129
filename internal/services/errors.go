package services

import (
	"errors"
	"strings"
)

// Sentinel error kinds. Services wrap context around these with %w so
// callers can classify with errors.Is.
var (
	// ErrNotFound: a referenced product or invoice id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateReference: a product reference code is already taken.
	ErrDuplicateReference = errors.New("duplicate reference")
	// ErrDuplicateNumber: an invoice number is already taken.
	ErrDuplicateNumber = errors.New("duplicate invoice number")
	// ErrValidation: input rejected before touching storage.
	ErrValidation = errors.New("validation failed")
	// ErrStorage: the underlying store is unavailable or a query failed.
	ErrStorage = errors.New("storage error")
	// ErrTransactionAborted: a batch was rolled back mid-way.
	ErrTransactionAborted = errors.New("transaction aborted")
)

// isUniqueViolation detects sqlite unique-constraint failures. The driver
// does not expose a typed error for this.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
