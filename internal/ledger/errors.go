package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentNotFound is returned when an operation references a doc_id
	// with no provenance entry.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentExists is returned when register is called for a doc_id
	// that already has a live provenance entry. Silent re-registration would
	// let a modified document be laundered as original.
	ErrDocumentExists = errors.New("document already registered")
)

// IntegrityError reports the first broken link or hash mismatch found while
// walking the chain. It is reported to the caller and never auto-repaired.
type IntegrityError struct {
	BlockIndex int
	Reason     string
	Expected   string
	Actual     string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("CHAIN INTEGRITY VIOLATION at block %d: %s (expected %s, got %s)",
		e.BlockIndex, e.Reason, e.Expected, e.Actual)
}

func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

func AsIntegrityError(err error) *IntegrityError {
	var ie *IntegrityError
	if errors.As(err, &ie) {
		return ie
	}
	return nil
}
