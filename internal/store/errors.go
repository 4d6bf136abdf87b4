package store

import (
	"errors"
	"fmt"

	"github.com/dpmglangsa/gampong/internal/ledger"
)

var (
	// ErrNotFound is returned when no row matches a lookup.
	ErrNotFound = errors.New("not found")
	// ErrBackendUnavailable matches every BackendError caused by the backend
	// itself rather than by a missing row or sheet.
	ErrBackendUnavailable = errors.New("ledger backend unavailable")
	// ErrSheetNotFound is returned by backends asked for an unknown sheet.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrHeaderRegion is returned for writes that would touch header rows.
	ErrHeaderRegion = errors.New("write inside header region")
)

// BackendError wraps a failed backend call.
type BackendError struct {
	Op     string
	Ledger ledger.Kind
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Ledger, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is reports ErrBackendUnavailable for failures other than missing data.
func (e *BackendError) Is(target error) bool {
	if target != ErrBackendUnavailable {
		return false
	}
	return !errors.Is(e.Err, ErrNotFound) && !errors.Is(e.Err, ErrSheetNotFound)
}

// NotFoundError describes a failed row lookup.
type NotFoundError struct {
	Ledger ledger.Kind
	Key    string
	Seq    string
}

func (e *NotFoundError) Error() string {
	if e.Seq != "" {
		return fmt.Sprintf("%s: no row for %q #%s", e.Ledger, e.Key, e.Seq)
	}
	return fmt.Sprintf("%s: no row for %q", e.Ledger, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
