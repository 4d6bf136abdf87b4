package core

import "errors"

var (
	// ErrProtectedPosition is returned when an edit would delete a protected
	// row or move it to another position family.
	ErrProtectedPosition = errors.New("protected position")

	// ErrUnknownField is returned for columns that cannot be edited.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidValue is returned when a value cannot be stored in its column.
	ErrInvalidValue = errors.New("invalid value")

	// ErrNoSecretarySlot is returned when a council block has no rows for the
	// secretary lines.
	ErrNoSecretarySlot = errors.New("no secretary lines in village block")

	// ErrNothingToExport is returned when every ledger is empty.
	ErrNothingToExport = errors.New("nothing to export")
)
