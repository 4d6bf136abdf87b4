package core

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/normalize"
)

// ValidationError reports a value rejected for a column.
type ValidationError struct {
	Column string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Column, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidValue
}

// requiredColumns address a row and cannot be cleared.
var requiredColumns = []string{
	ledger.ColNo, ledger.ColSeq, ledger.ColMemberNo, ledger.ColVillage, ledger.ColDesa,
}

// ValidateCell returns value in the form column stores it: identifiers as
// text, gender as L/P, dates zero-padded, education canonicalised. An empty
// value clears the cell, except in sequence and key columns.
func ValidateCell(column, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		if slices.Contains(requiredColumns, column) {
			return "", &ValidationError{column, value, "value is required"}
		}
		return "", nil
	}
	switch column {
	case ledger.ColVillageCode, ledger.ColNationalID, ledger.ColPhone:
		return grid.TextID(v), nil
	case ledger.ColGender:
		code := ledger.ParseGender(v).Code()
		if code == "" {
			return "", &ValidationError{column, value, "want L or P"}
		}
		return code, nil
	case ledger.ColBirthDay:
		return datePart(column, v, 31)
	case ledger.ColBirthMonth:
		return datePart(column, v, 12)
	case ledger.ColBirthYear:
		n, ok := grid.NormalizeSeq(v)
		if !ok || len(n) != 4 {
			return "", &ValidationError{column, value, "want a four-digit year"}
		}
		return n, nil
	case ledger.ColSeq, ledger.ColMemberNo:
		n := grid.ParseSeq(v)
		if n == nil || *n < 1 {
			return "", &ValidationError{column, value, "want a positive number"}
		}
		return strconv.Itoa(*n), nil
	case ledger.ColEducation:
		ed := normalize.Education(v)
		if !slices.Contains(normalize.EducationLevels, ed) {
			return "", &ValidationError{column, value, "want one of " + strings.Join(normalize.EducationLevels, ", ")}
		}
		return ed, nil
	}
	return v, nil
}

func datePart(column, v string, max int) (string, error) {
	n := grid.ParseSeq(v)
	if n == nil || *n < 1 || *n > max {
		return "", &ValidationError{column, v, fmt.Sprintf("want 1..%d", max)}
	}
	return fmt.Sprintf("%02d", *n), nil
}

// editableColumn resolves name against allowed, case-insensitively.
func editableColumn(name string, allowed []string) (string, error) {
	col := strings.ToUpper(strings.TrimSpace(name))
	for _, a := range allowed {
		if a == col {
			return col, nil
		}
	}
	return "", fmt.Errorf("%s: %w", name, ErrUnknownField)
}
