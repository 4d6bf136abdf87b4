package grid

import (
	"strconv"
	"strings"
)

// NormalizeSeq canonicalises a sequence-number cell. Spreadsheet exports
// commonly turn 7 into "7.0" or "07"; all of those yield "7". The second
// result is false when the cell is not a non-negative integer.
func NormalizeSeq(s string) (string, bool) {
	s = stripFloatSuffix(CleanCell(s))
	if s == "" || !isDigits(s) {
		return "", false
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		s = "0"
	}
	return s, true
}

// ParseSeq coerces a sequence-number cell to an int. Invalid input yields
// nil rather than an error.
func ParseSeq(s string) *int {
	norm, ok := NormalizeSeq(s)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(norm)
	if err != nil {
		return nil
	}
	return &n
}

// SameSeq reports whether two cells hold the same sequence number.
func SameSeq(a, b string) bool {
	na, okA := NormalizeSeq(a)
	nb, okB := NormalizeSeq(b)
	return okA && okB && na == nb
}

// MaxSeq returns the largest valid sequence number among values, or 0.
// Invalid cells are skipped.
func MaxSeq(values []string) int {
	max := 0
	for _, v := range values {
		if n := ParseSeq(v); n != nil && *n > max {
			max = *n
		}
	}
	return max
}

// TextID cleans an identifier cell (national ID, phone, village code) without
// ever treating it as a number: a trailing ".0" added by float conversion is
// removed, leading zeros are kept.
func TextID(s string) string {
	return stripFloatSuffix(CleanCell(s))
}

func stripFloatSuffix(s string) string {
	if i := strings.IndexByte(s, '.'); i > 0 {
		frac := s[i+1:]
		if frac != "" && strings.Trim(frac, "0") == "" && isDigits(s[:i]) {
			return s[:i]
		}
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	return isDigits(s)
}
