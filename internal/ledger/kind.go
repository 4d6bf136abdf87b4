// Package ledger defines the four gampong ledgers, their physical layouts,
// and the normalized records read from them.
package ledger

import (
	"fmt"
	"strings"
)

// Kind identifies one ledger.
type Kind string

const (
	// Roster is the compact sub-district / cluster / village-head table.
	Roster Kind = "roster"
	// Detail holds one row of personal detail per village head.
	Detail Kind = "detail"
	// Staff lists every village official, one row per position.
	Staff Kind = "staff"
	// Council lists village council (Tuha Peuet) members and secretaries.
	Council Kind = "council"
)

// Kinds lists every ledger in export order.
var Kinds = []Kind{Roster, Detail, Staff, Council}

// ParseKind resolves a ledger name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown ledger %q", s)
}

// SubDistricts is the closed set of sub-district (kecamatan) names.
var SubDistricts = []string{
	"LANGSA TIMUR",
	"LANGSA BARAT",
	"LANGSA KOTA",
	"LANGSA BARO",
	"LANGSA LAMA",
}

// IsSubDistrict reports whether name is one of the known sub-districts.
func IsSubDistrict(name string) bool {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, s := range SubDistricts {
		if s == name {
			return true
		}
	}
	return false
}
