package ledger

import "strings"

// PositionKind is the closed set of position families.
type PositionKind int

const (
	PositionOther PositionKind = iota
	PositionVillageHead
	PositionActingVillageHead
	PositionSecretary
	PositionCoreStaff
	PositionHamletHead
)

var positionKindNames = map[PositionKind]string{
	PositionOther:             "other",
	PositionVillageHead:       "village_head",
	PositionActingVillageHead: "acting_village_head",
	PositionSecretary:         "secretary",
	PositionCoreStaff:         "core_staff",
	PositionHamletHead:        "hamlet_head",
}

func (k PositionKind) String() string {
	return positionKindNames[k]
}

// Position is a classified position title. Title keeps the text as written
// in the ledger.
type Position struct {
	Kind  PositionKind `json:"kind"`
	Title string       `json:"title"`
}

var exactPositions = map[string]PositionKind{
	"KEPALA DESA":        PositionVillageHead,
	"GEUCHIK":            PositionVillageHead,
	"PJ. KEPALA DESA":    PositionActingVillageHead,
	"PJ KEPALA DESA":     PositionActingVillageHead,
	"PJ. GEUCHIK":        PositionActingVillageHead,
	"PJ GEUCHIK":         PositionActingVillageHead,
	"SEKRETARIS DESA":    PositionSecretary,
	"SEKDES":             PositionSecretary,
	"KASI PEMERINTAHAN":  PositionCoreStaff,
	"KASI PELAYANAN":     PositionCoreStaff,
	"KASI KESEJAHTERAAN": PositionCoreStaff,
	"KAUR KEUANGAN":      PositionCoreStaff,
	"KAUR UMUM":          PositionCoreStaff,
	"KAUR PERENCANAAN":   PositionCoreStaff,
}

// ClassifyPosition maps a position title to its family. Every position
// decision in the codebase goes through here.
func ClassifyPosition(title string) Position {
	key := strings.Join(strings.Fields(strings.ToUpper(title)), " ")
	if k, ok := exactPositions[key]; ok {
		return Position{Kind: k, Title: strings.TrimSpace(title)}
	}
	if strings.Contains(key, "KADUS") || strings.Contains(key, "KEPALA DUSUN") {
		return Position{Kind: PositionHamletHead, Title: strings.TrimSpace(title)}
	}
	return Position{Kind: PositionOther, Title: strings.TrimSpace(title)}
}

// IsVillageHead reports whether the position is the village head or an acting head.
func (p Position) IsVillageHead() bool {
	return p.Kind == PositionVillageHead || p.Kind == PositionActingVillageHead
}

// Protected reports whether rows holding this position may not be deleted.
func (p Position) Protected() bool {
	switch p.Kind {
	case PositionVillageHead, PositionActingVillageHead, PositionSecretary, PositionCoreStaff:
		return true
	}
	return false
}

// Category returns the export category code and label.
func (p Position) Category() (code, label string) {
	switch {
	case p.IsVillageHead():
		return "A", "Kades"
	case p.Kind == PositionHamletHead:
		return "B", "K. Dusun"
	default:
		return "B", "Perangkat"
	}
}

// ProtectedTitles lists the canonical protected titles, for display.
var ProtectedTitles = []string{
	"KEPALA DESA",
	"PJ. KEPALA DESA",
	"SEKRETARIS DESA",
	"KASI PEMERINTAHAN",
	"KASI PELAYANAN",
	"KASI KESEJAHTERAAN",
	"KAUR KEUANGAN",
	"KAUR UMUM",
	"KAUR PERENCANAAN",
}

// DefaultHamletTitle is the position given to newly added hamlet heads.
const DefaultHamletTitle = "KADUS"
