package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
)

// Roster returns the roster entries of g. Rows without a village are dropped.
func Roster(l ledger.Layout, g grid.Grid) []ledger.RosterEntry {
	var out []ledger.RosterEntry
	for _, r := range Prepare(l, g) {
		village := r.Get(l, ledger.ColVillage)
		if village == "" {
			continue
		}
		out = append(out, ledger.RosterEntry{
			Row: r.Num,
			No:  grid.ParseSeq(r.Get(l, ledger.ColNo)),
			Locality: ledger.Locality{
				SubDistrict: upper(r.Get(l, ledger.ColSubDistrict)),
				Cluster:     upper(r.Get(l, ledger.ColCluster)),
				Village:     village,
			},
			SubDistrictHead: r.Get(l, ledger.ColSubHead),
			ClusterHead:     r.Get(l, ledger.ColClusterHead),
			VillageHead:     r.Get(l, ledger.ColVillageHead),
		})
	}
	return out
}

// Detail returns the village-head detail records of g. Rows with neither a
// village nor a name are dropped.
func Detail(l ledger.Layout, g grid.Grid) []ledger.Official {
	var out []ledger.Official
	for _, r := range Prepare(l, g) {
		o := official(l, r)
		if o.Locality.Village == "" && o.Name == "" {
			continue
		}
		o.BirthDay = padDatePart(r.Get(l, ledger.ColBirthDay), 31)
		o.BirthMonth = padDatePart(r.Get(l, ledger.ColBirthMonth), 12)
		o.BirthYear = year(r.Get(l, ledger.ColBirthYear))
		o.Education = Education(r.Get(l, ledger.ColEducation))
		o.DecreeNumber = r.Get(l, ledger.ColDecreeNumber)
		o.DecreeDate = r.Get(l, ledger.ColDecreeDate)
		out = append(out, o)
	}
	return out
}

// Staff returns every official row of g, including rows that carry only
// locality values. Consumers drop those with Official.IsGhost.
func Staff(l ledger.Layout, g grid.Grid) []ledger.Official {
	var out []ledger.Official
	for _, r := range Prepare(l, g) {
		o := official(l, r)
		if o.Locality.Village == "" {
			continue
		}
		o.Seq = grid.ParseSeq(r.Get(l, ledger.ColSeq))
		o.NationalID = grid.TextID(r.Get(l, ledger.ColNationalID))
		out = append(out, o)
	}
	return out
}

func official(l ledger.Layout, r Row) ledger.Official {
	return ledger.Official{
		Row: r.Num,
		Locality: ledger.Locality{
			ProvinceCode:    grid.TextID(r.Get(l, ledger.ColProvinceCode)),
			Province:        r.Get(l, ledger.ColProvince),
			RegencyCode:     grid.TextID(r.Get(l, ledger.ColRegencyCode)),
			Regency:         r.Get(l, ledger.ColRegency),
			SubDistrictCode: grid.TextID(r.Get(l, ledger.ColSubCode)),
			SubDistrict:     upper(r.Get(l, ledger.ColSubDistrict)),
			VillageCode:     grid.TextID(r.Get(l, ledger.ColVillageCode)),
			Village:         r.Get(l, l.KeyColumn),
		},
		Name:     r.Get(l, ledger.ColName),
		Gender:   ledger.ParseGender(r.Get(l, ledger.ColGender)),
		Position: ledger.ClassifyPosition(r.Get(l, ledger.ColPosition)),
		Phone:    grid.TextID(r.Get(l, ledger.ColPhone)),
	}
}

// padDatePart zero-pads a day or month to two digits. Values outside
// 1..max become "".
func padDatePart(s string, max int) string {
	n := grid.ParseSeq(s)
	if n == nil || *n < 1 || *n > max {
		return ""
	}
	return fmt.Sprintf("%02d", *n)
}

// year accepts only four-digit years.
func year(s string) string {
	norm, ok := grid.NormalizeSeq(s)
	if !ok || len(norm) != 4 {
		return ""
	}
	if _, err := strconv.Atoi(norm); err != nil {
		return ""
	}
	return norm
}

var educationAliases = map[string]string{
	"SLTP":     "SMP",
	"SLTA":     "SMA",
	"SMU":      "SMA",
	"STM":      "SMK",
	"DIII":     "D3",
	"D-III":    "D3",
	"D III":    "D3",
	"DIV":      "D4",
	"STRATA 1": "S1",
	"S-1":      "S1",
	"S-2":      "S2",
}

// EducationLevels lists the canonical education levels.
var EducationLevels = []string{"SD", "SMP", "SMA", "SMK", "D1", "D2", "D3", "D4", "S1", "S2", "S3"}

// Education canonicalises an education level. Unknown levels are kept as
// upper-cased text.
func Education(s string) string {
	s = upper(s)
	if alias, ok := educationAliases[s]; ok {
		return alias
	}
	return s
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
