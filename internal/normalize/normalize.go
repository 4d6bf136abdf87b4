// Package normalize turns raw ledger grids into typed records.
//
// Every ledger goes through the same pipeline:
//
//  1. skip the configured header rows
//  2. drop rows with no content at all
//  3. forward-fill the grouping columns, outermost level first
//  4. drop header artifacts and rows outside the known sub-districts
//
// The council ledger adds member-row filtering and secretary detection
// before step 3. Malformed cells never fail a load: numbers that do not
// parse become nil and rows that cannot be placed are dropped.
package normalize

import (
	"strings"
	"unicode"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
)

// Row is one surviving data row: Num is its 1-indexed grid row and Cells
// holds cleaned, forward-filled values padded to the layout width.
type Row struct {
	Num   int
	Cells []string
}

// Get returns the value of the named column, or "" when absent.
func (r Row) Get(l ledger.Layout, name string) string {
	c := l.Col(name)
	if c == 0 || c > len(r.Cells) {
		return ""
	}
	return r.Cells[c-1]
}

// Prepare runs the shared pipeline and returns the rows that survive it.
func Prepare(l ledger.Layout, g grid.Grid) []Row {
	if l.Kind == ledger.Council {
		rows, _ := prepareCouncil(l, g)
		return rows
	}
	rows := dataRows(l, g)
	rows = fill(l, rows)
	return filterArtifacts(l, rows)
}

// GroupKeys returns, for every grid row, the village key that row carries
// after normalization. Header rows and dropped rows map to "". The result
// has g.Rows() entries; index i describes grid row i+1.
func GroupKeys(l ledger.Layout, g grid.Grid) []string {
	keys := make([]string, g.Rows())
	kc := l.Col(l.KeyColumn)
	for _, r := range Prepare(l, g) {
		keys[r.Num-1] = r.Cells[kc-1]
	}
	return keys
}

// dataRows returns the non-blank rows after the header block.
func dataRows(l ledger.Layout, g grid.Grid) []Row {
	width := l.Width()
	var rows []Row
	for n := l.DataStart(); n <= g.Rows(); n++ {
		cells := g.Row(n, width)
		blank := true
		for i, c := range cells {
			cells[i] = grid.CleanCell(c)
			if cells[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		rows = append(rows, Row{Num: n, Cells: cells})
	}
	return rows
}

func fill(l ledger.Layout, rows []Row) []Row {
	if len(rows) == 0 {
		return rows
	}
	raw := make([][]string, len(rows))
	for i, r := range rows {
		raw[i] = r.Cells
	}
	filled := grid.FillDown(raw, l.Cols(l.FillColumns))
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{Num: r.Num, Cells: filled[i][:l.Width()]}
	}
	return out
}

func filterArtifacts(l ledger.Layout, rows []Row) []Row {
	out := rows[:0:0]
	for _, r := range rows {
		if isArtifact(l, r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func isArtifact(l ledger.Layout, r Row) bool {
	for _, s := range l.Sentinels {
		if strings.EqualFold(r.Get(l, s.Column), s.Value) {
			return true
		}
	}
	if l.SubDistrictColumn != "" && !ledger.IsSubDistrict(r.Get(l, l.SubDistrictColumn)) {
		return true
	}
	return false
}

// isUpper reports whether s has at least one cased letter and no
// lower-case letters.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
