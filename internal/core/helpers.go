package core

import (
	"sort"
	"strings"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/store"
)

// sameKey compares locality names the way the store matches village keys.
func sameKey(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// layoutValues orders named values by the layout's columns.
func layoutValues(l ledger.Layout, named map[string]string) []string {
	out := make([]string, l.Width())
	for i, name := range l.Columns {
		out[i] = named[name]
	}
	return out
}

// findSeq returns the row of rows whose column holds seq.
func findSeq(l ledger.Layout, rows []store.RowHandle, column, seq string) (store.RowHandle, bool) {
	for _, r := range rows {
		if grid.SameSeq(r.Get(l, column), seq) {
			return r, true
		}
	}
	return store.RowHandle{}, false
}

func isFillColumn(l ledger.Layout, column string) bool {
	for _, c := range l.FillColumns {
		if c == column {
			return true
		}
	}
	return false
}

// filledAt returns the forward-filled values of cols as grid row row sees them.
func filledAt(l ledger.Layout, g grid.Grid, cols []int, row int) []string {
	var raw [][]string
	for r := l.DataStart(); r <= row; r++ {
		raw = append(raw, g.Row(r, l.Width()))
	}
	out := make([]string, len(cols))
	if len(raw) == 0 {
		return out
	}
	last := grid.FillDown(raw, cols)[len(raw)-1]
	for i, c := range cols {
		out[i] = last[c-1]
	}
	return out
}

// carryDown returns the updates that keep the grouped values of row+1
// unchanged once row is deleted. Grouped cells are only written on a
// group's first row, so deleting that row would otherwise hand the rest of
// the group to the group above.
func carryDown(l ledger.Layout, g grid.Grid, row int) []grid.CellUpdate {
	next := row + 1
	if next > g.Rows() || row < l.DataStart() {
		return nil
	}
	cols := l.Cols(l.FillColumns)
	want := filledAt(l, g, cols, next)

	after := g.Clone()
	after.Delete(row)
	var ups []grid.CellUpdate
	// Fixing an outer column can reset inner ones, so fix one column per pass.
	for range len(cols) + 1 {
		got := filledAt(l, after, cols, row)
		fixed := false
		for i, c := range cols {
			if got[i] != want[i] {
				after.Set(row, c, want[i])
				ups = append(ups, grid.CellUpdate{Row: next, Col: c, Value: want[i]})
				fixed = true
				break
			}
		}
		if !fixed {
			break
		}
	}
	return ups
}
