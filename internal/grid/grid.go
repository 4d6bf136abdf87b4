// Package grid addresses raw spreadsheet-shaped tables.
//
// A Grid is the untyped form every ledger backend returns: rows of string
// cells, 1-indexed on both axes, with trailing cells possibly missing. The
// package holds no state; it maps between (row, column) coordinates and A1
// cell names and provides the pure forward-fill folds used to recover
// visually merged grouping columns.
package grid

import "strings"

// Grid is a table of raw cell values. Row r, column c is g[r-1][c-1].
type Grid [][]string

// CellRef identifies one cell by 1-indexed coordinates.
type CellRef struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Name returns the A1 name of the cell.
func (r CellRef) Name() string {
	return CellName(r.Row, r.Col)
}

// CellUpdate is a pending write of Value into one cell.
type CellUpdate struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

// Ref returns the coordinates of the update.
func (u CellUpdate) Ref() CellRef {
	return CellRef{Row: u.Row, Col: u.Col}
}

// Rows returns the number of rows.
func (g Grid) Rows() int {
	return len(g)
}

// Width returns the length of the longest row.
func (g Grid) Width() int {
	w := 0
	for _, row := range g {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// Cell returns the value at (row, col), or "" when out of range.
func (g Grid) Cell(row, col int) string {
	if row < 1 || row > len(g) {
		return ""
	}
	r := g[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}

// Row returns a copy of row r padded to width cells.
func (g Grid) Row(r, width int) []string {
	out := make([]string, width)
	if r < 1 || r > len(g) {
		return out
	}
	copy(out, g[r-1])
	return out
}

// Set writes v into (row, col), growing the grid as needed.
func (g *Grid) Set(row, col int, v string) {
	if row < 1 || col < 1 {
		return
	}
	for len(*g) < row {
		*g = append(*g, nil)
	}
	r := (*g)[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = v
	(*g)[row-1] = r
}

// Apply writes every update into the grid.
func (g *Grid) Apply(updates []CellUpdate) {
	for _, u := range updates {
		g.Set(u.Row, u.Col, u.Value)
	}
}

// InsertAfter inserts values as a new row directly after row after.
// after == 0 inserts at the top; after beyond the last row appends.
func (g *Grid) InsertAfter(after int, values []string) {
	if after < 0 {
		after = 0
	}
	row := append([]string(nil), values...)
	if after >= len(*g) {
		for len(*g) < after {
			*g = append(*g, nil)
		}
		*g = append(*g, row)
		return
	}
	*g = append(*g, nil)
	copy((*g)[after+1:], (*g)[after:])
	(*g)[after] = row
}

// Delete removes row r. Out-of-range rows are ignored.
func (g *Grid) Delete(r int) {
	if r < 1 || r > len(*g) {
		return
	}
	*g = append((*g)[:r-1], (*g)[r:]...)
}

// Clone returns a deep copy.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Find returns every cell whose cleaned value equals value exactly.
func (g Grid) Find(value string) []CellRef {
	var hits []CellRef
	for i, row := range g {
		for j, cell := range row {
			if CleanCell(cell) == value {
				hits = append(hits, CellRef{Row: i + 1, Col: j + 1})
			}
		}
	}
	return hits
}

// Column returns column col for rows from..len(g), one entry per row.
func (g Grid) Column(col, from int) []string {
	if from < 1 {
		from = 1
	}
	if from > len(g) {
		return nil
	}
	out := make([]string, 0, len(g)-from+1)
	for r := from; r <= len(g); r++ {
		out = append(out, CleanCell(g.Cell(r, col)))
	}
	return out
}

// CleanCell removes common spreadsheet artifacts from a cell value:
//   - surrounding whitespace, including non-breaking spaces
//   - the leading apostrophe used to force text cells
func CleanCell(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "'")
	return strings.TrimSpace(s)
}
