package store

import "github.com/dpmglangsa/gampong/internal/grid"

// The SQL backends keep each sheet as sparse cells. Row shifts move the
// affected rows through negative row numbers first so the primary key never
// collides mid-statement.

// cellRow is one stored cell.
type cellRow struct {
	Sheet string `db:"sheet"`
	Row   int    `db:"row_no"`
	Col   int    `db:"col_no"`
	Value string `db:"value"`
}

func cellsToGrid(cells []cellRow) grid.Grid {
	var g grid.Grid
	for _, c := range cells {
		g.Set(c.Row, c.Col, c.Value)
	}
	return g
}

func gridToCells(sheet string, g grid.Grid) []cellRow {
	var cells []cellRow
	for r, row := range g {
		for c, v := range row {
			if v == "" {
				continue
			}
			cells = append(cells, cellRow{Sheet: sheet, Row: r + 1, Col: c + 1, Value: v})
		}
	}
	return cells
}
