package store

import (
	"context"

	"github.com/dpmglangsa/gampong/internal/grid"
)

// Backend is a schemaless grid store addressed by sheet name. Rows and
// columns are 1-indexed. Implementations must apply UpdateCells as a single
// batch: either every update is visible afterwards or none is.
type Backend interface {
	ReadGrid(ctx context.Context, sheet string) (grid.Grid, error)
	UpdateCells(ctx context.Context, sheet string, updates []grid.CellUpdate) error
	// InsertRow inserts values as a new row directly below row after.
	InsertRow(ctx context.Context, sheet string, after int, values []string) error
	DeleteRow(ctx context.Context, sheet string, row int) error
	// FindCells returns every cell whose trimmed value equals value.
	FindCells(ctx context.Context, sheet, value string) ([]grid.CellRef, error)
}
