package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/dpmglangsa/gampong/internal/grid"
)

// WorkbookBackend stores every ledger as a worksheet of one xlsx file.
// The file is reopened on each call so edits made outside the service are
// picked up, and written back through a temporary file and rename.
type WorkbookBackend struct {
	path string
	mu   sync.Mutex
}

// NewWorkbookBackend returns a backend over the workbook at path. The file
// must exist.
func NewWorkbookBackend(path string) (*WorkbookBackend, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return &WorkbookBackend{path: path}, nil
}

// Path returns the workbook file path.
func (w *WorkbookBackend) Path() string {
	return w.path
}

func (w *WorkbookBackend) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return f, nil
}

func checkSheet(f *excelize.File, sheet string) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx < 0 {
		return fmt.Errorf("%q: %w", sheet, ErrSheetNotFound)
	}
	return nil
}

// save writes f next to the workbook and renames it into place.
func (w *WorkbookBackend) save(f *excelize.File) error {
	// excelize picks the content type from the extension, so keep it last.
	ext := filepath.Ext(w.path)
	base := strings.TrimSuffix(filepath.Base(w.path), ext)
	tmp := filepath.Join(filepath.Dir(w.path), "."+base+".tmp"+ext)
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace workbook: %w", err)
	}
	return nil
}

// mutate opens the workbook, applies fn to sheet and saves the result.
func (w *WorkbookBackend) mutate(ctx context.Context, sheet string, fn func(f *excelize.File) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := checkSheet(f, sheet); err != nil {
		return err
	}
	if err := fn(f); err != nil {
		return err
	}
	return w.save(f)
}

func (w *WorkbookBackend) ReadGrid(ctx context.Context, sheet string) (grid.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readSheet(f, sheet)
}

func readSheet(f *excelize.File, sheet string) (grid.Grid, error) {
	if err := checkSheet(f, sheet); err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return grid.Grid(rows), nil
}

func (w *WorkbookBackend) UpdateCells(ctx context.Context, sheet string, updates []grid.CellUpdate) error {
	return w.mutate(ctx, sheet, func(f *excelize.File) error {
		for _, u := range updates {
			if err := f.SetCellStr(sheet, grid.CellName(u.Row, u.Col), u.Value); err != nil {
				return fmt.Errorf("set %s: %w", grid.CellName(u.Row, u.Col), err)
			}
		}
		return nil
	})
}

func (w *WorkbookBackend) InsertRow(ctx context.Context, sheet string, after int, values []string) error {
	return w.mutate(ctx, sheet, func(f *excelize.File) error {
		row := after + 1
		if err := f.InsertRows(sheet, row, 1); err != nil {
			return fmt.Errorf("insert row %d: %w", row, err)
		}
		for i, v := range values {
			if v == "" {
				continue
			}
			if err := f.SetCellStr(sheet, grid.CellName(row, i+1), v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *WorkbookBackend) DeleteRow(ctx context.Context, sheet string, row int) error {
	return w.mutate(ctx, sheet, func(f *excelize.File) error {
		if err := f.RemoveRow(sheet, row); err != nil {
			return fmt.Errorf("remove row %d: %w", row, err)
		}
		return nil
	})
}

func (w *WorkbookBackend) FindCells(ctx context.Context, sheet, value string) ([]grid.CellRef, error) {
	g, err := w.ReadGrid(ctx, sheet)
	if err != nil {
		return nil, err
	}
	return g.Find(value), nil
}

// WriteWorkbook creates an xlsx file at path with one sheet per entry of
// sheets. Every cell is written as text.
func WriteWorkbook(path string, sheets map[string]grid.Grid) error {
	if len(sheets) == 0 {
		return errors.New("write workbook: no sheets")
	}
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, g := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		for r, row := range g {
			for c, v := range row {
				if v == "" {
					continue
				}
				if err := f.SetCellStr(name, grid.CellName(r+1, c+1), v); err != nil {
					return err
				}
			}
		}
	}
	return f.SaveAs(path)
}

// ReadWorkbook loads the named sheets of the xlsx file at path.
func ReadWorkbook(path string, sheets []string) (map[string]grid.Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	out := make(map[string]grid.Grid, len(sheets))
	for _, name := range sheets {
		g, err := readSheet(f, name)
		if err != nil {
			return nil, err
		}
		out[name] = g
	}
	return out, nil
}
