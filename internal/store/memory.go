package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/dpmglangsa/gampong/internal/grid"
)

// MemoryBackend keeps sheets in process memory. It backs tests and the
// "memory" backend kind, optionally seeded from a workbook.
type MemoryBackend struct {
	mu     sync.Mutex
	sheets map[string]grid.Grid
	calls  map[string]int
}

// NewMemoryBackend returns a backend holding copies of sheets.
func NewMemoryBackend(sheets map[string]grid.Grid) *MemoryBackend {
	m := &MemoryBackend{
		sheets: make(map[string]grid.Grid, len(sheets)),
		calls:  make(map[string]int),
	}
	for name, g := range sheets {
		m.sheets[name] = g.Clone()
	}
	return m
}

// Sheet returns a copy of the named sheet.
func (m *MemoryBackend) Sheet(name string) grid.Grid {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sheets[name].Clone()
}

// Calls returns how many times op ("read", "update", "insert", "delete",
// "find") was invoked.
func (m *MemoryBackend) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MemoryBackend) sheet(op, name string) (grid.Grid, error) {
	m.calls[op]++
	g, ok := m.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrSheetNotFound)
	}
	return g, nil
}

func (m *MemoryBackend) ReadGrid(ctx context.Context, sheet string) (grid.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.sheet("read", sheet)
	if err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

func (m *MemoryBackend) UpdateCells(ctx context.Context, sheet string, updates []grid.CellUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.sheet("update", sheet)
	if err != nil {
		return err
	}
	g.Apply(updates)
	m.sheets[sheet] = g
	return nil
}

func (m *MemoryBackend) InsertRow(ctx context.Context, sheet string, after int, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.sheet("insert", sheet)
	if err != nil {
		return err
	}
	g.InsertAfter(after, values)
	m.sheets[sheet] = g
	return nil
}

func (m *MemoryBackend) DeleteRow(ctx context.Context, sheet string, row int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.sheet("delete", sheet)
	if err != nil {
		return err
	}
	if row < 1 || row > g.Rows() {
		return fmt.Errorf("row %d: %w", row, ErrNotFound)
	}
	g.Delete(row)
	m.sheets[sheet] = g
	return nil
}

func (m *MemoryBackend) FindCells(ctx context.Context, sheet, value string) ([]grid.CellRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.sheet("find", sheet)
	if err != nil {
		return nil, err
	}
	return g.Find(value), nil
}
