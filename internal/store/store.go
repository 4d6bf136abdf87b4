// Package store provides cached access to the ledger grids.
//
// A Store wraps a Backend (workbook file, PostgreSQL, SQLite or memory) and
// serves reads from a short-lived cache. Every successful write clears the
// whole cache so the next read of any ledger sees it.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/normalize"
)

// DefaultCacheTTL bounds how long a grid read is reused.
const DefaultCacheTTL = 60 * time.Second

// RowHandle identifies one data row found by FindRows.
type RowHandle struct {
	Ledger ledger.Kind
	Row    int
	Key    string
	// Cells is the raw row, padded to the layout width.
	Cells []string
}

// Get returns the raw value of the named column.
func (h RowHandle) Get(l ledger.Layout, name string) string {
	c := l.Col(name)
	if c == 0 || c > len(h.Cells) {
		return ""
	}
	return grid.CleanCell(h.Cells[c-1])
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Invalidations int64 `json:"invalidations"`
	Entries       int   `json:"entries"`
}

type cacheEntry struct {
	grid    grid.Grid
	fetched time.Time
}

// Store is the cached ledger store. It is safe for concurrent use.
type Store struct {
	backend Backend
	layouts ledger.Layouts
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger

	group singleflight.Group

	mu    sync.Mutex
	cache map[ledger.Kind]cacheEntry
	gen   uint64
	stats CacheStats
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the cache TTL. Zero disables caching.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns a Store reading through backend.
func New(backend Backend, layouts ledger.Layouts, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		layouts: layouts,
		ttl:     DefaultCacheTTL,
		now:     time.Now,
		logger:  slog.Default(),
		cache:   make(map[ledger.Kind]cacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Layout returns the layout of ledger k.
func (s *Store) Layout(k ledger.Kind) ledger.Layout {
	return s.layouts.Get(k)
}

// Layouts returns every layout.
func (s *Store) Layouts() ledger.Layouts {
	return s.layouts
}

// ReadGrid returns the full grid of ledger k. The result is a private copy.
func (s *Store) ReadGrid(ctx context.Context, k ledger.Kind) (grid.Grid, error) {
	s.mu.Lock()
	if e, ok := s.cache[k]; ok && s.ttl > 0 && s.now().Sub(e.fetched) < s.ttl {
		s.stats.Hits++
		s.mu.Unlock()
		return e.grid.Clone(), nil
	}
	s.stats.Misses++
	gen := s.gen
	s.mu.Unlock()

	// Callers share one fill, so it must outlive whichever of them started it.
	fillCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(string(k), func() (any, error) {
		g, err := s.backend.ReadGrid(fillCtx, s.layouts.Get(k).Sheet)
		if err != nil {
			return nil, &BackendError{Op: "read", Ledger: k, Err: err}
		}
		s.mu.Lock()
		// A write during the fetch makes this grid stale; don't cache it.
		if s.gen == gen && s.ttl > 0 {
			s.cache[k] = cacheEntry{grid: g, fetched: s.now()}
		}
		s.mu.Unlock()
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(grid.Grid).Clone(), nil
}

// InvalidateAll drops every cached grid.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[ledger.Kind]cacheEntry)
	s.gen++
	s.stats.Invalidations++
}

// Stats returns a snapshot of cache statistics.
func (s *Store) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Entries = len(s.cache)
	return st
}

// FindRows returns the data rows of ledger k whose village is key and, when
// seq is non-empty and the ledger has a sequence column, whose sequence
// number equals seq. Village cells written once per group are forward-filled
// before matching, so every row of a group is found.
func (s *Store) FindRows(ctx context.Context, k ledger.Kind, key, seq string) ([]RowHandle, error) {
	g, err := s.ReadGrid(ctx, k)
	if err != nil {
		return nil, err
	}
	l := s.layouts.Get(k)
	rows := matchRows(l, g, key, seq)
	if len(rows) == 0 {
		return nil, &NotFoundError{Ledger: k, Key: key, Seq: seq}
	}
	return rows, nil
}

func matchRows(l ledger.Layout, g grid.Grid, key, seq string) []RowHandle {
	want := normalizeKey(key)
	seqCol := l.Col(l.SeqColumn)
	var out []RowHandle
	for i, k := range normalize.GroupKeys(l, g) {
		if k == "" || normalizeKey(k) != want {
			continue
		}
		row := i + 1
		if seq != "" && seqCol > 0 && !grid.SameSeq(g.Cell(row, seqCol), seq) {
			continue
		}
		out = append(out, RowHandle{Ledger: l.Kind, Row: row, Key: k, Cells: g.Row(row, l.Width())})
	}
	return out
}

// Anchor returns the row physically holding the grouped value row sees in
// col: the nearest row at or above it, within the group, with a non-empty
// cell. rows must be one group sorted by row number.
func Anchor(rows []RowHandle, row, col int) RowHandle {
	best := rows[0]
	for _, h := range rows {
		if h.Row > row {
			break
		}
		if col <= len(h.Cells) && grid.CleanCell(h.Cells[col-1]) != "" {
			best = h
		}
	}
	return best
}

func normalizeKey(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// Locate finds cells holding value in the named column of ledger k using
// the backend's search. Matches in other columns are discarded.
func (s *Store) Locate(ctx context.Context, k ledger.Kind, column, value string) ([]grid.CellRef, error) {
	l := s.layouts.Get(k)
	col := l.Col(column)
	if col == 0 {
		return nil, fmt.Errorf("%s has no column %s", k, column)
	}
	hits, err := s.backend.FindCells(ctx, l.Sheet, strings.TrimSpace(value))
	if err != nil {
		return nil, &BackendError{Op: "find", Ledger: k, Err: err}
	}
	var out []grid.CellRef
	for _, h := range hits {
		if h.Col == col && h.Row >= l.DataStart() {
			out = append(out, h)
		}
	}
	if len(out) == 0 {
		return nil, &NotFoundError{Ledger: k, Key: value}
	}
	return out, nil
}

// UpdateCells writes updates to ledger k as one batch.
func (s *Store) UpdateCells(ctx context.Context, k ledger.Kind, updates []grid.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	l := s.layouts.Get(k)
	for _, u := range updates {
		if u.Row < l.DataStart() || u.Col < 1 || u.Col > l.Width() {
			return fmt.Errorf("%s cell %s: %w", k, grid.CellName(u.Row, u.Col), ErrHeaderRegion)
		}
	}
	if err := s.backend.UpdateCells(ctx, l.Sheet, updates); err != nil {
		return &BackendError{Op: "update", Ledger: k, Err: err}
	}
	s.InvalidateAll()
	s.logger.Debug("cells updated", "ledger", k, "count", len(updates))
	return nil
}

// InsertRow inserts values below row after in ledger k.
func (s *Store) InsertRow(ctx context.Context, k ledger.Kind, after int, values []string) error {
	l := s.layouts.Get(k)
	if after < l.HeaderRows {
		return fmt.Errorf("%s insert after row %d: %w", k, after, ErrHeaderRegion)
	}
	if len(values) > l.Width() {
		values = values[:l.Width()]
	}
	if err := s.backend.InsertRow(ctx, l.Sheet, after, values); err != nil {
		return &BackendError{Op: "insert", Ledger: k, Err: err}
	}
	s.InvalidateAll()
	s.logger.Debug("row inserted", "ledger", k, "after", after)
	return nil
}

// DeleteRow deletes row from ledger k.
func (s *Store) DeleteRow(ctx context.Context, k ledger.Kind, row int) error {
	l := s.layouts.Get(k)
	if row < l.DataStart() {
		return fmt.Errorf("%s delete row %d: %w", k, row, ErrHeaderRegion)
	}
	if err := s.backend.DeleteRow(ctx, l.Sheet, row); err != nil {
		return &BackendError{Op: "delete", Ledger: k, Err: err}
	}
	s.InvalidateAll()
	s.logger.Debug("row deleted", "ledger", k, "row", row)
	return nil
}

// IsNotFound reports whether err means no row matched.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailable reports whether err came from an unreachable backend.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}
