package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/dpmglangsa/gampong/internal/grid"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ledger_sheets (
	sheet      TEXT PRIMARY KEY,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS ledger_cells (
	sheet  TEXT    NOT NULL,
	row_no INTEGER NOT NULL,
	col_no INTEGER NOT NULL,
	value  TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (sheet, row_no, col_no)
);
`

const (
	sqliteSheetExists = `SELECT COUNT(1) FROM ledger_sheets WHERE sheet = ?`
	sqliteSelectCells = `SELECT sheet, row_no, col_no, value FROM ledger_cells WHERE sheet = ? ORDER BY row_no, col_no`
	sqliteUpsertCell  = `
		INSERT INTO ledger_cells (sheet, row_no, col_no, value) VALUES (:sheet, :row_no, :col_no, :value)
		ON CONFLICT (sheet, row_no, col_no) DO UPDATE SET value = excluded.value`
	sqliteFindCells   = `SELECT sheet, row_no, col_no, value FROM ledger_cells WHERE sheet = ? AND trim(value) = ? ORDER BY row_no, col_no`
	sqliteShiftDown   = `UPDATE ledger_cells SET row_no = -(row_no + 1) WHERE sheet = ? AND row_no > ?`
	sqliteShiftUp     = `UPDATE ledger_cells SET row_no = -(row_no - 1) WHERE sheet = ? AND row_no > ?`
	sqliteUnnegate    = `UPDATE ledger_cells SET row_no = -row_no WHERE sheet = ? AND row_no < 0`
	sqliteDeleteRow   = `DELETE FROM ledger_cells WHERE sheet = ? AND row_no = ?`
	sqliteClearSheet  = `DELETE FROM ledger_cells WHERE sheet = ?`
	sqliteInsertSheet = `INSERT OR IGNORE INTO ledger_sheets (sheet) VALUES (?)`
)

// SQLiteBackend stores sheets as cells in an embedded SQLite database.
type SQLiteBackend struct {
	db *sqlx.DB
}

// NewSQLiteBackend opens (creating if needed) the database at path and
// ensures its schema.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Close closes the database.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

// ImportGrid replaces the contents of sheet with g.
func (s *SQLiteBackend) ImportGrid(ctx context.Context, sheet string, g grid.Grid) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, sqliteInsertSheet, sheet); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqliteClearSheet, sheet); err != nil {
			return err
		}
		for _, c := range gridToCells(sheet, g) {
			if _, err := tx.NamedExecContext(ctx, sqliteUpsertCell, c); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteBackend) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type sqlxQueryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

func sqliteCheckSheet(ctx context.Context, q sqlxQueryer, sheet string) error {
	var n int
	if err := q.GetContext(ctx, &n, sqliteSheetExists, sheet); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%q: %w", sheet, ErrSheetNotFound)
	}
	return nil
}

func (s *SQLiteBackend) ReadGrid(ctx context.Context, sheet string) (grid.Grid, error) {
	if err := sqliteCheckSheet(ctx, s.db, sheet); err != nil {
		return nil, err
	}
	var cells []cellRow
	if err := s.db.SelectContext(ctx, &cells, sqliteSelectCells, sheet); err != nil {
		return nil, err
	}
	return cellsToGrid(cells), nil
}

func (s *SQLiteBackend) UpdateCells(ctx context.Context, sheet string, updates []grid.CellUpdate) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := sqliteCheckSheet(ctx, tx, sheet); err != nil {
			return err
		}
		for _, u := range updates {
			c := cellRow{Sheet: sheet, Row: u.Row, Col: u.Col, Value: u.Value}
			if _, err := tx.NamedExecContext(ctx, sqliteUpsertCell, c); err != nil {
				return fmt.Errorf("update %s: %w", grid.CellName(u.Row, u.Col), err)
			}
		}
		return nil
	})
}

func (s *SQLiteBackend) InsertRow(ctx context.Context, sheet string, after int, values []string) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := sqliteCheckSheet(ctx, tx, sheet); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqliteShiftDown, sheet, after); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqliteUnnegate, sheet); err != nil {
			return err
		}
		for i, v := range values {
			if v == "" {
				continue
			}
			c := cellRow{Sheet: sheet, Row: after + 1, Col: i + 1, Value: v}
			if _, err := tx.NamedExecContext(ctx, sqliteUpsertCell, c); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteBackend) DeleteRow(ctx context.Context, sheet string, row int) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := sqliteCheckSheet(ctx, tx, sheet); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqliteDeleteRow, sheet, row); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqliteShiftUp, sheet, row); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, sqliteUnnegate, sheet)
		return err
	})
}

func (s *SQLiteBackend) FindCells(ctx context.Context, sheet, value string) ([]grid.CellRef, error) {
	if err := sqliteCheckSheet(ctx, s.db, sheet); err != nil {
		return nil, err
	}
	var cells []cellRow
	if err := s.db.SelectContext(ctx, &cells, sqliteFindCells, sheet, value); err != nil {
		return nil, err
	}
	refs := make([]grid.CellRef, len(cells))
	for i, c := range cells {
		refs[i] = grid.CellRef{Row: c.Row, Col: c.Col}
	}
	return refs, nil
}
