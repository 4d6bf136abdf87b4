package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dpmglangsa/gampong/internal/grid"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS ledger_sheets (
	sheet      TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS ledger_cells (
	sheet  TEXT    NOT NULL REFERENCES ledger_sheets (sheet) ON DELETE CASCADE,
	row_no INTEGER NOT NULL,
	col_no INTEGER NOT NULL,
	value  TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (sheet, row_no, col_no)
);
CREATE INDEX IF NOT EXISTS idx_ledger_cells_value ON ledger_cells (sheet, btrim(value));
`

const (
	pgSheetExists = `SELECT EXISTS (SELECT 1 FROM ledger_sheets WHERE sheet = $1)`
	pgSelectCells = `SELECT sheet, row_no, col_no, value FROM ledger_cells WHERE sheet = $1 ORDER BY row_no, col_no`
	pgUpsertCell  = `
		INSERT INTO ledger_cells (sheet, row_no, col_no, value) VALUES ($1, $2, $3, $4)
		ON CONFLICT (sheet, row_no, col_no) DO UPDATE SET value = EXCLUDED.value`
	pgFindCells = `
		SELECT row_no, col_no FROM ledger_cells
		WHERE sheet = $1 AND btrim(value) = $2
		ORDER BY row_no, col_no`
	pgShiftDown   = `UPDATE ledger_cells SET row_no = -(row_no + 1) WHERE sheet = $1 AND row_no > $2`
	pgShiftUp     = `UPDATE ledger_cells SET row_no = -(row_no - 1) WHERE sheet = $1 AND row_no > $2`
	pgUnnegate    = `UPDATE ledger_cells SET row_no = -row_no WHERE sheet = $1 AND row_no < 0`
	pgDeleteRow   = `DELETE FROM ledger_cells WHERE sheet = $1 AND row_no = $2`
	pgDeleteSheet = `DELETE FROM ledger_sheets WHERE sheet = $1`
	pgInsertSheet = `INSERT INTO ledger_sheets (sheet) VALUES ($1) ON CONFLICT DO NOTHING`
)

// PostgresBackend stores sheets as cells in PostgreSQL.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend returns a backend using pool.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

// EnsureSchema creates the backing tables if they do not exist.
func (p *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}
	return nil
}

// ImportGrid replaces the contents of sheet with g.
func (p *PostgresBackend) ImportGrid(ctx context.Context, sheet string, g grid.Grid) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, pgDeleteSheet, sheet); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, pgInsertSheet, sheet); err != nil {
			return err
		}
		cells := gridToCells(sheet, g)
		rows := make([][]any, len(cells))
		for i, c := range cells {
			rows[i] = []any{c.Sheet, c.Row, c.Col, c.Value}
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"ledger_cells"},
			[]string{"sheet", "row_no", "col_no", "value"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
}

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func pgCheckSheet(ctx context.Context, q pgQuerier, sheet string) error {
	var ok bool
	if err := q.QueryRow(ctx, pgSheetExists, sheet).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%q: %w", sheet, ErrSheetNotFound)
	}
	return nil
}

func (p *PostgresBackend) ReadGrid(ctx context.Context, sheet string) (grid.Grid, error) {
	if err := pgCheckSheet(ctx, p.pool, sheet); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, pgSelectCells, sheet)
	if err != nil {
		return nil, err
	}
	cells, err := pgx.CollectRows(rows, pgx.RowToStructByName[cellRow])
	if err != nil {
		return nil, err
	}
	return cellsToGrid(cells), nil
}

// UpdateCells sends every upsert in one batch inside one transaction.
func (p *PostgresBackend) UpdateCells(ctx context.Context, sheet string, updates []grid.CellUpdate) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if err := pgCheckSheet(ctx, tx, sheet); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for _, u := range updates {
			batch.Queue(pgUpsertCell, sheet, u.Row, u.Col, u.Value)
		}
		br := tx.SendBatch(ctx, batch)
		for i := range updates {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("update %s: %w", grid.CellName(updates[i].Row, updates[i].Col), err)
			}
		}
		return br.Close()
	})
}

func (p *PostgresBackend) InsertRow(ctx context.Context, sheet string, after int, values []string) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if err := pgCheckSheet(ctx, tx, sheet); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, pgShiftDown, sheet, after); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, pgUnnegate, sheet); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for i, v := range values {
			if v != "" {
				batch.Queue(pgUpsertCell, sheet, after+1, i+1, v)
			}
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (p *PostgresBackend) DeleteRow(ctx context.Context, sheet string, row int) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if err := pgCheckSheet(ctx, tx, sheet); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, pgDeleteRow, sheet, row); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, pgShiftUp, sheet, row); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, pgUnnegate, sheet)
		return err
	})
}

func (p *PostgresBackend) FindCells(ctx context.Context, sheet, value string) ([]grid.CellRef, error) {
	if err := pgCheckSheet(ctx, p.pool, sheet); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, pgFindCells, sheet, value)
	if err != nil {
		return nil, err
	}
	refs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (grid.CellRef, error) {
		var ref grid.CellRef
		err := row.Scan(&ref.Row, &ref.Col)
		return ref, err
	})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return refs, nil
}
