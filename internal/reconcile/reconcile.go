// Package reconcile keeps the village head's denormalized fields identical
// across the roster, detail and staff ledgers.
//
// An edit lands in one ledger first; Propagate then copies the changed
// fields into every other ledger that stores them. Each target ledger is
// handled independently and reported separately: a failure in one never
// stops the others, and nothing is retried.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/store"
)

// Field is a cross-ledger field of the village head.
type Field string

const (
	FieldName        Field = "name"
	FieldGender      Field = "gender"
	FieldPosition    Field = "position"
	FieldPhone       Field = "phone"
	FieldVillageCode Field = "village_code"
)

// Fields lists every field that takes part in propagation.
var Fields = []Field{FieldName, FieldGender, FieldPosition, FieldPhone, FieldVillageCode}

// columnFields maps detail/staff column names to fields.
var columnFields = map[string]Field{
	ledger.ColName:        FieldName,
	ledger.ColVillageHead: FieldName,
	ledger.ColGender:      FieldGender,
	ledger.ColPosition:    FieldPosition,
	ledger.ColPhone:       FieldPhone,
	ledger.ColVillageCode: FieldVillageCode,
}

// FieldForColumn returns the field stored in column, if it propagates.
func FieldForColumn(column string) (Field, bool) {
	f, ok := columnFields[strings.ToUpper(strings.TrimSpace(column))]
	return f, ok
}

// ParseField accepts a field name or one of its column names.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	if f, ok := FieldForColumn(s); ok {
		return f, nil
	}
	return "", fmt.Errorf("field %q does not propagate", s)
}

// Changes maps fields to their new values.
type Changes map[Field]string

// Status is the outcome of propagation to one ledger.
type Status string

const (
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusNotFound  Status = "not_found"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Outcome reports what happened in one target ledger.
type Outcome struct {
	Ledger ledger.Kind `json:"ledger"`
	Status Status      `json:"status"`
	Rows   []int       `json:"rows,omitempty"`
	Cells  int         `json:"cells"`
	Err    error       `json:"-"`
	Error  string      `json:"error,omitempty"`

	// Skipped lists fields left alone because their cell is shared with
	// rows of other positions.
	Skipped []Field `json:"skipped,omitempty"`
}

// Result holds one Outcome per target ledger.
type Result struct {
	Village  string                  `json:"village"`
	Origin   ledger.Kind             `json:"origin,omitempty"`
	Outcomes map[ledger.Kind]Outcome `json:"outcomes"`
}

// Failed returns the ledgers whose update failed, sorted.
func (r Result) Failed() []ledger.Kind {
	var out []ledger.Kind
	for k, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// OK reports whether no target ledger failed.
func (r Result) OK() bool {
	return len(r.Failed()) == 0
}

// Store is the subset of store.Store the engine needs.
type Store interface {
	Layout(k ledger.Kind) ledger.Layout
	FindRows(ctx context.Context, k ledger.Kind, key, seq string) ([]store.RowHandle, error)
	UpdateCells(ctx context.Context, k ledger.Kind, updates []grid.CellUpdate) error
}

// target describes how one ledger stores the village head.
type target struct {
	columns map[Field]string
	// headOnly restricts updates to rows whose position is a village head.
	headOnly bool
}

var targets = map[ledger.Kind]target{
	ledger.Roster: {
		columns: map[Field]string{FieldName: ledger.ColVillageHead},
	},
	ledger.Detail: {
		columns: map[Field]string{
			FieldName:        ledger.ColName,
			FieldGender:      ledger.ColGender,
			FieldPosition:    ledger.ColPosition,
			FieldPhone:       ledger.ColPhone,
			FieldVillageCode: ledger.ColVillageCode,
		},
	},
	ledger.Staff: {
		columns: map[Field]string{
			FieldName:        ledger.ColName,
			FieldGender:      ledger.ColGender,
			FieldPosition:    ledger.ColPosition,
			FieldPhone:       ledger.ColPhone,
			FieldVillageCode: ledger.ColVillageCode,
		},
		headOnly: true,
	},
}

// Targets lists the ledgers Propagate writes to, in order.
var Targets = []ledger.Kind{ledger.Roster, ledger.Detail, ledger.Staff}

// Engine propagates village-head edits.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// New returns an Engine writing through s.
func New(s Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: s, logger: logger}
}

// Propagate writes changes into every target ledger other than origin.
// origin may be empty to write all of them. Running it again with the same
// input leaves the ledgers unchanged.
func (e *Engine) Propagate(ctx context.Context, origin ledger.Kind, village string, changes Changes) Result {
	res := Result{
		Village:  village,
		Origin:   origin,
		Outcomes: make(map[ledger.Kind]Outcome, len(Targets)),
	}
	for _, k := range Targets {
		if k == origin {
			continue
		}
		out := e.apply(ctx, k, village, changes)
		if out.Err != nil {
			out.Error = out.Err.Error()
		}
		res.Outcomes[k] = out

		log := e.logger.With("village", village, "ledger", k, "status", out.Status)
		switch out.Status {
		case StatusFailed:
			log.Error("propagation failed", "error", out.Err)
		case StatusNotFound:
			log.Warn("propagation target row not found")
		case StatusUpdated:
			log.Info("propagated", "rows", out.Rows, "cells", out.Cells)
		}
	}
	return res
}

func (e *Engine) apply(ctx context.Context, k ledger.Kind, village string, changes Changes) Outcome {
	out := Outcome{Ledger: k}
	t := targets[k]
	l := e.store.Layout(k)

	fields := make([]Field, 0, len(changes))
	for _, f := range Fields {
		if _, ok := changes[f]; ok && t.columns[f] != "" && l.Col(t.columns[f]) > 0 {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		out.Status = StatusSkipped
		return out
	}

	all, err := e.store.FindRows(ctx, k, village, "")
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			out.Status = StatusNotFound
		} else {
			out.Status = StatusFailed
		}
		out.Err = err
		return out
	}
	rows := all
	if t.headOnly {
		rows = headRows(l, all)
		if len(rows) == 0 {
			out.Status = StatusNotFound
			out.Err = &store.NotFoundError{Ledger: k, Key: village, Seq: "village head"}
			return out
		}
	}

	var updates []grid.CellUpdate
	seen := make(map[grid.CellRef]bool)
	for _, r := range rows {
		changed := false
		for _, f := range fields {
			col := l.Col(t.columns[f])
			value := cellValue(f, changes[f])

			// Grouped columns hold one physical cell per village group.
			at := r
			if isFillColumn(l, col) {
				at = store.Anchor(all, r.Row, col)
				if t.headOnly && at.Row != r.Row && !ledger.ClassifyPosition(at.Get(l, ledger.ColPosition)).IsVillageHead() {
					out.Skipped = appendField(out.Skipped, f)
					continue
				}
			}
			ref := grid.CellRef{Row: at.Row, Col: col}
			if seen[ref] || sameValue(f, at.Cells[col-1], value) {
				continue
			}
			seen[ref] = true
			updates = append(updates, grid.CellUpdate{Row: ref.Row, Col: ref.Col, Value: value})
			changed = true
		}
		if changed {
			out.Rows = append(out.Rows, r.Row)
		}
	}
	if len(updates) == 0 {
		out.Status = StatusUnchanged
		if len(out.Skipped) == len(fields) {
			out.Status = StatusSkipped
		}
		return out
	}
	if err := e.store.UpdateCells(ctx, k, updates); err != nil {
		out.Status = StatusFailed
		out.Err = err
		out.Rows = nil
		return out
	}
	out.Status = StatusUpdated
	out.Cells = len(updates)
	return out
}

func isFillColumn(l ledger.Layout, col int) bool {
	for _, c := range l.Cols(l.FillColumns) {
		if c == col {
			return true
		}
	}
	return false
}

func appendField(fields []Field, f Field) []Field {
	for _, x := range fields {
		if x == f {
			return fields
		}
	}
	return append(fields, f)
}

func headRows(l ledger.Layout, rows []store.RowHandle) []store.RowHandle {
	var out []store.RowHandle
	for _, r := range rows {
		if ledger.ClassifyPosition(r.Get(l, ledger.ColPosition)).IsVillageHead() {
			out = append(out, r)
		}
	}
	return out
}

// cellValue converts a field value to the form the ledgers store.
func cellValue(f Field, v string) string {
	switch f {
	case FieldGender:
		if code := ledger.ParseGender(v).Code(); code != "" {
			return code
		}
		return strings.TrimSpace(v)
	case FieldPhone, FieldVillageCode:
		return grid.TextID(v)
	}
	return strings.TrimSpace(v)
}

func sameValue(f Field, current, next string) bool {
	if f == FieldGender {
		return ledger.ParseGender(current) == ledger.ParseGender(next) && ledger.ParseGender(next) != ledger.GenderUnknown
	}
	return grid.CleanCell(current) == next
}
