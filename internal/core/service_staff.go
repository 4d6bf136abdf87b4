package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/reconcile"
	"github.com/dpmglangsa/gampong/internal/store"
)

// UpdateStaff applies edits to rows of one village in a single batch.
//
// A protected row keeps its position family. Grouped columns such as
// NO_DESA are written where the group stores them. When an edited row held
// the village head before the edit, its cross-ledger fields are carried into
// the roster and detail ledgers.
func (s *Service) UpdateStaff(ctx context.Context, village string, edits []StaffEdit) (EditResult, error) {
	ctx = withBatch(ctx)
	l := s.store.Layout(ledger.Staff)
	rows, err := s.store.FindRows(ctx, ledger.Staff, village, "")
	if err != nil {
		return EditResult{}, err
	}

	var cells []cellEdit
	head := make(map[string]string)
	for _, e := range edits {
		target, ok := findSeq(l, rows, ledger.ColSeq, e.Seq)
		if !ok {
			return EditResult{}, &store.NotFoundError{Ledger: ledger.Staff, Key: village, Seq: e.Seq}
		}
		before := ledger.ClassifyPosition(target.Get(l, ledger.ColPosition))
		for _, name := range sortedKeys(e.Fields) {
			col, err := editableColumn(name, StaffColumns)
			if err != nil {
				return EditResult{}, err
			}
			v, err := ValidateCell(col, e.Fields[name])
			if err != nil {
				return EditResult{}, err
			}
			if col == ledger.ColPosition && before.Protected() && family(ledger.ClassifyPosition(v)) != family(before) {
				return EditResult{}, fmt.Errorf("%s #%s %s -> %q: %w", village, e.Seq, before.Title, v, ErrProtectedPosition)
			}

			at := target
			if isFillColumn(l, col) {
				at = store.Anchor(rows, target.Row, l.Col(col))
			}
			cells = append(cells, cellEdit{Row: at.Row, Column: col, Old: at.Get(l, col), New: v})
			if ledger.ClassifyPosition(at.Get(l, ledger.ColPosition)).IsVillageHead() {
				head[col] = v
			}
		}
	}

	res := EditResult{Ledger: ledger.Staff, Village: village}
	if res.Cells, err = s.apply(ctx, ledger.Staff, village, ActionCellEdit, cells); err != nil {
		return EditResult{}, err
	}
	if changes := crossChanges(head); len(changes) > 0 {
		p := s.propagate(ctx, ledger.Staff, village, changes)
		res.Propagation = &p
	}
	return res, nil
}

// family groups acting heads with village heads.
func family(p ledger.Position) ledger.PositionKind {
	if p.IsVillageHead() {
		return ledger.PositionVillageHead
	}
	return p.Kind
}

// AddHamletHead inserts a staff row after the last row of the village with
// the next free NO_URUT. Gender defaults to L and the position to KADUS.
func (s *Service) AddHamletHead(ctx context.Context, village string, o ledger.Official) (EditResult, error) {
	ctx = withBatch(ctx)
	name := strings.TrimSpace(o.Name)
	if name == "" {
		return EditResult{}, &ValidationError{ledger.ColName, o.Name, "name is required"}
	}
	l := s.store.Layout(ledger.Staff)
	rows, err := s.store.FindRows(ctx, ledger.Staff, village, "")
	if err != nil {
		return EditResult{}, err
	}

	seqs := make([]string, len(rows))
	for i, r := range rows {
		seqs[i] = r.Get(l, ledger.ColSeq)
	}
	seq := grid.MaxSeq(seqs) + 1

	gender := o.Gender.Code()
	if gender == "" {
		gender = ledger.GenderMale.Code()
	}
	title := strings.TrimSpace(o.Position.Title)
	if title == "" {
		title = ledger.DefaultHamletTitle
	}
	code, label := ledger.ClassifyPosition(title).Category()
	values := layoutValues(l, map[string]string{
		ledger.ColCategory:     code,
		ledger.ColCategoryName: label,
		ledger.ColSeq:          strconv.Itoa(seq),
		ledger.ColName:         name,
		ledger.ColNationalID:   grid.TextID(o.NationalID),
		ledger.ColGender:       gender,
		ledger.ColPosition:     title,
		ledger.ColPhone:        grid.TextID(o.Phone),
	})

	after := rows[len(rows)-1].Row
	if err := s.store.InsertRow(ctx, ledger.Staff, after, values); err != nil {
		return EditResult{}, err
	}
	s.audit.Record(ctx, AuditLogParams{
		Action:       ActionRowInsert,
		Ledger:       ledger.Staff,
		Village:      village,
		Row:          after + 1,
		NewValue:     name + " (" + title + ")",
		RowsAffected: 1,
	})
	return EditResult{Ledger: ledger.Staff, Village: village, Row: after + 1, Seq: seq}, nil
}

// DeleteStaff removes the staff row numbered seq. Protected positions
// cannot be deleted.
func (s *Service) DeleteStaff(ctx context.Context, village, seq string) (EditResult, error) {
	ctx = withBatch(ctx)
	l := s.store.Layout(ledger.Staff)
	rows, err := s.store.FindRows(ctx, ledger.Staff, village, seq)
	if err != nil {
		return EditResult{}, err
	}
	target := rows[0]
	if pos := ledger.ClassifyPosition(target.Get(l, ledger.ColPosition)); pos.Protected() {
		return EditResult{}, fmt.Errorf("%s #%s %s (protected: %s): %w",
			village, seq, pos.Title, strings.Join(ledger.ProtectedTitles, ", "), ErrProtectedPosition)
	}
	if err := s.deleteRow(ctx, ledger.Staff, village, target.Row); err != nil {
		return EditResult{}, err
	}
	return EditResult{Ledger: ledger.Staff, Village: village, Row: target.Row}, nil
}

// headChanges reports the village-head fields of an official, for callers
// that replace the head wholesale.
func headChanges(o ledger.Official) reconcile.Changes {
	return crossChanges(map[string]string{
		ledger.ColName:        strings.TrimSpace(o.Name),
		ledger.ColGender:      o.Gender.Code(),
		ledger.ColPosition:    strings.TrimSpace(o.Position.Title),
		ledger.ColPhone:       grid.TextID(o.Phone),
		ledger.ColVillageCode: grid.TextID(o.Locality.VillageCode),
	})
}

// Reconcile re-propagates the village head recorded in the detail ledger to
// the roster and staff ledgers.
func (s *Service) Reconcile(ctx context.Context, village string) (reconcile.Result, error) {
	ctx = withBatch(ctx)
	for _, o := range s.Details(ctx) {
		if sameKey(o.Locality.Village, village) {
			return s.propagate(ctx, ledger.Detail, village, headChanges(o)), nil
		}
	}
	return reconcile.Result{}, &store.NotFoundError{Ledger: ledger.Detail, Key: village}
}
