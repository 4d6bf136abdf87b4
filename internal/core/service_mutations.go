package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/normalize"
	"github.com/dpmglangsa/gampong/internal/reconcile"
	"github.com/dpmglangsa/gampong/internal/store"
)

// cellEdit is one pending cell write with the value it replaces.
type cellEdit struct {
	Row    int
	Column string
	Old    string
	New    string
}

// apply writes edits to ledger k in one batch, skipping cells that already
// hold the new value, and audits every written cell.
func (s *Service) apply(ctx context.Context, k ledger.Kind, village string, action AuditAction, edits []cellEdit) (int, error) {
	l := s.store.Layout(k)
	seen := make(map[grid.CellRef]int)
	var (
		updates []grid.CellUpdate
		applied []cellEdit
	)
	for _, e := range edits {
		col := l.Col(e.Column)
		if col == 0 {
			return 0, fmt.Errorf("%s has no column %s: %w", k, e.Column, ErrUnknownField)
		}
		ref := grid.CellRef{Row: e.Row, Col: col}
		if i, ok := seen[ref]; ok {
			updates[i].Value = e.New
			applied[i].New = e.New
			continue
		}
		if grid.CleanCell(e.Old) == e.New {
			continue
		}
		seen[ref] = len(updates)
		updates = append(updates, grid.CellUpdate{Row: e.Row, Col: col, Value: e.New})
		applied = append(applied, e)
	}
	if len(updates) == 0 {
		return 0, nil
	}
	if err := s.store.UpdateCells(ctx, k, updates); err != nil {
		return 0, err
	}
	for _, e := range applied {
		s.audit.Record(ctx, AuditLogParams{
			Action:     action,
			Ledger:     k,
			Village:    village,
			Row:        e.Row,
			ColumnName: e.Column,
			OldValue:   e.Old,
			NewValue:   e.New,
		})
	}
	return len(updates), nil
}

// deleteRow removes row from ledger k, first moving grouped values the
// following row inherits from it.
func (s *Service) deleteRow(ctx context.Context, k ledger.Kind, village string, row int) error {
	g, err := s.store.ReadGrid(ctx, k)
	if err != nil {
		return err
	}
	l := s.store.Layout(k)
	if ups := carryDown(l, g, row); len(ups) > 0 {
		if err := s.store.UpdateCells(ctx, k, ups); err != nil {
			return err
		}
	}
	if err := s.store.DeleteRow(ctx, k, row); err != nil {
		return err
	}
	s.audit.Record(ctx, AuditLogParams{
		Action:       ActionRowDelete,
		Ledger:       k,
		Village:      village,
		Row:          row,
		OldValue:     strings.Join(g.Row(row, l.Width()), " | "),
		RowsAffected: 1,
	})
	return nil
}

// crossChanges picks the village-head fields out of column values. Cleared
// values do not propagate.
func crossChanges(values map[string]string) reconcile.Changes {
	changes := reconcile.Changes{}
	for col, v := range values {
		if f, ok := reconcile.FieldForColumn(col); ok && v != "" {
			changes[f] = v
		}
	}
	return changes
}

// UpdateVillageHeadName renames the village head in the roster and carries
// the name into the detail and staff ledgers.
func (s *Service) UpdateVillageHeadName(ctx context.Context, village, name string) (EditResult, error) {
	ctx = withBatch(ctx)
	name = strings.TrimSpace(name)
	if name == "" {
		return EditResult{}, &ValidationError{ledger.ColVillageHead, name, "name is required"}
	}
	l := s.store.Layout(ledger.Roster)
	rows, err := s.store.FindRows(ctx, ledger.Roster, village, "")
	if err != nil {
		return EditResult{}, err
	}
	var edits []cellEdit
	for _, r := range rows {
		edits = append(edits, cellEdit{Row: r.Row, Column: ledger.ColVillageHead, Old: r.Get(l, ledger.ColVillageHead), New: name})
	}
	n, err := s.apply(ctx, ledger.Roster, village, ActionCellEdit, edits)
	if err != nil {
		return EditResult{}, err
	}
	res := s.propagate(ctx, ledger.Roster, village, reconcile.Changes{reconcile.FieldName: name})
	return EditResult{Ledger: ledger.Roster, Village: village, Cells: n, Propagation: &res}, nil
}

// UpdateSubDistrictHead replaces oldName with newName as head of subDistrict.
func (s *Service) UpdateSubDistrictHead(ctx context.Context, subDistrict, oldName, newName string) (EditResult, error) {
	return s.renameGroupHead(ctx, ledger.ColSubDistrict, ledger.ColSubHead, subDistrict, oldName, newName)
}

// UpdateClusterHead replaces oldName with newName as head of cluster.
func (s *Service) UpdateClusterHead(ctx context.Context, cluster, oldName, newName string) (EditResult, error) {
	return s.renameGroupHead(ctx, ledger.ColCluster, ledger.ColClusterHead, cluster, oldName, newName)
}

// renameGroupHead rewrites the headCol cells holding oldName within the
// groupCol group. The backend search locates the written cells; rows
// inheriting the name from the row above stay blank so the group keeps a
// single written value. oldName must match the cell exactly.
func (s *Service) renameGroupHead(ctx context.Context, groupCol, headCol, group, oldName, newName string) (EditResult, error) {
	ctx = withBatch(ctx)
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return EditResult{}, &ValidationError{headCol, newName, "name is required"}
	}
	hits, err := s.store.Locate(ctx, ledger.Roster, headCol, oldName)
	if err != nil {
		return EditResult{}, err
	}
	g, err := s.store.ReadGrid(ctx, ledger.Roster)
	if err != nil {
		return EditResult{}, err
	}
	l := s.store.Layout(ledger.Roster)

	groupOf := make(map[int]string)
	for _, r := range normalize.Prepare(l, g) {
		groupOf[r.Num] = r.Get(l, groupCol)
	}
	var edits []cellEdit
	for _, h := range hits {
		if !sameKey(groupOf[h.Row], group) {
			continue
		}
		edits = append(edits, cellEdit{Row: h.Row, Column: headCol, Old: grid.CleanCell(g.Cell(h.Row, h.Col)), New: newName})
	}
	if len(edits) == 0 {
		return EditResult{}, &store.NotFoundError{Ledger: ledger.Roster, Key: group + "/" + oldName}
	}
	n, err := s.apply(ctx, ledger.Roster, "", ActionCellEdit, edits)
	if err != nil {
		return EditResult{}, err
	}
	return EditResult{Ledger: ledger.Roster, Cells: n}, nil
}

// AddVillage appends a roster row numbered one past the highest NO.
func (s *Service) AddVillage(ctx context.Context, e ledger.RosterEntry) (EditResult, error) {
	ctx = withBatch(ctx)
	village := strings.TrimSpace(e.Locality.Village)
	if village == "" {
		return EditResult{}, &ValidationError{ledger.ColVillage, village, "village is required"}
	}
	sub := strings.ToUpper(strings.TrimSpace(e.Locality.SubDistrict))
	if !ledger.IsSubDistrict(sub) {
		return EditResult{}, &ValidationError{ledger.ColSubDistrict, e.Locality.SubDistrict, "unknown sub-district"}
	}
	if _, err := s.store.FindRows(ctx, ledger.Roster, village, ""); err == nil {
		return EditResult{}, &ValidationError{ledger.ColVillage, village, "village already exists"}
	} else if !store.IsNotFound(err) {
		return EditResult{}, err
	}

	g, err := s.store.ReadGrid(ctx, ledger.Roster)
	if err != nil {
		return EditResult{}, err
	}
	l := s.store.Layout(ledger.Roster)
	no := grid.MaxSeq(g.Column(l.Col(ledger.ColNo), l.DataStart())) + 1
	values := layoutValues(l, map[string]string{
		ledger.ColNo:          strconv.Itoa(no),
		ledger.ColSubDistrict: sub,
		ledger.ColSubHead:     strings.TrimSpace(e.SubDistrictHead),
		ledger.ColCluster:     strings.ToUpper(strings.TrimSpace(e.Locality.Cluster)),
		ledger.ColClusterHead: strings.TrimSpace(e.ClusterHead),
		ledger.ColVillage:     village,
		ledger.ColVillageHead: strings.TrimSpace(e.VillageHead),
	})
	after := max(g.Rows(), l.HeaderRows)
	if err := s.store.InsertRow(ctx, ledger.Roster, after, values); err != nil {
		return EditResult{}, err
	}
	s.audit.Record(ctx, AuditLogParams{
		Action:       ActionRowInsert,
		Ledger:       ledger.Roster,
		Village:      village,
		Row:          after + 1,
		NewValue:     strings.Join(values, " | "),
		RowsAffected: 1,
	})
	return EditResult{Ledger: ledger.Roster, Village: village, Row: after + 1, Seq: no}, nil
}

// DeleteVillage removes the village's roster row.
func (s *Service) DeleteVillage(ctx context.Context, village string) (EditResult, error) {
	ctx = withBatch(ctx)
	rows, err := s.store.FindRows(ctx, ledger.Roster, village, "")
	if err != nil {
		return EditResult{}, err
	}
	// Bottom-up so earlier row numbers stay valid.
	for i := len(rows) - 1; i >= 0; i-- {
		if err := s.deleteRow(ctx, ledger.Roster, village, rows[i].Row); err != nil {
			return EditResult{}, err
		}
	}
	return EditResult{Ledger: ledger.Roster, Village: village, Row: rows[0].Row}, nil
}

// UpdateDetailField sets one detail column of the village head. An empty
// value clears the cell.
func (s *Service) UpdateDetailField(ctx context.Context, village, column, value string) (EditResult, error) {
	return s.updateDetail(ctx, village, map[string]string{column: value}, false)
}

// UpdateDetail sets several detail columns of the village head in one
// batch. Empty values are not written.
func (s *Service) UpdateDetail(ctx context.Context, village string, fields map[string]string) (EditResult, error) {
	return s.updateDetail(ctx, village, fields, true)
}

func (s *Service) updateDetail(ctx context.Context, village string, fields map[string]string, skipEmpty bool) (EditResult, error) {
	ctx = withBatch(ctx)
	values := make(map[string]string)
	for _, name := range sortedKeys(fields) {
		col, err := editableColumn(name, DetailColumns)
		if err != nil {
			return EditResult{}, err
		}
		if skipEmpty && strings.TrimSpace(fields[name]) == "" {
			continue
		}
		v, err := ValidateCell(col, fields[name])
		if err != nil {
			return EditResult{}, err
		}
		values[col] = v
	}
	res := EditResult{Ledger: ledger.Detail, Village: village}
	if len(values) == 0 {
		return res, nil
	}

	l := s.store.Layout(ledger.Detail)
	rows, err := s.store.FindRows(ctx, ledger.Detail, village, "")
	if err != nil {
		return EditResult{}, err
	}
	head := rows[0]
	var edits []cellEdit
	for _, col := range sortedKeys(values) {
		edits = append(edits, cellEdit{Row: head.Row, Column: col, Old: head.Get(l, col), New: values[col]})
	}
	if res.Cells, err = s.apply(ctx, ledger.Detail, village, ActionCellEdit, edits); err != nil {
		return EditResult{}, err
	}
	if changes := crossChanges(values); len(changes) > 0 {
		p := s.propagate(ctx, ledger.Detail, village, changes)
		res.Propagation = &p
	}
	return res, nil
}
