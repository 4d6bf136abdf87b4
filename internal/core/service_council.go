package core

import (
	"context"
	"strconv"
	"strings"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/normalize"
	"github.com/dpmglangsa/gampong/internal/store"
)

// UpdateCouncil applies edits to members of one village in a single batch.
// A gender edit ticks one of the two gender columns and clears the other.
func (s *Service) UpdateCouncil(ctx context.Context, village string, edits []CouncilEdit) (EditResult, error) {
	ctx = withBatch(ctx)
	l := s.store.Layout(ledger.Council)
	rows, err := s.store.FindRows(ctx, ledger.Council, village, "")
	if err != nil {
		return EditResult{}, err
	}

	var cells []cellEdit
	for _, e := range edits {
		target, ok := findSeq(l, rows, l.SeqColumn, e.Seq)
		if !ok {
			return EditResult{}, &store.NotFoundError{Ledger: ledger.Council, Key: village, Seq: e.Seq}
		}
		set := func(col, v string) {
			cells = append(cells, cellEdit{Row: target.Row, Column: col, Old: target.Get(l, col), New: v})
		}
		if e.Name != nil {
			name := strings.TrimSpace(*e.Name)
			if name == "" {
				return EditResult{}, &ValidationError{ledger.ColMemberName, *e.Name, "name is required"}
			}
			set(ledger.ColMemberName, name)
		}
		if e.Gender != nil {
			g := ledger.ParseGender(*e.Gender)
			if g == ledger.GenderUnknown && strings.TrimSpace(*e.Gender) != "" {
				return EditResult{}, &ValidationError{ledger.ColMale, *e.Gender, "want L or P"}
			}
			male, female := "", ""
			switch ledger.MarkFor(g) {
			case ledger.MarkMale:
				male = ledger.CheckMark
			case ledger.MarkFemale:
				female = ledger.CheckMark
			}
			set(ledger.ColMale, male)
			set(ledger.ColFemale, female)
		}
		if e.Remark != nil {
			set(ledger.ColRemark, strings.TrimSpace(*e.Remark))
		}
	}

	res := EditResult{Ledger: ledger.Council, Village: village}
	if res.Cells, err = s.apply(ctx, ledger.Council, village, ActionCellEdit, cells); err != nil {
		return EditResult{}, err
	}
	return res, nil
}

// AddCouncilMember inserts a member after the last member of the village
// block. The sub-district and cluster are copied from the block; without a
// sequence number the member gets the next free one.
func (s *Service) AddCouncilMember(ctx context.Context, village string, m ledger.CouncilMember) (EditResult, error) {
	ctx = withBatch(ctx)
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return EditResult{}, &ValidationError{ledger.ColMemberName, m.Name, "name is required"}
	}
	l := s.store.Layout(ledger.Council)
	g, err := s.store.ReadGrid(ctx, ledger.Council)
	if err != nil {
		return EditResult{}, err
	}
	var block []normalize.Row
	for _, r := range normalize.Prepare(l, g) {
		if sameKey(r.Get(l, l.KeyColumn), village) {
			block = append(block, r)
		}
	}
	if len(block) == 0 {
		return EditResult{}, &store.NotFoundError{Ledger: ledger.Council, Key: village}
	}

	seq := 0
	if m.Seq != nil {
		seq = *m.Seq
	} else {
		seqs := make([]string, len(block))
		for i, r := range block {
			seqs[i] = r.Get(l, l.SeqColumn)
		}
		seq = grid.MaxSeq(seqs) + 1
	}
	first := block[0]
	named := map[string]string{
		ledger.ColSubDistrict: first.Get(l, ledger.ColSubDistrict),
		ledger.ColCluster:     first.Get(l, ledger.ColCluster),
		l.SeqColumn:           strconv.Itoa(seq),
		ledger.ColMemberName:  name,
		ledger.ColRemark:      strings.TrimSpace(m.Remark),
	}
	switch m.GenderMark {
	case ledger.MarkMale:
		named[ledger.ColMale] = ledger.CheckMark
	case ledger.MarkFemale:
		named[ledger.ColFemale] = ledger.CheckMark
	}
	values := layoutValues(l, named)

	after := block[len(block)-1].Num
	if err := s.store.InsertRow(ctx, ledger.Council, after, values); err != nil {
		return EditResult{}, err
	}
	s.audit.Record(ctx, AuditLogParams{
		Action:       ActionRowInsert,
		Ledger:       ledger.Council,
		Village:      village,
		Row:          after + 1,
		NewValue:     name,
		RowsAffected: 1,
	})
	return EditResult{Ledger: ledger.Council, Village: village, Row: after + 1, Seq: seq}, nil
}

// DeleteCouncilMember removes the member numbered seq.
func (s *Service) DeleteCouncilMember(ctx context.Context, village, seq string) (EditResult, error) {
	ctx = withBatch(ctx)
	rows, err := s.store.FindRows(ctx, ledger.Council, village, seq)
	if err != nil {
		return EditResult{}, err
	}
	if err := s.deleteRow(ctx, ledger.Council, village, rows[0].Row); err != nil {
		return EditResult{}, err
	}
	return EditResult{Ledger: ledger.Council, Village: village, Row: rows[0].Row}, nil
}

// UpdateCouncilSecretary rewrites the secretary lines of a village block.
// An empty title keeps the default one.
func (s *Service) UpdateCouncilSecretary(ctx context.Context, village, name, title string) (EditResult, error) {
	ctx = withBatch(ctx)
	name = strings.TrimSpace(name)
	if name == "" {
		return EditResult{}, &ValidationError{ledger.ColVillage, name, "secretary name is required"}
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = ledger.DefaultSecretaryTitle
	}

	l := s.store.Layout(ledger.Council)
	g, err := s.store.ReadGrid(ctx, ledger.Council)
	if err != nil {
		return EditResult{}, err
	}
	_, groups := normalize.Council(l, g)
	var grp *normalize.CouncilGroup
	for i := range groups {
		if sameKey(groups[i].Village, village) {
			grp = &groups[i]
			break
		}
	}
	if grp == nil {
		return EditResult{}, &store.NotFoundError{Ledger: ledger.Council, Key: village}
	}
	titleRow, nameRow, ok := grp.SecretaryRows()
	if !ok {
		return EditResult{}, ErrNoSecretarySlot
	}

	col := l.Col(l.KeyColumn)
	var cells []cellEdit
	if titleRow != grp.MarkerRow {
		cells = append(cells, cellEdit{Row: titleRow, Column: l.KeyColumn, Old: g.Cell(titleRow, col), New: title})
	}
	cells = append(cells, cellEdit{Row: nameRow, Column: l.KeyColumn, Old: g.Cell(nameRow, col), New: name})

	res := EditResult{Ledger: ledger.Council, Village: village}
	if res.Cells, err = s.apply(ctx, ledger.Council, village, ActionSecretaryEdit, cells); err != nil {
		return EditResult{}, err
	}
	return res, nil
}
