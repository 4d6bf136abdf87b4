package export

import (
	"fmt"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
)

// Council secretary lines sit in the village column at these offsets from
// the block's first row.
const (
	secretaryTitleOffset = 2
	secretaryNameOffset  = 3
)

// RenderRoster renders roster entries. Entries without a running number are
// numbered by their position in the sorted output.
func (e *Exporter) RenderRoster(entries []ledger.RosterEntry) ([]byte, error) {
	l := e.layouts.Get(ledger.Roster)
	rows := make([]row, 0, len(entries))
	for _, en := range entries {
		if en.Locality.Village == "" {
			continue
		}
		rows = append(rows, row{
			group: en.Locality.Key(),
			cells: layoutCells(l, map[string]cell{
				ledger.ColNo:          number(en.No),
				ledger.ColSubDistrict: text(en.Locality.SubDistrict),
				ledger.ColSubHead:     text(en.SubDistrictHead),
				ledger.ColCluster:     text(en.Locality.Cluster),
				ledger.ColClusterHead: text(en.ClusterHead),
				ledger.ColVillage:     text(en.Locality.Village),
				ledger.ColVillageHead: text(en.VillageHead),
			}),
		})
	}
	sortRows(rows)
	if c := l.Col(ledger.ColNo); c > 0 {
		for i := range rows {
			if rows[i].cells[c-1].value == "" {
				n := i + 1
				rows[i].cells[c-1] = number(&n)
			}
		}
	}
	return e.write(l, rows)
}

// RenderDetail renders village-head detail records, one full row each.
func (e *Exporter) RenderDetail(officials []ledger.Official) ([]byte, error) {
	l := e.layouts.Get(ledger.Detail)
	rows := make([]row, 0, len(officials))
	for _, o := range officials {
		if o.IsGhost() {
			continue
		}
		cells := officialCells(o)
		cells[ledger.ColBirthDay] = text(o.BirthDay)
		cells[ledger.ColBirthMonth] = text(o.BirthMonth)
		cells[ledger.ColBirthYear] = text(o.BirthYear)
		cells[ledger.ColEducation] = text(o.Education)
		cells[ledger.ColDecreeNumber] = text(o.DecreeNumber)
		cells[ledger.ColDecreeDate] = text(o.DecreeDate)
		rows = append(rows, row{group: o.Locality.Key(), cells: layoutCells(l, cells)})
	}
	return e.write(l, rows)
}

// RenderStaff renders village staff grouped by village. The locality columns
// are written on each village's first row and merged down the block; the
// category columns are derived from the position.
func (e *Exporter) RenderStaff(officials []ledger.Official) ([]byte, error) {
	l := e.layouts.Get(ledger.Staff)
	rows := make([]row, 0, len(officials))
	for _, o := range officials {
		if o.IsGhost() {
			continue
		}
		cells := officialCells(o)
		code, label := o.Position.Category()
		cells[ledger.ColCategory] = text(code)
		cells[ledger.ColCategoryName] = text(label)
		cells[ledger.ColSeq] = number(o.Seq)
		cells[ledger.ColNationalID] = text(grid.TextID(o.NationalID))
		rows = append(rows, row{group: o.Locality.Key(), seq: o.Seq, cells: layoutCells(l, cells)})
	}
	return e.write(l, rows)
}

// RenderCouncil renders council members grouped by village. Each block gets
// its running number, locality and village name on its first row and the
// secretary's title and name lines below it in the village column.
func (e *Exporter) RenderCouncil(members []ledger.CouncilMember) ([]byte, error) {
	l := e.layouts.Get(ledger.Council)
	rows := make([]row, 0, len(members))
	for _, m := range members {
		if m.IsGhost() {
			continue
		}
		cells := map[string]cell{
			ledger.ColNo:          text(m.Locality.Number),
			ledger.ColSubDistrict: text(m.Locality.SubDistrict),
			ledger.ColClusterCode: text(m.Locality.ClusterCode),
			ledger.ColCluster:     text(m.Locality.Cluster),
			ledger.ColVillageNo:   text(m.Locality.VillageNo),
			ledger.ColVillage:     text(m.Locality.Village),
			ledger.ColMemberNo:    number(m.Seq),
			ledger.ColMemberName:  text(m.Name),
			ledger.ColRemark:      text(m.Remark),
		}
		switch m.GenderMark {
		case ledger.MarkMale:
			cells[ledger.ColMale] = text(ledger.CheckMark)
		case ledger.MarkFemale:
			cells[ledger.ColFemale] = text(ledger.CheckMark)
		}
		r := row{group: m.Locality.Key(), seq: m.Seq, cells: layoutCells(l, cells)}
		if s := m.Secretary; s != nil && s.Name != "" {
			title := s.Title
			if title == "" {
				title = ledger.DefaultSecretaryTitle
			}
			r.extra = map[int]cell{
				secretaryTitleOffset: text(title),
				secretaryNameOffset:  text(s.Name),
			}
		}
		rows = append(rows, r)
	}

	// Blocks without a running number continue the sequence of the sorted output.
	sortRows(rows)
	noCol := l.Col(ledger.ColNo)
	next := 0
	for _, span := range spans(rows) {
		first := &rows[span.Start]
		// Secretary lines belong to the block, not to its first member.
		for i := span.Start + 1; i < span.End && first.extra == nil; i++ {
			first.extra = rows[i].extra
		}
		if noCol == 0 {
			continue
		}
		if n := grid.ParseSeq(first.cells[noCol-1].value); n != nil {
			next = *n
		} else {
			next++
			first.cells[noCol-1] = text(fmt.Sprint(next))
		}
		first.cells[noCol-1].kind = intCell
	}
	return e.write(l, rows)
}

func officialCells(o ledger.Official) map[string]cell {
	return map[string]cell{
		ledger.ColProvinceCode: text(grid.TextID(o.Locality.ProvinceCode)),
		ledger.ColProvince:     text(o.Locality.Province),
		ledger.ColRegencyCode:  text(grid.TextID(o.Locality.RegencyCode)),
		ledger.ColRegency:      text(o.Locality.Regency),
		ledger.ColSubCode:      text(grid.TextID(o.Locality.SubDistrictCode)),
		ledger.ColSubDistrict:  text(o.Locality.SubDistrict),
		ledger.ColVillageCode:  text(grid.TextID(o.Locality.VillageCode)),
		ledger.ColDesa:         text(o.Locality.Village),
		ledger.ColName:         text(o.Name),
		ledger.ColGender:       text(o.Gender.Code()),
		ledger.ColPosition:     text(o.Position.Title),
		ledger.ColPhone:        text(grid.TextID(o.Phone)),
	}
}

// layoutCells orders named cells by the layout's columns.
func layoutCells(l ledger.Layout, named map[string]cell) []cell {
	out := make([]cell, l.Width())
	for i, name := range l.Columns {
		out[i] = named[name]
	}
	return out
}
