// Package export renders normalized ledger records back into the grouped
// spreadsheet layouts the district office distributes.
//
// Rows are sorted by locality and sequence number, grouping columns are
// written once per village and merged over the village's rows, identifiers
// are written as text cells, and nothing is written above a layout's data
// start row when a template workbook supplies the header block.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
)

// ErrTemplateMissing is returned when a configured template file does not exist.
var ErrTemplateMissing = errors.New("export template missing")

// ContentType is the MIME type of rendered workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// cellKind selects how a value is written.
type cellKind int

const (
	textCell cellKind = iota
	intCell
)

type cell struct {
	value string
	kind  cellKind
}

func text(s string) cell { return cell{value: s} }

func number(n *int) cell {
	if n == nil {
		return cell{}
	}
	return cell{value: fmt.Sprint(*n), kind: intCell}
}

// row is one output row before placement.
type row struct {
	// group is the locality chain, outer to inner.
	group []string
	seq   *int
	cells []cell
	// extra holds cells written at fixed offsets inside the group, keyed by
	// offset from the group's first row.
	extra map[int]cell
}

// Exporter renders ledgers to xlsx.
type Exporter struct {
	layouts     ledger.Layouts
	templateDir string
	logger      *slog.Logger
}

// New returns an Exporter. With an empty templateDir workbooks are generated
// from scratch with a synthetic header block.
func New(layouts ledger.Layouts, templateDir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{layouts: layouts, templateDir: templateDir, logger: logger}
}

// FileName returns the bundle file name of ledger k.
func (e *Exporter) FileName(k ledger.Kind) string {
	return e.layouts.Get(k).ExportFile
}

// Render renders records, which must be the record slice type of k.
func (e *Exporter) Render(k ledger.Kind, records any) ([]byte, error) {
	switch recs := records.(type) {
	case []ledger.RosterEntry:
		return e.RenderRoster(recs)
	case []ledger.Official:
		if k == ledger.Detail {
			return e.RenderDetail(recs)
		}
		return e.RenderStaff(recs)
	case []ledger.CouncilMember:
		return e.RenderCouncil(recs)
	}
	return nil, fmt.Errorf("export %s: unsupported records %T", k, records)
}

// write places rows into the workbook for layout l and returns its bytes.
func (e *Exporter) write(l ledger.Layout, rows []row) ([]byte, error) {
	sortRows(rows)

	f, sheet, err := e.open(l)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	styles, err := rowStyles(f, sheet, l)
	if err != nil {
		return nil, err
	}
	if err := clearData(f, sheet, l.ExportStartRow); err != nil {
		return nil, err
	}
	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: 49})
	if err != nil {
		return nil, err
	}

	if err := applyStyles(f, sheet, styles, l.ExportStartRow, l.ExportStartRow+len(rows)-1); err != nil {
		return nil, err
	}

	merge := l.Cols(l.MergeColumns)
	grouped := l.Cols(groupColumns(l))
	isGrouped := make(map[int]bool, len(grouped))
	for _, c := range grouped {
		isGrouped[c] = true
	}

	r := l.ExportStartRow
	for _, span := range spans(rows) {
		first := r
		for i := span.Start; i < span.End; i++ {
			for c, v := range rows[i].cells {
				col := c + 1
				if i > span.Start && isGrouped[col] {
					continue
				}
				if err := setCell(f, sheet, r, col, v, idStyle(styles, col, textStyle)); err != nil {
					return nil, err
				}
			}
			r++
		}
		last := r - 1
		if extra := rows[span.Start].extra; len(extra) > 0 {
			if first+maxOffset(extra) > last {
				e.logger.Warn("village block too short for fixed-offset cells",
					"sheet", sheet, "group", rows[span.Start].group, "rows", last-first+1)
			} else {
				key := l.Col(l.KeyColumn)
				for off, v := range extra {
					if err := setCell(f, sheet, first+off, key, v, idStyle(styles, key, textStyle)); err != nil {
						return nil, err
					}
				}
			}
		}
		if last > first {
			for _, col := range merge {
				from, to := grid.CellRef{Row: first, Col: col}, grid.CellRef{Row: last, Col: col}
				if err := f.MergeCell(sheet, from.Name(), to.Name()); err != nil {
					return nil, fmt.Errorf("merge %s: %w", grid.RangeName(from, to), err)
				}
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func maxOffset(m map[int]cell) int {
	n := 0
	for off := range m {
		n = max(n, off)
	}
	return n
}

// groupColumns are the columns written only on a group's first row.
func groupColumns(l ledger.Layout) []string {
	cols := append([]string(nil), l.MergeColumns...)
	if len(cols) > 0 && l.Col(l.KeyColumn) > 0 {
		found := false
		for _, c := range cols {
			found = found || c == l.KeyColumn
		}
		if !found {
			cols = append(cols, l.KeyColumn)
		}
	}
	return cols
}

// idStyle keeps a template's column style and falls back to the text format.
func idStyle(styles map[int]int, col, textStyle int) int {
	if _, ok := styles[col]; ok {
		return 0
	}
	return textStyle
}

func setCell(f *excelize.File, sheet string, r, col int, v cell, textStyle int) error {
	if v.value == "" {
		return nil
	}
	name := grid.CellName(r, col)
	if v.kind == intCell {
		var n int
		if _, err := fmt.Sscan(v.value, &n); err == nil {
			return f.SetCellValue(sheet, name, n)
		}
	}
	if err := f.SetCellStr(sheet, name, v.value); err != nil {
		return err
	}
	if textStyle > 0 && grid.IsDigits(v.value) {
		return f.SetCellStyle(sheet, name, name, textStyle)
	}
	return nil
}

// open loads the layout's template or creates a workbook with a generated
// header block.
func (e *Exporter) open(l ledger.Layout) (*excelize.File, string, error) {
	if e.templateDir == "" {
		return newWorkbook(l)
	}
	path := filepath.Join(e.templateDir, l.ExportTemplate)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%s: %w", path, ErrTemplateMissing)
		}
		return nil, "", fmt.Errorf("stat template: %w", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("open template %s: %w", path, err)
	}
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		f.Close()
		return nil, "", fmt.Errorf("template %s has no sheets", path)
	}
	return f, sheet, nil
}

func newWorkbook(l ledger.Layout) (*excelize.File, string, error) {
	f := excelize.NewFile()
	sheet := l.Sheet
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, "", err
	}
	headerRow := l.ExportStartRow - 1
	if headerRow < 1 {
		return f, sheet, nil
	}
	if headerRow > 1 {
		if err := f.SetCellStr(sheet, "A1", "DATA "+strings.ReplaceAll(strings.ToUpper(l.Sheet), "_", " ")); err != nil {
			f.Close()
			return nil, "", err
		}
	}
	for i, name := range l.Columns {
		if err := f.SetCellStr(sheet, grid.CellName(headerRow, i+1), strings.ReplaceAll(name, "_", " ")); err != nil {
			f.Close()
			return nil, "", err
		}
	}
	return f, sheet, nil
}

// rowStyles captures the style of each column of the first data row so
// rendered rows keep the template's formatting.
func rowStyles(f *excelize.File, sheet string, l ledger.Layout) (map[int]int, error) {
	styles := make(map[int]int)
	for col := 1; col <= l.Width(); col++ {
		id, err := f.GetCellStyle(sheet, grid.CellName(l.ExportStartRow, col))
		if err != nil {
			return nil, err
		}
		if id > 0 {
			styles[col] = id
		}
	}
	return styles, nil
}

func applyStyles(f *excelize.File, sheet string, styles map[int]int, from, to int) error {
	if to < from {
		return nil
	}
	for col, id := range styles {
		if err := f.SetCellStyle(sheet, grid.CellName(from, col), grid.CellName(to, col), id); err != nil {
			return err
		}
	}
	return nil
}

// clearData blanks every cell from row start down and drops merges that
// begin there, leaving the rows themselves in place.
func clearData(f *excelize.File, sheet string, start int) error {
	merged, err := f.GetMergeCells(sheet)
	if err != nil {
		return err
	}
	for _, m := range merged {
		_, row, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			return err
		}
		if row < start {
			continue
		}
		if err := f.UnmergeCell(sheet, m.GetStartAxis(), m.GetEndAxis()); err != nil {
			return err
		}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return err
	}
	for r := start; r <= len(rows); r++ {
		for c, v := range rows[r-1] {
			if v == "" {
				continue
			}
			if err := f.SetCellValue(sheet, grid.CellName(r, c+1), nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// sortRows orders rows by locality, outer to inner, then by sequence number.
// Rows without a sequence number sort first within their group.
func sortRows(rows []row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		for k := 0; k < len(a.group) && k < len(b.group); k++ {
			if a.group[k] != b.group[k] {
				return a.group[k] < b.group[k]
			}
		}
		switch {
		case a.seq == nil && b.seq == nil:
			return false
		case a.seq == nil:
			return true
		case b.seq == nil:
			return false
		}
		return *a.seq < *b.seq
	})
}

// spans splits sorted rows into runs sharing the same locality chain.
func spans(rows []row) []grid.Span {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = strings.Join(r.group, "\x00")
		if keys[i] == "" {
			keys[i] = fmt.Sprintf("\x01%d", i)
		}
	}
	return grid.Groups(keys)
}
