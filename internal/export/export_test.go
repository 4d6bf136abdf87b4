package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/normalize"
)

func intp(n int) *int { return &n }

func openSheet(t *testing.T, data []byte) (*excelize.File, string) {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f, f.GetSheetName(f.GetActiveSheetIndex())
}

func readGrid(t *testing.T, data []byte) grid.Grid {
	t.Helper()
	f, sheet := openSheet(t, data)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return grid.Grid(rows)
}

func staffLocality(village, code string) ledger.Locality {
	return ledger.Locality{
		ProvinceCode:    "11",
		Province:        "ACEH",
		RegencyCode:     "11.74",
		Regency:         "KOTA LANGSA",
		SubDistrictCode: "11.74.01",
		SubDistrict:     "LANGSA TIMUR",
		VillageCode:     code,
		Village:         village,
	}
}

func staffFixture() []ledger.Official {
	sa := staffLocality("SEUNEUBOK ANTARA", "1174012001")
	bm := staffLocality("BUKET MEDANG ARA", "1174012002")
	return []ledger.Official{
		{Locality: sa, Name: "Siti", Seq: intp(2), NationalID: "1107012345678902", Gender: ledger.GenderFemale,
			Position: ledger.ClassifyPosition("SEKRETARIS DESA"), Phone: "081200000002"},
		{Locality: bm, Name: "Rahman", Seq: intp(1), Gender: ledger.GenderMale,
			Position: ledger.ClassifyPosition("PJ. KEPALA DESA")},
		{Locality: sa, Name: "Ahmad Yani", Seq: intp(1), NationalID: "1107012345678901", Gender: ledger.GenderMale,
			Position: ledger.ClassifyPosition("KEPALA DESA"), Phone: "081234567890"},
		{Locality: sa, Name: "Budi", Seq: intp(3), Gender: ledger.GenderMale,
			Position: ledger.ClassifyPosition("KADUS")},
		// ghost: locality only
		{Locality: sa, Seq: intp(4)},
	}
}

func stripRows(officials []ledger.Official) []ledger.Official {
	out := make([]ledger.Official, len(officials))
	for i, o := range officials {
		o.Row = 0
		out[i] = o
	}
	return out
}

func TestStaffRoundTrip(t *testing.T) {
	e := New(ledger.DefaultLayouts(), "", nil)
	data, err := e.RenderStaff(staffFixture())
	if err != nil {
		t.Fatalf("RenderStaff: %v", err)
	}

	got := stripRows(normalize.Staff(ledger.DefaultLayouts().Get(ledger.Staff), readGrid(t, data)))
	fx := staffFixture()
	want := []ledger.Official{fx[1], fx[2], fx[0], fx[3]}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch\n got %+v\nwant %+v", got, want)
	}
}

func TestStaffGroupingAndCategories(t *testing.T) {
	e := New(ledger.DefaultLayouts(), "", nil)
	data, err := e.RenderStaff(staffFixture())
	if err != nil {
		t.Fatalf("RenderStaff: %v", err)
	}
	f, sheet := openSheet(t, data)

	cellTests := []struct {
		cell string
		want string
	}{
		{"H6", "BUKET MEDANG ARA"},
		{"I6", "A"},
		{"J6", "Kades"},
		{"H7", "SEUNEUBOK ANTARA"},
		{"I8", "B"},
		{"J8", "Perangkat"},
		{"J9", "K. Dusun"},
		{"L10", ""},
	}
	for _, tt := range cellTests {
		got, err := f.GetCellValue(sheet, tt.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.cell, got, tt.want)
		}
	}

	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		t.Fatalf("GetMergeCells: %v", err)
	}
	want := map[string]bool{}
	for _, col := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		want[col+"7:"+col+"9"] = true
	}
	if len(merges) != len(want) {
		t.Fatalf("got %d merged ranges, want %d", len(merges), len(want))
	}
	for _, m := range merges {
		r := m.GetStartAxis() + ":" + m.GetEndAxis()
		if !want[r] {
			t.Errorf("unexpected merged range %s", r)
		}
	}
}

func TestIdentifiersWrittenAsText(t *testing.T) {
	e := New(ledger.DefaultLayouts(), "", nil)
	data, err := e.RenderStaff([]ledger.Official{{
		Locality:   staffLocality("SEUNEUBOK ANTARA", "1174012001"),
		Name:       "Ahmad Yani",
		Seq:        intp(1),
		NationalID: "1107012345678901",
		Position:   ledger.ClassifyPosition("KEPALA DESA"),
		Phone:      "081234567890",
	}})
	if err != nil {
		t.Fatalf("RenderStaff: %v", err)
	}
	f, sheet := openSheet(t, data)

	for _, tt := range []struct {
		cell string
		want string
	}{
		{"M6", "1107012345678901"},
		{"P6", "081234567890"},
		{"G6", "1174012001"},
	} {
		got, err := f.GetCellValue(sheet, tt.cell, excelize.Options{RawCellValue: true})
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.cell, got, tt.want)
		}
		typ, err := f.GetCellType(sheet, tt.cell)
		if err != nil {
			t.Fatalf("GetCellType(%s): %v", tt.cell, err)
		}
		if typ != excelize.CellTypeSharedString && typ != excelize.CellTypeInlineString {
			t.Errorf("%s cell type = %v, want a string cell", tt.cell, typ)
		}
		id, err := f.GetCellStyle(sheet, tt.cell)
		if err != nil {
			t.Fatalf("GetCellStyle(%s): %v", tt.cell, err)
		}
		style, err := f.GetStyle(id)
		if err != nil {
			t.Fatalf("GetStyle(%d): %v", id, err)
		}
		if style.NumFmt != 49 {
			t.Errorf("%s number format = %d, want 49 (text)", tt.cell, style.NumFmt)
		}
	}

	typ, err := f.GetCellType(sheet, "K6")
	if err != nil {
		t.Fatalf("GetCellType(K6): %v", err)
	}
	if typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
		t.Errorf("sequence number written as a string cell")
	}
}

func councilFixture() []ledger.CouncilMember {
	bm := ledger.Locality{Number: "1", SubDistrict: "LANGSA TIMUR", ClusterCode: "1", Cluster: "MUKIM A", VillageNo: "1", Village: "BUKET MEDANG ARA"}
	sp := ledger.Locality{Number: "2", SubDistrict: "LANGSA TIMUR", ClusterCode: "1", Cluster: "MUKIM A", VillageNo: "2", Village: "SUNGAI PAUH"}
	sec := &ledger.Secretary{Name: "Muhammad Ali", Title: "Sekretaris TPG"}
	var out []ledger.CouncilMember
	for i, name := range []string{"Nurhasan", "Bustami", "Aisyah", "Zainal"} {
		mark := ledger.MarkMale
		if name == "Aisyah" {
			mark = ledger.MarkFemale
		}
		out = append(out, ledger.CouncilMember{Locality: bm, Seq: intp(i + 1), Name: name, GenderMark: mark, Secretary: sec})
	}
	out = append(out,
		ledger.CouncilMember{Locality: sp, Seq: intp(1), Name: "Hasan", GenderMark: ledger.MarkMale, Remark: "Ketua"},
		ledger.CouncilMember{Locality: sp, Seq: intp(2), Name: "Rusli", GenderMark: ledger.MarkMale},
	)
	return out
}

func TestCouncilRoundTrip(t *testing.T) {
	e := New(ledger.DefaultLayouts(), "", nil)
	data, err := e.RenderCouncil(councilFixture())
	if err != nil {
		t.Fatalf("RenderCouncil: %v", err)
	}

	members, groups := normalize.Council(ledger.DefaultLayouts().Get(ledger.Council), readGrid(t, data))
	if len(members) != 6 {
		t.Fatalf("read back %d members, want 6", len(members))
	}
	want := councilFixture()
	for i := range members {
		got := members[i]
		got.Row = 0
		got.Secretary = nil
		w := want[i]
		w.Secretary = nil
		if !reflect.DeepEqual(got, w) {
			t.Errorf("member %d = %+v, want %+v", i, got, w)
		}
	}
	if len(groups) != 2 {
		t.Fatalf("read back %d groups, want 2", len(groups))
	}
	sec := groups[0].Secretary
	if sec == nil || sec.Name != "Muhammad Ali" || sec.Title != "Sekretaris TPG" {
		t.Errorf("secretary = %+v, want Muhammad Ali / Sekretaris TPG", sec)
	}
	if groups[1].Secretary != nil {
		t.Errorf("second group secretary = %+v, want none", groups[1].Secretary)
	}
}

func TestCouncilShortBlockSkipsSecretary(t *testing.T) {
	e := New(ledger.DefaultLayouts(), "", nil)
	members := councilFixture()[:2]
	data, err := e.RenderCouncil(members)
	if err != nil {
		t.Fatalf("RenderCouncil: %v", err)
	}
	g := readGrid(t, data)
	if g.Rows() != 9 {
		t.Fatalf("sheet has %d rows, want 9", g.Rows())
	}
	if v := g.Cell(9, 6); v != "" {
		t.Errorf("F9 = %q, want empty", v)
	}
}

func TestRosterNumbersMissingEntries(t *testing.T) {
	e := New(ledger.DefaultLayouts(), "", nil)
	entries := []ledger.RosterEntry{
		{Locality: ledger.Locality{SubDistrict: "LANGSA TIMUR", Cluster: "MUKIM B", Village: "SUNGAI PAUH"}, VillageHead: "Hasan"},
		{Locality: ledger.Locality{SubDistrict: "LANGSA BARO", Cluster: "MUKIM A", Village: "ALUE BERAWE"}, SubDistrictHead: "Camat Baro", VillageHead: "Yusuf"},
		{},
	}
	data, err := e.RenderRoster(entries)
	if err != nil {
		t.Fatalf("RenderRoster: %v", err)
	}
	got := normalize.Roster(ledger.DefaultLayouts().Get(ledger.Roster), readGrid(t, data))
	if len(got) != 2 {
		t.Fatalf("read back %d entries, want 2", len(got))
	}
	if got[0].Locality.Village != "ALUE BERAWE" || got[0].No == nil || *got[0].No != 1 {
		t.Errorf("first entry = %+v, want ALUE BERAWE numbered 1", got[0])
	}
	if got[1].VillageHead != "Hasan" || got[1].No == nil || *got[1].No != 2 {
		t.Errorf("second entry = %+v, want Hasan numbered 2", got[1])
	}
}

func TestDetailRoundTrip(t *testing.T) {
	e := New(ledger.DefaultLayouts(), "", nil)
	in := []ledger.Official{{
		Locality:     staffLocality("SEUNEUBOK ANTARA", "1174012001"),
		Name:         "Ahmad Yani",
		Gender:       ledger.GenderMale,
		Position:     ledger.ClassifyPosition("KEPALA DESA"),
		Phone:        "081234567890",
		BirthDay:     "05",
		BirthMonth:   "09",
		BirthYear:    "1975",
		Education:    "SMA",
		DecreeNumber: "141/12/2023",
		DecreeDate:   "12-01-2023",
	}}
	data, err := e.RenderDetail(in)
	if err != nil {
		t.Fatalf("RenderDetail: %v", err)
	}
	got := stripRows(normalize.Detail(ledger.DefaultLayouts().Get(ledger.Detail), readGrid(t, data)))
	if !reflect.DeepEqual(got, in) {
		t.Errorf("round trip mismatch\n got %+v\nwant %+v", got, in)
	}
}

func TestTemplateHeaderPreserved(t *testing.T) {
	dir := t.TempDir()
	layouts := ledger.DefaultLayouts()
	l := layouts.Get(ledger.Staff)

	tpl := excelize.NewFile()
	sheet := "Template"
	if err := tpl.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatal(err)
	}
	header := map[string]string{"A1": "DATA KEPALA DESA DAN PERANGKAT DESA", "A3": "KOTA LANGSA", "L5": "NAMA"}
	for c, v := range header {
		if err := tpl.SetCellStr(sheet, c, v); err != nil {
			t.Fatal(err)
		}
	}
	// stale rows and merges from a previous export
	for r := 6; r <= 2000; r++ {
		for _, col := range []int{8, 12} {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			if err := tpl.SetCellStr(sheet, cell, "stale"); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tpl.MergeCell(sheet, "H6", "H9"); err != nil {
		t.Fatal(err)
	}
	if err := tpl.SaveAs(filepath.Join(dir, l.ExportTemplate)); err != nil {
		t.Fatal(err)
	}
	tpl.Close()

	e := New(layouts, dir, nil)
	data, err := e.RenderStaff(staffFixture()[:1])
	if err != nil {
		t.Fatalf("RenderStaff: %v", err)
	}
	f, got := openSheet(t, data)
	if got != sheet {
		t.Errorf("sheet = %q, want %q", got, sheet)
	}
	for c, v := range header {
		if s, _ := f.GetCellValue(sheet, c); s != v {
			t.Errorf("%s = %q, want %q", c, s, v)
		}
	}
	if s, _ := f.GetCellValue(sheet, "L6"); s != "Siti" {
		t.Errorf("L6 = %q, want Siti", s)
	}
	for _, c := range []string{"L7", "H7", "L2000", "H2000"} {
		if s, _ := f.GetCellValue(sheet, c); s != "" {
			t.Errorf("%s = %q, want stale row cleared", c, s)
		}
	}
	merged, err := f.GetMergeCells(sheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 0 {
		t.Errorf("merged ranges = %d, want stale merge dropped", len(merged))
	}
}

func TestTemplateMissing(t *testing.T) {
	e := New(ledger.DefaultLayouts(), t.TempDir(), nil)
	_, err := e.RenderRoster(nil)
	if !errors.Is(err, ErrTemplateMissing) {
		t.Errorf("RenderRoster() error = %v, want ErrTemplateMissing", err)
	}
}

func TestRenderDispatch(t *testing.T) {
	e := New(ledger.DefaultLayouts(), "", nil)
	if _, err := e.Render(ledger.Detail, []ledger.Official{}); err != nil {
		t.Errorf("Render(detail) error = %v", err)
	}
	if _, err := e.Render(ledger.Council, "nope"); err == nil {
		t.Error("Render() with unsupported records returned nil error")
	}
}

func TestBundle(t *testing.T) {
	var buf bytes.Buffer
	files := []File{{Name: "a.xlsx", Data: []byte("one")}, {Name: "b.xlsx", Data: []byte("two")}}
	if err := Bundle(&buf, files, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("archive has %d files, want 2", len(zr.File))
	}
	for i, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		if zf.Name != files[i].Name || string(b) != string(files[i].Data) {
			t.Errorf("entry %d = %s %q, want %s %q", i, zf.Name, b, files[i].Name, files[i].Data)
		}
	}
}
