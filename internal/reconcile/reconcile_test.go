package reconcile

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/store"
)

const village = "SEUNEUBOK ANTARA"

func rosterSheet() grid.Grid {
	return grid.Grid{
		{"NO", "KECAMATAN", "NAMA_CAMAT", "KEMUKIMAN", "NAMA_MUKIM", "GAMPONG", "NAMA_GEUCHIK"},
		{"1", "LANGSA TIMUR", "Camat", "MUKIM A", "Imum", village, "Old Name"},
		{"2", "", "", "", "", "BUKET MEDANG ARA", "Rahman"},
	}
}

func detailSheet() grid.Grid {
	g := make(grid.Grid, 3)
	return append(g,
		[]string{"11", "ACEH", "11.74", "KOTA LANGSA", "11.74.01", "LANGSA TIMUR", "11.74.01.2001", village,
			"Old Name", "01", "02", "1970", "L", "SMA", "", "", "KEPALA DESA", "0811"},
		[]string{"", "", "", "", "", "", "11.74.01.2002", "BUKET MEDANG ARA",
			"Rahman", "", "", "", "L", "", "", "", "KEPALA DESA", ""},
	)
}

// staffSheet puts the secretary above the head so selection cannot rely on
// row order.
func staffSheet() grid.Grid {
	g := make(grid.Grid, 5)
	return append(g,
		[]string{"11", "ACEH", "11.74", "KOTA LANGSA", "11.74.01", "LANGSA TIMUR", "11.74.01.2001", village,
			"B", "Perangkat", "1", "Sekdes Name", "", "P", "SEKRETARIS DESA", "0822"},
		[]string{"", "", "", "", "", "", "", "", "A", "Kades", "2", "Old Name", "", "L", "KEPALA DESA", "0811"},
		[]string{"", "", "", "", "", "", "", "", "B", "Perangkat", "3", "Kaur Name", "", "L", "KAUR UMUM", ""},
	)
}

func newFixture(t *testing.T) (*store.MemoryBackend, *store.Store) {
	t.Helper()
	ls := ledger.DefaultLayouts()
	mem := store.NewMemoryBackend(map[string]grid.Grid{
		ls.Get(ledger.Roster).Sheet: rosterSheet(),
		ls.Get(ledger.Detail).Sheet: detailSheet(),
		ls.Get(ledger.Staff).Sheet:  staffSheet(),
	})
	return mem, store.New(mem, ls)
}

func sheet(mem *store.MemoryBackend, k ledger.Kind) grid.Grid {
	return mem.Sheet(ledger.DefaultLayouts().Get(k).Sheet)
}

func TestPropagateOnlyTouchesVillageHeadRow(t *testing.T) {
	mem, s := newFixture(t)
	e := New(s, nil)

	res := e.Propagate(context.Background(), "", village, Changes{FieldName: "Ahmad"})
	for _, k := range Targets {
		if got := res.Outcomes[k].Status; got != StatusUpdated {
			t.Errorf("%s status = %s, want updated (%v)", k, got, res.Outcomes[k].Err)
		}
	}

	staff := sheet(mem, ledger.Staff)
	if got := staff.Cell(7, 12); got != "Ahmad" {
		t.Errorf("head row name = %q, want Ahmad", got)
	}
	if got := staff.Cell(6, 12); got != "Sekdes Name" {
		t.Errorf("secretary row name = %q, want unchanged", got)
	}
	if got := staff.Cell(8, 12); got != "Kaur Name" {
		t.Errorf("staff row name = %q, want unchanged", got)
	}
	if got := sheet(mem, ledger.Roster).Cell(2, 7); got != "Ahmad" {
		t.Errorf("roster name = %q, want Ahmad", got)
	}
	if got := sheet(mem, ledger.Detail).Cell(4, 9); got != "Ahmad" {
		t.Errorf("detail name = %q, want Ahmad", got)
	}
	if got := sheet(mem, ledger.Roster).Cell(3, 7); got != "Rahman" {
		t.Errorf("other village changed: %q", got)
	}
}

func TestPropagateProtectsOtherPositionsForEveryField(t *testing.T) {
	mem, s := newFixture(t)
	before := sheet(mem, ledger.Staff)

	New(s, nil).Propagate(context.Background(), ledger.Detail, village, Changes{
		FieldName:        "Ahmad",
		FieldGender:      "F",
		FieldPhone:       "0899",
		FieldPosition:    "PJ. KEPALA DESA",
		FieldVillageCode: "11.74.01.2009",
	})

	after := sheet(mem, ledger.Staff)
	for _, row := range []int{6, 8} {
		if !reflect.DeepEqual(before[row-1], after[row-1]) {
			t.Errorf("row %d changed:\n before %q\n after  %q", row, before[row-1], after[row-1])
		}
	}
	if after.Cell(7, 14) != "P" || after.Cell(7, 16) != "0899" || after.Cell(7, 15) != "PJ. KEPALA DESA" {
		t.Errorf("head row = %q", after[6])
	}
	// The village code cell sits on the secretary's row.
	res := New(s, nil).Propagate(context.Background(), ledger.Detail, village, Changes{FieldVillageCode: "11.74.01.2010"})
	if got := res.Outcomes[ledger.Staff]; got.Status != StatusSkipped || !reflect.DeepEqual(got.Skipped, []Field{FieldVillageCode}) {
		t.Errorf("staff outcome = %+v, want village_code skipped", got)
	}
	if got := sheet(mem, ledger.Staff).Cell(6, 7); got != "11.74.01.2001" {
		t.Errorf("shared village code cell = %q, want unchanged", got)
	}
}

func TestPropagateGroupedColumnOnHeadRow(t *testing.T) {
	ls := ledger.DefaultLayouts()
	staff := staffSheet()
	// Swap so the head is the first row of the village group.
	staff[5][11], staff[6][11] = staff[6][11], staff[5][11]
	staff[5][14], staff[6][14] = staff[6][14], staff[5][14]
	mem := store.NewMemoryBackend(map[string]grid.Grid{ls.Get(ledger.Staff).Sheet: staff})
	e := New(store.New(mem, ls), nil)

	res := e.Propagate(context.Background(), ledger.Detail, village, Changes{FieldVillageCode: "11.74.01.2009"})
	if got := res.Outcomes[ledger.Staff].Status; got != StatusUpdated {
		t.Fatalf("staff status = %s, want updated", got)
	}
	after := mem.Sheet(ls.Get(ledger.Staff).Sheet)
	if after.Cell(6, 7) != "11.74.01.2009" || after.Cell(7, 7) != "" {
		t.Errorf("village code cells = %q, %q", after.Cell(6, 7), after.Cell(7, 7))
	}

	res = e.Propagate(context.Background(), ledger.Detail, village, Changes{FieldVillageCode: "11.74.01.2009"})
	if got := res.Outcomes[ledger.Staff].Status; got != StatusUnchanged {
		t.Errorf("second staff status = %s, want unchanged", got)
	}
}

func TestPropagateIsIdempotent(t *testing.T) {
	mem, s := newFixture(t)
	e := New(s, nil)
	ctx := context.Background()
	changes := Changes{FieldName: "X", FieldPhone: "0812"}

	e.Propagate(ctx, "", village, changes)
	first := map[ledger.Kind]grid.Grid{}
	for _, k := range Targets {
		first[k] = sheet(mem, k)
	}
	writes := mem.Calls("update")

	res := e.Propagate(ctx, "", village, changes)
	for _, k := range Targets {
		if !reflect.DeepEqual(first[k], sheet(mem, k)) {
			t.Errorf("%s changed on second propagation", k)
		}
		if got := res.Outcomes[k].Status; got != StatusUnchanged {
			t.Errorf("%s second status = %s, want unchanged", k, got)
		}
	}
	if mem.Calls("update") != writes {
		t.Errorf("second propagation wrote %d batches", mem.Calls("update")-writes)
	}
}

func TestPropagateSkipsOriginAndUnmappedFields(t *testing.T) {
	mem, s := newFixture(t)
	res := New(s, nil).Propagate(context.Background(), ledger.Staff, village, Changes{FieldPhone: "0812"})

	if _, ok := res.Outcomes[ledger.Staff]; ok {
		t.Error("origin ledger has an outcome")
	}
	if got := res.Outcomes[ledger.Roster].Status; got != StatusSkipped {
		t.Errorf("roster status = %s, want skipped", got)
	}
	if got := res.Outcomes[ledger.Detail].Status; got != StatusUpdated {
		t.Errorf("detail status = %s, want updated", got)
	}
	if got := sheet(mem, ledger.Staff).Cell(7, 16); got != "0811" {
		t.Errorf("origin ledger written: %q", got)
	}
}

func TestPropagateReportsMissingRows(t *testing.T) {
	_, s := newFixture(t)
	res := New(s, nil).Propagate(context.Background(), "", "GAMPONG BARU", Changes{FieldName: "X"})
	for _, k := range Targets {
		o := res.Outcomes[k]
		if o.Status != StatusNotFound {
			t.Errorf("%s status = %s, want not_found", k, o.Status)
		}
		if !errors.Is(o.Err, store.ErrNotFound) {
			t.Errorf("%s err = %v, want ErrNotFound", k, o.Err)
		}
	}
	if !res.OK() {
		t.Error("not-found outcomes counted as failures")
	}
}

// failingBackend fails updates to one sheet.
type failingBackend struct {
	store.Backend
	sheet string
}

func (f failingBackend) UpdateCells(ctx context.Context, sheet string, updates []grid.CellUpdate) error {
	if sheet == f.sheet {
		return errors.New("quota exceeded")
	}
	return f.Backend.UpdateCells(ctx, sheet, updates)
}

func TestPropagatePartialFailure(t *testing.T) {
	mem, _ := newFixture(t)
	ls := ledger.DefaultLayouts()
	s := store.New(failingBackend{Backend: mem, sheet: ls.Get(ledger.Detail).Sheet}, ls)

	res := New(s, nil).Propagate(context.Background(), "", village, Changes{FieldName: "Ahmad"})

	if got := res.Failed(); !reflect.DeepEqual(got, []ledger.Kind{ledger.Detail}) {
		t.Fatalf("Failed() = %v, want [detail]", got)
	}
	if res.OK() {
		t.Error("OK() = true with a failed ledger")
	}
	if res.Outcomes[ledger.Detail].Error == "" {
		t.Error("failed outcome has no error text")
	}
	if !store.IsUnavailable(res.Outcomes[ledger.Detail].Err) {
		t.Errorf("detail err = %v, want backend unavailable", res.Outcomes[ledger.Detail].Err)
	}
	if sheet(mem, ledger.Roster).Cell(2, 7) != "Ahmad" || sheet(mem, ledger.Staff).Cell(7, 12) != "Ahmad" {
		t.Error("failure in detail stopped the other ledgers")
	}
	if sheet(mem, ledger.Detail).Cell(4, 9) != "Old Name" {
		t.Error("failed ledger was written")
	}
}

func TestPropagateNoHeadRowInStaff(t *testing.T) {
	ls := ledger.DefaultLayouts()
	staff := staffSheet()
	staff[6][14] = "KAUR KEUANGAN"
	mem := store.NewMemoryBackend(map[string]grid.Grid{
		ls.Get(ledger.Roster).Sheet: rosterSheet(),
		ls.Get(ledger.Detail).Sheet: detailSheet(),
		ls.Get(ledger.Staff).Sheet:  staff,
	})
	res := New(store.New(mem, ls), nil).Propagate(context.Background(), ledger.Roster, village, Changes{FieldName: "X"})
	if got := res.Outcomes[ledger.Staff].Status; got != StatusNotFound {
		t.Errorf("staff status = %s, want not_found", got)
	}
	for row := 6; row <= 8; row++ {
		if mem.Sheet(ls.Get(ledger.Staff).Sheet).Cell(row, 12) == "X" {
			t.Errorf("row %d overwritten without a head position", row)
		}
	}
}

func TestParseField(t *testing.T) {
	tests := []struct {
		in      string
		want    Field
		wantErr bool
	}{
		{"name", FieldName, false},
		{"NAMA_LENGKAP", FieldName, false},
		{"no_hp", FieldPhone, false},
		{"NO_DESA", FieldVillageCode, false},
		{"PENDIDIKAN", "", true},
		{"TGL_LAHIR", "", true},
	}
	for _, tt := range tests {
		got, err := ParseField(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseField(%q) = %q, %v", tt.in, got, err)
		}
	}
}
