package web

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dpmglangsa/gampong/internal/config"
	"github.com/dpmglangsa/gampong/internal/core"
	"github.com/dpmglangsa/gampong/internal/export"
	"github.com/dpmglangsa/gampong/internal/grid"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/store"
)

const village = "SEUNEUBOK ANTARA"

func testSheets() map[string]grid.Grid {
	ls := ledger.DefaultLayouts()
	return map[string]grid.Grid{
		ls.Get(ledger.Roster).Sheet: {
			{"NO", "KECAMATAN", "NAMA_CAMAT", "KEMUKIMAN", "NAMA_MUKIM", "GAMPONG", "NAMA_GEUCHIK"},
			{"1", "LANGSA TIMUR", "Camat Timur", "MUKIM A", "Imum A", village, "Old Name"},
			{"2", "", "", "", "", "BUKET MEDANG ARA", "Rahman"},
		},
		ls.Get(ledger.Detail).Sheet: append(make(grid.Grid, 3),
			[]string{"11", "ACEH", "11.74", "KOTA LANGSA", "11.74.01", "LANGSA TIMUR", "1174012001", village,
				"Old Name", "01", "02", "1970", "L", "SMA", "", "", "KEPALA DESA", "0811"},
		),
		ls.Get(ledger.Staff).Sheet: append(make(grid.Grid, 5),
			[]string{"11", "ACEH", "11.74", "KOTA LANGSA", "11.74.01", "LANGSA TIMUR", "1174012001", village,
				"A", "Kades", "1", "Old Name", "", "L", "KEPALA DESA", "0811"},
			[]string{"", "", "", "", "", "", "", "", "B", "Perangkat", "2", "Sekdes Name", "", "P", "SEKRETARIS DESA", ""},
		),
		ls.Get(ledger.Council).Sheet: append(make(grid.Grid, 7),
			[]string{"1", "LANGSA TIMUR", "1", "MUKIM A", "1", village, "1", "Nurhasan", "✓", "", "Ketua"},
			[]string{"", "", "", "", "", "", "2", "Bustami", "✓", "", ""},
		),
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{},
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *store.MemoryBackend) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ls := ledger.DefaultLayouts()
	mem := store.NewMemoryBackend(testSheets())
	st := store.New(mem, ls, store.WithLogger(logger))
	svc := core.NewService(st, export.New(ls, "", logger),
		core.WithLogger(logger),
		core.WithAuditLog(core.NewAuditLog(100, logger)),
	)
	s := NewServer(svc, cfg)
	t.Cleanup(func() { s.limiter.stop() })
	return s, mem
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestReadViews(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		path   string
		status int
		want   string
	}{
		{"dataset", "/api/ledgers", http.StatusOK, `"roster"`},
		{"roster", "/api/ledgers/roster", http.StatusOK, "Old Name"},
		{"council case-insensitive", "/api/ledgers/COUNCIL", http.StatusOK, "Nurhasan"},
		{"unknown ledger", "/api/ledgers/budget", http.StatusNotFound, "UNKNOWN_LEDGER"},
		{"statistics", "/api/statistics", http.StatusOK, `"villages":2`},
		{"sub-districts", "/api/sub-districts", http.StatusOK, "LANGSA TIMUR"},
		{"unknown sub-district", "/api/sub-districts/MEDAN", http.StatusNotFound, "UNKNOWN_SUB_DISTRICT"},
		{"villages", "/api/villages?subDistrict=LANGSA%20TIMUR", http.StatusOK, "BUKET MEDANG ARA"},
		{"layouts", "/api/layouts", http.StatusOK, "Tuha_Peuet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.path, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body = %s, want %s", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestVillageHeadEdit(t *testing.T) {
	s, mem := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodPut, "/api/roster/SEUNEUBOK%20ANTARA/head", `{"name":"Ahmad"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	res := decode[core.EditResult](t, rec)
	if res.Cells != 1 || res.Propagation == nil {
		t.Errorf("result = %+v", res)
	}
	ls := ledger.DefaultLayouts()
	if got := mem.Sheet(ls.Get(ledger.Detail).Sheet).Cell(4, 9); got != "Ahmad" {
		t.Errorf("detail head = %q, want Ahmad", got)
	}

	rec = do(t, s, http.MethodGet, "/api/audit-log?ledger=roster", "")
	body := decode[struct {
		Entries []core.AuditEntry `json:"entries"`
		Count   int               `json:"count"`
	}](t, rec)
	if body.Count != 1 || body.Entries[0].Ledger != ledger.Roster {
		t.Errorf("audit log = %+v", body)
	}
}

func TestEditErrors(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"protected position", http.MethodPatch, "/api/staff/SEUNEUBOK%20ANTARA",
			`{"edits":[{"seq":"1","fields":{"JABATAN":"KADUS"}}]}`, http.StatusConflict, "LDG003"},
		{"invalid gender", http.MethodPut, "/api/detail/SEUNEUBOK%20ANTARA/JENIS_KELAMIN",
			`{"value":"X"}`, http.StatusBadRequest, "LDG008"},
		{"unknown column", http.MethodPut, "/api/detail/SEUNEUBOK%20ANTARA/HOBBY",
			`{"value":"x"}`, http.StatusBadRequest, "LDG004"},
		{"unknown village", http.MethodPut, "/api/roster/NOWHERE/head",
			`{"name":"x"}`, http.StatusNotFound, "LDG001"},
		{"unknown body field", http.MethodPut, "/api/roster/NOWHERE/head",
			`{"nama":"x"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"empty staff edit", http.MethodPatch, "/api/staff/SEUNEUBOK%20ANTARA",
			`{"edits":[]}`, http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			resp := decode[ErrorResponse](t, rec)
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}

	rec := do(t, s, http.MethodPut, "/api/detail/SEUNEUBOK%20ANTARA/JENIS_KELAMIN", `{"value":"X"}`)
	if resp := decode[ErrorResponse](t, rec); !strings.Contains(resp.Detail, "JENIS_KELAMIN") {
		t.Errorf("detail = %q, want column name", resp.Detail)
	}
}

func TestInsertsReturnCreated(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/staff/SEUNEUBOK%20ANTARA",
		`{"name":"Kadus Baru","gender":"L","position":"KADUS"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add hamlet head status = %d: %s", rec.Code, rec.Body.String())
	}
	if res := decode[core.EditResult](t, rec); res.Seq != 3 {
		t.Errorf("seq = %d, want 3", res.Seq)
	}

	rec = do(t, s, http.MethodPost, "/api/council/SEUNEUBOK%20ANTARA", `{"name":"Fatimah","gender":"P"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add member status = %d: %s", rec.Code, rec.Body.String())
	}
	if res := decode[core.EditResult](t, rec); res.Seq != 3 {
		t.Errorf("member seq = %d, want 3", res.Seq)
	}
}

func TestExport(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodGet, "/api/export/roster", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != export.ContentType {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, ".xlsx") {
		t.Errorf("Content-Disposition = %q", got)
	}

	rec = do(t, s, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("bundle status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, export.BundleName) {
		t.Errorf("Content-Disposition = %q", got)
	}
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("bundle is not a zip: %v", err)
	}
	if len(zr.File) != len(ledger.Kinds) {
		t.Errorf("bundle entries = %d, want %d", len(zr.File), len(ledger.Kinds))
	}

	if rec := do(t, s, http.MethodGet, "/api/export/status", ""); rec.Code != http.StatusOK {
		t.Errorf("status endpoint = %d", rec.Code)
	}
}

func TestCacheEndpoints(t *testing.T) {
	s, mem := newTestServer(t, testConfig())
	do(t, s, http.MethodGet, "/api/ledgers/roster", "")
	do(t, s, http.MethodGet, "/api/ledgers/roster", "")
	reads := mem.Calls("read")

	if rec := do(t, s, http.MethodDelete, "/api/cache", ""); rec.Code != http.StatusOK {
		t.Fatalf("invalidate status = %d", rec.Code)
	}
	do(t, s, http.MethodGet, "/api/ledgers/roster", "")
	if got := mem.Calls("read"); got != reads+1 {
		t.Errorf("backend reads after flush = %d, want %d", got, reads+1)
	}

	rec := do(t, s, http.MethodGet, "/api/cache", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"kecamatan-key"}
	s, _ := newTestServer(t, cfg)

	tests := []struct {
		name   string
		key    string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "other", http.StatusForbidden},
		{"valid", "kecamatan-key", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/statistics", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	if rec := do(t, s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz behind auth: %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()
	if !rl.allow("10.0.0.1") || !rl.allow("10.0.0.1") {
		t.Fatal("first two requests rejected")
	}
	if rl.allow("10.0.0.1") {
		t.Error("third request allowed")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("other client rejected")
	}
}
