package web

import (
	"net/http"

	"github.com/dpmglangsa/gampong/internal/ledger"
)

// handleHealth reports liveness. It does not touch the ledger backend.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDataset returns all four ledgers.
func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LoadAll(r.Context()))
}

// handleLedger returns one ledger's records.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	k, ok := kindParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	var records any
	switch k {
	case ledger.Roster:
		records = s.service.Roster(ctx)
	case ledger.Detail:
		records = s.service.Details(ctx)
	case ledger.Staff:
		records = s.service.Staff(ctx)
	case ledger.Council:
		records = s.service.Council(ctx)
	}
	writeJSON(w, http.StatusOK, records)
}

// handleLayouts returns the active ledger layouts.
func (s *Server) handleLayouts(w http.ResponseWriter, r *http.Request) {
	layouts := s.service.Layouts()
	out := make(map[ledger.Kind]ledger.Layout, len(layouts))
	for _, k := range ledger.Kinds {
		out[k] = layouts.Get(k)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Statistics(r.Context()))
}

func (s *Server) handleSubDistricts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.service.SubDistricts(r.Context())))
}

// handleBySubDistrict returns the four ledgers filtered to one sub-district.
func (s *Server) handleBySubDistrict(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	if !ledger.IsSubDistrict(name) {
		writeError(w, http.StatusNotFound, "unknown sub-district "+name, "UNKNOWN_SUB_DISTRICT")
		return
	}
	writeJSON(w, http.StatusOK, s.service.BySubDistrict(r.Context(), name))
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	sub := r.URL.Query().Get("subDistrict")
	writeJSON(w, http.StatusOK, nonNil(s.service.Clusters(r.Context(), sub)))
}

func (s *Server) handleVillages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, nonNil(s.service.Villages(r.Context(), q.Get("subDistrict"), q.Get("cluster"))))
}

// handleCouncilGroups returns the council village blocks with their secretaries.
func (s *Server) handleCouncilGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.CouncilGroups(r.Context()))
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
