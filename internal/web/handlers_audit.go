package web

import (
	"net/http"

	"github.com/dpmglangsa/gampong/internal/core"
	"github.com/dpmglangsa/gampong/internal/ledger"
)

// auditPageSize is the default number of audit entries returned.
const auditPageSize = 100

// handleAuditLog lists audit entries, newest first. Query parameters:
// ledger, action, batch and limit.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.AuditLogFilter{
		Action:  core.AuditAction(q.Get("action")),
		BatchID: q.Get("batch"),
		Limit:   parseIntParam(r, "limit", auditPageSize),
	}
	if name := q.Get("ledger"); name != "" {
		k, err := ledger.ParseKind(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "UNKNOWN_LEDGER")
			return
		}
		filter.Ledger = k
	}

	entries := s.service.AuditLog(filter)
	if entries == nil {
		entries = []core.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleCacheStats reports ledger cache effectiveness.
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.CacheStats())
}

// handleInvalidateCache drops every cached ledger.
func (s *Server) handleInvalidateCache(w http.ResponseWriter, r *http.Request) {
	s.service.InvalidateCache(requestContext(r))
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}
