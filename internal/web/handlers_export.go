package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dpmglangsa/gampong/internal/export"
	"github.com/dpmglangsa/gampong/internal/logging"
)

// handleExport downloads one ledger as a workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	k, ok := kindParam(w, r)
	if !ok {
		return
	}
	f, err := s.service.Export(requestContext(r), k)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.WithFields(r.Context(), "ledger", k, "bytes", len(f.Data)).Info("ledger exported")
	writeDownload(w, export.ContentType, f.Name, f.Data)
}

// handleExportAll downloads every non-empty ledger as one zip.
func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.ExportAll(requestContext(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.WithFields(r.Context(), "bytes", len(data)).Info("bundle exported")
	writeDownload(w, "application/zip", export.BundleName, data)
}

// handleExportStatus reports how many export slots are in use.
func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ExportStatus())
}

func writeDownload(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
