package web

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/go-chi/chi/v5"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// pathParam returns the decoded URL parameter name. Village names carry
// spaces, which clients may leave percent-encoded.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		v = u
	}
	return strings.TrimSpace(v)
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// decodeJSON reads a JSON body into v, writing a 400 response on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "BAD_REQUEST")
		return false
	}
	return true
}

// kindParam resolves the {kind} URL parameter, writing a 404 response for
// unknown ledgers.
func kindParam(w http.ResponseWriter, r *http.Request) (ledger.Kind, bool) {
	k, err := ledger.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), "UNKNOWN_LEDGER")
		return "", false
	}
	return k, true
}

// requireVillage reads the {village} URL parameter.
func requireVillage(w http.ResponseWriter, r *http.Request) (string, bool) {
	v := pathParam(r, "village")
	if v == "" {
		writeError(w, http.StatusBadRequest, "missing village", "BAD_REQUEST")
		return "", false
	}
	return v, true
}
