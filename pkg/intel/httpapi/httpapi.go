// Package httpapi exposes the intel service over HTTP: the endpoints the
// recon clients call for discovery and pitch generation. Errors travel
// as a JSON envelope {"error": "..."}.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/reconhq/recon/pkg/intel"
	"github.com/reconhq/recon/pkg/leadgen"
)

// Intel is the service surface the handlers need. *intel.Service
// satisfies it.
type Intel interface {
	FindLeads(ctx context.Context, params leadgen.SearchParams) (*leadgen.SearchResult, error)
	GeneratePitch(ctx context.Context, params leadgen.PitchParams) (*leadgen.PitchResult, error)
}

// New returns the API handler. A nil logger means slog.Default().
func New(svc Intel, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{svc: svc, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/leads", h.leads)
	mux.HandleFunc("POST /api/pitch", h.pitch)
	return mux
}

type handler struct {
	svc    Intel
	logger *slog.Logger
}

func (h *handler) leads(w http.ResponseWriter, r *http.Request) {
	var params leadgen.SearchParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.FindLeads(r.Context(), params)
	if err != nil {
		h.fail(w, "leads", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) pitch(w http.ResponseWriter, r *http.Request) {
	var params leadgen.PitchParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.GeneratePitch(r.Context(), params)
	if err != nil {
		h.fail(w, "pitch", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, intel.ErrBadRequest) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("httpapi: "+op+" failed", "err", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
