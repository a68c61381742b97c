package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/service"
)

// ScanHandler serves scan triggers and scan results.
type ScanHandler struct {
	svc    *service.ScanService
	logger *slog.Logger
}

// NewScanHandler creates a ScanHandler.
func NewScanHandler(svc *service.ScanService, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{svc: svc, logger: logger.With(slog.String("handler", "scan"))}
}

// Trigger runs a scan synchronously and returns its full result.
// POST /api/scan/{type}
func (h *ScanHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	t := domain.ScanType(r.PathValue("type"))
	if !t.Valid() {
		writeError(w, http.StatusBadRequest, "unknown scan type: "+string(t))
		return
	}

	result, err := h.svc.Run(r.Context(), t)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrScanInProgress):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "scan cancelled: "+err.Error())
		default:
			h.logger.ErrorContext(r.Context(), "scan failed",
				slog.String("scan_type", string(t)), slog.String("error", err.Error()))
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Last returns the most recent cached result for a scan type.
// GET /api/scan/{type}/last
func (h *ScanHandler) Last(w http.ResponseWriter, r *http.Request) {
	t := domain.ScanType(r.PathValue("type"))
	if !t.Valid() {
		writeError(w, http.StatusBadRequest, "unknown scan type: "+string(t))
		return
	}

	result, err := h.svc.Last(r.Context(), t)
	if err != nil {
		if errors.Is(err, domain.ErrNotScanned) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// History returns persisted scan summaries, newest first.
// GET /api/scan/{type}/history
func (h *ScanHandler) History(w http.ResponseWriter, r *http.Request) {
	t := domain.ScanType(r.PathValue("type"))
	if !t.Valid() {
		writeError(w, http.StatusBadRequest, "unknown scan type: "+string(t))
		return
	}

	results, err := h.svc.History(r.Context(), t, queryLimit(r, 20))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []domain.ScanResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// Opportunities returns persisted opportunities across all scan types.
// GET /api/opportunities
func (h *ScanHandler) Opportunities(w http.ResponseWriter, r *http.Request) {
	opps, err := h.svc.Opportunities(r.Context(), queryLimit(r, 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if opps == nil {
		opps = []domain.Opportunity{}
	}
	writeJSON(w, http.StatusOK, opps)
}
