package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/service"
)

// ConfigHandler exposes the detector tunables for runtime inspection and
// adjustment.
type ConfigHandler struct {
	svc    *service.ScanService
	logger *slog.Logger
}

// NewConfigHandler creates a ConfigHandler.
func NewConfigHandler(svc *service.ScanService, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{svc: svc, logger: logger.With(slog.String("handler", "config"))}
}

// scanConfigView is the wire shape of the scan configuration, with durations
// flattened to milliseconds to match ScanConfigPatch.
type scanConfigView struct {
	FeeRate         float64 `json:"fee_rate"`
	ExtractionRate  float64 `json:"extraction_rate"`
	AlphaExtraction float64 `json:"alpha_extraction"`
	MinMispricing   float64 `json:"min_mispricing"`
	MinLiquidity    float64 `json:"min_liquidity"`
	MaxEvents       int     `json:"max_events"`
	LookupTimeoutMs int64   `json:"lookup_timeout_ms"`
	LookupDelayMs   int64   `json:"lookup_delay_ms"`
	WaitTimeoutMs   int64   `json:"wait_timeout_ms"`
}

func viewOf(cfg domain.ScanConfig) scanConfigView {
	return scanConfigView{
		FeeRate:         cfg.FeeRate,
		ExtractionRate:  cfg.ExtractionRate,
		AlphaExtraction: cfg.AlphaExtraction,
		MinMispricing:   cfg.MinMispricing,
		MinLiquidity:    cfg.MinLiquidity,
		MaxEvents:       cfg.MaxEvents,
		LookupTimeoutMs: cfg.LookupTimeout.Milliseconds(),
		LookupDelayMs:   cfg.LookupDelay.Milliseconds(),
		WaitTimeoutMs:   cfg.WaitTimeout.Milliseconds(),
	}
}

// GetConfig returns the current detector configuration.
// GET /api/scan/config
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewOf(h.svc.Config()))
}

// UpdateConfig applies a partial configuration update. Omitted fields keep
// their current values; an invalid patch changes nothing.
// PUT /api/scan/config
func (h *ConfigHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch domain.ScanConfigPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	cfg, err := h.svc.SetConfig(patch)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.InfoContext(r.Context(), "scan config updated")
	writeJSON(w, http.StatusOK, viewOf(cfg))
}
