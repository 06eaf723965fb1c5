package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/civicledger/civicledger-engine/pkg/config"
)

// PingResponse reports service identity plus the state of the background
// score sweep, so operators can see a disabled or dead sweep from /ping.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
	ScoreSweep  string `json:"score_sweep"`
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg        *config.Config
	sweepState func() string
	logger     *zap.Logger
}

// NewHealthHandler creates a HealthHandler. sweepState may be nil when no
// sweep worker exists (tests, tooling).
func NewHealthHandler(cfg *config.Config, sweepState func() string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, sweepState: sweepState, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ping", h.Ping)
}

// Health handles GET /health requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping handles GET /ping requests.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		h.logger.Warn("Failed to determine hostname", zap.Error(err))
	}

	sweep := "disabled"
	if h.sweepState != nil {
		sweep = h.sweepState()
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "civicledger-engine",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
		ScoreSweep:  sweep,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
