package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/civicledger/civicledger-engine/pkg/auth"
	"github.com/civicledger/civicledger-engine/pkg/models"
	"github.com/civicledger/civicledger-engine/pkg/repositories"
	"github.com/civicledger/civicledger-engine/pkg/services"
)

// ScoresHandler handles score read and recalculation HTTP requests.
type ScoresHandler struct {
	scoreService services.ScoreService
	logger       *zap.Logger
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(scoreService services.ScoreService, logger *zap.Logger) *ScoresHandler {
	return &ScoresHandler{
		scoreService: scoreService,
		logger:       logger,
	}
}

// RegisterRoutes registers the scores handler's routes on the given mux.
// Score reads are public; recalculation is an admin operation.
func (h *ScoresHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/politicians/{id}/score", h.GetScore)
	mux.HandleFunc("GET /api/politicians/{id}/score/history", h.GetHistory)
	mux.HandleFunc("GET /api/politicians/{id}/score/breakdown", h.GetBreakdown)
	mux.HandleFunc("GET /api/leaderboard", h.Leaderboard)
	mux.HandleFunc("GET /api/stats", h.Stats)

	admins := authMiddleware.RequireRole(auth.RoleAdmin)
	mux.HandleFunc("POST /api/politicians/{id}/score/recalculate", admins(h.Recalculate))
	mux.HandleFunc("POST /api/scores/recalculate", admins(h.RecalculateAll))
}

// GetScore handles GET /api/politicians/{id}/score.
func (h *ScoresHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	snapshot, err := h.scoreService.GetSnapshot(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, snapshot); err != nil {
		h.logger.Error("Failed to encode score response", zap.Error(err))
	}
}

// GetHistory handles GET /api/politicians/{id}/score/history.
// Supports ?since=YYYY-MM-DD; entries come back oldest first.
func (h *ScoresHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, h.logger, http.StatusBadRequest, "invalid_since", "since must be YYYY-MM-DD")
			return
		}
		since = parsed
	}

	history, err := h.scoreService.GetHistory(r.Context(), id, since)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if history == nil {
		history = []*models.ScoreHistoryEntry{}
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"history": history}); err != nil {
		h.logger.Error("Failed to encode history response", zap.Error(err))
	}
}

// GetBreakdown handles GET /api/politicians/{id}/score/breakdown.
func (h *ScoresHandler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	breakdown, err := h.scoreService.GetBreakdown(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, breakdown); err != nil {
		h.logger.Error("Failed to encode breakdown response", zap.Error(err))
	}
}

// Leaderboard handles GET /api/leaderboard.
// Supports ?order=top|bottom and ?limit=.
func (h *ScoresHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	order := repositories.LeaderboardTop
	switch r.URL.Query().Get("order") {
	case "", "top":
	case "bottom":
		order = repositories.LeaderboardBottom
	default:
		respondError(w, h.logger, http.StatusBadRequest, "invalid_order", "order must be top or bottom")
		return
	}

	entries, err := h.scoreService.Leaderboard(r.Context(), order, parseIntParam(r, "limit"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if entries == nil {
		entries = []*repositories.LeaderboardEntry{}
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"leaderboard": entries}); err != nil {
		h.logger.Error("Failed to encode leaderboard response", zap.Error(err))
	}
}

// Stats handles GET /api/stats.
func (h *ScoresHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.scoreService.Stats(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, stats); err != nil {
		h.logger.Error("Failed to encode stats response", zap.Error(err))
	}
}

// Recalculate handles POST /api/politicians/{id}/score/recalculate.
func (h *ScoresHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	snapshot, err := h.scoreService.Recalculate(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, snapshot); err != nil {
		h.logger.Error("Failed to encode score response", zap.Error(err))
	}
}

// RecalculateAll handles POST /api/scores/recalculate.
// Sweeps the whole directory; partial failure is reported, not fatal.
func (h *ScoresHandler) RecalculateAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.scoreService.RecalculateAll(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to encode recalculation report", zap.Error(err))
	}
}
