package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/civicledger/civicledger-engine/pkg/auth"
	"github.com/civicledger/civicledger-engine/pkg/models"
	"github.com/civicledger/civicledger-engine/pkg/services"
)

// RejectRequest is the request body for rejecting an action.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// ModerationHandler handles the verification queue HTTP requests.
type ModerationHandler struct {
	moderationService services.ModerationService
	logger            *zap.Logger
}

// NewModerationHandler creates a new moderation handler.
func NewModerationHandler(moderationService services.ModerationService, logger *zap.Logger) *ModerationHandler {
	return &ModerationHandler{
		moderationService: moderationService,
		logger:            logger,
	}
}

// RegisterRoutes registers the moderation handler's routes on the given mux.
// All of them require a moderating role.
func (h *ModerationHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	moderators := authMiddleware.RequireRole(auth.RoleAdmin, auth.RoleResearcher)
	mux.HandleFunc("GET /api/moderation/pending", moderators(h.ListPending))
	mux.HandleFunc("POST /api/actions/{id}/verify", moderators(h.Verify))
	mux.HandleFunc("POST /api/actions/{id}/reject", moderators(h.Reject))
}

// ListPending handles GET /api/moderation/pending.
// Oldest submissions first, so the queue drains fairly.
func (h *ModerationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit")
	if limit <= 0 {
		limit = 50
	}

	pending, err := h.moderationService.ListPending(r.Context(), limit)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if pending == nil {
		pending = []*models.ScoringAction{}
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"actions": pending}); err != nil {
		h.logger.Error("Failed to encode pending actions response", zap.Error(err))
	}
}

// Verify handles POST /api/actions/{id}/verify.
// Returns the verified action and the freshly recomputed score together,
// since they committed together.
func (h *ModerationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.moderationService.Verify(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode verify response", zap.Error(err))
	}
}

// Reject handles POST /api/actions/{id}/reject.
// The reason is optional and stored with the action.
func (h *ModerationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	var req RejectRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
			return
		}
	}

	action, err := h.moderationService.Reject(r.Context(), id, req.Reason)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, action); err != nil {
		h.logger.Error("Failed to encode reject response", zap.Error(err))
	}
}
