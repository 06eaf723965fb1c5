package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/civicledger/civicledger-engine/pkg/auth"
	"github.com/civicledger/civicledger-engine/pkg/models"
	"github.com/civicledger/civicledger-engine/pkg/services"
)

// ActionsHandler handles evidence submission and retrieval HTTP requests.
type ActionsHandler struct {
	actionService services.ActionService
	logger        *zap.Logger
}

// NewActionsHandler creates a new actions handler.
func NewActionsHandler(actionService services.ActionService, logger *zap.Logger) *ActionsHandler {
	return &ActionsHandler{
		actionService: actionService,
		logger:        logger,
	}
}

// RegisterRoutes registers the actions handler's routes on the given mux.
// Any authenticated role may submit; reads are public.
func (h *ActionsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/actions", authMiddleware.RequireAuth(h.Submit))
	mux.HandleFunc("GET /api/actions/recent", h.RecentVerified)
	mux.HandleFunc("GET /api/actions/{id}", h.Get)
	mux.HandleFunc("GET /api/politicians/{id}/actions", h.ListByPolitician)
}

// Submit handles POST /api/actions.
// Every submission enters the moderation queue pending, whoever submits it.
func (h *ActionsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input services.SubmitActionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	action, err := h.actionService.Submit(r.Context(), input)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, action); err != nil {
		h.logger.Error("Failed to encode action response", zap.Error(err))
	}
}

// Get handles GET /api/actions/{id}.
// Returns the action together with its evidence sources.
func (h *ActionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	action, err := h.actionService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, action); err != nil {
		h.logger.Error("Failed to encode action response", zap.Error(err))
	}
}

// ListByPolitician handles GET /api/politicians/{id}/actions.
// Supports ?category=, ?status=, ?limit= and ?offset=.
func (h *ActionsHandler) ListByPolitician(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	filter := models.ActionFilter{
		Category: models.Category(r.URL.Query().Get("category")),
		Status:   models.VerificationStatus(r.URL.Query().Get("status")),
		Limit:    parseIntParam(r, "limit"),
		Offset:   parseIntParam(r, "offset"),
	}

	actions, err := h.actionService.ListByPolitician(r.Context(), id, filter)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if actions == nil {
		actions = []*models.ScoringAction{}
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"actions": actions}); err != nil {
		h.logger.Error("Failed to encode actions response", zap.Error(err))
	}
}

// RecentVerified handles GET /api/actions/recent.
// A public feed of the most recently verified evidence, newest first.
func (h *ActionsHandler) RecentVerified(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit")
	if limit <= 0 {
		limit = 20
	}

	actions, err := h.actionService.ListRecentVerified(r.Context(), limit)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if actions == nil {
		actions = []*models.ScoringAction{}
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"actions": actions}); err != nil {
		h.logger.Error("Failed to encode actions response", zap.Error(err))
	}
}

// parseIntParam parses a non-negative integer query parameter, returning 0
// when absent or malformed.
func parseIntParam(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
