package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicledger/civicledger-engine/pkg/auth"
	"github.com/civicledger/civicledger-engine/pkg/models"
	"github.com/civicledger/civicledger-engine/pkg/services"
)

// PoliticianRequest is the request body for creating or updating a politician.
type PoliticianRequest struct {
	Name     string `json:"name"`
	Party    string `json:"party"`
	State    string `json:"state"`
	District string `json:"district"`
	Position string `json:"position"`
	Bio      string `json:"bio"`
	PhotoURL string `json:"photo_url"`
}

// PoliticiansHandler handles politician directory HTTP requests.
type PoliticiansHandler struct {
	politicianService services.PoliticianService
	logger            *zap.Logger
}

// NewPoliticiansHandler creates a new politicians handler.
func NewPoliticiansHandler(politicianService services.PoliticianService, logger *zap.Logger) *PoliticiansHandler {
	return &PoliticiansHandler{
		politicianService: politicianService,
		logger:            logger,
	}
}

// RegisterRoutes registers the politicians handler's routes on the given mux.
// Reads are public; directory changes are admin only.
func (h *PoliticiansHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/politicians", authMiddleware.OptionalAuth(h.List))
	mux.HandleFunc("GET /api/politicians/{id}", h.Get)

	adminOnly := authMiddleware.RequireRole(auth.RoleAdmin)
	mux.HandleFunc("POST /api/politicians", adminOnly(h.Create))
	mux.HandleFunc("PUT /api/politicians/{id}", adminOnly(h.Update))
	mux.HandleFunc("DELETE /api/politicians/{id}", adminOnly(h.Deactivate))
}

// Create handles POST /api/politicians.
func (h *PoliticiansHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PoliticianRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	politician := req.toModel()
	if err := h.politicianService.Create(r.Context(), politician); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, politician); err != nil {
		h.logger.Error("Failed to encode politician response", zap.Error(err))
	}
}

// Get handles GET /api/politicians/{id}.
func (h *PoliticiansHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	politician, err := h.politicianService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, politician); err != nil {
		h.logger.Error("Failed to encode politician response", zap.Error(err))
	}
}

// List handles GET /api/politicians.
// Supports ?party= and ?state= filters. Deactivated politicians are only
// included when an authenticated admin asks with ?include_hidden=true.
func (h *PoliticiansHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.PoliticianFilter{
		Party: r.URL.Query().Get("party"),
		State: r.URL.Query().Get("state"),
	}
	if r.URL.Query().Get("include_hidden") == "true" &&
		auth.RoleFromContext(r.Context()) == auth.RoleAdmin {
		filter.IncludeHidden = true
	}

	politicians, err := h.politicianService.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if politicians == nil {
		politicians = []*models.Politician{}
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"politicians": politicians}); err != nil {
		h.logger.Error("Failed to encode politicians response", zap.Error(err))
	}
}

// Update handles PUT /api/politicians/{id}.
func (h *PoliticiansHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	var req PoliticianRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	existing, err := h.politicianService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	politician := req.toModel()
	politician.ID = id
	politician.IsActive = existing.IsActive
	politician.CreatedAt = existing.CreatedAt

	if err := h.politicianService.Update(r.Context(), politician); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, politician); err != nil {
		h.logger.Error("Failed to encode politician response", zap.Error(err))
	}
}

// Deactivate handles DELETE /api/politicians/{id}.
// Soft: the politician disappears from public listings, the evidence stays.
func (h *PoliticiansHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.politicianService.Deactivate(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (req *PoliticianRequest) toModel() *models.Politician {
	return &models.Politician{
		Name:     req.Name,
		Party:    req.Party,
		State:    req.State,
		District: req.District,
		Position: req.Position,
		Bio:      req.Bio,
		PhotoURL: req.PhotoURL,
	}
}

// parseIDParam parses the {id} path value as a UUID, writing a 400 on failure.
func parseIDParam(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, logger, http.StatusBadRequest, "invalid_id", "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}
