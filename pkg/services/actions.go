package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicledger/civicledger-engine/pkg/apperrors"
	"github.com/civicledger/civicledger-engine/pkg/auth"
	"github.com/civicledger/civicledger-engine/pkg/database"
	"github.com/civicledger/civicledger-engine/pkg/models"
	"github.com/civicledger/civicledger-engine/pkg/repositories"
)

// SubmitActionInput carries a new evidence submission. The verification
// status is not part of the input: every submission enters the queue pending
// regardless of who submitted it.
type SubmitActionInput struct {
	PoliticianID uuid.UUID             `json:"politician_id"`
	Category     models.Category       `json:"category"`
	ActionType   models.ActionType     `json:"action_type"`
	ActionDate   time.Time             `json:"action_date"`
	Description  string                `json:"description"`
	SourceURL    string                `json:"source_url"`
	Points       int                   `json:"points"`
	Sources      []EvidenceSourceInput `json:"sources"`
}

// EvidenceSourceInput is one supporting source attached at submission time.
type EvidenceSourceInput struct {
	URL        string            `json:"url"`
	SourceType models.SourceType `json:"source_type"`
	Confidence int               `json:"confidence_rating"`
}

// ActionWithSources bundles an action with its attached evidence sources.
type ActionWithSources struct {
	Action  *models.ScoringAction    `json:"action"`
	Sources []*models.EvidenceSource `json:"sources"`
}

// ActionService defines the interface for evidence submission and retrieval.
type ActionService interface {
	Submit(ctx context.Context, input SubmitActionInput) (*models.ScoringAction, error)
	Get(ctx context.Context, id uuid.UUID) (*ActionWithSources, error)
	ListByPolitician(ctx context.Context, politicianID uuid.UUID, filter models.ActionFilter) ([]*models.ScoringAction, error)
	ListRecentVerified(ctx context.Context, limit int) ([]*models.ScoringAction, error)
}

// actionService implements ActionService.
type actionService struct {
	db             *database.DB
	actionRepo     repositories.ActionRepository
	sourceRepo     repositories.EvidenceSourceRepository
	politicianRepo repositories.PoliticianRepository
	logger         *zap.Logger
}

// NewActionService creates a new action service with dependencies.
func NewActionService(
	db *database.DB,
	actionRepo repositories.ActionRepository,
	sourceRepo repositories.EvidenceSourceRepository,
	politicianRepo repositories.PoliticianRepository,
	logger *zap.Logger,
) ActionService {
	return &actionService{
		db:             db,
		actionRepo:     actionRepo,
		sourceRepo:     sourceRepo,
		politicianRepo: politicianRepo,
		logger:         logger,
	}
}

// Submit validates a submission and stores the action together with its
// evidence sources in one transaction. The action enters the moderation
// queue pending and contributes nothing to any score until verified.
func (s *actionService) Submit(ctx context.Context, input SubmitActionInput) (*models.ScoringAction, error) {
	submitterID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := validateSubmission(&input); err != nil {
		return nil, err
	}

	// The politician must exist; deactivated ones still accept evidence so
	// the record keeps growing while they are hidden.
	if _, err := s.politicianRepo.GetByID(ctx, input.PoliticianID); err != nil {
		return nil, err
	}

	action := &models.ScoringAction{
		PoliticianID: input.PoliticianID,
		Category:     input.Category,
		ActionType:   input.ActionType,
		ActionDate:   input.ActionDate,
		Description:  strings.TrimSpace(input.Description),
		SourceURL:    strings.TrimSpace(input.SourceURL),
		Points:       input.Points,
		SubmittedBy:  submitterID,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.actionRepo.WithTx(tx).Create(ctx, action); err != nil {
		return nil, err
	}

	sourceRepo := s.sourceRepo.WithTx(tx)
	for _, src := range input.Sources {
		source := &models.EvidenceSource{
			ActionID:   action.ID,
			URL:        strings.TrimSpace(src.URL),
			SourceType: src.SourceType,
			Confidence: src.Confidence,
		}
		if err := sourceRepo.Create(ctx, source); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit submission: %w", err)
	}

	s.logger.Info("scoring action submitted",
		zap.String("action_id", action.ID.String()),
		zap.String("politician_id", action.PoliticianID.String()),
		zap.String("category", string(action.Category)),
		zap.Int("points", action.Points))

	return action, nil
}

// Get retrieves an action together with its evidence sources.
func (s *actionService) Get(ctx context.Context, id uuid.UUID) (*ActionWithSources, error) {
	action, err := s.actionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sources, err := s.sourceRepo.ListByAction(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ActionWithSources{Action: action, Sources: sources}, nil
}

// ListByPolitician returns a politician's actions matching the filter.
func (s *actionService) ListByPolitician(ctx context.Context, politicianID uuid.UUID, filter models.ActionFilter) ([]*models.ScoringAction, error) {
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, apperrors.NewValidationError("category", "unknown category")
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.NewValidationError("status", "unknown verification status")
	}
	return s.actionRepo.ListByPolitician(ctx, politicianID, filter)
}

// ListRecentVerified returns the most recently verified actions across all
// politicians, newest first.
func (s *actionService) ListRecentVerified(ctx context.Context, limit int) ([]*models.ScoringAction, error) {
	return s.actionRepo.ListRecentVerified(ctx, limit)
}

func validateSubmission(input *SubmitActionInput) error {
	if input.PoliticianID == uuid.Nil {
		return apperrors.NewValidationError("politician_id", "is required")
	}
	if !input.Category.IsEvidentiary() {
		return apperrors.NewValidationError("category", "must be an evidentiary category")
	}
	if !models.IsValidActionType(input.ActionType) {
		return apperrors.NewValidationError("action_type", "unknown action type")
	}
	if input.ActionDate.IsZero() {
		return apperrors.NewValidationError("action_date", "is required")
	}
	if input.ActionDate.After(time.Now()) {
		return apperrors.NewValidationError("action_date", "cannot be in the future")
	}
	if strings.TrimSpace(input.Description) == "" {
		return apperrors.NewValidationError("description", "is required")
	}
	if input.Points < 1 || input.Points > input.Category.Max() {
		return apperrors.NewValidationError("points",
			fmt.Sprintf("must be between 1 and %d for category %s", input.Category.Max(), input.Category))
	}
	for i, src := range input.Sources {
		if strings.TrimSpace(src.URL) == "" {
			return apperrors.NewValidationError(fmt.Sprintf("sources[%d].url", i), "is required")
		}
		if !models.IsValidSourceType(src.SourceType) {
			return apperrors.NewValidationError(fmt.Sprintf("sources[%d].source_type", i), "unknown source type")
		}
		if src.Confidence < 1 || src.Confidence > 5 {
			return apperrors.NewValidationError(fmt.Sprintf("sources[%d].confidence_rating", i), "must be between 1 and 5")
		}
	}
	return nil
}
