package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicledger/civicledger-engine/pkg/apperrors"
	"github.com/civicledger/civicledger-engine/pkg/models"
	"github.com/civicledger/civicledger-engine/pkg/repositories"
)

// PoliticianService defines the interface for politician directory operations.
type PoliticianService interface {
	Create(ctx context.Context, p *models.Politician) error
	Get(ctx context.Context, id uuid.UUID) (*models.Politician, error)
	List(ctx context.Context, filter models.PoliticianFilter) ([]*models.Politician, error)
	Update(ctx context.Context, p *models.Politician) error
	// Deactivate hides a politician from public listings. Their actions and
	// score history survive so reactivation loses nothing.
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// politicianService implements PoliticianService.
type politicianService struct {
	politicianRepo repositories.PoliticianRepository
	logger         *zap.Logger
}

// NewPoliticianService creates a new politician service with dependencies.
func NewPoliticianService(politicianRepo repositories.PoliticianRepository, logger *zap.Logger) PoliticianService {
	return &politicianService{
		politicianRepo: politicianRepo,
		logger:         logger,
	}
}

// Create validates and stores a new politician.
func (s *politicianService) Create(ctx context.Context, p *models.Politician) error {
	if err := validatePolitician(p); err != nil {
		return err
	}

	p.IsActive = true
	if err := s.politicianRepo.Create(ctx, p); err != nil {
		return err
	}

	s.logger.Info("politician created",
		zap.String("politician_id", p.ID.String()),
		zap.String("name", p.Name))
	return nil
}

// Get retrieves a politician by ID.
func (s *politicianService) Get(ctx context.Context, id uuid.UUID) (*models.Politician, error) {
	return s.politicianRepo.GetByID(ctx, id)
}

// List returns politicians matching the filter.
func (s *politicianService) List(ctx context.Context, filter models.PoliticianFilter) ([]*models.Politician, error) {
	return s.politicianRepo.List(ctx, filter)
}

// Update validates and stores changed profile fields.
func (s *politicianService) Update(ctx context.Context, p *models.Politician) error {
	if err := validatePolitician(p); err != nil {
		return err
	}
	return s.politicianRepo.Update(ctx, p)
}

// Deactivate hides a politician from public listings.
func (s *politicianService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.politicianRepo.Deactivate(ctx, id); err != nil {
		return err
	}

	s.logger.Info("politician deactivated", zap.String("politician_id", id.String()))
	return nil
}

func validatePolitician(p *models.Politician) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperrors.NewValidationError("name", "is required")
	}
	if strings.TrimSpace(p.Party) == "" {
		return apperrors.NewValidationError("party", "is required")
	}
	if strings.TrimSpace(p.State) == "" {
		return apperrors.NewValidationError("state", "is required")
	}
	if strings.TrimSpace(p.Position) == "" {
		return apperrors.NewValidationError("position", "is required")
	}
	return nil
}
