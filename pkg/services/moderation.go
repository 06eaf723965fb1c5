package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicledger/civicledger-engine/pkg/apperrors"
	"github.com/civicledger/civicledger-engine/pkg/auth"
	"github.com/civicledger/civicledger-engine/pkg/database"
	"github.com/civicledger/civicledger-engine/pkg/models"
	"github.com/civicledger/civicledger-engine/pkg/repositories"
)

// VerifyResult is what a successful verification returns: the finalized
// action and the score snapshot that now reflects it.
type VerifyResult struct {
	Action   *models.ScoringAction `json:"action"`
	Snapshot *models.ScoreSnapshot `json:"score"`
}

// ModerationService defines the interface for the verification queue.
// Verification and the score recompute it triggers commit atomically, so an
// action is never visible as verified while the score still excludes it.
type ModerationService interface {
	ListPending(ctx context.Context, limit int) ([]*models.ScoringAction, error)
	Verify(ctx context.Context, actionID uuid.UUID) (*VerifyResult, error)
	Reject(ctx context.Context, actionID uuid.UUID, reason string) (*models.ScoringAction, error)
}

// moderationService implements ModerationService.
type moderationService struct {
	db           *database.DB
	actionRepo   repositories.ActionRepository
	scoreService ScoreService
	logger       *zap.Logger
}

// NewModerationService creates a new moderation service with dependencies.
func NewModerationService(
	db *database.DB,
	actionRepo repositories.ActionRepository,
	scoreService ScoreService,
	logger *zap.Logger,
) ModerationService {
	return &moderationService{
		db:           db,
		actionRepo:   actionRepo,
		scoreService: scoreService,
		logger:       logger,
	}
}

// ListPending returns the oldest pending actions first.
func (s *moderationService) ListPending(ctx context.Context, limit int) ([]*models.ScoringAction, error) {
	if err := requireModerator(ctx); err != nil {
		return nil, err
	}
	return s.actionRepo.ListPending(ctx, limit)
}

// Verify marks a pending action verified and recomputes the politician's
// score in the same transaction. Verifying an already-decided action fails
// with ErrInvalidTransition; there is no re-verification.
func (s *moderationService) Verify(ctx context.Context, actionID uuid.UUID) (*VerifyResult, error) {
	if err := requireModerator(ctx); err != nil {
		return nil, err
	}
	verifierID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	txActions := s.actionRepo.WithTx(tx)
	if err := txActions.Transition(ctx, actionID, models.StatusVerified, verifierID, ""); err != nil {
		return nil, err
	}

	action, err := txActions.GetByID(ctx, actionID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.scoreService.RecomputeInTx(ctx, tx, action.PoliticianID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit verification: %w", err)
	}

	s.logger.Info("scoring action verified",
		zap.String("action_id", actionID.String()),
		zap.String("politician_id", action.PoliticianID.String()),
		zap.String("verified_by", verifierID.String()),
		zap.Int("total_score", snapshot.TotalScore))

	return &VerifyResult{Action: action, Snapshot: snapshot}, nil
}

// Reject marks a pending action rejected with an optional reason. Rejection
// never touches scores; a rejected action is indistinguishable from one that
// was never submitted as far as scoring is concerned.
func (s *moderationService) Reject(ctx context.Context, actionID uuid.UUID, reason string) (*models.ScoringAction, error) {
	if err := requireModerator(ctx); err != nil {
		return nil, err
	}
	verifierID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.actionRepo.Transition(ctx, actionID, models.StatusRejected, verifierID, strings.TrimSpace(reason)); err != nil {
		return nil, err
	}

	action, err := s.actionRepo.GetByID(ctx, actionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("scoring action rejected",
		zap.String("action_id", actionID.String()),
		zap.String("rejected_by", verifierID.String()))

	return action, nil
}

func requireModerator(ctx context.Context) error {
	role := auth.RoleFromContext(ctx)
	if !auth.CanModerate(role) {
		return fmt.Errorf("role %q may not moderate: %w", role, apperrors.ErrForbidden)
	}
	return nil
}
