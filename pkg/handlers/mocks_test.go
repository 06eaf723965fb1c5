package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/civicledger/civicledger-engine/pkg/auth"
	"github.com/civicledger/civicledger-engine/pkg/models"
	"github.com/civicledger/civicledger-engine/pkg/repositories"
	"github.com/civicledger/civicledger-engine/pkg/services"
)

// stubAuthService authenticates every request as a fixed principal, or
// rejects everything when claims is nil.
type stubAuthService struct {
	claims *auth.Claims
}

func (s *stubAuthService) ValidateRequest(r *http.Request) (*auth.Claims, error) {
	if s.claims == nil {
		return nil, errors.New("no token")
	}
	return s.claims, nil
}

func authAs(role string) *auth.Middleware {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
		Role:             role,
	}
	return auth.NewMiddleware(&stubAuthService{claims: claims}, zap.NewNop())
}

func authAnonymous() *auth.Middleware {
	return auth.NewMiddleware(&stubAuthService{}, zap.NewNop())
}

// stubPoliticianService is a configurable PoliticianService for handler tests.
type stubPoliticianService struct {
	politician  *models.Politician
	politicians []*models.Politician
	err         error

	capturedFilter models.PoliticianFilter
	deactivatedID  uuid.UUID
}

func (s *stubPoliticianService) Create(ctx context.Context, p *models.Politician) error {
	if s.err != nil {
		return s.err
	}
	p.ID = uuid.New()
	return nil
}

func (s *stubPoliticianService) Get(ctx context.Context, id uuid.UUID) (*models.Politician, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.politician, nil
}

func (s *stubPoliticianService) List(ctx context.Context, filter models.PoliticianFilter) ([]*models.Politician, error) {
	s.capturedFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return s.politicians, nil
}

func (s *stubPoliticianService) Update(ctx context.Context, p *models.Politician) error {
	return s.err
}

func (s *stubPoliticianService) Deactivate(ctx context.Context, id uuid.UUID) error {
	s.deactivatedID = id
	return s.err
}

// stubActionService is a configurable ActionService for handler tests.
type stubActionService struct {
	action  *models.ScoringAction
	bundle  *services.ActionWithSources
	actions []*models.ScoringAction
	err     error

	capturedInput services.SubmitActionInput
}

func (s *stubActionService) Submit(ctx context.Context, input services.SubmitActionInput) (*models.ScoringAction, error) {
	s.capturedInput = input
	if s.err != nil {
		return nil, s.err
	}
	return s.action, nil
}

func (s *stubActionService) Get(ctx context.Context, id uuid.UUID) (*services.ActionWithSources, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.bundle, nil
}

func (s *stubActionService) ListByPolitician(ctx context.Context, politicianID uuid.UUID, filter models.ActionFilter) ([]*models.ScoringAction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.actions, nil
}

func (s *stubActionService) ListRecentVerified(ctx context.Context, limit int) ([]*models.ScoringAction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.actions, nil
}

// stubModerationService is a configurable ModerationService for handler tests.
type stubModerationService struct {
	pending []*models.ScoringAction
	result  *services.VerifyResult
	action  *models.ScoringAction
	err     error

	capturedReason string
}

func (s *stubModerationService) ListPending(ctx context.Context, limit int) ([]*models.ScoringAction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pending, nil
}

func (s *stubModerationService) Verify(ctx context.Context, actionID uuid.UUID) (*services.VerifyResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubModerationService) Reject(ctx context.Context, actionID uuid.UUID, reason string) (*models.ScoringAction, error) {
	s.capturedReason = reason
	if s.err != nil {
		return nil, s.err
	}
	return s.action, nil
}

// stubScoreService is a configurable ScoreService for handler tests.
type stubScoreService struct {
	snapshot  *models.ScoreSnapshot
	history   []*models.ScoreHistoryEntry
	breakdown *services.ScoreBreakdown
	entries   []*repositories.LeaderboardEntry
	stats     *models.ScoreStats
	report    *services.RecalculateReport
	err       error

	capturedOrder repositories.LeaderboardOrder
	capturedSince time.Time
}

func (s *stubScoreService) GetSnapshot(ctx context.Context, politicianID uuid.UUID) (*models.ScoreSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

func (s *stubScoreService) GetHistory(ctx context.Context, politicianID uuid.UUID, since time.Time) ([]*models.ScoreHistoryEntry, error) {
	s.capturedSince = since
	if s.err != nil {
		return nil, s.err
	}
	return s.history, nil
}

func (s *stubScoreService) GetBreakdown(ctx context.Context, politicianID uuid.UUID) (*services.ScoreBreakdown, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.breakdown, nil
}

func (s *stubScoreService) Leaderboard(ctx context.Context, order repositories.LeaderboardOrder, limit int) ([]*repositories.LeaderboardEntry, error) {
	s.capturedOrder = order
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

func (s *stubScoreService) Stats(ctx context.Context) (*models.ScoreStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

func (s *stubScoreService) Recalculate(ctx context.Context, politicianID uuid.UUID) (*models.ScoreSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

func (s *stubScoreService) RecalculateAll(ctx context.Context) (*services.RecalculateReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubScoreService) RecomputeInTx(ctx context.Context, tx pgx.Tx, politicianID uuid.UUID) (*models.ScoreSnapshot, error) {
	return s.snapshot, s.err
}
