package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicledger/civicledger-engine/pkg/auth"
	"github.com/civicledger/civicledger-engine/pkg/models"
	"github.com/civicledger/civicledger-engine/pkg/repositories"
)

// ctxWithRole builds a request context authenticated as userID with the
// given role, the way the auth middleware would.
func ctxWithRole(userID uuid.UUID, role string) context.Context {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		Role:             role,
	}
	return context.WithValue(context.Background(), auth.ClaimsKey, claims)
}

// mockPoliticianRepository is a configurable mock for PoliticianRepository.
type mockPoliticianRepository struct {
	politician  *models.Politician
	politicians []*models.Politician
	ids         []uuid.UUID
	createErr   error
	getErr      error
	listErr     error
	updateErr   error
	deactErr    error
	lockErr     error
	lockedIDs   []uuid.UUID

	capturedPolitician *models.Politician
	capturedFilter     models.PoliticianFilter
	capturedID         uuid.UUID
}

func (m *mockPoliticianRepository) Create(ctx context.Context, p *models.Politician) error {
	m.capturedPolitician = p
	return m.createErr
}

func (m *mockPoliticianRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Politician, error) {
	m.capturedID = id
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.politician != nil {
		return m.politician, nil
	}
	return &models.Politician{ID: id, Name: "Test Subject", IsActive: true}, nil
}

func (m *mockPoliticianRepository) List(ctx context.Context, filter models.PoliticianFilter) ([]*models.Politician, error) {
	m.capturedFilter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.politicians, nil
}

func (m *mockPoliticianRepository) Update(ctx context.Context, p *models.Politician) error {
	m.capturedPolitician = p
	return m.updateErr
}

func (m *mockPoliticianRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	m.capturedID = id
	return m.deactErr
}

func (m *mockPoliticianRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	return m.ids, nil
}

func (m *mockPoliticianRepository) LockForUpdate(ctx context.Context, id uuid.UUID) error {
	m.lockedIDs = append(m.lockedIDs, id)
	return m.lockErr
}

func (m *mockPoliticianRepository) WithTx(tx pgx.Tx) repositories.PoliticianRepository {
	return m
}

// mockActionRepository is a configurable mock for ActionRepository.
type mockActionRepository struct {
	action        *models.ScoringAction
	actions       []*models.ScoringAction
	createErr     error
	getErr        error
	listErr       error
	transitionErr error
	count         int

	capturedAction   *models.ScoringAction
	capturedID       uuid.UUID
	capturedStatus   models.VerificationStatus
	capturedVerifier uuid.UUID
	capturedReason   string
	capturedFilter   models.ActionFilter
}

func (m *mockActionRepository) Create(ctx context.Context, a *models.ScoringAction) error {
	a.ID = uuid.New()
	a.Status = models.StatusPending
	m.capturedAction = a
	return m.createErr
}

func (m *mockActionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ScoringAction, error) {
	m.capturedID = id
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.action != nil {
		return m.action, nil
	}
	return &models.ScoringAction{ID: id, Status: models.StatusPending}, nil
}

func (m *mockActionRepository) ListPending(ctx context.Context, limit int) ([]*models.ScoringAction, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.actions, nil
}

func (m *mockActionRepository) ListByPolitician(ctx context.Context, politicianID uuid.UUID, filter models.ActionFilter) ([]*models.ScoringAction, error) {
	m.capturedID = politicianID
	m.capturedFilter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.actions, nil
}

func (m *mockActionRepository) ListVerified(ctx context.Context, politicianID uuid.UUID) ([]*models.ScoringAction, error) {
	m.capturedID = politicianID
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.actions, nil
}

func (m *mockActionRepository) ListRecentVerified(ctx context.Context, limit int) ([]*models.ScoringAction, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.actions, nil
}

func (m *mockActionRepository) Transition(ctx context.Context, id uuid.UUID, to models.VerificationStatus, verifierID uuid.UUID, reason string) error {
	m.capturedID = id
	m.capturedStatus = to
	m.capturedVerifier = verifierID
	m.capturedReason = reason
	return m.transitionErr
}

func (m *mockActionRepository) CountByPolitician(ctx context.Context, politicianID uuid.UUID) (int, error) {
	return m.count, nil
}

func (m *mockActionRepository) WithTx(tx pgx.Tx) repositories.ActionRepository {
	return m
}

// mockScoreRepository is a configurable mock for ScoreRepository.
type mockScoreRepository struct {
	snapshot   *models.ScoreSnapshot
	history    []*models.ScoreHistoryEntry
	entries    []*repositories.LeaderboardEntry
	stats      *models.ScoreStats
	getErr     error
	replaceErr error
	appendErr  error

	capturedSnapshot *models.ScoreSnapshot
	appendedHistory  []*models.ScoreSnapshot
	capturedSince    time.Time
}

func (m *mockScoreRepository) GetSnapshot(ctx context.Context, politicianID uuid.UUID) (*models.ScoreSnapshot, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.snapshot, nil
}

func (m *mockScoreRepository) ReplaceSnapshot(ctx context.Context, s *models.ScoreSnapshot) error {
	m.capturedSnapshot = s
	return m.replaceErr
}

func (m *mockScoreRepository) AppendHistory(ctx context.Context, s *models.ScoreSnapshot) error {
	m.appendedHistory = append(m.appendedHistory, s)
	return m.appendErr
}

func (m *mockScoreRepository) GetHistory(ctx context.Context, politicianID uuid.UUID, since time.Time) ([]*models.ScoreHistoryEntry, error) {
	m.capturedSince = since
	return m.history, nil
}

func (m *mockScoreRepository) Leaderboard(ctx context.Context, order repositories.LeaderboardOrder, limit int) ([]*repositories.LeaderboardEntry, error) {
	return m.entries, nil
}

func (m *mockScoreRepository) Stats(ctx context.Context) (*models.ScoreStats, error) {
	return m.stats, nil
}

func (m *mockScoreRepository) WithTx(tx pgx.Tx) repositories.ScoreRepository {
	return m
}

// mockEvidenceSourceRepository is a configurable mock for EvidenceSourceRepository.
type mockEvidenceSourceRepository struct {
	sources   []*models.EvidenceSource
	createErr error
	listErr   error

	created []*models.EvidenceSource
}

func (m *mockEvidenceSourceRepository) Create(ctx context.Context, source *models.EvidenceSource) error {
	m.created = append(m.created, source)
	return m.createErr
}

func (m *mockEvidenceSourceRepository) ListByAction(ctx context.Context, actionID uuid.UUID) ([]*models.EvidenceSource, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sources, nil
}

func (m *mockEvidenceSourceRepository) WithTx(tx pgx.Tx) repositories.EvidenceSourceRepository {
	return m
}

// mockScoreService counts recalculation sweeps for worker tests.
type mockScoreService struct {
	ScoreService
	sweeps chan struct{}
}

func (m *mockScoreService) RecalculateAll(ctx context.Context) (*RecalculateReport, error) {
	select {
	case m.sweeps <- struct{}{}:
	default:
	}
	return &RecalculateReport{}, nil
}
