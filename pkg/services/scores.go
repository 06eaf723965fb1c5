package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/civicledger/civicledger-engine/pkg/apperrors"
	"github.com/civicledger/civicledger-engine/pkg/database"
	"github.com/civicledger/civicledger-engine/pkg/models"
	"github.com/civicledger/civicledger-engine/pkg/repositories"
	"github.com/civicledger/civicledger-engine/pkg/scoring"
)

// breakdownRecentActions caps the verified actions embedded in a breakdown.
const breakdownRecentActions = 10

// ScoreBreakdown shows how a politician's total decomposes per category.
type ScoreBreakdown struct {
	PoliticianID   uuid.UUID               `json:"politician_id"`
	TotalScore     int                     `json:"total_score"`
	Status         models.ScoreStatus      `json:"status"`
	Components     []models.ScoreComponent `json:"components"`
	DaysOfSilence  *int                    `json:"days_of_silence"`
	Dormant        bool                    `json:"dormant"`
	LastCalculated time.Time               `json:"last_calculated"`

	RecentActions []*models.ScoringAction     `json:"recent_actions"`
	History       []*models.ScoreHistoryEntry `json:"history"`
}

// RecalculateReport summarizes a directory-wide recalculation. A failure on
// one politician never aborts the sweep; failures are counted and logged.
type RecalculateReport struct {
	Recalculated int `json:"recalculated"`
	Failed       int `json:"failed"`
}

// ScoreService defines the interface for score reads and recomputation.
type ScoreService interface {
	GetSnapshot(ctx context.Context, politicianID uuid.UUID) (*models.ScoreSnapshot, error)
	GetHistory(ctx context.Context, politicianID uuid.UUID, since time.Time) ([]*models.ScoreHistoryEntry, error)
	GetBreakdown(ctx context.Context, politicianID uuid.UUID) (*ScoreBreakdown, error)
	Leaderboard(ctx context.Context, order repositories.LeaderboardOrder, limit int) ([]*repositories.LeaderboardEntry, error)
	Stats(ctx context.Context) (*models.ScoreStats, error)
	Recalculate(ctx context.Context, politicianID uuid.UUID) (*models.ScoreSnapshot, error)
	RecalculateAll(ctx context.Context) (*RecalculateReport, error)
	// RecomputeInTx recomputes a politician's score inside the caller's
	// transaction, serialized against concurrent recomputes of the same
	// politician. Used by moderation so verify and recompute commit together.
	RecomputeInTx(ctx context.Context, tx pgx.Tx, politicianID uuid.UUID) (*models.ScoreSnapshot, error)
}

// scoreService implements ScoreService.
type scoreService struct {
	db             *database.DB
	scoreRepo      repositories.ScoreRepository
	actionRepo     repositories.ActionRepository
	politicianRepo repositories.PoliticianRepository
	locks          keyedMutex
	logger         *zap.Logger
}

// NewScoreService creates a new score service with dependencies.
func NewScoreService(
	db *database.DB,
	scoreRepo repositories.ScoreRepository,
	actionRepo repositories.ActionRepository,
	politicianRepo repositories.PoliticianRepository,
	logger *zap.Logger,
) ScoreService {
	return &scoreService{
		db:             db,
		scoreRepo:      scoreRepo,
		actionRepo:     actionRepo,
		politicianRepo: politicianRepo,
		logger:         logger,
	}
}

// GetSnapshot returns the current snapshot for a politician. A politician
// that has never been scored gets an INSUFFICIENT_DATA snapshot rather than
// a not-found error; the distinction between "no row yet" and "no verified
// evidence" is invisible to readers.
func (s *scoreService) GetSnapshot(ctx context.Context, politicianID uuid.UUID) (*models.ScoreSnapshot, error) {
	if _, err := s.politicianRepo.GetByID(ctx, politicianID); err != nil {
		return nil, err
	}

	snapshot, err := s.scoreRepo.GetSnapshot(ctx, politicianID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &models.ScoreSnapshot{
				PoliticianID:   politicianID,
				Status:         models.StatusInsufficientData,
				LastCalculated: time.Now(),
			}, nil
		}
		return nil, err
	}

	return snapshot, nil
}

// GetHistory returns a politician's score history at or after since, oldest
// first. A zero since returns the full log.
func (s *scoreService) GetHistory(ctx context.Context, politicianID uuid.UUID, since time.Time) ([]*models.ScoreHistoryEntry, error) {
	if _, err := s.politicianRepo.GetByID(ctx, politicianID); err != nil {
		return nil, err
	}
	return s.scoreRepo.GetHistory(ctx, politicianID, since)
}

// GetBreakdown decomposes a politician's current snapshot per category.
func (s *scoreService) GetBreakdown(ctx context.Context, politicianID uuid.UUID) (*ScoreBreakdown, error) {
	snapshot, err := s.GetSnapshot(ctx, politicianID)
	if err != nil {
		return nil, err
	}

	components := make([]models.ScoreComponent, 0, len(models.AllCategories))
	for _, c := range models.AllCategories {
		components = append(components, models.ScoreComponent{
			Category: c,
			Score:    snapshot.CategoryScore(c),
			Max:      c.Max(),
		})
	}

	recent, err := s.actionRepo.ListByPolitician(ctx, politicianID, models.ActionFilter{
		Status: models.StatusVerified,
		Limit:  breakdownRecentActions,
	})
	if err != nil {
		return nil, err
	}

	history, err := s.scoreRepo.GetHistory(ctx, politicianID, time.Time{})
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []*models.ScoringAction{}
	}
	if history == nil {
		history = []*models.ScoreHistoryEntry{}
	}

	return &ScoreBreakdown{
		PoliticianID:   politicianID,
		TotalScore:     snapshot.TotalScore,
		Status:         snapshot.Status,
		Components:     components,
		DaysOfSilence:  snapshot.DaysOfSilence,
		Dormant:        snapshot.Dormant,
		LastCalculated: snapshot.LastCalculated,
		RecentActions:  recent,
		History:        history,
	}, nil
}

// Leaderboard returns the highest or lowest scored active politicians.
func (s *scoreService) Leaderboard(ctx context.Context, order repositories.LeaderboardOrder, limit int) ([]*repositories.LeaderboardEntry, error) {
	return s.scoreRepo.Leaderboard(ctx, order, limit)
}

// Stats aggregates snapshot state across the directory.
func (s *scoreService) Stats(ctx context.Context) (*models.ScoreStats, error) {
	return s.scoreRepo.Stats(ctx)
}

// Recalculate recomputes one politician's score from their verified actions
// in a fresh transaction and returns the new snapshot.
func (s *scoreService) Recalculate(ctx context.Context, politicianID uuid.UUID) (*models.ScoreSnapshot, error) {
	if _, err := s.politicianRepo.GetByID(ctx, politicianID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	snapshot, err := s.RecomputeInTx(ctx, tx, politicianID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit recalculation: %w", err)
	}

	return snapshot, nil
}

// RecalculateAll sweeps every politician in the directory. Mainly useful
// after the scoring rules change or to refresh time-derived fields like
// days of silence.
func (s *scoreService) RecalculateAll(ctx context.Context) (*RecalculateReport, error) {
	ids, err := s.politicianRepo.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &RecalculateReport{}
	for _, id := range ids {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if _, err := s.Recalculate(ctx, id); err != nil {
			report.Failed++
			s.logger.Error("score recalculation failed",
				zap.String("politician_id", id.String()),
				zap.Error(err))
			continue
		}
		report.Recalculated++
	}

	s.logger.Info("score sweep complete",
		zap.Int("recalculated", report.Recalculated),
		zap.Int("failed", report.Failed))
	return report, nil
}

// RecomputeInTx recomputes a politician's score inside tx, replaces the
// snapshot, and appends a history row. It takes the politician's row lock
// before reading, and that lock outlives this call: it is held until tx
// commits or rolls back, so a concurrent recompute of the same politician
// cannot read the verified set until this transaction's writes are visible.
// Lock order is keyed mutex, then politician row; every recompute follows it.
func (s *scoreService) RecomputeInTx(ctx context.Context, tx pgx.Tx, politicianID uuid.UUID) (*models.ScoreSnapshot, error) {
	unlock := s.locks.lock(politicianID)
	defer unlock()

	if err := s.politicianRepo.WithTx(tx).LockForUpdate(ctx, politicianID); err != nil {
		return nil, err
	}

	actions, err := s.actionRepo.WithTx(tx).ListVerified(ctx, politicianID)
	if err != nil {
		return nil, err
	}

	snapshot := scoring.Compute(politicianID, actions, time.Now())

	scoreRepo := s.scoreRepo.WithTx(tx)
	if err := scoreRepo.ReplaceSnapshot(ctx, snapshot); err != nil {
		return nil, err
	}
	if err := scoreRepo.AppendHistory(ctx, snapshot); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// keyedMutex keeps in-process recomputes of one politician from piling up
// on the database lock queue. It is not the serialization point; the row
// lock in RecomputeInTx is, since it is held to commit. Entries are never
// removed; the directory is small and a mutex is cheap.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func (k *keyedMutex) lock(id uuid.UUID) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
