package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicledger/civicledger-engine/pkg/apperrors"
	"github.com/civicledger/civicledger-engine/pkg/database"
	"github.com/civicledger/civicledger-engine/pkg/models"
)

// LeaderboardOrder selects which end of the score table a leaderboard reads.
type LeaderboardOrder string

const (
	LeaderboardTop    LeaderboardOrder = "top"
	LeaderboardBottom LeaderboardOrder = "bottom"
)

// LeaderboardEntry pairs a politician with their current snapshot.
type LeaderboardEntry struct {
	Politician *models.Politician    `json:"politician"`
	Snapshot   *models.ScoreSnapshot `json:"score"`
}

// ScoreRepository defines the interface for score snapshot and history access.
type ScoreRepository interface {
	GetSnapshot(ctx context.Context, politicianID uuid.UUID) (*models.ScoreSnapshot, error)
	// ReplaceSnapshot upserts the current snapshot wholesale. Snapshots are
	// derived values and are never partially edited.
	ReplaceSnapshot(ctx context.Context, s *models.ScoreSnapshot) error
	// AppendHistory records an immutable copy of a snapshot.
	AppendHistory(ctx context.Context, s *models.ScoreSnapshot) error
	GetHistory(ctx context.Context, politicianID uuid.UUID, since time.Time) ([]*models.ScoreHistoryEntry, error)
	Leaderboard(ctx context.Context, order LeaderboardOrder, limit int) ([]*LeaderboardEntry, error)
	Stats(ctx context.Context) (*models.ScoreStats, error)
	// WithTx returns a repository view that runs inside the given transaction.
	WithTx(tx pgx.Tx) ScoreRepository
}

// scoreRepository implements ScoreRepository using PostgreSQL.
type scoreRepository struct {
	db database.Querier
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db database.Querier) ScoreRepository {
	return &scoreRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *scoreRepository) WithTx(tx pgx.Tx) ScoreRepository {
	return &scoreRepository{db: tx}
}

const snapshotColumns = `politician_id, total_score, public_statements_score, legislative_action_score,
	public_engagement_score, social_media_score, consistency_score, days_of_silence, dormant, status,
	last_activity_date, last_calculated`

// GetSnapshot retrieves the current snapshot for a politician.
func (r *scoreRepository) GetSnapshot(ctx context.Context, politicianID uuid.UUID) (*models.ScoreSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM politician_scores WHERE politician_id = $1`

	s, err := scanSnapshot(r.db.QueryRow(ctx, query, politicianID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("score snapshot for %s: %w", politicianID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get score snapshot: %w", err)
	}

	return s, nil
}

// ReplaceSnapshot upserts the snapshot row for a politician.
func (r *scoreRepository) ReplaceSnapshot(ctx context.Context, s *models.ScoreSnapshot) error {
	query := `
		INSERT INTO politician_scores (politician_id, total_score, public_statements_score,
			legislative_action_score, public_engagement_score, social_media_score, consistency_score,
			days_of_silence, dormant, status, last_activity_date, last_calculated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (politician_id) DO UPDATE
		SET total_score = EXCLUDED.total_score,
		    public_statements_score = EXCLUDED.public_statements_score,
		    legislative_action_score = EXCLUDED.legislative_action_score,
		    public_engagement_score = EXCLUDED.public_engagement_score,
		    social_media_score = EXCLUDED.social_media_score,
		    consistency_score = EXCLUDED.consistency_score,
		    days_of_silence = EXCLUDED.days_of_silence,
		    dormant = EXCLUDED.dormant,
		    status = EXCLUDED.status,
		    last_activity_date = EXCLUDED.last_activity_date,
		    last_calculated = EXCLUDED.last_calculated`

	_, err := r.db.Exec(ctx, query,
		s.PoliticianID, s.TotalScore, s.PublicStatementsScore,
		s.LegislativeActionScore, s.PublicEngagementScore, s.SocialMediaScore, s.ConsistencyScore,
		s.DaysOfSilence, s.Dormant, s.Status, s.LastActivityDate, s.LastCalculated,
	)
	if err != nil {
		return fmt.Errorf("failed to replace score snapshot: %w", err)
	}

	return nil
}

// AppendHistory records an immutable history row from a snapshot.
func (r *scoreRepository) AppendHistory(ctx context.Context, s *models.ScoreSnapshot) error {
	query := `
		INSERT INTO score_history (id, politician_id, total_score, public_statements_score,
			legislative_action_score, public_engagement_score, social_media_score, consistency_score,
			days_of_silence, status, recorded_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		uuid.New(), s.PoliticianID, s.TotalScore, s.PublicStatementsScore,
		s.LegislativeActionScore, s.PublicEngagementScore, s.SocialMediaScore, s.ConsistencyScore,
		s.DaysOfSilence, s.Status, s.LastCalculated,
	)
	if err != nil {
		return fmt.Errorf("failed to append score history: %w", err)
	}

	return nil
}

// GetHistory returns history entries recorded at or after since, oldest
// first. A zero since returns the full log.
func (r *scoreRepository) GetHistory(ctx context.Context, politicianID uuid.UUID, since time.Time) ([]*models.ScoreHistoryEntry, error) {
	query := `
		SELECT id, politician_id, total_score, public_statements_score, legislative_action_score,
			public_engagement_score, social_media_score, consistency_score, days_of_silence, status, recorded_date
		FROM score_history
		WHERE politician_id = $1 AND recorded_date >= $2
		ORDER BY recorded_date`

	rows, err := r.db.Query(ctx, query, politicianID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get score history: %w", err)
	}
	defer rows.Close()

	var entries []*models.ScoreHistoryEntry
	for rows.Next() {
		var e models.ScoreHistoryEntry
		err := rows.Scan(
			&e.ID,
			&e.PoliticianID,
			&e.TotalScore,
			&e.PublicStatementsScore,
			&e.LegislativeActionScore,
			&e.PublicEngagementScore,
			&e.SocialMediaScore,
			&e.ConsistencyScore,
			&e.DaysOfSilence,
			&e.Status,
			&e.RecordedDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score history entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating score history: %w", err)
	}

	return entries, nil
}

// Leaderboard returns active, scored politicians ordered by total score.
// Politicians without verified evidence are excluded; INSUFFICIENT_DATA is
// not a rank.
func (r *scoreRepository) Leaderboard(ctx context.Context, order LeaderboardOrder, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	direction := "DESC"
	if order == LeaderboardBottom {
		direction = "ASC"
	}

	query := `
		SELECT p.id, p.name, p.party, p.state, p.district, p.position, p.bio, p.photo_url,
			p.is_active, p.created_at, p.updated_at,
			s.politician_id, s.total_score, s.public_statements_score, s.legislative_action_score,
			s.public_engagement_score, s.social_media_score, s.consistency_score,
			s.days_of_silence, s.dormant, s.status, s.last_activity_date, s.last_calculated
		FROM politician_scores s
		JOIN politicians p ON p.id = s.politician_id
		WHERE p.is_active AND s.status != 'INSUFFICIENT_DATA'
		ORDER BY s.total_score ` + direction + `, p.name
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*LeaderboardEntry
	for rows.Next() {
		var p models.Politician
		var s models.ScoreSnapshot
		err := rows.Scan(
			&p.ID, &p.Name, &p.Party, &p.State, &p.District, &p.Position, &p.Bio, &p.PhotoURL,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
			&s.PoliticianID, &s.TotalScore, &s.PublicStatementsScore, &s.LegislativeActionScore,
			&s.PublicEngagementScore, &s.SocialMediaScore, &s.ConsistencyScore,
			&s.DaysOfSilence, &s.Dormant, &s.Status, &s.LastActivityDate, &s.LastCalculated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, &LeaderboardEntry{Politician: &p, Snapshot: &s})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return entries, nil
}

// Stats aggregates snapshot state across active politicians.
func (r *scoreRepository) Stats(ctx context.Context) (*models.ScoreStats, error) {
	stats := &models.ScoreStats{
		StatusCounts: make(map[models.ScoreStatus]int),
	}

	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM politicians WHERE is_active`).Scan(&stats.TotalPoliticians)
	if err != nil {
		return nil, fmt.Errorf("failed to count politicians: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT s.status, COUNT(*), COALESCE(AVG(s.total_score) FILTER (WHERE s.status != 'INSUFFICIENT_DATA'), 0)
		FROM politician_scores s
		JOIN politicians p ON p.id = s.politician_id
		WHERE p.is_active
		GROUP BY s.status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query score stats: %w", err)
	}
	defer rows.Close()

	var weightedSum float64
	for rows.Next() {
		var status models.ScoreStatus
		var count int
		var avg float64
		if err := rows.Scan(&status, &count, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan score stats: %w", err)
		}
		stats.StatusCounts[status] = count
		if status == models.StatusInsufficientData {
			stats.InsufficientData += count
		} else {
			stats.Scored += count
			weightedSum += avg * float64(count)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating score stats: %w", err)
	}

	if stats.Scored > 0 {
		stats.AverageScore = weightedSum / float64(stats.Scored)
	}

	return stats, nil
}

func scanSnapshot(row pgx.Row) (*models.ScoreSnapshot, error) {
	var s models.ScoreSnapshot
	err := row.Scan(
		&s.PoliticianID,
		&s.TotalScore,
		&s.PublicStatementsScore,
		&s.LegislativeActionScore,
		&s.PublicEngagementScore,
		&s.SocialMediaScore,
		&s.ConsistencyScore,
		&s.DaysOfSilence,
		&s.Dormant,
		&s.Status,
		&s.LastActivityDate,
		&s.LastCalculated,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Ensure scoreRepository implements ScoreRepository at compile time.
var _ ScoreRepository = (*scoreRepository)(nil)
