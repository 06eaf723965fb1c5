package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicledger/civicledger-engine/pkg/database"
	"github.com/civicledger/civicledger-engine/pkg/models"
)

// EvidenceSourceRepository defines the interface for evidence source access.
// Sources are attached when an action is submitted and never edited after.
type EvidenceSourceRepository interface {
	Create(ctx context.Context, source *models.EvidenceSource) error
	ListByAction(ctx context.Context, actionID uuid.UUID) ([]*models.EvidenceSource, error)
	WithTx(tx pgx.Tx) EvidenceSourceRepository
}

type evidenceSourceRepository struct {
	db database.Querier
}

// NewEvidenceSourceRepository creates a new evidence source repository.
func NewEvidenceSourceRepository(db database.Querier) EvidenceSourceRepository {
	return &evidenceSourceRepository{db: db}
}

func (r *evidenceSourceRepository) WithTx(tx pgx.Tx) EvidenceSourceRepository {
	return &evidenceSourceRepository{db: tx}
}

// Create inserts an evidence source for an action.
func (r *evidenceSourceRepository) Create(ctx context.Context, source *models.EvidenceSource) error {
	if source.ID == uuid.Nil {
		source.ID = uuid.New()
	}
	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO evidence_sources (id, action_id, url, source_type, confidence_rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		source.ID, source.ActionID, source.URL, source.SourceType, source.Confidence, source.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create evidence source: %w", err)
	}

	return nil
}

// ListByAction returns the evidence sources attached to an action, highest
// confidence first.
func (r *evidenceSourceRepository) ListByAction(ctx context.Context, actionID uuid.UUID) ([]*models.EvidenceSource, error) {
	query := `
		SELECT id, action_id, url, source_type, confidence_rating, created_at
		FROM evidence_sources
		WHERE action_id = $1
		ORDER BY confidence_rating DESC, created_at`

	rows, err := r.db.Query(ctx, query, actionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence sources: %w", err)
	}
	defer rows.Close()

	var sources []*models.EvidenceSource
	for rows.Next() {
		var s models.EvidenceSource
		err := rows.Scan(&s.ID, &s.ActionID, &s.URL, &s.SourceType, &s.Confidence, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evidence source: %w", err)
		}
		sources = append(sources, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evidence sources: %w", err)
	}

	return sources, nil
}

var _ EvidenceSourceRepository = (*evidenceSourceRepository)(nil)
