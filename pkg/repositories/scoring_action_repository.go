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

// ActionRepository defines the interface for scoring action data access.
type ActionRepository interface {
	Create(ctx context.Context, a *models.ScoringAction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ScoringAction, error)
	// ListPending returns the moderation queue, oldest submissions first.
	ListPending(ctx context.Context, limit int) ([]*models.ScoringAction, error)
	ListByPolitician(ctx context.Context, politicianID uuid.UUID, filter models.ActionFilter) ([]*models.ScoringAction, error)
	// ListVerified returns every verified action for a politician; this is
	// the scorer's input set.
	ListVerified(ctx context.Context, politicianID uuid.UUID) ([]*models.ScoringAction, error)
	ListRecentVerified(ctx context.Context, limit int) ([]*models.ScoringAction, error)
	// Transition moves a pending action to a terminal status. The UPDATE is
	// guarded on verification_status = 'pending' so a concurrent moderator
	// decision cannot overwrite a terminal state; a zero-row update means
	// the action was already terminal (ErrInvalidTransition) or missing
	// (ErrNotFound).
	Transition(ctx context.Context, id uuid.UUID, to models.VerificationStatus, verifierID uuid.UUID, reason string) error
	CountByPolitician(ctx context.Context, politicianID uuid.UUID) (int, error)
	// WithTx returns a repository view that runs inside the given transaction.
	WithTx(tx pgx.Tx) ActionRepository
}

// actionRepository implements ActionRepository using PostgreSQL.
type actionRepository struct {
	db database.Querier
}

// NewActionRepository creates a new scoring action repository.
func NewActionRepository(db database.Querier) ActionRepository {
	return &actionRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *actionRepository) WithTx(tx pgx.Tx) ActionRepository {
	return &actionRepository{db: tx}
}

const actionColumns = `id, politician_id, category, action_type, action_date, description, source_url,
	points, verification_status, submitted_by, verified_by, verified_at, rejection_reason, created_at, updated_at`

// Create inserts a new scoring action. Submissions always start pending;
// moderation is mandatory regardless of the submitter's role.
func (r *actionRepository) Create(ctx context.Context, a *models.ScoringAction) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.Status = models.StatusPending
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO scoring_actions (id, politician_id, category, action_type, action_date, description,
			source_url, points, verification_status, submitted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		a.ID, a.PoliticianID, a.Category, a.ActionType, a.ActionDate, a.Description,
		a.SourceURL, a.Points, a.Status, a.SubmittedBy, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create scoring action: %w", err)
	}

	return nil
}

// GetByID retrieves a scoring action by ID.
func (r *actionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ScoringAction, error) {
	query := `SELECT ` + actionColumns + ` FROM scoring_actions WHERE id = $1`

	a, err := scanAction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("scoring action %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get scoring action: %w", err)
	}

	return a, nil
}

// ListPending returns pending actions, oldest first.
func (r *actionRepository) ListPending(ctx context.Context, limit int) ([]*models.ScoringAction, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + actionColumns + `
		FROM scoring_actions
		WHERE verification_status = 'pending'
		ORDER BY created_at
		LIMIT $1`

	return r.queryActions(ctx, query, limit)
}

// ListByPolitician returns a politician's actions matching the filter,
// most recent action date first.
func (r *actionRepository) ListByPolitician(ctx context.Context, politicianID uuid.UUID, filter models.ActionFilter) ([]*models.ScoringAction, error) {
	query := `SELECT ` + actionColumns + ` FROM scoring_actions WHERE politician_id = $1`
	args := []any{politicianID}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND verification_status = $%d`, len(args))
	}

	query += ` ORDER BY action_date DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	return r.queryActions(ctx, query, args...)
}

// ListVerified returns all verified actions for a politician.
func (r *actionRepository) ListVerified(ctx context.Context, politicianID uuid.UUID) ([]*models.ScoringAction, error) {
	query := `SELECT ` + actionColumns + `
		FROM scoring_actions
		WHERE politician_id = $1 AND verification_status = 'verified'
		ORDER BY action_date DESC`

	return r.queryActions(ctx, query, politicianID)
}

// ListRecentVerified returns the most recently verified actions across all
// politicians.
func (r *actionRepository) ListRecentVerified(ctx context.Context, limit int) ([]*models.ScoringAction, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + actionColumns + `
		FROM scoring_actions
		WHERE verification_status = 'verified'
		ORDER BY verified_at DESC
		LIMIT $1`

	return r.queryActions(ctx, query, limit)
}

// Transition moves a pending action to verified or rejected.
func (r *actionRepository) Transition(ctx context.Context, id uuid.UUID, to models.VerificationStatus, verifierID uuid.UUID, reason string) error {
	if !to.IsTerminal() {
		return fmt.Errorf("cannot transition to %s: %w", to, apperrors.ErrInvalidTransition)
	}

	now := time.Now()
	query := `
		UPDATE scoring_actions
		SET verification_status = $1, verified_by = $2, verified_at = $3, rejection_reason = $4, updated_at = $3
		WHERE id = $5 AND verification_status = 'pending'`

	result, err := r.db.Exec(ctx, query, to, verifierID, now, reason, id)
	if err != nil {
		return fmt.Errorf("failed to transition scoring action: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing action from one already decided.
		var status models.VerificationStatus
		err := r.db.QueryRow(ctx, `SELECT verification_status FROM scoring_actions WHERE id = $1`, id).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("scoring action %s: %w", id, apperrors.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check scoring action status: %w", err)
		}
		return fmt.Errorf("scoring action %s is already %s: %w", id, status, apperrors.ErrInvalidTransition)
	}

	return nil
}

// CountByPolitician returns the number of actions referencing a politician.
func (r *actionRepository) CountByPolitician(ctx context.Context, politicianID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM scoring_actions WHERE politician_id = $1`, politicianID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count scoring actions: %w", err)
	}
	return count, nil
}

func (r *actionRepository) queryActions(ctx context.Context, query string, args ...any) ([]*models.ScoringAction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scoring actions: %w", err)
	}
	defer rows.Close()

	var actions []*models.ScoringAction
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scoring action: %w", err)
		}
		actions = append(actions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scoring actions: %w", err)
	}

	return actions, nil
}

func scanAction(row pgx.Row) (*models.ScoringAction, error) {
	var a models.ScoringAction
	err := row.Scan(
		&a.ID,
		&a.PoliticianID,
		&a.Category,
		&a.ActionType,
		&a.ActionDate,
		&a.Description,
		&a.SourceURL,
		&a.Points,
		&a.Status,
		&a.SubmittedBy,
		&a.VerifiedBy,
		&a.VerifiedAt,
		&a.RejectionReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Ensure actionRepository implements ActionRepository at compile time.
var _ ActionRepository = (*actionRepository)(nil)
