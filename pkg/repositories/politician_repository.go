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

// PoliticianRepository defines the interface for politician data access.
type PoliticianRepository interface {
	Create(ctx context.Context, p *models.Politician) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Politician, error)
	List(ctx context.Context, filter models.PoliticianFilter) ([]*models.Politician, error)
	Update(ctx context.Context, p *models.Politician) error
	// Deactivate hides a politician from public listings. Politicians are
	// never hard-deleted while scoring actions reference them.
	Deactivate(ctx context.Context, id uuid.UUID) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	// LockForUpdate takes the politician's row lock until the enclosing
	// transaction ends. Recomputes take it before reading verified actions
	// so concurrent recomputes of one politician serialize in commit order.
	LockForUpdate(ctx context.Context, id uuid.UUID) error
	// WithTx returns a repository view that runs inside the given transaction.
	WithTx(tx pgx.Tx) PoliticianRepository
}

// politicianRepository implements PoliticianRepository using PostgreSQL.
type politicianRepository struct {
	db database.Querier
}

// NewPoliticianRepository creates a new politician repository.
func NewPoliticianRepository(db database.Querier) PoliticianRepository {
	return &politicianRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *politicianRepository) WithTx(tx pgx.Tx) PoliticianRepository {
	return &politicianRepository{db: tx}
}

const politicianColumns = `id, name, party, state, district, position, bio, photo_url, is_active, created_at, updated_at`

// Create inserts a new politician.
func (r *politicianRepository) Create(ctx context.Context, p *models.Politician) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.IsActive = true
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO politicians (id, name, party, state, district, position, bio, photo_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		p.ID, p.Name, p.Party, p.State, p.District, p.Position, p.Bio, p.PhotoURL, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create politician: %w", err)
	}

	return nil
}

// GetByID retrieves a politician by ID, active or not.
func (r *politicianRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Politician, error) {
	query := `SELECT ` + politicianColumns + ` FROM politicians WHERE id = $1`

	p, err := scanPolitician(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("politician %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get politician: %w", err)
	}

	return p, nil
}

// LockForUpdate blocks until the politician's row lock is held. Outside a
// transaction the lock is released immediately, so this is only meaningful
// on a WithTx view.
func (r *politicianRepository) LockForUpdate(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT id FROM politicians WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("politician %s: %w", id, apperrors.ErrNotFound)
		}
		return fmt.Errorf("failed to lock politician: %w", err)
	}

	return nil
}

// List retrieves politicians matching the filter, by name.
func (r *politicianRepository) List(ctx context.Context, filter models.PoliticianFilter) ([]*models.Politician, error) {
	query := `SELECT ` + politicianColumns + ` FROM politicians WHERE 1=1`
	var args []any

	if !filter.IncludeHidden {
		query += ` AND is_active`
	}
	if filter.Party != "" {
		args = append(args, filter.Party)
		query += fmt.Sprintf(` AND party = $%d`, len(args))
	}
	if filter.State != "" {
		args = append(args, filter.State)
		query += fmt.Sprintf(` AND state = $%d`, len(args))
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list politicians: %w", err)
	}
	defer rows.Close()

	var politicians []*models.Politician
	for rows.Next() {
		p, err := scanPolitician(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan politician: %w", err)
		}
		politicians = append(politicians, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating politicians: %w", err)
	}

	return politicians, nil
}

// Update updates a politician's descriptive attributes.
func (r *politicianRepository) Update(ctx context.Context, p *models.Politician) error {
	p.UpdatedAt = time.Now()

	query := `
		UPDATE politicians
		SET name = $1, party = $2, state = $3, district = $4, position = $5, bio = $6, photo_url = $7, updated_at = $8
		WHERE id = $9`

	result, err := r.db.Exec(ctx, query,
		p.Name, p.Party, p.State, p.District, p.Position, p.Bio, p.PhotoURL, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update politician: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("politician %s: %w", p.ID, apperrors.ErrNotFound)
	}

	return nil
}

// Deactivate marks a politician inactive.
func (r *politicianRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE politicians SET is_active = FALSE, updated_at = $1 WHERE id = $2`

	result, err := r.db.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate politician: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("politician %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

// ListIDs returns the IDs of all politicians, active or not. Used by the
// full recompute sweep.
func (r *politicianRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM politicians ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list politician IDs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan politician ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating politician IDs: %w", err)
	}

	return ids, nil
}

func scanPolitician(row pgx.Row) (*models.Politician, error) {
	var p models.Politician
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Party,
		&p.State,
		&p.District,
		&p.Position,
		&p.Bio,
		&p.PhotoURL,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Ensure politicianRepository implements PoliticianRepository at compile time.
var _ PoliticianRepository = (*politicianRepository)(nil)
