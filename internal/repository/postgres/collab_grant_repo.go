package postgres

import (
	"context"
	"errors"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const grantColumns = `id, scope, target_id, user_id, invite_id, created_at`

// CollabGrantRepository implements domain.CollabGrantRepository using PostgreSQL
type CollabGrantRepository struct {
	pool *pgxpool.Pool
}

// NewCollabGrantRepository creates a new CollabGrantRepository
func NewCollabGrantRepository(pool *pgxpool.Pool) *CollabGrantRepository {
	return &CollabGrantRepository{pool: pool}
}

func scanGrant(row pgRow) (*domain.CollabGrant, error) {
	var g domain.CollabGrant
	err := row.Scan(&g.ID, &g.Scope, &g.TargetID, &g.UserID, &g.InviteID, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func collectGrants(rows pgx.Rows) ([]*domain.CollabGrant, error) {
	defer rows.Close()
	var out []*domain.CollabGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetByUser retrieves all grants held by a user
func (r *CollabGrantRepository) GetByUser(userID uuid.UUID) ([]*domain.CollabGrant, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+grantColumns+` FROM collab_grants WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	return collectGrants(rows)
}

// GetByTarget retrieves all grants on a target
func (r *CollabGrantRepository) GetByTarget(scope domain.GrantScope, targetID uuid.UUID) ([]*domain.CollabGrant, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+grantColumns+` FROM collab_grants WHERE scope = $1 AND target_id = $2`, scope, targetID)
	if err != nil {
		return nil, err
	}
	return collectGrants(rows)
}

// GetByUserAndTarget retrieves a user's grant on a target
func (r *CollabGrantRepository) GetByUserAndTarget(userID uuid.UUID, scope domain.GrantScope, targetID uuid.UUID) (*domain.CollabGrant, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+grantColumns+` FROM collab_grants WHERE user_id = $1 AND scope = $2 AND target_id = $3`,
		userID, scope, targetID)
	return scanGrant(row)
}

// HasWorkspaceGrant reports an accepted workspace-scoped grant
func (r *CollabGrantRepository) HasWorkspaceGrant(userID, workspaceID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM collab_grants WHERE user_id = $1 AND scope = 'workspace' AND target_id = $2)`,
		userID, workspaceID).Scan(&exists)
	return exists, err
}

// HasPageGrantIn reports an accepted page-scoped grant on any of the pages.
// The ancestry chain of the page under access check is passed here, which is
// how subtree inheritance is answered in one query.
func (r *CollabGrantRepository) HasPageGrantIn(userID uuid.UUID, pageIDs []uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM collab_grants WHERE user_id = $1 AND scope = 'page' AND target_id = ANY($2))`,
		userID, pageIDs).Scan(&exists)
	return exists, err
}

// Create creates a new grant
func (r *CollabGrantRepository) Create(grant *domain.CollabGrant) (*domain.CollabGrant, error) {
	if grant.ID == uuid.Nil {
		grant.ID = uuid.New()
	}
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO collab_grants (id, scope, target_id, user_id, invite_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+grantColumns,
		grant.ID, grant.Scope, grant.TargetID, grant.UserID, grant.InviteID)
	return scanGrant(row)
}

// Delete deletes a grant by ID
func (r *CollabGrantRepository) Delete(id uuid.UUID) error {
	tag, err := r.pool.Exec(context.Background(), `DELETE FROM collab_grants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
