package postgres

import (
	"context"
	"errors"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const workspaceColumns = `id, owner_user_id, name, private_root_page_id, public_root_page_id,
	collaboration_invite_ids, created_at, updated_at`

// WorkspaceRepository implements domain.WorkspaceRepository using PostgreSQL
type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(pool *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

func scanWorkspace(row pgRow) (*domain.Workspace, error) {
	var ws domain.Workspace
	err := row.Scan(
		&ws.ID, &ws.OwnerUserID, &ws.Name, &ws.PrivateRootPageID, &ws.PublicRootPageID,
		&ws.CollaborationInviteIDs, &ws.CreatedAt, &ws.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return &ws, nil
}

// GetByID retrieves a workspace by its ID
func (r *WorkspaceRepository) GetByID(id uuid.UUID) (*domain.Workspace, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id)
	return scanWorkspace(row)
}

// GetByOwner retrieves all workspaces owned by a user
func (r *WorkspaceRepository) GetByOwner(ownerUserID uuid.UUID) ([]*domain.Workspace, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+workspaceColumns+` FROM workspaces WHERE owner_user_id = $1 ORDER BY created_at`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

// GetByInviteID retrieves the workspace carrying a live invite id
func (r *WorkspaceRepository) GetByInviteID(inviteID string) (*domain.Workspace, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+workspaceColumns+` FROM workspaces WHERE collaboration_invite_ids @> to_jsonb(ARRAY[$1::text])`, inviteID)
	return scanWorkspace(row)
}

// Create creates a new workspace
func (r *WorkspaceRepository) Create(ws *domain.Workspace) (*domain.Workspace, error) {
	if ws.ID == uuid.Nil {
		ws.ID = uuid.New()
	}
	if ws.CollaborationInviteIDs == nil {
		ws.CollaborationInviteIDs = []string{}
	}
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO workspaces (id, owner_user_id, name, private_root_page_id, public_root_page_id, collaboration_invite_ids)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+workspaceColumns,
		ws.ID, ws.OwnerUserID, ws.Name, ws.PrivateRootPageID, ws.PublicRootPageID, ws.CollaborationInviteIDs)
	return scanWorkspace(row)
}

// Update updates an existing workspace
func (r *WorkspaceRepository) Update(ws *domain.Workspace) (*domain.Workspace, error) {
	row := r.pool.QueryRow(context.Background(), `
		UPDATE workspaces
		SET name = $2, private_root_page_id = $3, public_root_page_id = $4,
			collaboration_invite_ids = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+workspaceColumns,
		ws.ID, ws.Name, ws.PrivateRootPageID, ws.PublicRootPageID, ws.CollaborationInviteIDs)
	return scanWorkspace(row)
}

// Delete deletes a workspace by ID
func (r *WorkspaceRepository) Delete(id uuid.UUID) error {
	tag, err := r.pool.Exec(context.Background(), `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWorkspaceNotFound
	}
	return nil
}
