package postgres

import (
	"context"
	"errors"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pageColumns = `id, workspace_id, parent_id, mpath, children_order, name, short_id,
	custom_link, content, styles_scss, theme_id, root_kind, collaboration_invite_ids,
	history, head_tags, created_at, updated_at`

// PageRepository implements domain.PageRepository using PostgreSQL.
// The mpath column answers subtree queries with LIKE; childrenOrder, invite
// ids and history live in jsonb columns since they are only ever read and
// written whole.
type PageRepository struct {
	pool *pgxpool.Pool
}

// NewPageRepository creates a new PageRepository
func NewPageRepository(pool *pgxpool.Pool) *PageRepository {
	return &PageRepository{pool: pool}
}

type pgRow interface {
	Scan(dest ...any) error
}

func scanPage(row pgRow) (*domain.Page, error) {
	var p domain.Page
	err := row.Scan(
		&p.ID, &p.WorkspaceID, &p.ParentID, &p.Mpath, &p.ChildrenOrder, &p.Name, &p.ShortID,
		&p.CustomLink, &p.Content, &p.StylesScss, &p.ThemeID, &p.RootKind, &p.CollaborationInviteIDs,
		&p.History, &p.HeadTags, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPageNotFound
		}
		return nil, err
	}
	return &p, nil
}

func collectPages(rows pgx.Rows) ([]*domain.Page, error) {
	defer rows.Close()
	var out []*domain.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID retrieves a page by its ID
func (r *PageRepository) GetByID(id uuid.UUID) (*domain.Page, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+pageColumns+` FROM pages WHERE id = $1`, id)
	return scanPage(row)
}

// GetByShortID retrieves a page by its short id
func (r *PageRepository) GetByShortID(shortID string) (*domain.Page, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+pageColumns+` FROM pages WHERE short_id = $1`, shortID)
	return scanPage(row)
}

// GetByIDs retrieves pages by their ids, skipping missing ones
func (r *PageRepository) GetByIDs(ids []uuid.UUID) ([]*domain.Page, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+pageColumns+` FROM pages WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return collectPages(rows)
}

// GetByWorkspace retrieves all pages of a workspace
func (r *PageRepository) GetByWorkspace(workspaceID uuid.UUID) ([]*domain.Page, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+pageColumns+` FROM pages WHERE workspace_id = $1`, workspaceID)
	if err != nil {
		return nil, err
	}
	return collectPages(rows)
}

// GetByInviteID retrieves the page carrying a live invite id
func (r *PageRepository) GetByInviteID(inviteID string) (*domain.Page, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+pageColumns+` FROM pages WHERE collaboration_invite_ids @> to_jsonb(ARRAY[$1::text])`, inviteID)
	return scanPage(row)
}

// GetDescendants retrieves every strict descendant of the page
func (r *PageRepository) GetDescendants(id uuid.UUID) ([]*domain.Page, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+pageColumns+` FROM pages WHERE mpath LIKE '%' || $1::text || '.%'`, id.String())
	if err != nil {
		return nil, err
	}
	return collectPages(rows)
}

// GetByCustomLink retrieves the pages under a root ancestor carrying the link
func (r *PageRepository) GetByCustomLink(rootAncestorID uuid.UUID, link string) ([]*domain.Page, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+pageColumns+` FROM pages WHERE custom_link = $2 AND mpath LIKE $1::text || '.%'`,
		rootAncestorID.String(), link)
	if err != nil {
		return nil, err
	}
	return collectPages(rows)
}

const insertPage = `
	INSERT INTO pages (id, workspace_id, parent_id, mpath, children_order, name, short_id,
		custom_link, content, styles_scss, theme_id, root_kind, collaboration_invite_ids,
		history, head_tags)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	RETURNING ` + pageColumns

func insertPageTx(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, page *domain.Page) (*domain.Page, error) {
	if page.ChildrenOrder == nil {
		page.ChildrenOrder = []uuid.UUID{}
	}
	if page.CollaborationInviteIDs == nil {
		page.CollaborationInviteIDs = []string{}
	}
	if page.History == nil {
		page.History = []domain.ContentRevision{}
	}
	row := q.QueryRow(ctx, insertPage,
		page.ID, page.WorkspaceID, page.ParentID, page.Mpath, page.ChildrenOrder, page.Name,
		page.ShortID, page.CustomLink, page.Content, page.StylesScss, page.ThemeID, page.RootKind,
		page.CollaborationInviteIDs, page.History, page.HeadTags,
	)
	created, err := scanPage(row)
	if err != nil {
		return nil, mapPageConstraint(err)
	}
	return created, nil
}

// mapPageConstraint translates a unique violation on short_id into the
// domain's collision sentinel so the service can regenerate and retry.
func mapPageConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "pages_short_id_key" {
		return domain.ErrShortIDCollision
	}
	return err
}

// Create inserts a page with no parent bookkeeping; used for root pages
func (r *PageRepository) Create(page *domain.Page) (*domain.Page, error) {
	return insertPageTx(context.Background(), r.pool, page)
}

// CreateWithParent inserts the page and persists the parent's updated
// childrenOrder in one transaction
func (r *PageRepository) CreateWithParent(page *domain.Page, parent *domain.Page) (*domain.Page, error) {
	ctx := context.Background()
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	created, err := insertPageTx(ctx, tx, page)
	if err != nil {
		return nil, err
	}
	if err := updatePageTx(ctx, tx, parent); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

const updatePage = `
	UPDATE pages SET workspace_id = $2, parent_id = $3, mpath = $4, children_order = $5,
		name = $6, custom_link = $7, content = $8, styles_scss = $9, theme_id = $10,
		collaboration_invite_ids = $11, history = $12, head_tags = $13, updated_at = NOW()
	WHERE id = $1`

func updatePageTx(ctx context.Context, q interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}, page *domain.Page) error {
	tag, err := q.Exec(ctx, updatePage,
		page.ID, page.WorkspaceID, page.ParentID, page.Mpath, page.ChildrenOrder, page.Name,
		page.CustomLink, page.Content, page.StylesScss, page.ThemeID,
		page.CollaborationInviteIDs, page.History, page.HeadTags,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPageNotFound
	}
	return nil
}

// Update updates an existing page
func (r *PageRepository) Update(page *domain.Page) (*domain.Page, error) {
	if err := updatePageTx(context.Background(), r.pool, page); err != nil {
		return nil, err
	}
	return page, nil
}

// SaveAll persists the batch in one transaction; structural moves hand the
// moved page, its rewritten descendants and both parents here
func (r *PageRepository) SaveAll(pages []*domain.Page) error {
	ctx := context.Background()
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, page := range pages {
		if err := updatePageTx(ctx, tx, page); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// DeleteSubtree removes the page and all descendants together with their
// collaboration grants and any bound public address, and persists the
// parent's updated childrenOrder, all in one transaction
func (r *PageRepository) DeleteSubtree(page *domain.Page, parent *domain.Page) error {
	ctx := context.Background()
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := updatePageTx(ctx, tx, parent); err != nil {
		return err
	}

	doomed := `SELECT id FROM pages WHERE id = $1 OR mpath LIKE '%' || $2 || '.%'`
	if _, err := tx.Exec(ctx,
		`DELETE FROM collab_grants WHERE scope = 'page' AND target_id IN (`+doomed+`)`,
		page.ID, page.ID.String()); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM public_addresses WHERE root_page_id IN (`+doomed+`)`,
		page.ID, page.ID.String()); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM pages WHERE id = $1 OR mpath LIKE '%' || $2 || '.%'`,
		page.ID, page.ID.String()); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteAllInWorkspace bulk-deletes collaboration grants, public addresses
// and pages for the workspace
func (r *PageRepository) DeleteAllInWorkspace(workspaceID uuid.UUID) error {
	ctx := context.Background()
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	inWorkspace := `SELECT id FROM pages WHERE workspace_id = $1`
	if _, err := tx.Exec(ctx,
		`DELETE FROM collab_grants WHERE scope = 'page' AND target_id IN (`+inWorkspace+`)`, workspaceID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM collab_grants WHERE scope = 'workspace' AND target_id = $1`, workspaceID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM public_addresses WHERE root_page_id IN (`+inWorkspace+`)`, workspaceID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM pages WHERE workspace_id = $1`, workspaceID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
