package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens a connection pool and verifies connectivity
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// schema holds the idempotent DDL applied at startup. The partial unique
// indexes on public_addresses allow many NULLs while keeping live subdomains
// and domains exclusive.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		auth0_id TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL,
		name TEXT,
		picture_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS workspaces (
		id UUID PRIMARY KEY,
		owner_user_id UUID NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		private_root_page_id UUID,
		public_root_page_id UUID,
		collaboration_invite_ids JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS pages (
		id UUID PRIMARY KEY,
		workspace_id UUID NOT NULL REFERENCES workspaces(id),
		parent_id UUID REFERENCES pages(id),
		mpath TEXT NOT NULL DEFAULT '',
		children_order JSONB NOT NULL DEFAULT '[]',
		name TEXT NOT NULL,
		short_id TEXT NOT NULL,
		custom_link TEXT,
		content TEXT NOT NULL DEFAULT '',
		styles_scss TEXT,
		theme_id TEXT,
		root_kind TEXT NOT NULL DEFAULT '',
		collaboration_invite_ids JSONB NOT NULL DEFAULT '[]',
		history JSONB NOT NULL DEFAULT '[]',
		head_tags TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT pages_short_id_key UNIQUE (short_id)
	)`,
	`CREATE INDEX IF NOT EXISTS pages_workspace_id_idx ON pages (workspace_id)`,
	`CREATE INDEX IF NOT EXISTS pages_mpath_idx ON pages (mpath text_pattern_ops)`,
	`CREATE TABLE IF NOT EXISTS collab_grants (
		id UUID PRIMARY KEY,
		scope TEXT NOT NULL,
		target_id UUID NOT NULL,
		user_id UUID NOT NULL REFERENCES users(id),
		invite_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT collab_grants_user_target_key UNIQUE (user_id, scope, target_id)
	)`,
	`CREATE TABLE IF NOT EXISTS public_addresses (
		id UUID PRIMARY KEY,
		root_page_id UUID NOT NULL REFERENCES pages(id),
		owner_id UUID NOT NULL REFERENCES users(id),
		subdomain TEXT,
		external_domain TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT public_addresses_root_page_id_key UNIQUE (root_page_id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS public_addresses_subdomain_key ON public_addresses (subdomain) WHERE subdomain IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS public_addresses_external_domain_key ON public_addresses (external_domain) WHERE external_domain IS NOT NULL`,
}

// EnsureSchema applies the DDL statements in order
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
