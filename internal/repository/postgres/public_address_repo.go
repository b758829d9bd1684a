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

const addressColumns = `id, root_page_id, owner_id, subdomain, external_domain, created_at`

// PublicAddressRepository implements domain.PublicAddressRepository using PostgreSQL
type PublicAddressRepository struct {
	pool *pgxpool.Pool
}

// NewPublicAddressRepository creates a new PublicAddressRepository
func NewPublicAddressRepository(pool *pgxpool.Pool) *PublicAddressRepository {
	return &PublicAddressRepository{pool: pool}
}

func scanAddress(row pgRow) (*domain.PublicAddress, error) {
	var a domain.PublicAddress
	err := row.Scan(&a.ID, &a.RootPageID, &a.OwnerID, &a.Subdomain, &a.ExternalDomain, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAddressNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves an address by its ID
func (r *PublicAddressRepository) GetByID(id uuid.UUID) (*domain.PublicAddress, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+addressColumns+` FROM public_addresses WHERE id = $1`, id)
	return scanAddress(row)
}

// GetByRootPage retrieves the address bound to a top-level page
func (r *PublicAddressRepository) GetByRootPage(rootPageID uuid.UUID) (*domain.PublicAddress, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+addressColumns+` FROM public_addresses WHERE root_page_id = $1`, rootPageID)
	return scanAddress(row)
}

// GetBySubdomain retrieves an address by subdomain
func (r *PublicAddressRepository) GetBySubdomain(subdomain string) (*domain.PublicAddress, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+addressColumns+` FROM public_addresses WHERE subdomain = $1`, subdomain)
	return scanAddress(row)
}

// GetByExternalDomain retrieves an address by custom domain
func (r *PublicAddressRepository) GetByExternalDomain(dom string) (*domain.PublicAddress, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+addressColumns+` FROM public_addresses WHERE external_domain = $1`, dom)
	return scanAddress(row)
}

// GetByOwner retrieves all addresses owned by a user
func (r *PublicAddressRepository) GetByOwner(ownerID uuid.UUID) ([]*domain.PublicAddress, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+addressColumns+` FROM public_addresses WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PublicAddress
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create creates a new address. Unique indexes on subdomain, external domain
// and root page back the service-level checks against concurrent binds.
func (r *PublicAddressRepository) Create(address *domain.PublicAddress) (*domain.PublicAddress, error) {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO public_addresses (id, root_page_id, owner_id, subdomain, external_domain)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+addressColumns,
		address.ID, address.RootPageID, address.OwnerID, address.Subdomain, address.ExternalDomain)
	created, err := scanAddress(row)
	if err != nil {
		return nil, mapAddressConstraint(err)
	}
	return created, nil
}

func mapAddressConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "public_addresses_root_page_id_key" {
			return domain.ErrPageAlreadyBound
		}
		return domain.ErrAddressTaken
	}
	return err
}

// Delete deletes an address by ID
func (r *PublicAddressRepository) Delete(id uuid.UUID) error {
	tag, err := r.pool.Exec(context.Background(), `DELETE FROM public_addresses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}
