package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"asset-portal/internal/domain"
)

// IdentityRepository define el contrato de persistencia para identidades.
type IdentityRepository interface {
	Create(ctx context.Context, identity domain.Identity) error
	GetByID(ctx context.Context, id string) (domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (domain.Identity, error)
	UpdateProfile(ctx context.Context, identity domain.Identity) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

// PgIdentityRepository implementa IdentityRepository usando pgxpool.
type PgIdentityRepository struct {
	pools PoolProvider
}

func NewPgIdentityRepository(pools PoolProvider) *PgIdentityRepository {
	return &PgIdentityRepository{pools: pools}
}

const identityColumns = `id, email, password_hash, first_name, last_name, phone, address, city, country, role, created_at, updated_at`

func (r *PgIdentityRepository) Create(ctx context.Context, identity domain.Identity) error {
	pool, err := r.pools.Acquire(ctx)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO identities (` + identityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = pool.Exec(ctx, query,
		identity.ID,
		identity.Email,
		identity.PasswordHash,
		identity.FirstName,
		identity.LastName,
		identity.Phone,
		identity.Address,
		identity.City,
		identity.Country,
		string(identity.Role),
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *PgIdentityRepository) GetByID(ctx context.Context, id string) (domain.Identity, error) {
	// Un id que no es UUID no puede existir en la tabla.
	if _, err := uuid.Parse(id); err != nil {
		return domain.Identity{}, pgx.ErrNoRows
	}
	const query = `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PgIdentityRepository) GetByEmail(ctx context.Context, email string) (domain.Identity, error) {
	const query = `SELECT ` + identityColumns + ` FROM identities WHERE lower(email) = lower($1)`
	return r.getOne(ctx, query, email)
}

func (r *PgIdentityRepository) UpdateProfile(ctx context.Context, identity domain.Identity) error {
	pool, err := r.pools.Acquire(ctx)
	if err != nil {
		return err
	}
	const query = `
		UPDATE identities
		SET first_name = $2, last_name = $3, phone = $4, address = $5, city = $6, country = $7, updated_at = $8
		WHERE id = $1
	`
	tag, err := pool.Exec(ctx, query,
		identity.ID,
		identity.FirstName,
		identity.LastName,
		identity.Phone,
		identity.Address,
		identity.City,
		identity.Country,
		identity.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgIdentityRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	pool, err := r.pools.Acquire(ctx)
	if err != nil {
		return err
	}
	const query = `UPDATE identities SET password_hash = $2, updated_at = $3 WHERE id = $1`
	tag, err := pool.Exec(ctx, query, id, passwordHash, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgIdentityRepository) getOne(ctx context.Context, query string, arg string) (domain.Identity, error) {
	pool, err := r.pools.Acquire(ctx)
	if err != nil {
		return domain.Identity{}, err
	}
	var (
		identity domain.Identity
		role     string
	)
	err = pool.QueryRow(ctx, query, arg).Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.FirstName,
		&identity.LastName,
		&identity.Phone,
		&identity.Address,
		&identity.City,
		&identity.Country,
		&role,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		return domain.Identity{}, err
	}
	identity.Role = domain.Role(role)
	return identity, nil
}
