package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolProvider entrega el pool compartido; db.LazyPool lo implementa.
type PoolProvider interface {
	Acquire(ctx context.Context) (*pgxpool.Pool, error)
}

const uniqueViolationCode = "23505"

// ErrDuplicateEmail indica que ya existe una identidad con ese email normalizado.
var ErrDuplicateEmail = errors.New("duplicate email")

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
