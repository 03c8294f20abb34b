package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateIdentity  = errors.New("identity already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrInvalidToken       = errors.New("token invalid")
	ErrExpiredToken       = errors.New("token expired")
	ErrRateLimited        = errors.New("rate limited")
)

// InputError describe un campo inválido; errors.Is(err, ErrInvalidInput) es cierto.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalidInput(field, message string) error {
	return &InputError{Field: field, Message: message}
}

// storeError traduce errores del repositorio a la taxonomía del servicio.
func storeError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
