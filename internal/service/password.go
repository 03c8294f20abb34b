package service

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignora todo lo que pase de 72 bytes.
const maxPasswordBytes = 72

// PasswordPolicy define la fortaleza mínima aceptada para contraseñas nuevas.
type PasswordPolicy struct {
	MinLength       int
	RequireNonAlpha bool
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 8, RequireNonAlpha: true}
}

func (p PasswordPolicy) Validate(password string) error {
	if password == "" {
		return invalidInput("password", "password is required")
	}
	if utf8.RuneCountInString(password) < p.MinLength {
		return invalidInput("password", fmt.Sprintf("password must be at least %d characters", p.MinLength))
	}
	if len(password) > maxPasswordBytes {
		return invalidInput("password", fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	if p.RequireNonAlpha && !hasNonAlpha(password) {
		return invalidInput("password", "password must contain at least one non-alphabetic character")
	}
	return nil
}

func hasNonAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// PasswordHasher oculta el algoritmo de hash usado para las contraseñas.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare devuelve false sin error cuando la contraseña no coincide.
func (h *BcryptHasher) Compare(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
