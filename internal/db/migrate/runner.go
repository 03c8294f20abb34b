// Package migrate aplica las migraciones SQL embebidas usando golang-migrate.
package migrate

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"asset-portal/internal/db"
)

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// ErrNoChange se devuelve cuando no hay migraciones pendientes en la dirección pedida.
var ErrNoChange = migrate.ErrNoChange

// ValidateDirection acepta solo "up" o "down".
func ValidateDirection(direction string) error {
	if direction != DirectionUp && direction != DirectionDown {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}
	return nil
}

// Run aplica las migraciones en la dirección indicada contra dsn.
// Devuelve ErrNoChange si la base ya estaba en la versión pedida.
func Run(dsn string, direction string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if err := ValidateDirection(direction); err != nil {
		return err
	}

	sourceDriver, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	return step(m, direction)
}

type stepper interface {
	Up() error
	Down() error
}

// step aplica la dirección pedida; ErrNoChange se devuelve tal cual para que el llamador decida.
func step(m stepper, direction string) error {
	var err error
	switch direction {
	case DirectionUp:
		err = m.Up()
	case DirectionDown:
		err = m.Down()
	default:
		return ValidateDirection(direction)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return ErrNoChange
	}
	return err
}
