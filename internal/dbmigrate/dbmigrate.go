package dbmigrate

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/outreach-agent/migrations"
)

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Run applies the embedded migrations to dsn. steps of 0 means all.
func Run(dsn string, direction string, steps int) error {
	if dsn == "" {
		return fmt.Errorf("migrate: database url is required")
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migrate: open embedded source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("migrate: init: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("close migrator")
		}
	}()

	switch direction {
	case DirectionUp:
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case DirectionDown:
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("migrate: unknown direction %q", direction)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Str("direction", direction).Msg("schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}

	version, dirty, verr := m.Version()
	if verr == nil {
		log.Info().Uint("version", version).Bool("dirty", dirty).Str("direction", direction).Msg("migrations applied")
	}
	return nil
}
