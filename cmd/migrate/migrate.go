package migrate

import (
	"errors"
	"fmt"

	"example.com/retrowall/internal/logger"

	gomigrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

var logg = logger.New()

// Run applies the schema migrations to the Postgres instance behind the
// record gateway, then returns. The gateway contract (profiles, posts,
// created_at ordering) assumes this schema exists.
func Run(databaseURL string) error {
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required in migrate mode")
	}

	m, err := gomigrate.New("file://./migrations/postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if err != nil && err != gomigrate.ErrNoChange {
		return fmt.Errorf("migration up failed: %w", err)
	}

	if err == gomigrate.ErrNoChange {
		logg.Info("migrate", "No new migrations to apply")
	} else {
		logg.Info("migrate", "Migrations applied successfully")
	}
	return nil
}
