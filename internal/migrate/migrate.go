// Package migrate applies the catalog's schema migrations with
// golang-migrate/migrate, adapted from the teacher's internal/db package:
// same file-source + pgx-stdlib driver pairing, with the River-specific CLI
// step dropped (river itself was already dropped, see DESIGN.md) and the
// config type swapped for this repo's internal/config.DatabaseConfig.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	mgpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"lumina/internal/config"
	"lumina/internal/logging"
)

// Config configures one migration run.
type Config struct {
	DB  config.DatabaseConfig
	Dir string // path to the migrations directory, e.g. "migrations"
}

func (c Config) url() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s&search_path=public",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.DBName, c.DB.SSL,
	)
}

// Up applies every pending migration under c.Dir.
func Up(ctx context.Context, c Config) error {
	absDir, err := filepath.Abs(c.Dir)
	if err != nil {
		return fmt.Errorf("migrate: resolve migrations dir: %w", err)
	}

	sqlDB, err := sql.Open("pgx", c.url())
	if err != nil {
		return fmt.Errorf("migrate: open pgx: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("migrate: ping: %w", err)
	}

	driver, err := mgpg.WithInstance(sqlDB, &mgpg.Config{})
	if err != nil {
		return fmt.Errorf("migrate: postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+absDir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate: init migrator: %w", err)
	}
	defer func() {
		if _, err := m.Close(); err != nil && !strings.Contains(err.Error(), "no such file or directory") {
			logging.L().Warnw("migrate: close", "error", err)
		}
	}()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate: up: %w", err)
	} else if err == migrate.ErrNoChange {
		logging.L().Infow("migrate: schema already up to date")
	} else {
		logging.L().Infow("migrate: schema migrated")
	}
	return nil
}

// Down rolls back the steps most recent migrations, for operator recovery.
func Down(ctx context.Context, c Config, steps int) error {
	absDir, err := filepath.Abs(c.Dir)
	if err != nil {
		return fmt.Errorf("migrate: resolve migrations dir: %w", err)
	}

	sqlDB, err := sql.Open("pgx", c.url())
	if err != nil {
		return fmt.Errorf("migrate: open pgx: %w", err)
	}
	defer sqlDB.Close()

	driver, err := mgpg.WithInstance(sqlDB, &mgpg.Config{})
	if err != nil {
		return fmt.Errorf("migrate: postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+absDir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate: init migrator: %w", err)
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate: down %d: %w", steps, err)
	}
	return nil
}
