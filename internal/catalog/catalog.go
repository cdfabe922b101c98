// Package catalog is the typed row layer over the embedded relational store (C2).
// Every entity exposes Create / lookup-by-id|uuid|path / UpdateByID / Delete, matching
// the capability set used throughout the scan pipeline, task engine and filter DSL.
package catalog

import (
	"context"
	"fmt"

	"lumina/internal/config"
	"lumina/internal/logging"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Catalog wraps the gorm handle used by every typed row mapper in this package.
type Catalog struct {
	db *gorm.DB
}

// Open connects to the catalog store and verifies connectivity.
func Open(cfg config.DatabaseConfig) (*Catalog, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSL)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open catalog store: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap catalog pool: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping catalog store: %w", err)
	}
	logging.L().Infow("catalog connected", "host", cfg.Host, "db", cfg.DBName)
	return &Catalog{db: db}, nil
}

// AutoMigrate creates/updates every table this package owns. Schema evolution beyond
// additive columns is handled by the SQL migrations under migrations/ (golang-migrate);
// AutoMigrate here only keeps a fresh install bootstrapped without hand-written DDL.
func (c *Catalog) AutoMigrate() error {
	return c.db.AutoMigrate(
		&Media{},
		&MediaExtra{},
		&Album{},
		&AlbumMedia{},
		&Tag{},
		&MediaTag{},
		&CustomMetadata{},
		&Queue{},
		&Job{},
		&Kv{},
		&CustomTaskRun{},
	)
}

// Close releases the underlying connection pool.
func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx runs fn inside a single catalog transaction, wrapping §5's ordering guarantee
// that change-detection, stale-row deletion and new-row insertion for one scanned path
// are sequential and atomic.
func (c *Catalog) WithTx(ctx context.Context, fn func(tx *Catalog) error) error {
	return c.db.WithContext(ctx).Transaction(func(txDB *gorm.DB) error {
		return fn(&Catalog{db: txDB})
	})
}

// DB exposes the underlying handle for packages (views, migrations) that need raw
// query composition beyond the typed row mappers below.
func (c *Catalog) DB(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}
