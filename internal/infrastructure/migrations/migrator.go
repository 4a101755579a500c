package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed sql/*.sql
var files embed.FS

const dir = "sql"

// Migrator applies the embedded schema migrations with goose
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a migrator over db
func NewMigrator(db *sql.DB) (*Migrator, error) {
	goose.SetBaseFS(files)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	return &Migrator{db: db}, nil
}

// Up applies all pending migrations
func (m *Migrator) Up(ctx context.Context) error {
	log.Info().Msg("Applying database migrations")
	if err := goose.UpContext(ctx, m.db, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := m.Version(ctx)
	if err != nil {
		return err
	}
	log.Info().Int64("version", version).Msg("Migrations applied")
	return nil
}

// Status prints the applied state of every migration
func (m *Migrator) Status(ctx context.Context) error {
	if err := goose.StatusContext(ctx, m.db, dir); err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	return nil
}

// Version returns the current schema version
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}
