package storage

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/storage/migrations"
)

// runMigrations applies all pending goose migrations
func (s *Storage) runMigrations() error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(context.Background(), s.db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the current migration version
func (s *Storage) SchemaVersion() (int64, error) {
	return goose.GetDBVersionContext(context.Background(), s.db)
}
