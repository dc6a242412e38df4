package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"go.uber.org/zap"

	"github.com/noah-isme/university-records/pkg/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations exposes the embedded migration files.
func Migrations() (fs.FS, error) {
	return fs.Sub(migrations, "migrations")
}

// Migrate applies every pending migration over a dedicated pgx connection.
func Migrate(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := pgx.Connect(ctx, cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect for migrations: %w", err)
	}
	defer conn.Close(ctx)

	table := cfg.MigrationsTable
	if table == "" {
		table = "schema_version"
	}
	m, err := tern.NewMigrator(ctx, conn, table)
	if err != nil {
		return fmt.Errorf("construct migrator: %w", err)
	}

	subtree, err := Migrations()
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	to := int32(len(m.Migrations))
	if from == to {
		logger.Info("database schema up to date", zap.Int32("version", to))
	} else {
		logger.Info("migrated database schema", zap.Int32("from", from), zap.Int32("to", to))
	}
	return nil
}
