package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"guidehub/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/tern/v2/migrate"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const versionTable = "schema_version"

// Migrate applies the embedded migrations on a dedicated connection and
// returns how many ran. tern serialises concurrent runs with an advisory
// lock and wraps each migration in its own transaction.
func Migrate(ctx context.Context, config utils.DatabaseConfig, log *zap.Logger) (int, error) {
	log = log.With(zap.String("component", "migrate"))

	connConfig, err := pgx.ParseConfig(ConnString(config))
	if err != nil {
		return 0, fmt.Errorf("parse migration connection config: %w", err)
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return 0, fmt.Errorf("connect for migrations: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	m, err := newMigrator(ctx, conn)
	if err != nil {
		return 0, err
	}

	applied := 0
	m.OnStart = func(sequence int32, name, direction, _ string) {
		applied++
		log.Info("Applying migration",
			zap.Int32("sequence", sequence),
			zap.String("name", name),
			zap.String("direction", direction))
	}

	if err := m.Migrate(ctx); err != nil {
		log.Error("Migration failed", zap.Error(err))
		return applied, fmt.Errorf("run migrations: %w", err)
	}

	version, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return applied, fmt.Errorf("read schema version: %w", err)
	}
	log.Info("Schema up to date", zap.Int32("version", version))

	return applied, nil
}

// newMigrator loads the embedded migrations. It does not touch conn.
func newMigrator(ctx context.Context, conn *pgx.Conn) (*migrate.Migrator, error) {
	m, err := migrate.NewMigrator(ctx, conn, versionTable)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	files, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	if err := m.LoadMigrations(files); err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	return m, nil
}
