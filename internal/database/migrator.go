package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Migrator applies the embedded SQL migrations in filename order and
// records each one in schema_migrations.
type Migrator struct {
	pool   *pgxpool.Pool
	files  fs.FS
	logger *zap.Logger
}

func NewMigrator(pool *pgxpool.Pool, files fs.FS, logger *zap.Logger) *Migrator {
	return &Migrator{
		pool:   pool,
		files:  files,
		logger: logger.Named("migrator"),
	}
}

// RunMigrations executes all pending database migrations.
// Files whose name contains "reset" are never run automatically.
func (m *Migrator) RunMigrations(ctx context.Context) error {
	m.logger.Info("starting database migrations")

	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	appliedMigrations, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	migrationFiles, err := m.pending()
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	migrationsRun := 0
	for _, filename := range migrationFiles {
		if strings.Contains(filename, "reset") {
			m.logger.Info("skipping reset script", zap.String("file", filename))
			continue
		}
		if appliedMigrations[filename] {
			m.logger.Debug("already applied", zap.String("file", filename))
			continue
		}

		content, err := fs.ReadFile(m.files, filename)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		m.logger.Info("running migration", zap.String("file", filename))
		if _, err := m.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", filename, err)
		}

		if err := m.recordMigration(ctx, filename); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", filename, err)
		}
		migrationsRun++
	}

	if migrationsRun > 0 {
		m.logger.Info("migrations applied", zap.Int("count", migrationsRun))
	} else {
		m.logger.Info("database is up to date")
	}
	return nil
}

func (m *Migrator) pending() ([]string, error) {
	entries, err := fs.ReadDir(m.files, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := m.pool.Exec(ctx, query)
	return err
}

func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := m.pool.Query(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, err
		}
		applied[filename] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) recordMigration(ctx context.Context, filename string) error {
	query := `
		INSERT INTO schema_migrations (filename)
		VALUES ($1)
		ON CONFLICT (filename) DO NOTHING
	`
	_, err := m.pool.Exec(ctx, query, filename)
	return err
}
