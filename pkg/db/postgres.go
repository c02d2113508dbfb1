package db

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DB wraps a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

// Connect opens a connection pool with retry logic.
func Connect(ctx context.Context, dsn string, log *zap.Logger) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	for i := 1; i <= 30; i++ {
		if err = pool.Ping(ctx); err == nil {
			log.Info("connected to postgres")
			return &DB{Pool: pool, log: log}, nil
		}
		log.Info("waiting for postgres", zap.Int("attempt", i), zap.Error(err))
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	pool.Close()
	return nil, fmt.Errorf("postgres: failed after 30 attempts: %w", err)
}

// RunMigrations applies the .sql files of migrationFS in name order, each in
// its own transaction, skipping the ones recorded in schema_migrations.
func (d *DB) RunMigrations(ctx context.Context, migrationFS fs.FS) error {
	_, err := d.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := sqlFiles(migrationFS)
	if err != nil {
		return err
	}

	for _, file := range files {
		var applied bool
		if err := d.Pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)", file,
		).Scan(&applied); err != nil {
			return fmt.Errorf("check %s: %w", file, err)
		}
		if applied {
			d.log.Debug("migration already applied", zap.String("file", file))
			continue
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		if err := d.apply(ctx, file, string(content)); err != nil {
			return err
		}
		d.log.Info("applied migration", zap.String("file", file))
	}
	return nil
}

func (d *DB) apply(ctx context.Context, file, content string) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin %s: %w", file, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, content); err != nil {
		return fmt.Errorf("exec %s: %w", file, err)
	}
	if _, err = tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", file); err != nil {
		return fmt.Errorf("record %s: %w", file, err)
	}
	return tx.Commit(ctx)
}

// sqlFiles lists the top-level .sql files of fsys, sorted by name.
func sqlFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Close shuts down the pool.
func (d *DB) Close() { d.Pool.Close() }
