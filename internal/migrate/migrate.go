// Package migrate applies the numbered schema/data migration list. Each
// migration is individually idempotent and the ledger table keeps the
// whole list idempotent across runs.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"
)

// Migration is one numbered step. Run executes inside its own transaction.
type Migration struct {
	Version int
	Name    string
	Run     func(ctx context.Context, tx *sql.Tx) error
}

// Apply runs every pending migration in version order and returns the
// number applied. Safe to call repeatedly.
func Apply(ctx context.Context, db *sql.DB) (int, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return 0, fmt.Errorf("create ledger: %w", err)
	}

	migrations := All()
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })

	applied := 0
	for _, m := range migrations {
		done, err := isApplied(ctx, db, m.Version)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}
		if err := runOne(ctx, db, m); err != nil {
			return applied, fmt.Errorf("migration %d %s: %w", m.Version, m.Name, err)
		}
		log.Printf("applied migration %d %s", m.Version, m.Name)
		applied++
	}
	return applied, nil
}

func isApplied(ctx context.Context, db *sql.DB, version int) (bool, error) {
	row := db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)
	`, version)
	var done bool
	err := row.Scan(&done)
	return done, err
}

func runOne(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := m.Run(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO schema_migrations (version, name) VALUES ($1, $2)
		ON CONFLICT (version) DO NOTHING
	`, m.Version, m.Name); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
