package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration moves the schema from Version-1 to Version.
type Migration struct {
	Version     int
	Description string
	Statements  []string
}

// SchemaVersion records one applied migration.
type SchemaVersion struct {
	Version     int
	Description string
	AppliedAt   time.Time
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "memory nodes and domain index",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS memory_nodes (
				id TEXT PRIMARY KEY,
				node_type TEXT NOT NULL,
				classification TEXT NOT NULL,
				dissonance REAL,
				proficiency REAL,
				integrity_hash TEXT NOT NULL,
				document TEXT NOT NULL,
				updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
			)`,
			`CREATE TABLE IF NOT EXISTS memory_node_domains (
				node_id TEXT NOT NULL REFERENCES memory_nodes(id) ON DELETE CASCADE,
				domain TEXT NOT NULL,
				PRIMARY KEY (node_id, domain)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_memory_nodes_classification ON memory_nodes(classification)`,
			`CREATE INDEX IF NOT EXISTS idx_memory_node_domains_domain ON memory_node_domains(domain)`,
		},
	},
	{
		Version:     2,
		Description: "score indexes for review queues",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_memory_nodes_dissonance ON memory_nodes(dissonance)`,
			`CREATE INDEX IF NOT EXISTS idx_memory_nodes_proficiency ON memory_nodes(proficiency)`,
		},
	},
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at INTEGER NOT NULL
)`

// migrate applies every migration newer than the recorded version, each in
// its own transaction.
func migrate(ctx context.Context, db *sql.DB, set []Migration) error {
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	current, err := currentVersion(ctx, db)
	if err != nil {
		return err
	}

	for i, m := range set {
		if m.Version != i+1 {
			return fmt.Errorf("migration %d out of order (expected %d)", m.Version, i+1)
		}
		if m.Version <= current {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(len(stmt), 60)], err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
		m.Version, m.Description, time.Now().UTC().Unix(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func currentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// SchemaHistory lists the applied migrations, oldest first.
func (r *NodeRepository) SchemaHistory(ctx context.Context) ([]SchemaVersion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT version, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []SchemaVersion
	for rows.Next() {
		var (
			sv      SchemaVersion
			applied int64
		)
		if err := rows.Scan(&sv.Version, &sv.Description, &applied); err != nil {
			return nil, err
		}
		sv.AppliedAt = time.Unix(applied, 0).UTC()
		history = append(history, sv)
	}
	return history, rows.Err()
}
