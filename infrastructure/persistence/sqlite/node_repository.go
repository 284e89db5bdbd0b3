// Package sqlite stores memory nodes in a local SQLite database, for
// single-host deployments and the CLI.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"edubba/application/ports"
	"edubba/domain/config"
	"edubba/domain/core/entities"
	pkgerrors "edubba/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// NodeRepository implements ports.NodeRepository on SQLite.
type NodeRepository struct {
	db     *sql.DB
	cfg    *config.DomainConfig
	logger *zap.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string, cfg *config.DomainConfig, logger *zap.Logger) (*NodeRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	r := &NodeRepository{db: db, cfg: cfg, logger: logger}
	if err := migrate(context.Background(), db, migrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("SQLite node store opened", zap.String("path", path))
	return r, nil
}

// Close closes the database.
func (r *NodeRepository) Close() error {
	return r.db.Close()
}

// Save inserts or replaces the node and its domain index rows.
func (r *NodeRepository) Save(ctx context.Context, node *entities.MemoryNode) error {
	doc, err := node.MarshalJSON()
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal node", err)
	}

	var dissonance, proficiency sql.NullFloat64
	if l := node.LatentContext(); l != nil {
		dissonance = sql.NullFloat64{Float64: l.DissonanceScore, Valid: true}
	}
	if m := node.Mastery(); m != nil {
		proficiency = sql.NullFloat64{Float64: m.UserProficiency, Valid: true}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.NewDatabaseError("begin", err)
	}
	defer tx.Rollback()

	id := node.ID().String()
	_, err = tx.ExecContext(ctx, `INSERT INTO memory_nodes (id, node_type, classification, dissonance, proficiency, integrity_hash, document, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			node_type = excluded.node_type,
			classification = excluded.classification,
			dissonance = excluded.dissonance,
			proficiency = excluded.proficiency,
			integrity_hash = excluded.integrity_hash,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		id, string(node.Type()), string(node.Classification()), dissonance, proficiency,
		node.IntegrityHash(), string(doc), time.Now().Unix())
	if err != nil {
		return pkgerrors.NewDatabaseError("save node", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_node_domains WHERE node_id = ?`, id); err != nil {
		return pkgerrors.NewDatabaseError("save node domains", err)
	}
	for _, d := range node.Domains() {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO memory_node_domains (node_id, domain) VALUES (?, ?)`, id, string(d)); err != nil {
			return pkgerrors.NewDatabaseError("save node domains", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return pkgerrors.NewDatabaseError("commit", err)
	}
	return nil
}

// FindByID retrieves a node by its ID
func (r *NodeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.MemoryNode, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT document FROM memory_nodes WHERE id = ?`, id.String()).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("memory node %s", id))
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get node", err)
	}
	return entities.DecodeMemoryNode([]byte(doc), r.cfg)
}

// Delete removes a node and its domain rows.
func (r *NodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM memory_nodes WHERE id = ?`, id.String())
	if err != nil {
		return pkgerrors.NewDatabaseError("delete node", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("memory node %s", id))
	}
	return nil
}

// List returns nodes in id order, filtered in SQL. The cursor is the last
// id of the previous page. A stored document that fails revalidation fails
// the whole listing, as it does in FindByID.
func (r *NodeRepository) List(ctx context.Context, filter ports.NodeFilter) (*ports.NodePage, error) {
	var (
		where []string
		args  []any
	)
	if filter.Cursor != "" {
		where = append(where, "id > ?")
		args = append(args, filter.Cursor)
	}
	if filter.MinDissonance != nil {
		where = append(where, "dissonance IS NOT NULL AND dissonance > ?")
		args = append(args, *filter.MinDissonance)
	}
	if filter.MinProficiency != nil {
		where = append(where, "proficiency IS NOT NULL AND proficiency > ?")
		args = append(args, *filter.MinProficiency)
	}
	if filter.Classification != "" {
		where = append(where, "classification = ?")
		args = append(args, string(filter.Classification))
	}
	if filter.Type != "" {
		where = append(where, "node_type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Domain != "" {
		where = append(where, "EXISTS (SELECT 1 FROM memory_node_domains d WHERE d.node_id = memory_nodes.id AND d.domain = ?)")
		args = append(args, string(filter.Domain))
	}

	query := "SELECT document FROM memory_nodes"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := filter.PageSize()
	query += " ORDER BY id LIMIT ?"
	args = append(args, limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list nodes", err)
	}
	defer rows.Close()

	page := &ports.NodePage{Nodes: []*entities.MemoryNode{}}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, pkgerrors.NewDatabaseError("list nodes", err)
		}
		if len(page.Nodes) == limit {
			page.NextCursor = page.Nodes[limit-1].ID().String()
			break
		}
		node, err := entities.DecodeMemoryNode([]byte(doc), r.cfg)
		if err != nil {
			r.logger.Warn("Unreadable memory node in listing", zap.Error(err))
			return nil, err
		}
		page.Nodes = append(page.Nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("list nodes", err)
	}
	return page, nil
}
