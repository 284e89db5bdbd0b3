// Package memory keeps memory nodes in process. It stores the serialized
// document, like the durable backends, so every read goes back through the
// aggregate constructor.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"edubba/application/ports"
	"edubba/domain/config"
	"edubba/domain/core/entities"
	pkgerrors "edubba/pkg/errors"

	"github.com/google/uuid"
)

// NodeRepository is an in-memory ports.NodeRepository, safe for
// concurrent use.
type NodeRepository struct {
	mu    sync.RWMutex
	docs  map[uuid.UUID][]byte
	order []uuid.UUID
	cfg   *config.DomainConfig
}

// NewNodeRepository creates an empty repository that validates reads
// against cfg.
func NewNodeRepository(cfg *config.DomainConfig) *NodeRepository {
	return &NodeRepository{
		docs: make(map[uuid.UUID][]byte),
		cfg:  cfg,
	}
}

// Save stores or replaces the node.
func (r *NodeRepository) Save(ctx context.Context, node *entities.MemoryNode) error {
	doc, err := json.Marshal(node)
	if err != nil {
		return pkgerrors.NewDatabaseError("save", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[node.ID()]; !exists {
		r.order = append(r.order, node.ID())
		sort.Slice(r.order, func(i, j int) bool {
			return r.order[i].String() < r.order[j].String()
		})
	}
	r.docs[node.ID()] = doc
	return nil
}

// FindByID returns the node or a not-found error.
func (r *NodeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.MemoryNode, error) {
	r.mu.RLock()
	doc, ok := r.docs[id]
	r.mu.RUnlock()

	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("memory node %s", id))
	}
	return entities.DecodeMemoryNode(doc, r.cfg)
}

// Delete removes the node or returns a not-found error.
func (r *NodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("memory node %s", id))
	}
	delete(r.docs, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List walks nodes in id order. The cursor is the last id of the previous
// page. A document that fails revalidation fails the listing.
func (r *NodeRepository) List(ctx context.Context, filter ports.NodeFilter) (*ports.NodePage, error) {
	r.mu.RLock()
	ids := append([]uuid.UUID(nil), r.order...)
	docs := make(map[uuid.UUID][]byte, len(ids))
	for _, id := range ids {
		docs[id] = r.docs[id]
	}
	r.mu.RUnlock()

	limit := filter.PageSize()
	page := &ports.NodePage{Nodes: []*entities.MemoryNode{}}

	for _, id := range ids {
		if filter.Cursor != "" && id.String() <= filter.Cursor {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node, err := entities.DecodeMemoryNode(docs[id], r.cfg)
		if err != nil {
			return nil, err
		}
		if !filter.Matches(node) {
			continue
		}
		if len(page.Nodes) == limit {
			page.NextCursor = page.Nodes[len(page.Nodes)-1].ID().String()
			break
		}
		page.Nodes = append(page.Nodes, node)
	}
	return page, nil
}

// Len reports how many nodes are stored.
func (r *NodeRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}
