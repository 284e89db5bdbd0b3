// Package cache puts a bounded read-through cache in front of a node
// repository.
package cache

import (
	"context"
	"fmt"

	"edubba/application/ports"
	"edubba/domain/core/entities"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// NodeRepository caches FindByID results. Nodes are immutable, so cached
// pointers are shared between callers. Listings and FindByIDConsistent
// always go to the backend.
type NodeRepository struct {
	next  ports.NodeRepository
	nodes *lru.Cache[uuid.UUID, *entities.MemoryNode]
}

// NewNodeRepository wraps next with an LRU of the given size.
func NewNodeRepository(next ports.NodeRepository, size int) (*NodeRepository, error) {
	nodes, err := lru.New[uuid.UUID, *entities.MemoryNode](size)
	if err != nil {
		return nil, fmt.Errorf("create node cache: %w", err)
	}
	return &NodeRepository{next: next, nodes: nodes}, nil
}

// Save writes through and refreshes the cached copy.
func (r *NodeRepository) Save(ctx context.Context, node *entities.MemoryNode) error {
	if err := r.next.Save(ctx, node); err != nil {
		r.nodes.Remove(node.ID())
		return err
	}
	r.nodes.Add(node.ID(), node)
	return nil
}

func (r *NodeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.MemoryNode, error) {
	if node, ok := r.nodes.Get(id); ok {
		return node, nil
	}
	node, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.nodes.Add(id, node)
	return node, nil
}

// FindByIDConsistent reads past the cache and refreshes it with the
// answer. A node gone from the backend is dropped from the cache.
func (r *NodeRepository) FindByIDConsistent(ctx context.Context, id uuid.UUID) (*entities.MemoryNode, error) {
	node, err := r.next.FindByID(ctx, id)
	if err != nil {
		r.nodes.Remove(id)
		return nil, err
	}
	r.nodes.Add(id, node)
	return node, nil
}

func (r *NodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.nodes.Remove(id)
	return r.next.Delete(ctx, id)
}

func (r *NodeRepository) List(ctx context.Context, filter ports.NodeFilter) (*ports.NodePage, error) {
	return r.next.List(ctx, filter)
}

// Len reports how many nodes are cached.
func (r *NodeRepository) Len() int {
	return r.nodes.Len()
}
