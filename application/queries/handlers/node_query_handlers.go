package handlers

import (
	"context"

	"edubba/application/ports"
	"edubba/application/queries"
	"edubba/application/queries/bus"

	"go.uber.org/zap"
)

// NodeQueryHandler serves read-side node queries
type NodeQueryHandler struct {
	nodeRepo ports.NodeRepository
	logger   *zap.Logger
}

// NewNodeQueryHandler creates a new node query handler
func NewNodeQueryHandler(nodeRepo ports.NodeRepository, logger *zap.Logger) *NodeQueryHandler {
	return &NodeQueryHandler{
		nodeRepo: nodeRepo,
		logger:   logger,
	}
}

// HandleGet executes the get node query
func (h *NodeQueryHandler) HandleGet(ctx context.Context, query queries.GetMemoryNodeQuery) (*queries.NodeView, error) {
	node, err := h.nodeRepo.FindByID(ctx, query.NodeID)
	if err != nil {
		return nil, err
	}
	return &queries.NodeView{MemoryNode: node}, nil
}

// HandleList executes the list nodes query
func (h *NodeQueryHandler) HandleList(ctx context.Context, query queries.ListMemoryNodesQuery) (*queries.ListMemoryNodesResult, error) {
	page, err := h.nodeRepo.List(ctx, query.Filter)
	if err != nil {
		return nil, err
	}

	views := make([]queries.NodeView, len(page.Nodes))
	for i, n := range page.Nodes {
		views[i] = queries.NodeView{MemoryNode: n}
	}

	h.logger.Debug("Listed memory nodes",
		zap.Int("count", len(views)),
		zap.Bool("hasMore", page.NextCursor != ""),
	)

	return &queries.ListMemoryNodesResult{
		Nodes:      views,
		Count:      len(views),
		NextCursor: page.NextCursor,
	}, nil
}

// RegisterAll binds the node queries to h.
func (h *NodeQueryHandler) RegisterAll(b *bus.QueryBus) error {
	if err := bus.Handle(b, h.HandleGet); err != nil {
		return err
	}
	return bus.Handle(b, h.HandleList)
}
