package handlers

import (
	"context"
	"fmt"

	"edubba/application/commands"
	"edubba/application/ports"
	"edubba/application/services"
	"edubba/domain/events"
	"edubba/pkg/utils"

	"go.uber.org/zap"
)

// DeleteNodeHandler handles node deletion commands
type DeleteNodeHandler struct {
	nodeRepo ports.NodeRepository
	writer   *services.NodeWriter
	locker   ports.NodeLocker
	logger   *zap.Logger
}

// NewDeleteNodeHandler creates a new delete node handler
func NewDeleteNodeHandler(
	nodeRepo ports.NodeRepository,
	writer *services.NodeWriter,
	locker ports.NodeLocker,
	logger *zap.Logger,
) *DeleteNodeHandler {
	return &DeleteNodeHandler{
		nodeRepo: nodeRepo,
		writer:   writer,
		locker:   locker,
		logger:   logger,
	}
}

// Handle executes the delete node command. Edges on other nodes that point
// at the deleted node are left in place.
func (h *DeleteNodeHandler) Handle(ctx context.Context, cmd commands.DeleteMemoryNodeCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	release, err := h.locker.Lock(ctx, cmd.NodeID)
	if err != nil {
		return err
	}
	defer release()

	node, err := ports.FindForUpdate(ctx, h.nodeRepo, cmd.NodeID)
	if err != nil {
		return err
	}

	event := events.NewNodeDeleted(node.ID(), node.Classification(), utils.NowUTC())
	if err := h.writer.Remove(ctx, node, event); err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}

	h.logger.Info("Memory node deleted", zap.String("nodeID", cmd.NodeID.String()))
	return nil
}
