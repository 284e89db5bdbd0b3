package handlers

import (
	"context"
	"fmt"

	"edubba/application/commands"
	"edubba/application/ports"
	"edubba/application/services"
	"edubba/domain/config"
	"edubba/domain/core/entities"
	"edubba/domain/events"
	pkgerrors "edubba/pkg/errors"

	"go.uber.org/zap"
)

// CreateNodeHandler builds, validates and stores new memory nodes
type CreateNodeHandler struct {
	nodeRepo ports.NodeRepository
	writer   *services.NodeWriter
	locker   ports.NodeLocker
	cfg      *config.DomainConfig
	logger   *zap.Logger
}

// NewCreateNodeHandler creates a new create node handler
func NewCreateNodeHandler(
	nodeRepo ports.NodeRepository,
	writer *services.NodeWriter,
	locker ports.NodeLocker,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *CreateNodeHandler {
	return &CreateNodeHandler{
		nodeRepo: nodeRepo,
		writer:   writer,
		locker:   locker,
		cfg:      cfg,
		logger:   logger,
	}
}

// Handle executes the create node command. The id is locked across the
// existence check and the write, so of two creates racing on one id only
// the first is stored and the second gets a Conflict.
func (h *CreateNodeHandler) Handle(ctx context.Context, cmd commands.CreateMemoryNodeCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	node, err := entities.NewMemoryNodeWithConfig(cmd.Fields, h.cfg)
	if err != nil {
		return h.writer.Reject(ctx, err)
	}

	release, err := h.locker.Lock(ctx, node.ID())
	if err != nil {
		return err
	}
	defer release()

	if _, err := ports.FindForUpdate(ctx, h.nodeRepo, node.ID()); err == nil {
		return pkgerrors.NewConflictError(fmt.Sprintf("memory node %s already exists", node.ID()))
	} else if !pkgerrors.IsNotFound(err) {
		return err
	}

	created := events.NewNodeCreated(
		node.ID(),
		node.Type(),
		node.Domains(),
		node.Classification(),
		node.IntegrityHash(),
		node.CreatedAt(),
	)
	if err := h.writer.Write(ctx, node, created); err != nil {
		return fmt.Errorf("failed to save node: %w", err)
	}

	h.logger.Info("Memory node created",
		zap.String("nodeID", node.ID().String()),
		zap.String("classification", string(node.Classification())),
		zap.String("embeddingModel", node.EmbeddingModel()),
	)
	return nil
}
