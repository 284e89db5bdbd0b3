package handlers

import (
	"context"
	"fmt"

	"edubba/application/commands"
	"edubba/application/ports"
	"edubba/application/services"
	"edubba/domain/core/entities"
	"edubba/domain/core/valueobjects"
	"edubba/domain/events"
	"edubba/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UpdateNodeHandler applies revisions to stored nodes. Every revision is a
// full reconstruction, so a change that breaks an invariant is refused and
// the stored node stays as it was.
type UpdateNodeHandler struct {
	nodeRepo ports.NodeRepository
	writer   *services.NodeWriter
	locker   ports.NodeLocker
	logger   *zap.Logger
}

// NewUpdateNodeHandler creates a new update node handler
func NewUpdateNodeHandler(
	nodeRepo ports.NodeRepository,
	writer *services.NodeWriter,
	locker ports.NodeLocker,
	logger *zap.Logger,
) *UpdateNodeHandler {
	return &UpdateNodeHandler{
		nodeRepo: nodeRepo,
		writer:   writer,
		locker:   locker,
		logger:   logger,
	}
}

// revision produces the revised node and the event describing it.
type revision func(node *entities.MemoryNode) (*entities.MemoryNode, events.DomainEvent, error)

func (h *UpdateNodeHandler) revise(ctx context.Context, id uuid.UUID, op string, apply revision) error {
	release, err := h.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	node, err := ports.FindForUpdate(ctx, h.nodeRepo, id)
	if err != nil {
		return err
	}

	revised, event, err := apply(node)
	if err != nil {
		return h.writer.Reject(ctx, err)
	}

	if err := h.writer.Write(ctx, revised, event); err != nil {
		return fmt.Errorf("failed to save node: %w", err)
	}

	h.logger.Info("Memory node revised",
		zap.String("nodeID", id.String()),
		zap.String("operation", op),
	)
	return nil
}

// HandleEscalate executes the escalate classification command
func (h *UpdateNodeHandler) HandleEscalate(ctx context.Context, cmd commands.EscalateClassificationCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return h.revise(ctx, cmd.NodeID, "escalate", func(node *entities.MemoryNode) (*entities.MemoryNode, events.DomainEvent, error) {
		revised, err := node.Escalate(cmd.Classification, cmd.Artifact)
		if err != nil {
			return nil, nil, err
		}

		var tier valueobjects.StorageTier
		if a := revised.Artifact(); a != nil {
			tier = a.Tier
		}
		event := events.NewNodeReclassified(revised.ID(), node.Classification(), revised.Classification(), tier, utils.NowUTC())
		return revised, event, nil
	})
}

// HandleMastery executes the update mastery command
func (h *UpdateNodeHandler) HandleMastery(ctx context.Context, cmd commands.UpdateMasteryCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return h.revise(ctx, cmd.NodeID, "mastery", func(node *entities.MemoryNode) (*entities.MemoryNode, events.DomainEvent, error) {
		revised, err := node.WithMastery(cmd.Mastery)
		if err != nil {
			return nil, nil, err
		}
		return revised, events.NewNodeMasteryUpdated(revised.ID(), *revised.Mastery(), utils.NowUTC()), nil
	})
}

// HandleRecall executes the record recall command
func (h *UpdateNodeHandler) HandleRecall(ctx context.Context, cmd commands.RecordRecallCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	at := cmd.At
	if at.IsZero() {
		at = utils.NowUTC()
	}

	return h.revise(ctx, cmd.NodeID, "recall", func(node *entities.MemoryNode) (*entities.MemoryNode, events.DomainEvent, error) {
		revised, err := node.RecordRecall(cmd.DistortionScore, at)
		if err != nil {
			return nil, nil, err
		}
		return revised, events.NewNodeRecalled(revised.ID(), revised.Recall(), at), nil
	})
}

// HandleLink executes the link nodes command. The target is not required
// to exist: edges may point at memories held elsewhere.
func (h *UpdateNodeHandler) HandleLink(ctx context.Context, cmd commands.LinkNodesCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	edge := cmd.Edge
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = utils.NowUTC()
	}

	return h.revise(ctx, cmd.SourceID, "link", func(node *entities.MemoryNode) (*entities.MemoryNode, events.DomainEvent, error) {
		revised, err := node.Link(edge)
		if err != nil {
			return nil, nil, err
		}
		return revised, events.NewNodesLinked(revised.ID(), edge, edge.CreatedAt), nil
	})
}
