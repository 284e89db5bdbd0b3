package services

import (
	"context"
	"errors"

	"edubba/application/ports"
	"edubba/domain/core/entities"
	"edubba/domain/events"
	pkgerrors "edubba/pkg/errors"
	"edubba/pkg/utils"

	"go.uber.org/zap"
)

// NodeWriter is the single write path for memory nodes. It persists the
// node, emits the diode record for restricted nodes, records metrics and
// publishes the events describing the change.
type NodeWriter struct {
	repo      ports.NodeRepository
	publisher ports.EventPublisher
	sink      ports.DiodeSink
	metrics   ports.Metrics
	logger    *zap.Logger
}

// NewNodeWriter creates a new node writer
func NewNodeWriter(
	repo ports.NodeRepository,
	publisher ports.EventPublisher,
	sink ports.DiodeSink,
	metrics ports.Metrics,
	logger *zap.Logger,
) *NodeWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NodeWriter{
		repo:      repo,
		publisher: publisher,
		sink:      sink,
		metrics:   metrics,
		logger:    logger,
	}
}

// Write saves node and then fans out its side effects. Only the save can
// fail the call: audit and event delivery failures are logged, since the
// node is already durable by then.
func (w *NodeWriter) Write(ctx context.Context, node *entities.MemoryNode, evts ...events.DomainEvent) error {
	if err := w.repo.Save(ctx, node); err != nil {
		return err
	}
	w.metrics.RecordNodeWritten(ctx, string(node.Classification()))

	if packet, ok := node.DiodePacket(); ok {
		record := ports.DiodeRecord{
			NodeID:    node.ID(),
			Packet:    packet,
			EmittedAt: utils.NowUTC(),
		}
		if err := w.sink.Emit(ctx, record); err != nil {
			w.logger.Error("Failed to emit diode packet",
				zap.String("nodeID", node.ID().String()),
				zap.Error(err),
			)
		}
	}

	w.publish(ctx, evts...)
	return nil
}

// Remove deletes the node and publishes evts.
func (w *NodeWriter) Remove(ctx context.Context, node *entities.MemoryNode, evts ...events.DomainEvent) error {
	if err := w.repo.Delete(ctx, node.ID()); err != nil {
		return err
	}
	w.publish(ctx, evts...)
	return nil
}

func (w *NodeWriter) publish(ctx context.Context, evts ...events.DomainEvent) {
	if len(evts) == 0 {
		return
	}
	if err := w.publisher.Publish(ctx, evts...); err != nil {
		w.logger.Warn("Failed to publish events",
			zap.Int("count", len(evts)),
			zap.Error(err),
		)
	}
}

// Reject records why a candidate node was refused. It returns err so call
// sites can write `return w.Reject(ctx, err)`.
func (w *NodeWriter) Reject(ctx context.Context, err error) error {
	for _, reason := range RejectionReasons(err) {
		w.metrics.RecordRejection(ctx, reason)
	}
	w.logger.Info("Memory node rejected", zap.Error(err))
	return err
}

// RejectionReasons names each violation in err: the cross-field rule that
// failed, or "field_constraint" for field-level failures. Errors that are
// not validation failures have no reasons.
func RejectionReasons(err error) []string {
	var verrs *pkgerrors.ValidationErrors
	if !errors.As(err, &verrs) {
		if reason := rejectionReason(err); reason != "" {
			return []string{reason}
		}
		return nil
	}

	reasons := make([]string, 0, len(verrs.Errors))
	for _, e := range verrs.Errors {
		if reason := rejectionReason(e); reason != "" {
			reasons = append(reasons, reason)
		}
	}
	return reasons
}

func rejectionReason(err error) string {
	var (
		gateErr  *pkgerrors.SecurityGateError
		dimErr   *pkgerrors.EmbeddingDimensionError
		fieldErr *pkgerrors.FieldConstraintError
	)
	switch {
	case errors.As(err, &gateErr):
		return "restricted_access"
	case errors.As(err, &dimErr):
		return "embedding_dimension"
	case errors.As(err, &fieldErr):
		switch fieldErr.Constraint {
		case "hexadecimal":
			return "digest_format"
		case "edge_limit":
			return "edge_limit"
		}
		return "field_constraint"
	}
	return ""
}
