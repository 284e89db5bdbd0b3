package queries

import (
	"edubba/domain/core/entities"
	pkgerrors "edubba/pkg/errors"

	"github.com/google/uuid"
)

// GetMemoryNodeQuery represents a query to get a single node
type GetMemoryNodeQuery struct {
	NodeID uuid.UUID
}

// Validate validates the GetMemoryNodeQuery
func (q GetMemoryNodeQuery) Validate() error {
	if q.NodeID == uuid.Nil {
		return &pkgerrors.FieldConstraintError{Field: "id", Constraint: "required"}
	}
	return nil
}

// NodeView is the read model of a node. It serializes exactly as the node
// does, derived values included.
type NodeView struct {
	*entities.MemoryNode
}
