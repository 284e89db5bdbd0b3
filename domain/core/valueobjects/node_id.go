package valueobjects

import (
	pkgerrors "edubba/pkg/errors"

	"github.com/google/uuid"
)

// NewNodeID returns a fresh random node identifier.
func NewNodeID() uuid.UUID {
	return uuid.New()
}

// ParseNodeID parses a canonical UUID string. Failures are reported as a
// constraint violation on the "id" field.
func ParseNodeID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, &pkgerrors.FieldConstraintError{
			Field:      "id",
			Constraint: "uuid",
			Value:      s,
		}
	}
	return id, nil
}
