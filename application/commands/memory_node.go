package commands

import (
	"time"

	"edubba/domain/core/entities"
	"edubba/domain/core/valueobjects"
	pkgerrors "edubba/pkg/errors"
	"edubba/pkg/utils"

	"github.com/google/uuid"
)

// CreateMemoryNodeCommand stores a new memory node. The caller assigns the
// id so it can read the node back afterwards.
type CreateMemoryNodeCommand struct {
	Fields entities.NodeFields
}

// Validate validates the command
func (cmd CreateMemoryNodeCommand) Validate() error {
	return requireID("id", cmd.Fields.ID)
}

// EscalateClassificationCommand changes a node's classification. Moving to
// restricted needs an artifact, either already on the node or given here.
type EscalateClassificationCommand struct {
	NodeID         uuid.UUID
	Classification valueobjects.DataClassification
	Artifact       *valueobjects.ArtifactPointer
}

// Validate validates the command
func (cmd EscalateClassificationCommand) Validate() error {
	if err := requireID("id", cmd.NodeID); err != nil {
		return err
	}
	if !cmd.Classification.IsValid() {
		return &pkgerrors.FieldConstraintError{Field: "classification", Constraint: "enum", Value: cmd.Classification}
	}
	if cmd.Artifact != nil {
		return utils.ValidateStruct(cmd.Artifact)
	}
	return nil
}

// UpdateMasteryCommand records a new proficiency for the node.
type UpdateMasteryCommand struct {
	NodeID  uuid.UUID
	Mastery valueobjects.MasteryState
}

// Validate validates the command
func (cmd UpdateMasteryCommand) Validate() error {
	if err := requireID("id", cmd.NodeID); err != nil {
		return err
	}
	return utils.ValidateStruct(cmd.Mastery)
}

// RecordRecallCommand counts one recall of the node. A zero At means now.
type RecordRecallCommand struct {
	NodeID          uuid.UUID
	DistortionScore float64
	At              time.Time
}

// Validate validates the command
func (cmd RecordRecallCommand) Validate() error {
	return requireID("id", cmd.NodeID)
}

// LinkNodesCommand adds a causal edge from SourceID.
type LinkNodesCommand struct {
	SourceID uuid.UUID
	Edge     valueobjects.CausalEdge
}

// Validate validates the command
func (cmd LinkNodesCommand) Validate() error {
	if err := requireID("id", cmd.SourceID); err != nil {
		return err
	}
	return utils.ValidateStruct(cmd.Edge)
}

// DeleteMemoryNodeCommand removes a node.
type DeleteMemoryNodeCommand struct {
	NodeID uuid.UUID
}

// Validate validates the command
func (cmd DeleteMemoryNodeCommand) Validate() error {
	return requireID("id", cmd.NodeID)
}

func requireID(field string, id uuid.UUID) error {
	if id == uuid.Nil {
		return &pkgerrors.FieldConstraintError{Field: field, Constraint: "required"}
	}
	return nil
}
