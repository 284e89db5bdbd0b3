package events

import (
	"time"

	"edubba/domain/core/valueobjects"

	"github.com/google/uuid"
)

// Event types published by the memory node lifecycle.
const (
	TypeNodeCreated        = "memory.node.created"
	TypeNodeReclassified   = "memory.node.reclassified"
	TypeNodeMasteryUpdated = "memory.node.mastery_updated"
	TypeNodeRecalled       = "memory.node.recalled"
	TypeNodesLinked        = "memory.node.linked"
	TypeNodeDeleted        = "memory.node.deleted"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(id uuid.UUID, eventType string, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: id.String(),
		EventType:   eventType,
		Timestamp:   timestamp.UTC(),
		Version:     1,
	}
}

// NodeCreated is raised when a memory node is first stored. It carries
// taxonomy only; content and vectors stay in the repository.
type NodeCreated struct {
	BaseEvent
	NodeID         uuid.UUID                       `json:"node_id"`
	NodeType       valueobjects.NodeType           `json:"node_type"`
	Domains        []valueobjects.KnowledgeDomain  `json:"domains"`
	Classification valueobjects.DataClassification `json:"classification"`
	IntegrityHash  string                          `json:"integrity_hash"`
}

// NewNodeCreated creates a NodeCreated event
func NewNodeCreated(nodeID uuid.UUID, nodeType valueobjects.NodeType, domains []valueobjects.KnowledgeDomain, classification valueobjects.DataClassification, integrityHash string, timestamp time.Time) NodeCreated {
	return NodeCreated{
		BaseEvent:      newBase(nodeID, TypeNodeCreated, timestamp),
		NodeID:         nodeID,
		NodeType:       nodeType,
		Domains:        append([]valueobjects.KnowledgeDomain(nil), domains...),
		Classification: classification,
		IntegrityHash:  integrityHash,
	}
}

// NodeReclassified is raised when a node's classification changes
type NodeReclassified struct {
	BaseEvent
	NodeID              uuid.UUID                       `json:"node_id"`
	OldClassification   valueobjects.DataClassification `json:"old_classification"`
	NewClassification   valueobjects.DataClassification `json:"new_classification"`
	ArtifactStorageTier valueobjects.StorageTier        `json:"artifact_storage_tier,omitempty"`
}

// NewNodeReclassified creates a NodeReclassified event
func NewNodeReclassified(nodeID uuid.UUID, oldClass, newClass valueobjects.DataClassification, artifactTier valueobjects.StorageTier, timestamp time.Time) NodeReclassified {
	return NodeReclassified{
		BaseEvent:           newBase(nodeID, TypeNodeReclassified, timestamp),
		NodeID:              nodeID,
		OldClassification:   oldClass,
		NewClassification:   newClass,
		ArtifactStorageTier: artifactTier,
	}
}

// NodeMasteryUpdated is raised when a new proficiency is recorded
type NodeMasteryUpdated struct {
	BaseEvent
	NodeID      uuid.UUID                    `json:"node_id"`
	Domain      valueobjects.KnowledgeDomain `json:"domain"`
	Proficiency float64                      `json:"user_proficiency"`
}

// NewNodeMasteryUpdated creates a NodeMasteryUpdated event
func NewNodeMasteryUpdated(nodeID uuid.UUID, mastery valueobjects.MasteryState, timestamp time.Time) NodeMasteryUpdated {
	return NodeMasteryUpdated{
		BaseEvent:   newBase(nodeID, TypeNodeMasteryUpdated, timestamp),
		NodeID:      nodeID,
		Domain:      mastery.Domain,
		Proficiency: mastery.UserProficiency,
	}
}

// NodeRecalled is raised each time a memory is recalled
type NodeRecalled struct {
	BaseEvent
	NodeID          uuid.UUID `json:"node_id"`
	RecallCount     int       `json:"recall_count"`
	DistortionScore float64   `json:"distortion_score"`
}

// NewNodeRecalled creates a NodeRecalled event
func NewNodeRecalled(nodeID uuid.UUID, recall valueobjects.RecallDynamics, timestamp time.Time) NodeRecalled {
	return NodeRecalled{
		BaseEvent:       newBase(nodeID, TypeNodeRecalled, timestamp),
		NodeID:          nodeID,
		RecallCount:     recall.RecallCount,
		DistortionScore: recall.DistortionScore,
	}
}

// NodesLinked is raised when a causal edge is added
type NodesLinked struct {
	BaseEvent
	SourceID uuid.UUID                 `json:"source_id"`
	TargetID uuid.UUID                 `json:"target_id"`
	Relation valueobjects.EdgeRelation `json:"relation"`
	Weight   float64                   `json:"weight"`
}

// NewNodesLinked creates a NodesLinked event
func NewNodesLinked(sourceID uuid.UUID, edge valueobjects.CausalEdge, timestamp time.Time) NodesLinked {
	return NodesLinked{
		BaseEvent: newBase(sourceID, TypeNodesLinked, timestamp),
		SourceID:  sourceID,
		TargetID:  edge.TargetID,
		Relation:  edge.Relation,
		Weight:    edge.Weight,
	}
}

// NodeDeleted is raised when a node is removed
type NodeDeleted struct {
	BaseEvent
	NodeID         uuid.UUID                       `json:"node_id"`
	Classification valueobjects.DataClassification `json:"classification"`
}

// NewNodeDeleted creates a NodeDeleted event
func NewNodeDeleted(nodeID uuid.UUID, classification valueobjects.DataClassification, timestamp time.Time) NodeDeleted {
	return NodeDeleted{
		BaseEvent:      newBase(nodeID, TypeNodeDeleted, timestamp),
		NodeID:         nodeID,
		Classification: classification,
	}
}
