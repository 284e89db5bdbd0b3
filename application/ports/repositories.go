package ports

import (
	"context"
	"time"

	"edubba/domain/core/entities"
	"edubba/domain/core/valueobjects"
	"edubba/domain/events"

	"github.com/google/uuid"
)

// NodeRepository defines the interface for memory node persistence.
// Implementations rebuild nodes through the aggregate constructor, so a
// stored document that no longer satisfies the invariants comes back as a
// validation error rather than a node.
type NodeRepository interface {
	// Save persists a node (create or replace)
	Save(ctx context.Context, node *entities.MemoryNode) error

	// FindByID retrieves a node by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.MemoryNode, error)

	// Delete removes a node
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns one page of nodes matching the filter. An unreadable
	// document fails the page instead of being skipped, so paging never
	// silently stops short.
	List(ctx context.Context, filter NodeFilter) (*NodePage, error)
}

// ConsistentReader is implemented by repositories that may answer
// FindByID from a local copy. FindByIDConsistent always asks the backend.
type ConsistentReader interface {
	FindByIDConsistent(ctx context.Context, id uuid.UUID) (*entities.MemoryNode, error)
}

// FindForUpdate loads a node for a read-modify-write under a NodeLocker.
// It never returns a cached copy, since another instance may have revised
// or deleted the node since it was cached.
func FindForUpdate(ctx context.Context, repo NodeRepository, id uuid.UUID) (*entities.MemoryNode, error) {
	if cr, ok := repo.(ConsistentReader); ok {
		return cr.FindByIDConsistent(ctx, id)
	}
	return repo.FindByID(ctx, id)
}

// NodeLocker serializes read-modify-write cycles on a single node. The
// returned release function must be called once the write is done.
type NodeLocker interface {
	Lock(ctx context.Context, id uuid.UUID) (release func(), err error)
}

// DefaultPageSize applies when a filter carries no limit.
const DefaultPageSize = 50

// MaxPageSize caps any requested limit.
const MaxPageSize = 500

// NodeFilter selects nodes for retrieval. Zero values mean "no constraint".
// Both thresholds are strict: a node must score above them.
type NodeFilter struct {
	MinDissonance  *float64
	MinProficiency *float64
	Domain         valueobjects.KnowledgeDomain
	Classification valueobjects.DataClassification
	Type           valueobjects.NodeType
	Limit          int
	Cursor         string
}

// PageSize returns the effective limit.
func (f NodeFilter) PageSize() int {
	switch {
	case f.Limit <= 0:
		return DefaultPageSize
	case f.Limit > MaxPageSize:
		return MaxPageSize
	default:
		return f.Limit
	}
}

// Matches reports whether node satisfies every constraint except paging.
// Nodes without latent context never pass a dissonance threshold, and
// nodes without mastery never pass a proficiency threshold.
func (f NodeFilter) Matches(node *entities.MemoryNode) bool {
	if f.MinDissonance != nil {
		l := node.LatentContext()
		if l == nil || l.DissonanceScore <= *f.MinDissonance {
			return false
		}
	}
	if f.MinProficiency != nil {
		m := node.Mastery()
		if m == nil || m.UserProficiency <= *f.MinProficiency {
			return false
		}
	}
	if f.Classification != "" && node.Classification() != f.Classification {
		return false
	}
	if f.Type != "" && node.Type() != f.Type {
		return false
	}
	if f.Domain != "" {
		found := false
		for _, d := range node.Domains() {
			if d == f.Domain {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// NodePage is one page of a listing. NextCursor is empty on the last page.
type NodePage struct {
	Nodes      []*entities.MemoryNode
	NextCursor string
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, events ...events.DomainEvent) error
}

// DiodeRecord is what crosses the audit boundary: the packet and the node
// it describes, nothing else.
type DiodeRecord struct {
	NodeID    uuid.UUID `json:"node_id"`
	Packet    string    `json:"diode_packet"`
	EmittedAt time.Time `json:"-"` // envelope time, never part of the detail
}

// DiodeSink is the write-only audit channel for restricted nodes.
type DiodeSink interface {
	Emit(ctx context.Context, record DiodeRecord) error
}

// Metrics records domain outcomes.
type Metrics interface {
	RecordRejection(ctx context.Context, reason string)
	RecordNodeWritten(ctx context.Context, classification string)
}
