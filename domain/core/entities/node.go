package entities

import (
	"time"

	"edubba/domain/config"
	"edubba/domain/core/validators"
	"edubba/domain/core/valueobjects"
	pkgerrors "edubba/pkg/errors"
	"edubba/pkg/utils"

	"github.com/google/uuid"
)

// NodeFields is the complete field set of a memory node. It is the only
// input to construction and the shape used for storage and transport.
type NodeFields struct {
	ID                    uuid.UUID                        `json:"id"`
	Type                  valueobjects.NodeType            `json:"type" validate:"enum"`
	Domains               []valueobjects.KnowledgeDomain   `json:"domains" validate:"min=1,dive,enum"`
	StorageTier           valueobjects.StorageTier         `json:"storage_tier" validate:"enum"`
	Classification        valueobjects.DataClassification  `json:"classification" validate:"enum"`
	ContentSummary        string                           `json:"content_summary" validate:"min=10"`
	Artifact              *valueobjects.ArtifactPointer    `json:"artifact" validate:"omitempty"`
	Embedding             []float64                        `json:"embedding"`
	EmbeddingModel        string                           `json:"embedding_model"`
	EmbeddingVersion      string                           `json:"embedding_version"`
	LatentContext         *valueobjects.LatentStateContext `json:"latent_context" validate:"omitempty"`
	Identity              valueobjects.IdentityBinding     `json:"identity"`
	Utility               valueobjects.MemoryUtility       `json:"utility"`
	Recall                valueobjects.RecallDynamics      `json:"recall"`
	Provenance            valueobjects.ConsensusProvenance `json:"provenance"`
	Mastery               *valueobjects.MasteryState       `json:"mastery" validate:"omitempty"`
	Edges                 []valueobjects.CausalEdge        `json:"edges" validate:"dive"`
	NeuromorphicSignature *string                          `json:"neuromorphic_signature"`
	CreatedAt             time.Time                        `json:"created_at"`
	LastAccessed          time.Time                        `json:"last_accessed"`
}

// MemoryNode is the validated aggregate. It has no setters: every change
// goes through Revise, which rebuilds and re-validates a new node.
type MemoryNode struct {
	fields NodeFields
	cfg    *config.DomainConfig
}

var defaultConfig = config.DefaultDomainConfig()

// NewMemoryNode constructs a node with the default domain configuration.
func NewMemoryNode(fields NodeFields) (*MemoryNode, error) {
	return NewMemoryNodeWithConfig(fields, defaultConfig)
}

// NewMemoryNodeWithConfig applies defaults, checks every field constraint
// and every cross-field rule, and returns either a fully valid node or a
// *errors.ValidationErrors listing all violations.
func NewMemoryNodeWithConfig(fields NodeFields, cfg *config.DomainConfig) (*MemoryNode, error) {
	if cfg == nil {
		cfg = defaultConfig
	}

	f := cloneFields(fields)
	applyDefaults(&f, cfg, utils.NowUTC())

	violations := pkgerrors.NewValidationErrors()
	for _, v := range utils.FieldViolations(f) {
		violations.Add(v)
		if cfg.FailFast {
			return nil, violations
		}
	}

	err := validators.NewNodeValidator(cfg).Validate(validators.Subject{
		Classification: f.Classification,
		Artifact:       f.Artifact,
		Embedding:      f.Embedding,
		EmbeddingModel: f.EmbeddingModel,
		Contributors:   f.Provenance.Contributors,
		EdgeCount:      len(f.Edges),
	})
	if err != nil && !(cfg.FailFast && violations.HasErrors()) {
		violations.Add(err)
	}

	if violations.HasErrors() {
		return nil, violations
	}

	return &MemoryNode{fields: f, cfg: cfg}, nil
}

func applyDefaults(f *NodeFields, cfg *config.DomainConfig, now time.Time) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.StorageTier == "" {
		f.StorageTier = valueobjects.StorageTier(cfg.DefaultStorageTier)
	}
	if f.Classification == "" {
		f.Classification = valueobjects.DataClassification(cfg.DefaultClassification)
	}
	if f.EmbeddingModel == "" {
		f.EmbeddingModel = cfg.DefaultEmbeddingModel
	}
	if f.EmbeddingVersion == "" {
		f.EmbeddingVersion = cfg.DefaultEmbeddingVersion
	}
	if f.Edges == nil {
		f.Edges = []valueobjects.CausalEdge{}
	}
	if f.Embedding == nil {
		f.Embedding = []float64{}
	}

	f.CreatedAt = defaultTime(f.CreatedAt, now)
	f.LastAccessed = defaultTime(f.LastAccessed, now)
	f.Utility.LastAccessed = defaultTime(f.Utility.LastAccessed, now)
	f.Provenance.EstablishedAt = defaultTime(f.Provenance.EstablishedAt, now)
	if f.Mastery != nil {
		f.Mastery.LastVerified = defaultTime(f.Mastery.LastVerified, now)
	}
	if f.Recall.LastReinforced != nil {
		t := f.Recall.LastReinforced.UTC()
		f.Recall.LastReinforced = &t
	}
	for i := range f.Edges {
		f.Edges[i].CreatedAt = defaultTime(f.Edges[i].CreatedAt, now)
	}
}

func defaultTime(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t.UTC()
}

func cloneFields(f NodeFields) NodeFields {
	c := f
	c.Domains = append([]valueobjects.KnowledgeDomain(nil), f.Domains...)
	if f.Embedding != nil {
		c.Embedding = append([]float64{}, f.Embedding...)
	}
	if f.Edges != nil {
		c.Edges = append([]valueobjects.CausalEdge{}, f.Edges...)
	}
	if f.Artifact != nil {
		a := *f.Artifact
		c.Artifact = &a
	}
	if f.LatentContext != nil {
		l := f.LatentContext.Clone()
		c.LatentContext = &l
	}
	if f.Mastery != nil {
		m := *f.Mastery
		c.Mastery = &m
	}
	if f.NeuromorphicSignature != nil {
		s := *f.NeuromorphicSignature
		c.NeuromorphicSignature = &s
	}
	c.Recall = f.Recall.Clone()
	c.Provenance = f.Provenance.Clone()
	return c
}

// Fields returns a deep copy of the node's full field set, suitable for
// building a revised node.
func (n *MemoryNode) Fields() NodeFields {
	return cloneFields(n.fields)
}

// Revise builds a new validated node from this node's fields after mutate
// has been applied. The id and creation time are preserved; n is unchanged.
func (n *MemoryNode) Revise(mutate func(*NodeFields)) (*MemoryNode, error) {
	f := n.Fields()
	mutate(&f)
	f.ID = n.fields.ID
	f.CreatedAt = n.fields.CreatedAt
	return NewMemoryNodeWithConfig(f, n.cfg)
}

// Escalate changes the classification. Escalating to restricted requires
// an artifact pointer, either already present or supplied here.
func (n *MemoryNode) Escalate(classification valueobjects.DataClassification, artifact *valueobjects.ArtifactPointer) (*MemoryNode, error) {
	return n.Revise(func(f *NodeFields) {
		f.Classification = classification
		if artifact != nil {
			a := *artifact
			f.Artifact = &a
		}
	})
}

// WithMastery records a new mastery state.
func (n *MemoryNode) WithMastery(mastery valueobjects.MasteryState) (*MemoryNode, error) {
	return n.Revise(func(f *NodeFields) {
		f.Mastery = &mastery
	})
}

// RecordRecall counts a recall with the observed distortion at the given time.
func (n *MemoryNode) RecordRecall(distortion float64, at time.Time) (*MemoryNode, error) {
	return n.Revise(func(f *NodeFields) {
		f.Recall = f.Recall.Recalled(distortion, at)
		f.Utility = f.Utility.Accessed(at)
		f.LastAccessed = at.UTC()
	})
}

// RecordAccess counts a read of the node at the given time.
func (n *MemoryNode) RecordAccess(at time.Time) (*MemoryNode, error) {
	return n.Revise(func(f *NodeFields) {
		f.Utility = f.Utility.Accessed(at)
		f.LastAccessed = at.UTC()
	})
}

// Link appends a causal edge.
func (n *MemoryNode) Link(edge valueobjects.CausalEdge) (*MemoryNode, error) {
	return n.Revise(func(f *NodeFields) {
		f.Edges = append(f.Edges, edge)
	})
}

// Getters

func (n *MemoryNode) ID() uuid.UUID { return n.fields.ID }
func (n *MemoryNode) Type() valueobjects.NodeType { return n.fields.Type }
func (n *MemoryNode) StorageTier() valueobjects.StorageTier { return n.fields.StorageTier }
func (n *MemoryNode) Classification() valueobjects.DataClassification { return n.fields.Classification }
func (n *MemoryNode) ContentSummary() string { return n.fields.ContentSummary }
func (n *MemoryNode) EmbeddingModel() string { return n.fields.EmbeddingModel }
func (n *MemoryNode) EmbeddingVersion() string { return n.fields.EmbeddingVersion }
func (n *MemoryNode) Identity() valueobjects.IdentityBinding { return n.fields.Identity }
func (n *MemoryNode) Utility() valueobjects.MemoryUtility { return n.fields.Utility }
func (n *MemoryNode) Recall() valueobjects.RecallDynamics { return n.fields.Recall.Clone() }
func (n *MemoryNode) Provenance() valueobjects.ConsensusProvenance { return n.fields.Provenance.Clone() }
func (n *MemoryNode) CreatedAt() time.Time { return n.fields.CreatedAt }
func (n *MemoryNode) LastAccessed() time.Time { return n.fields.LastAccessed }

// Domains returns the node's domains in declared order.
func (n *MemoryNode) Domains() []valueobjects.KnowledgeDomain {
	return append([]valueobjects.KnowledgeDomain(nil), n.fields.Domains...)
}

// Embedding returns a copy of the vector.
func (n *MemoryNode) Embedding() []float64 {
	return append([]float64(nil), n.fields.Embedding...)
}

// Edges returns a copy of the outgoing edges.
func (n *MemoryNode) Edges() []valueobjects.CausalEdge {
	return append([]valueobjects.CausalEdge(nil), n.fields.Edges...)
}

// Artifact returns a copy of the artifact pointer, or nil.
func (n *MemoryNode) Artifact() *valueobjects.ArtifactPointer {
	if n.fields.Artifact == nil {
		return nil
	}
	a := *n.fields.Artifact
	return &a
}

// LatentContext returns a copy of the latent state, or nil.
func (n *MemoryNode) LatentContext() *valueobjects.LatentStateContext {
	if n.fields.LatentContext == nil {
		return nil
	}
	l := n.fields.LatentContext.Clone()
	return &l
}

// Mastery returns a copy of the mastery state, or nil.
func (n *MemoryNode) Mastery() *valueobjects.MasteryState {
	if n.fields.Mastery == nil {
		return nil
	}
	m := *n.fields.Mastery
	return &m
}

// NeuromorphicSignature returns the optional signature.
func (n *MemoryNode) NeuromorphicSignature() (string, bool) {
	if n.fields.NeuromorphicSignature == nil {
		return "", false
	}
	return *n.fields.NeuromorphicSignature, true
}

// IntegrityHash is the provenance digest, recomputed on each call.
func (n *MemoryNode) IntegrityHash() string {
	return n.fields.Provenance.IntegrityHash()
}
