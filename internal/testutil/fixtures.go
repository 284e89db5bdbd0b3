// Package testutil holds fixture builders shared by package tests.
package testutil

import (
	"strings"
	"testing"
	"time"

	"edubba/domain/core/entities"
	"edubba/domain/core/valueobjects"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// FixedTime is the clock used by deterministic fixtures.
var FixedTime = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

// FixedNodeID is the id used by golden fixtures.
var FixedNodeID = uuid.MustParse("6f1c2a7e-3b4d-4e5f-8a9b-0c1d2e3f4a5b")

// Provenance returns a single-contributor unanimous provenance with the
// given contribution hash.
func Provenance(hash string) valueobjects.ConsensusProvenance {
	return valueobjects.ConsensusProvenance{
		Method: valueobjects.MethodUnanimous,
		Contributors: []valueobjects.ModelContributor{{
			Model:            "DeepSeek-R1-Full",
			Role:             valueobjects.RoleProposer,
			Confidence:       0.99,
			ContributionHash: hash,
		}},
		ConsensusScore: 0.99,
		EstablishedAt:  FixedTime,
	}
}

// Artifact returns a valid archive pointer.
func Artifact() *valueobjects.ArtifactPointer {
	return &valueobjects.ArtifactPointer{
		Tier:     valueobjects.T4DeepArchive,
		Path:     "/mnt/finance/audit.pdf",
		FileType: valueobjects.FilePDF,
		Checksum: strings.Repeat("f", 64),
		SizeMB:   1.2,
	}
}

// Latent returns a latent context with the given dissonance.
func Latent(dissonance float64) *valueobjects.LatentStateContext {
	return &valueobjects.LatentStateContext{
		AffectVector:    []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1},
		DissonanceScore: dissonance,
		ExplorationRate: 0.5,
	}
}

// Embedding returns a constant vector of length n.
func Embedding(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 0.05
	}
	return v
}

// NodeFieldsBuilder assembles NodeFields for tests, starting from a valid
// internal concept node.
type NodeFieldsBuilder struct {
	fields entities.NodeFields
}

// NewNodeFields starts a builder with valid defaults.
func NewNodeFields() *NodeFieldsBuilder {
	return &NodeFieldsBuilder{fields: entities.NodeFields{
		Type:           valueobjects.NodeConcept,
		Domains:        []valueobjects.KnowledgeDomain{valueobjects.DomainGeneral},
		ContentSummary: "test content summary",
		Embedding:      Embedding(1024),
		EmbeddingModel: "bge-m3-v1.5",
		Provenance:     Provenance(strings.Repeat("a", 64)),
	}}
}

func (b *NodeFieldsBuilder) WithID(id uuid.UUID) *NodeFieldsBuilder {
	b.fields.ID = id
	return b
}

func (b *NodeFieldsBuilder) WithType(t valueobjects.NodeType) *NodeFieldsBuilder {
	b.fields.Type = t
	return b
}

func (b *NodeFieldsBuilder) WithDomains(d ...valueobjects.KnowledgeDomain) *NodeFieldsBuilder {
	b.fields.Domains = d
	return b
}

func (b *NodeFieldsBuilder) WithSummary(s string) *NodeFieldsBuilder {
	b.fields.ContentSummary = s
	return b
}

func (b *NodeFieldsBuilder) WithClassification(c valueobjects.DataClassification) *NodeFieldsBuilder {
	b.fields.Classification = c
	return b
}

func (b *NodeFieldsBuilder) WithArtifact(a *valueobjects.ArtifactPointer) *NodeFieldsBuilder {
	b.fields.Artifact = a
	return b
}

func (b *NodeFieldsBuilder) WithEmbedding(model string, n int) *NodeFieldsBuilder {
	b.fields.EmbeddingModel = model
	b.fields.Embedding = Embedding(n)
	return b
}

func (b *NodeFieldsBuilder) WithLatent(l *valueobjects.LatentStateContext) *NodeFieldsBuilder {
	b.fields.LatentContext = l
	return b
}

func (b *NodeFieldsBuilder) WithProvenance(p valueobjects.ConsensusProvenance) *NodeFieldsBuilder {
	b.fields.Provenance = p
	return b
}

func (b *NodeFieldsBuilder) WithMastery(m *valueobjects.MasteryState) *NodeFieldsBuilder {
	b.fields.Mastery = m
	return b
}

func (b *NodeFieldsBuilder) WithEdges(e ...valueobjects.CausalEdge) *NodeFieldsBuilder {
	b.fields.Edges = e
	return b
}

// AtFixedTime pins every timestamp to FixedTime.
func (b *NodeFieldsBuilder) AtFixedTime() *NodeFieldsBuilder {
	b.fields.CreatedAt = FixedTime
	b.fields.LastAccessed = FixedTime
	b.fields.Utility.LastAccessed = FixedTime
	b.fields.Provenance.EstablishedAt = FixedTime
	return b
}

// Restricted marks the node restricted and attaches an artifact.
func (b *NodeFieldsBuilder) Restricted() *NodeFieldsBuilder {
	b.fields.Classification = valueobjects.Restricted
	b.fields.Artifact = Artifact()
	return b
}

func (b *NodeFieldsBuilder) Build() entities.NodeFields {
	return b.fields
}

// MustNode constructs the node or fails the test.
func (b *NodeFieldsBuilder) MustNode(t testing.TB) *entities.MemoryNode {
	t.Helper()
	node, err := entities.NewMemoryNode(b.fields)
	require.NoError(t, err)
	return node
}
