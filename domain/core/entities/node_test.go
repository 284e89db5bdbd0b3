package entities_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"edubba/domain/config"
	"edubba/domain/core/entities"
	"edubba/domain/core/valueobjects"
	"edubba/internal/testutil"
	pkgerrors "edubba/pkg/errors"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryNode_Defaults(t *testing.T) {
	node := testutil.NewNodeFields().MustNode(t)

	assert.NotEqual(t, uuid.Nil, node.ID())
	assert.Equal(t, valueobjects.T1HotNVMe, node.StorageTier())
	assert.Equal(t, valueobjects.Internal, node.Classification())
	assert.Equal(t, "bge-m3-v1.5", node.EmbeddingModel())
	assert.Equal(t, "1.0", node.EmbeddingVersion())
	assert.Empty(t, node.Edges())
	assert.Nil(t, node.Mastery())
	assert.Nil(t, node.LatentContext())
	assert.False(t, node.CreatedAt().IsZero())
	assert.Equal(t, time.UTC, node.CreatedAt().Location())
	assert.False(t, node.Utility().LastAccessed.IsZero())
	assert.Zero(t, node.Identity().Weight)
	assert.Zero(t, node.Recall().RecallCount)

	_, ok := node.NeuromorphicSignature()
	assert.False(t, ok)
}

func TestNewMemoryNode_ReferenceNodes(t *testing.T) {
	demoHash := strings.Repeat("a1b2c3d4", 8)

	t.Run("integrity hash is deterministic", func(t *testing.T) {
		node := testutil.NewNodeFields().WithProvenance(testutil.Provenance(demoHash)).MustNode(t)
		want := "e2995fe89ee3a2b4ef3d9d0127f3e5290962e9c28290a781123f6f8194698b1a"
		assert.Equal(t, want, node.IntegrityHash())
		assert.Equal(t, want, node.IntegrityHash())
	})

	t.Run("internal node has no diode packet", func(t *testing.T) {
		node := testutil.NewNodeFields().WithClassification(valueobjects.Internal).MustNode(t)
		packet, ok := node.DiodePacket()
		assert.False(t, ok)
		assert.Empty(t, packet)
	})

	t.Run("restricted node reports dissonance", func(t *testing.T) {
		node := testutil.NewNodeFields().Restricted().WithLatent(testutil.Latent(0.10)).MustNode(t)
		packet, ok := node.DiodePacket()
		require.True(t, ok)
		assert.Contains(t, packet, "DISS:0.10")
	})

	t.Run("known model with wrong dimension", func(t *testing.T) {
		_, err := entities.NewMemoryNode(testutil.NewNodeFields().WithEmbedding("bge-m3-v1.5", 10).Build())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Expected 1024, got 10")
	})

	t.Run("unknown model too short", func(t *testing.T) {
		_, err := entities.NewMemoryNode(testutil.NewNodeFields().WithEmbedding("custom-finetune-v1", 4).Build())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too short")
	})
}

func TestNewMemoryNode_EmbeddingModels(t *testing.T) {
	tests := []struct {
		model   string
		length  int
		wantErr bool
	}{
		{"bge-m3-v1.5", 1024, false},
		{"bge-m3-v1.5", 10, true},
		{"text-embedding-3-small", 1536, false},
		{"text-embedding-3-large", 3072, false},
		{"text-embedding-3-large", 1536, true},
		{"custom-finetune-v1", 128, false},
		{"custom-finetune-v1", 8, false},
		{"custom-finetune-v1", 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			_, err := entities.NewMemoryNode(testutil.NewNodeFields().WithEmbedding(tt.model, tt.length).Build())
			if tt.wantErr {
				var dimErr *pkgerrors.EmbeddingDimensionError
				assert.True(t, errors.As(err, &dimErr))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewMemoryNode_FieldConstraints(t *testing.T) {
	tests := []struct {
		name  string
		build func(*testutil.NodeFieldsBuilder)
		field string
	}{
		{"short summary", func(b *testutil.NodeFieldsBuilder) { b.WithSummary("too short") }, "content_summary"},
		{"no domains", func(b *testutil.NodeFieldsBuilder) { b.WithDomains() }, "domains"},
		{"unknown domain", func(b *testutil.NodeFieldsBuilder) { b.WithDomains("astrology") }, "domains[0]"},
		{"unknown type", func(b *testutil.NodeFieldsBuilder) { b.WithType("dream") }, "type"},
		{"unknown classification", func(b *testutil.NodeFieldsBuilder) { b.WithClassification("secret") }, "classification"},
		{"bad contributor hash", func(b *testutil.NodeFieldsBuilder) {
			b.WithProvenance(testutil.Provenance("abc"))
		}, "provenance.contributors[0].contribution_hash"},
		{"empty provenance", func(b *testutil.NodeFieldsBuilder) {
			b.WithProvenance(valueobjects.ConsensusProvenance{})
		}, "provenance.contributors"},
		{"latent affect length", func(b *testutil.NodeFieldsBuilder) {
			l := testutil.Latent(0.1)
			l.AffectVector = l.AffectVector[:3]
			b.WithLatent(l)
		}, "latent_context.affect_vector"},
		{"mastery out of range", func(b *testutil.NodeFieldsBuilder) {
			b.WithMastery(&valueobjects.MasteryState{Domain: valueobjects.DomainFinance, UserProficiency: 1.5})
		}, "mastery.user_proficiency"},
		{"edge without target", func(b *testutil.NodeFieldsBuilder) {
			b.WithEdges(valueobjects.CausalEdge{Relation: valueobjects.RelationCauses, Weight: 0.5})
		}, "edges[0].target_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewNodeFields()
			tt.build(b)

			_, err := entities.NewMemoryNode(b.Build())
			require.Error(t, err)

			var verrs *pkgerrors.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Contains(t, verrs.ToMap(), tt.field)
		})
	}
}

func TestNewMemoryNode_AggregatesFieldAndRuleViolations(t *testing.T) {
	_, err := entities.NewMemoryNode(testutil.NewNodeFields().
		WithSummary("short").
		WithEmbedding("bge-m3-v1.5", 10).
		WithClassification(valueobjects.Restricted).
		Build())
	require.Error(t, err)

	var verrs *pkgerrors.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs.Errors, 3)

	var gateErr *pkgerrors.SecurityGateError
	assert.True(t, errors.As(err, &gateErr))
	assert.Contains(t, err.Error(), "RESTRICTED classification requires artifact pointer")
}

func TestNewMemoryNode_FailFast(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.FailFast = true

	_, err := entities.NewMemoryNodeWithConfig(testutil.NewNodeFields().
		WithSummary("short").
		WithEmbedding("bge-m3-v1.5", 10).
		Build(), cfg)

	var verrs *pkgerrors.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs.Errors, 1)
}

func TestNewMemoryNode_DoesNotAliasInput(t *testing.T) {
	fields := testutil.NewNodeFields().WithDomains(valueobjects.DomainFinance).Build()
	node, err := entities.NewMemoryNode(fields)
	require.NoError(t, err)

	fields.Domains[0] = valueobjects.DomainSystems
	fields.Embedding[0] = 42
	fields.Provenance.Contributors[0].ContributionHash = strings.Repeat("b", 64)

	assert.Equal(t, valueobjects.DomainFinance, node.Domains()[0])
	assert.Equal(t, 0.05, node.Embedding()[0])
	assert.Equal(t, testutil.Provenance(strings.Repeat("a", 64)).IntegrityHash(), node.IntegrityHash())

	node.Embedding()[0] = 7
	assert.Equal(t, 0.05, node.Embedding()[0])
}

func TestDiodePacket_Format(t *testing.T) {
	t.Run("golden", func(t *testing.T) {
		node := testutil.NewNodeFields().
			WithID(testutil.FixedNodeID).
			WithDomains(valueobjects.DomainFinance, valueobjects.DomainSystems).
			WithProvenance(testutil.Provenance(strings.Repeat("a1b2c3d4", 8))).
			WithLatent(testutil.Latent(0.1)).
			Restricted().
			MustNode(t)

		packet, ok := node.DiodePacket()
		require.True(t, ok)

		g := goldie.New(t,
			goldie.WithFixtureDir("testdata/golden"),
			goldie.WithNameSuffix(".golden"),
		)
		g.Assert(t, "restricted_diode_packet", []byte(packet))
	})

	t.Run("without latent context", func(t *testing.T) {
		node := testutil.NewNodeFields().Restricted().MustNode(t)
		packet, ok := node.DiodePacket()
		require.True(t, ok)
		assert.True(t, strings.HasSuffix(packet, "|DISS:0.00"))
		assert.True(t, strings.HasPrefix(packet, "SHA:"+node.IntegrityHash()+"|ID:"+node.ID().String()+"|DOM:general|"))
	})

	t.Run("public node", func(t *testing.T) {
		node := testutil.NewNodeFields().WithClassification(valueobjects.Public).MustNode(t)
		_, ok := node.DiodePacket()
		assert.False(t, ok)
	})

	t.Run("two decimal rounding", func(t *testing.T) {
		id := testutil.FixedNodeID
		domains := []valueobjects.KnowledgeDomain{valueobjects.DomainGeneral}
		assert.Equal(t, "SHA:x|ID:"+id.String()+"|DOM:general|DISS:0.99", entities.FormatDiodePacket("x", id, domains, 0.987))
		assert.Equal(t, "SHA:x|ID:"+id.String()+"|DOM:general|DISS:1.00", entities.FormatDiodePacket("x", id, domains, 1))
	})
}

func TestMemoryNode_SecurityEscalationLifecycle(t *testing.T) {
	node := testutil.NewNodeFields().
		WithType(valueobjects.NodeProof).
		WithDomains(valueobjects.DomainFinance).
		WithSummary("Market Analysis").
		WithLatent(testutil.Latent(0.1)).
		MustNode(t)

	_, ok := node.DiodePacket()
	require.False(t, ok)

	_, err := node.Escalate(valueobjects.Restricted, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESTRICTED classification requires artifact pointer")
	assert.Equal(t, valueobjects.Internal, node.Classification(), "failed revision leaves the node untouched")

	secure, err := node.Escalate(valueobjects.Restricted, testutil.Artifact())
	require.NoError(t, err)

	assert.Equal(t, node.ID(), secure.ID())
	assert.Equal(t, node.CreatedAt(), secure.CreatedAt())
	assert.Equal(t, valueobjects.Restricted, secure.Classification())

	packet, ok := secure.DiodePacket()
	require.True(t, ok)
	assert.Contains(t, packet, "DISS:0.10")
}

func TestMemoryNode_MasteryLifecycle(t *testing.T) {
	node := testutil.NewNodeFields().
		WithDomains(valueobjects.DomainQuantumComp).
		WithSummary("Shor's Algorithm Basics").
		MustNode(t)
	require.Nil(t, node.Mastery())

	updated, err := node.WithMastery(valueobjects.MasteryState{
		Domain:          valueobjects.DomainQuantumComp,
		UserProficiency: 0.85,
	})
	require.NoError(t, err)

	m := updated.Mastery()
	require.NotNil(t, m)
	assert.Equal(t, 0.85, m.UserProficiency)
	assert.Equal(t, valueobjects.DomainQuantumComp, m.Domain)
	assert.False(t, m.LastVerified.IsZero())
	assert.Nil(t, node.Mastery())

	_, err = node.WithMastery(valueobjects.MasteryState{Domain: valueobjects.DomainQuantumComp, UserProficiency: 1.2})
	assert.Error(t, err)
}

func TestMemoryNode_DissonanceRetrieval(t *testing.T) {
	high := testutil.NewNodeFields().WithType(valueobjects.NodeEpisodic).WithSummary("Conflicting Evidence").WithLatent(testutil.Latent(0.9)).MustNode(t)
	low := testutil.NewNodeFields().WithType(valueobjects.NodeEpisodic).WithSummary("Routine Confirmation").WithLatent(testutil.Latent(0.1)).MustNode(t)
	none := testutil.NewNodeFields().MustNode(t)

	var conflicted []*entities.MemoryNode
	for _, n := range []*entities.MemoryNode{high, low, none} {
		if l := n.LatentContext(); l != nil && l.DissonanceScore > 0.5 {
			conflicted = append(conflicted, n)
		}
	}

	require.Len(t, conflicted, 1)
	assert.Equal(t, high.ID(), conflicted[0].ID())
}

func TestMemoryNode_RecallAndLink(t *testing.T) {
	node := testutil.NewNodeFields().MustNode(t)
	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	recalled, err := node.RecordRecall(0.2, at)
	require.NoError(t, err)
	assert.Equal(t, 1, recalled.Recall().RecallCount)
	assert.Equal(t, 1, recalled.Utility().AccessCount)
	assert.Equal(t, at, recalled.LastAccessed())
	require.NotNil(t, recalled.Recall().LastReinforced)
	assert.Zero(t, node.Recall().RecallCount)

	accessed, err := recalled.RecordAccess(at.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, accessed.Utility().AccessCount)
	assert.Equal(t, 1, accessed.Recall().RecallCount)

	edge, err := valueobjects.NewCausalEdge(uuid.New(), valueobjects.RelationReinforces, 0.9)
	require.NoError(t, err)
	linked, err := node.Link(edge)
	require.NoError(t, err)
	assert.Len(t, linked.Edges(), 1)
	assert.Empty(t, node.Edges())
}

func TestMemoryNode_EdgeLimit(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxEdgesPerNode = 1

	edge, err := valueobjects.NewCausalEdge(uuid.New(), valueobjects.RelationCauses, 0.5)
	require.NoError(t, err)

	node, err := entities.NewMemoryNodeWithConfig(testutil.NewNodeFields().WithEdges(edge).Build(), cfg)
	require.NoError(t, err)

	_, err = node.Link(edge)
	var fieldErr *pkgerrors.FieldConstraintError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "edges", fieldErr.Field)
}

func TestMemoryNode_JSON(t *testing.T) {
	node := testutil.NewNodeFields().
		WithProvenance(testutil.Provenance(strings.Repeat("a1b2c3d4", 8))).
		WithLatent(testutil.Latent(0.3)).
		Restricted().
		AtFixedTime().
		MustNode(t)

	data, err := json.Marshal(node)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	packet, _ := node.DiodePacket()
	assert.Equal(t, packet, raw["diode_packet"])
	assert.Equal(t, node.ID().String(), raw["id"])
	assert.Equal(t, "restricted", raw["classification"])
	assert.Equal(t, "2025-01-15T09:30:00Z", raw["created_at"])
	assert.Equal(t, node.IntegrityHash(), raw["provenance"].(map[string]interface{})["integrity_hash"])
	assert.Nil(t, raw["mastery"])
	assert.Equal(t, []interface{}{}, raw["edges"])

	t.Run("round trip", func(t *testing.T) {
		var decoded entities.MemoryNode
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, node.ID(), decoded.ID())
		assert.Equal(t, node.IntegrityHash(), decoded.IntegrityHash())
		assert.Equal(t, node.CreatedAt(), decoded.CreatedAt())
		assert.Equal(t, node.Fields(), decoded.Fields())
	})

	t.Run("forged derived values are ignored", func(t *testing.T) {
		raw["diode_packet"] = "SHA:forged"
		raw["provenance"].(map[string]interface{})["integrity_hash"] = strings.Repeat("0", 64)
		forged, err := json.Marshal(raw)
		require.NoError(t, err)

		decoded, err := entities.DecodeMemoryNode(forged, nil)
		require.NoError(t, err)
		got, _ := decoded.DiodePacket()
		assert.Equal(t, packet, got)
	})

	t.Run("invalid document is rejected", func(t *testing.T) {
		raw["classification"] = "restricted"
		raw["artifact"] = nil
		bad, err := json.Marshal(raw)
		require.NoError(t, err)

		var decoded entities.MemoryNode
		err = json.Unmarshal(bad, &decoded)
		var gateErr *pkgerrors.SecurityGateError
		assert.True(t, errors.As(err, &gateErr))
	})

	t.Run("non-restricted node serializes a null packet", func(t *testing.T) {
		plain := testutil.NewNodeFields().MustNode(t)
		data, err := json.Marshal(plain)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"diode_packet":null`)
	})
}
