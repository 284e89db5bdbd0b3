package sqlite

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"edubba/application/ports"
	"edubba/domain/config"
	"edubba/domain/core/entities"
	"edubba/domain/core/valueobjects"
	"edubba/internal/testutil"
	pkgerrors "edubba/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepo(t *testing.T) *NodeRepository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "edubba.db"), config.DefaultDomainConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestNodeRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	node := testutil.NewNodeFields().AtFixedTime().Restricted().WithLatent(testutil.Latent(0.2)).MustNode(t)

	require.NoError(t, repo.Save(ctx, node))

	found, err := repo.FindByID(ctx, node.ID())
	require.NoError(t, err)
	assert.Equal(t, node.Fields(), found.Fields())
	assert.Equal(t, node.IntegrityHash(), found.IntegrityHash())

	packet, ok := found.DiodePacket()
	assert.True(t, ok)
	assert.Contains(t, packet, "DISS:0.20")
}

func TestNodeRepository_SaveReplacesDomains(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	node := testutil.NewNodeFields().WithDomains(valueobjects.DomainFinance).MustNode(t)
	require.NoError(t, repo.Save(ctx, node))

	moved, err := node.Revise(func(f *entities.NodeFields) {
		f.Domains = []valueobjects.KnowledgeDomain{valueobjects.DomainSystems}
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, moved))

	page, err := repo.List(ctx, ports.NodeFilter{Domain: valueobjects.DomainFinance})
	require.NoError(t, err)
	assert.Empty(t, page.Nodes)

	page, err = repo.List(ctx, ports.NodeFilter{Domain: valueobjects.DomainSystems})
	require.NoError(t, err)
	require.Len(t, page.Nodes, 1)
	assert.Equal(t, node.ID(), page.Nodes[0].ID())
}

func TestNodeRepository_DeleteAndNotFound(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	node := testutil.NewNodeFields().MustNode(t)
	require.NoError(t, repo.Save(ctx, node))

	require.NoError(t, repo.Delete(ctx, node.ID()))

	_, err := repo.FindByID(ctx, node.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.True(t, pkgerrors.IsNotFound(repo.Delete(ctx, node.ID())))
	assert.True(t, pkgerrors.IsNotFound(repo.Delete(ctx, uuid.New())))
}

func TestNodeRepository_ListThresholds(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	high := testutil.NewNodeFields().
		WithLatent(testutil.Latent(0.9)).
		WithMastery(&valueobjects.MasteryState{Domain: valueobjects.DomainGeneral, UserProficiency: 0.8, LastVerified: testutil.FixedTime}).
		MustNode(t)
	edge := testutil.NewNodeFields().WithLatent(testutil.Latent(0.5)).MustNode(t)
	bare := testutil.NewNodeFields().MustNode(t)
	require.NoError(t, repo.Save(ctx, high))
	require.NoError(t, repo.Save(ctx, edge))
	require.NoError(t, repo.Save(ctx, bare))

	half := 0.5
	tests := []struct {
		name   string
		filter ports.NodeFilter
		want   []uuid.UUID
	}{
		{"no filter", ports.NodeFilter{}, []uuid.UUID{high.ID(), edge.ID(), bare.ID()}},
		{"dissonance strictly above", ports.NodeFilter{MinDissonance: &half}, []uuid.UUID{high.ID()}},
		{"proficiency strictly above", ports.NodeFilter{MinProficiency: &half}, []uuid.UUID{high.ID()}},
		{"type", ports.NodeFilter{Type: valueobjects.NodeConcept}, []uuid.UUID{high.ID(), edge.ID(), bare.ID()}},
		{"classification", ports.NodeFilter{Classification: valueobjects.Restricted}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)

			var got []uuid.UUID
			for _, n := range page.Nodes {
				got = append(got, n.ID())
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestNodeRepository_ListPaginates(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	for i := 0; i < 7; i++ {
		require.NoError(t, repo.Save(ctx, testutil.NewNodeFields().MustNode(t)))
	}

	filter := ports.NodeFilter{Limit: 3}
	var sizes []int
	seen := map[uuid.UUID]bool{}
	for {
		page, err := repo.List(ctx, filter)
		require.NoError(t, err)
		sizes = append(sizes, len(page.Nodes))
		for _, n := range page.Nodes {
			seen[n.ID()] = true
		}
		if page.NextCursor == "" {
			break
		}
		filter.Cursor = page.NextCursor
	}

	assert.Equal(t, []int{3, 3, 1}, sizes)
	assert.Len(t, seen, 7)
}

func TestNodeRepository_ListFailsOnUnreadableDocument(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	var ids []string
	for i := 0; i < 4; i++ {
		n := testutil.NewNodeFields().MustNode(t)
		require.NoError(t, repo.Save(ctx, n))
		ids = append(ids, n.ID().String())
	}
	sort.Strings(ids)

	// the first row in id order no longer satisfies the invariants
	_, err := repo.db.ExecContext(ctx, `UPDATE memory_nodes SET document = ? WHERE id = ?`,
		`{"id":"`+ids[0]+`","type":"concept"}`, ids[0])
	require.NoError(t, err)

	page, err := repo.List(ctx, ports.NodeFilter{Limit: 2})
	assert.Nil(t, page)
	var verrs *pkgerrors.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	// pages past the bad row still read normally
	page, err = repo.List(ctx, ports.NodeFilter{Limit: 2, Cursor: ids[0]})
	require.NoError(t, err)
	require.Len(t, page.Nodes, 2)
	assert.Equal(t, ids[2], page.NextCursor)
}
