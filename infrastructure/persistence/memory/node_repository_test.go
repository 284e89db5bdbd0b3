package memory

import (
	"context"
	"testing"

	"edubba/application/ports"
	"edubba/domain/config"
	"edubba/domain/core/valueobjects"
	"edubba/internal/testutil"
	pkgerrors "edubba/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo() *NodeRepository {
	return NewNodeRepository(config.DefaultDomainConfig())
}

func TestNodeRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	node := testutil.NewNodeFields().AtFixedTime().Restricted().WithLatent(testutil.Latent(0.4)).MustNode(t)

	require.NoError(t, repo.Save(ctx, node))

	found, err := repo.FindByID(ctx, node.ID())
	require.NoError(t, err)
	assert.Equal(t, node.Fields(), found.Fields())
	assert.Equal(t, node.IntegrityHash(), found.IntegrityHash())
	assert.Equal(t, 1, repo.Len())
}

func TestNodeRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()

	_, err := repo.FindByID(ctx, uuid.New())
	assert.True(t, pkgerrors.IsNotFound(err))

	err = repo.Delete(ctx, uuid.New())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestNodeRepository_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	node := testutil.NewNodeFields().MustNode(t)
	require.NoError(t, repo.Save(ctx, node))

	mastery := valueobjects.MasteryState{Domain: valueobjects.DomainGeneral, UserProficiency: 0.7, LastVerified: testutil.FixedTime}
	updated, err := node.WithMastery(mastery)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, updated))

	found, err := repo.FindByID(ctx, node.ID())
	require.NoError(t, err)
	require.NotNil(t, found.Mastery())
	assert.Equal(t, 0.7, found.Mastery().UserProficiency)
	assert.Equal(t, 1, repo.Len())
}

func TestNodeRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	node := testutil.NewNodeFields().MustNode(t)
	require.NoError(t, repo.Save(ctx, node))

	require.NoError(t, repo.Delete(ctx, node.ID()))

	_, err := repo.FindByID(ctx, node.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, 0, repo.Len())
}

func TestNodeRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()

	calm := testutil.NewNodeFields().WithLatent(testutil.Latent(0.1)).MustNode(t)
	tense := testutil.NewNodeFields().
		WithDomains(valueobjects.DomainFinance).
		WithLatent(testutil.Latent(0.8)).
		MustNode(t)
	restricted := testutil.NewNodeFields().Restricted().MustNode(t)
	require.NoError(t, repo.Save(ctx, calm))
	require.NoError(t, repo.Save(ctx, tense))
	require.NoError(t, repo.Save(ctx, restricted))

	threshold := 0.5
	tests := []struct {
		name   string
		filter ports.NodeFilter
		want   []uuid.UUID
	}{
		{
			name:   "dissonance threshold",
			filter: ports.NodeFilter{MinDissonance: &threshold},
			want:   []uuid.UUID{tense.ID()},
		},
		{
			name:   "domain",
			filter: ports.NodeFilter{Domain: valueobjects.DomainFinance},
			want:   []uuid.UUID{tense.ID()},
		},
		{
			name:   "classification",
			filter: ports.NodeFilter{Classification: valueobjects.Restricted},
			want:   []uuid.UUID{restricted.ID()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)

			got := make([]uuid.UUID, 0, len(page.Nodes))
			for _, n := range page.Nodes {
				got = append(got, n.ID())
			}
			assert.ElementsMatch(t, tt.want, got)
			assert.Empty(t, page.NextCursor)
		})
	}
}

func TestNodeRepository_ListPaginates(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, testutil.NewNodeFields().MustNode(t)))
	}

	seen := map[uuid.UUID]bool{}
	filter := ports.NodeFilter{Limit: 2}
	pages := 0
	for {
		page, err := repo.List(ctx, filter)
		require.NoError(t, err)
		pages++
		for _, n := range page.Nodes {
			assert.False(t, seen[n.ID()], "node listed twice")
			seen[n.ID()] = true
		}
		if page.NextCursor == "" {
			break
		}
		filter.Cursor = page.NextCursor
	}

	assert.Len(t, seen, 5)
	assert.Equal(t, 3, pages)
}

func TestNodeRepository_ListFailsOnUnreadableDocument(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(ctx, testutil.NewNodeFields().MustNode(t)))
	}

	first := repo.order[0]
	repo.docs[first] = []byte(`{"id":"` + first.String() + `","type":"concept"}`)

	page, err := repo.List(ctx, ports.NodeFilter{Limit: 2})
	assert.Nil(t, page)
	var verrs *pkgerrors.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}
