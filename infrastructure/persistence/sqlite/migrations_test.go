package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"edubba/domain/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_AppliedOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "edubba.db")

	repo, err := Open(path, config.DefaultDomainConfig(), nil)
	require.NoError(t, err)

	history, err := repo.SchemaHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, len(migrations))
	for i, sv := range history {
		assert.Equal(t, i+1, sv.Version)
		assert.NotEmpty(t, sv.Description)
		assert.False(t, sv.AppliedAt.IsZero())
	}
	require.NoError(t, repo.Close())

	// reopening must not reapply anything
	repo, err = Open(path, config.DefaultDomainConfig(), nil)
	require.NoError(t, err)
	defer repo.Close()

	again, err := repo.SchemaHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, history, again)
}

func TestMigrations_OnlyNewerVersionsRun(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	next := Migration{
		Version:     len(migrations) + 1,
		Description: "test column",
		Statements:  []string{`ALTER TABLE memory_nodes ADD COLUMN note TEXT`},
	}
	set := append(append([]Migration{}, migrations...), next)

	require.NoError(t, migrate(ctx, repo.db, set))
	// a second run would fail on the duplicate column if it reapplied
	require.NoError(t, migrate(ctx, repo.db, set))

	history, err := repo.SchemaHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, len(set))
	assert.Equal(t, "test column", history[len(history)-1].Description)
}

func TestMigrations_RejectsGaps(t *testing.T) {
	repo := openTestRepo(t)

	set := append(append([]Migration{}, migrations...), Migration{
		Version:     len(migrations) + 2,
		Description: "skips a version",
	})
	err := migrate(context.Background(), repo.db, set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of order")
}

func TestMigrations_FailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	bad := Migration{
		Version:     len(migrations) + 1,
		Description: "broken",
		Statements: []string{
			`CREATE TABLE scratch (id TEXT)`,
			`NOT VALID SQL`,
		},
	}
	err := migrate(ctx, repo.db, append(append([]Migration{}, migrations...), bad))
	require.Error(t, err)

	history, err := repo.SchemaHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, history, len(migrations))

	var n int
	require.NoError(t, repo.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'scratch'`).Scan(&n))
	assert.Zero(t, n)
}
