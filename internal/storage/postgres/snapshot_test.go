package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/altai/internal/storage"
	"github.com/cory-johannsen/altai/internal/storage/postgres"
	"github.com/cory-johannsen/altai/internal/testutil"
)

func newRepo(t *testing.T) *postgres.SnapshotRepository {
	t.Helper()
	pool := testutil.NewMigratedPool(t)
	return postgres.NewSnapshotRepository(pool.DB())
}

func TestSnapshotRepository_SaveLoad(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	game := uuid.New()

	require.NoError(t, repo.Save(ctx, storage.Snapshot{Game: game, Player: 2, Turn: 14, Data: []byte{1, 2, 3}}))

	got, err := repo.Load(ctx, game, 2, 14)
	require.NoError(t, err)
	assert.Equal(t, game, got.Game)
	assert.EqualValues(t, 2, got.Player)
	assert.Equal(t, 14, got.Turn)
	assert.Equal(t, []byte{1, 2, 3}, got.Data)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSnapshotRepository_SaveReplaces(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	game := uuid.New()

	require.NoError(t, repo.Save(ctx, storage.Snapshot{Game: game, Player: 1, Turn: 3, Data: []byte("old")}))
	require.NoError(t, repo.Save(ctx, storage.Snapshot{Game: game, Player: 1, Turn: 3, Data: []byte("new")}))

	got, err := repo.Load(ctx, game, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got.Data)
}

func TestSnapshotRepository_Latest(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	game := uuid.New()

	for _, turn := range []int{5, 20, 11} {
		require.NoError(t, repo.Save(ctx, storage.Snapshot{Game: game, Player: 1, Turn: turn, Data: []byte{byte(turn)}}))
	}
	require.NoError(t, repo.Save(ctx, storage.Snapshot{Game: uuid.New(), Player: 1, Turn: 99, Data: []byte{99}}))

	got, err := repo.Latest(ctx, game, 1)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Turn)
	assert.Equal(t, []byte{20}, got.Data)
}

func TestSnapshotRepository_NotFound(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.Load(ctx, uuid.New(), 1, 1)
	assert.ErrorIs(t, err, postgres.ErrSnapshotNotFound)

	_, err = repo.Latest(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)
}

func TestSnapshotRepository_SaveRequiresGame(t *testing.T) {
	repo := newRepo(t)
	assert.Error(t, repo.Save(context.Background(), storage.Snapshot{Player: 1, Turn: 1}))
}

func TestPool_Health(t *testing.T) {
	pool := testutil.NewMigratedPool(t)
	assert.NoError(t, pool.Health(context.Background(), 5*time.Second))
}
