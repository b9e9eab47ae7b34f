package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/storage"
	"github.com/cory-johannsen/altai/internal/storage/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "altai.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveLoad(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	game := uuid.New()

	require.NoError(t, s.Save(ctx, storage.Snapshot{Game: game, Player: 2, Turn: 14, Data: []byte{1, 2, 3}}))

	got, err := s.Load(ctx, game, 2, 14)
	require.NoError(t, err)
	assert.Equal(t, game, got.Game)
	assert.Equal(t, civ.PlayerID(2), got.Player)
	assert.Equal(t, 14, got.Turn)
	assert.Equal(t, []byte{1, 2, 3}, got.Data)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_SaveReplaces(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	game := uuid.New()

	require.NoError(t, s.Save(ctx, storage.Snapshot{Game: game, Player: 1, Turn: 3, Data: []byte("old")}))
	require.NoError(t, s.Save(ctx, storage.Snapshot{Game: game, Player: 1, Turn: 3, Data: []byte("new")}))

	got, err := s.Load(ctx, game, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got.Data)

	turns, err := s.Turns(ctx, game, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, turns)
}

func TestStore_Latest(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	game := uuid.New()

	for _, turn := range []int{5, 20, 11} {
		require.NoError(t, s.Save(ctx, storage.Snapshot{Game: game, Player: 1, Turn: turn, Data: []byte{byte(turn)}}))
	}
	require.NoError(t, s.Save(ctx, storage.Snapshot{Game: game, Player: 2, Turn: 40, Data: []byte{40}}))
	require.NoError(t, s.Save(ctx, storage.Snapshot{Game: uuid.New(), Player: 1, Turn: 99, Data: []byte{99}}))

	got, err := s.Latest(ctx, game, 1)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Turn)
	assert.Equal(t, []byte{20}, got.Data)

	turns, err := s.Turns(ctx, game, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 11, 20}, turns)
}

func TestStore_NotFound(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, uuid.New(), 1, 1)
	assert.ErrorIs(t, err, sqlite.ErrSnapshotNotFound)

	_, err = s.Latest(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)
}

func TestStore_SaveRequiresGame(t *testing.T) {
	s := openStore(t)
	assert.Error(t, s.Save(context.Background(), storage.Snapshot{Player: 1, Turn: 1, Data: []byte{1}}))
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "altai.db")
	ctx := context.Background()
	game := uuid.New()

	s, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, storage.Snapshot{Game: game, Player: 0, Turn: 7, Data: []byte("kept")}))
	require.NoError(t, s.Close())

	s, err = sqlite.Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Latest(ctx, game, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), got.Data)
}

func TestProperty_StoreRoundTripsData(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	game := uuid.New()
	rapid.Check(t, func(rt *rapid.T) {
		player := civ.PlayerID(rapid.IntRange(0, 17).Draw(rt, "player"))
		turn := rapid.IntRange(0, 500).Draw(rt, "turn")
		data := rapid.SliceOfN(rapid.Byte(), 1, 256).Draw(rt, "data")

		if err := s.Save(ctx, storage.Snapshot{Game: game, Player: player, Turn: turn, Data: data}); err != nil {
			rt.Fatalf("save: %v", err)
		}
		got, err := s.Load(ctx, game, player, turn)
		if err != nil {
			rt.Fatalf("load: %v", err)
		}
		if string(got.Data) != string(data) {
			rt.Fatalf("data mismatch: got %v want %v", got.Data, data)
		}
	})
}
