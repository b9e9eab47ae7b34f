// Package storage defines the persisted form of a player's tactics and the
// contract every snapshot backend satisfies.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/altai/internal/game/civ"
)

// ErrSnapshotNotFound is returned when no snapshot matches a lookup.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is one encoded PlayerTactics, keyed by game, player and turn.
type Snapshot struct {
	Game      uuid.UUID
	Player    civ.PlayerID
	Turn      int
	Data      []byte
	CreatedAt time.Time
}

// SnapshotStore persists snapshots. Saving an existing key replaces it.
type SnapshotStore interface {
	Save(ctx context.Context, s Snapshot) error
	Load(ctx context.Context, game uuid.UUID, player civ.PlayerID, turn int) (Snapshot, error)
	Latest(ctx context.Context, game uuid.UUID, player civ.PlayerID) (Snapshot, error)
	Close() error
}
