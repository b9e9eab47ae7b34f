// Package sqlite stores tactics snapshots in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/storage"
)

// ErrSnapshotNotFound is returned when a snapshot lookup yields no results.
var ErrSnapshotNotFound = storage.ErrSnapshotNotFound

// Store wraps a SQLite connection for snapshot persistence.
type Store struct {
	conn *sqlx.DB
}

var _ storage.SnapshotStore = (*Store)(nil)

type snapshotRow struct {
	GameID    string `db:"game_id"`
	PlayerID  int    `db:"player_id"`
	Turn      int    `db:"turn"`
	Data      []byte `db:"data"`
	CreatedAt int64  `db:"created_at"`
}

func (r snapshotRow) snapshot() (storage.Snapshot, error) {
	game, err := uuid.Parse(r.GameID)
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("game id %q: %w", r.GameID, err)
	}
	return storage.Snapshot{
		Game:      game,
		Player:    civ.PlayerID(r.PlayerID),
		Turn:      r.Turn,
		Data:      r.Data,
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
	}, nil
}

// Open opens or creates a SQLite database at the given path.
//
// Postcondition: the tactics_snapshots table exists.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tactics_snapshots (
		game_id TEXT NOT NULL,
		player_id INTEGER NOT NULL,
		turn INTEGER NOT NULL,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (game_id, player_id, turn)
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Save inserts snap, replacing any snapshot with the same key.
//
// Precondition: snap.Game must not be uuid.Nil.
func (s *Store) Save(ctx context.Context, snap storage.Snapshot) error {
	if snap.Game == uuid.Nil {
		return fmt.Errorf("sqlite.Store.Save: game id must be set")
	}
	row := snapshotRow{
		GameID:    snap.Game.String(),
		PlayerID:  int(snap.Player),
		Turn:      snap.Turn,
		Data:      snap.Data,
		CreatedAt: time.Now().UnixNano(),
	}
	if row.Data == nil {
		row.Data = []byte{}
	}
	_, err := s.conn.NamedExecContext(ctx, `INSERT INTO tactics_snapshots
		(game_id, player_id, turn, data, created_at)
		VALUES (:game_id, :player_id, :turn, :data, :created_at)
		ON CONFLICT (game_id, player_id, turn)
		DO UPDATE SET data = excluded.data, created_at = excluded.created_at`, row)
	if err != nil {
		return fmt.Errorf("sqlite.Store.Save: game %s player %d turn %d: %w", snap.Game, snap.Player, snap.Turn, err)
	}
	return nil
}

// Load returns the snapshot stored for (game, player, turn).
//
// Postcondition: returns ErrSnapshotNotFound when no row matches.
func (s *Store) Load(ctx context.Context, game uuid.UUID, player civ.PlayerID, turn int) (storage.Snapshot, error) {
	var row snapshotRow
	err := s.conn.GetContext(ctx, &row, `SELECT game_id, player_id, turn, data, created_at
		FROM tactics_snapshots
		WHERE game_id = ? AND player_id = ? AND turn = ?`,
		game.String(), int(player), turn)
	snap, err := fromRow(row, err)
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("sqlite.Store.Load: game %s player %d turn %d: %w", game, player, turn, err)
	}
	return snap, nil
}

// Latest returns the snapshot with the highest turn for (game, player).
//
// Postcondition: returns ErrSnapshotNotFound when the player has none.
func (s *Store) Latest(ctx context.Context, game uuid.UUID, player civ.PlayerID) (storage.Snapshot, error) {
	var row snapshotRow
	err := s.conn.GetContext(ctx, &row, `SELECT game_id, player_id, turn, data, created_at
		FROM tactics_snapshots
		WHERE game_id = ? AND player_id = ?
		ORDER BY turn DESC
		LIMIT 1`,
		game.String(), int(player))
	snap, err := fromRow(row, err)
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("sqlite.Store.Latest: game %s player %d: %w", game, player, err)
	}
	return snap, nil
}

// Turns lists the turns stored for (game, player) in ascending order.
func (s *Store) Turns(ctx context.Context, game uuid.UUID, player civ.PlayerID) ([]int, error) {
	var turns []int
	err := s.conn.SelectContext(ctx, &turns, `SELECT turn FROM tactics_snapshots
		WHERE game_id = ? AND player_id = ?
		ORDER BY turn`,
		game.String(), int(player))
	if err != nil {
		return nil, fmt.Errorf("sqlite.Store.Turns: game %s player %d: %w", game, player, err)
	}
	return turns, nil
}

func fromRow(row snapshotRow, err error) (storage.Snapshot, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return storage.Snapshot{}, err
	}
	return row.snapshot()
}
