package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/altai/internal/config"
	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/storage"
)

// ErrSnapshotNotFound is returned when a snapshot lookup yields no results.
var ErrSnapshotNotFound = storage.ErrSnapshotNotFound

// SnapshotRepository persists encoded player tactics in tactics_snapshots.
type SnapshotRepository struct {
	db    *pgxpool.Pool
	close func()
}

var _ storage.SnapshotStore = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a SnapshotRepository backed by the given pool.
// The caller keeps ownership of db.
//
// Precondition: db must be a valid, open connection pool.
func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	if db == nil {
		panic("postgres.NewSnapshotRepository: db must not be nil")
	}
	return &SnapshotRepository{db: db}
}

// Open connects a pool from cfg and returns a repository that owns it.
//
// Postcondition: Close releases the pool.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*SnapshotRepository, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: %w", err)
	}
	return &SnapshotRepository{db: pool.DB(), close: pool.Close}, nil
}

// Save inserts s, replacing any snapshot with the same key.
//
// Precondition: s.Game must not be uuid.Nil.
// Postcondition: created_at is reset to the time of the write.
func (r *SnapshotRepository) Save(ctx context.Context, s storage.Snapshot) error {
	if s.Game == uuid.Nil {
		return fmt.Errorf("postgres.SnapshotRepository.Save: game id must be set")
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO tactics_snapshots (game_id, player_id, turn, data)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (game_id, player_id, turn)
		 DO UPDATE SET data = EXCLUDED.data, created_at = NOW()`,
		s.Game, int(s.Player), s.Turn, s.Data,
	)
	if err != nil {
		return fmt.Errorf("postgres.SnapshotRepository.Save: game %s player %d turn %d: %w", s.Game, s.Player, s.Turn, err)
	}
	return nil
}

// Load returns the snapshot stored for (game, player, turn).
//
// Postcondition: returns ErrSnapshotNotFound when no row matches.
func (r *SnapshotRepository) Load(ctx context.Context, game uuid.UUID, player civ.PlayerID, turn int) (storage.Snapshot, error) {
	row := r.db.QueryRow(ctx,
		`SELECT game_id, player_id, turn, data, created_at
		 FROM tactics_snapshots
		 WHERE game_id = $1 AND player_id = $2 AND turn = $3`,
		game, int(player), turn,
	)
	s, err := scanSnapshot(row)
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("postgres.SnapshotRepository.Load: game %s player %d turn %d: %w", game, player, turn, err)
	}
	return s, nil
}

// Latest returns the snapshot with the highest turn for (game, player).
//
// Postcondition: returns ErrSnapshotNotFound when the player has none.
func (r *SnapshotRepository) Latest(ctx context.Context, game uuid.UUID, player civ.PlayerID) (storage.Snapshot, error) {
	row := r.db.QueryRow(ctx,
		`SELECT game_id, player_id, turn, data, created_at
		 FROM tactics_snapshots
		 WHERE game_id = $1 AND player_id = $2
		 ORDER BY turn DESC
		 LIMIT 1`,
		game, int(player),
	)
	s, err := scanSnapshot(row)
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("postgres.SnapshotRepository.Latest: game %s player %d: %w", game, player, err)
	}
	return s, nil
}

// Close releases the pool when the repository was created by Open.
func (r *SnapshotRepository) Close() error {
	if r.close != nil {
		r.close()
	}
	return nil
}

func scanSnapshot(row pgx.Row) (storage.Snapshot, error) {
	var (
		s      storage.Snapshot
		player int
	)
	err := row.Scan(&s.Game, &player, &s.Turn, &s.Data, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return storage.Snapshot{}, err
	}
	s.Player = civ.PlayerID(player)
	return s, nil
}
