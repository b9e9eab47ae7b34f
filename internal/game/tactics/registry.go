package tactics

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/altai/internal/game/civ"
)

// Registry holds the tactics of every player in a game.
// All methods are safe for concurrent use; the PlayerTactics they return are
// not, and must only be used by the goroutine driving that player.
type Registry struct {
	mu      sync.RWMutex
	players map[civ.PlayerID]*PlayerTactics
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{players: make(map[civ.PlayerID]*PlayerTactics)}
}

// Register adds pt under its player's id.
//
// Precondition: pt must be non-nil.
// Postcondition: Returns an error if the player is already registered.
func (r *Registry) Register(pt *PlayerTactics) error {
	if pt == nil {
		panic("tactics.Registry.Register: tactics must not be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := pt.PlayerID()
	if _, exists := r.players[id]; exists {
		return fmt.Errorf("player %d already registered", id)
	}
	r.players[id] = pt
	return nil
}

// For returns the tactics of player id.
//
// Postcondition: Returns (nil, false) when the player is not registered.
func (r *Registry) For(id civ.PlayerID) (*PlayerTactics, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pt, ok := r.players[id]
	return pt, ok
}

// Remove drops player id. Removing an unknown player is a no-op.
func (r *Registry) Remove(id civ.PlayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, id)
}

// IDs returns every registered player id in ascending order.
func (r *Registry) IDs() []civ.PlayerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]civ.PlayerID, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
