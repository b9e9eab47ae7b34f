package tactics

import (
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
)

// Tactic is one container of a player's tactic tree.
//
// A container moves through Update (projection against current state),
// UpdateDependencies (pruning), the dependency queries and finally Apply or
// ApplyToMap, which copy its scored items into selection data.
type Tactic interface {
	// Update re-projects the tactic. City containers project cd, or the
	// live snapshot of their city when cd is nil; civilization containers
	// ignore cd.
	Update(pc *PlayerContext, cd *projection.CityData) error
	// UpdateDependencies drops dependencies that are satisfied and removeable.
	UpdateDependencies(pc *PlayerContext)
	// AreDependenciesSatisfied reports whether nothing is required under mask.
	AreDependenciesSatisfied(pc *PlayerContext, mask dependency.Mask) bool
	// Apply writes the tactic's items into sd unconditionally.
	Apply(pc *PlayerContext, sd *SelectionData)
	// ApplyToMap writes the tactic into the bucket named by DepItems when
	// its dependencies are satisfied under mask.
	ApplyToMap(pc *PlayerContext, sdm *SelectionDataMap, mask dependency.Mask)
	// DepItems names what mask ignored but is still missing.
	DepItems(pc *PlayerContext, mask dependency.Mask) dependency.ItemSet
}

// depTactic supplies the dependency half of Tactic for containers that keep
// one dependency list.
type depTactic struct {
	deps depList
}

func (t *depTactic) UpdateDependencies(pc *PlayerContext) { t.deps.prune(pc.Player) }

func (t *depTactic) AreDependenciesSatisfied(pc *PlayerContext, mask dependency.Mask) bool {
	return t.deps.satisfied(pc.Player, mask)
}

func (t *depTactic) DepItems(pc *PlayerContext, mask dependency.Mask) dependency.ItemSet {
	return t.deps.items(pc.Player, mask)
}

// Dependencies returns every dependency still tracked, tech dependencies last.
func (t *depTactic) Dependencies() []dependency.Dependency { return t.deps.all() }

// applyToMap is the common ApplyToMap of single-list containers.
func applyToMap(t Tactic, pc *PlayerContext, sdm *SelectionDataMap, mask dependency.Mask) {
	if !t.AreDependenciesSatisfied(pc, mask) {
		return
	}
	t.Apply(pc, sdm.Get(t.DepItems(pc, mask)))
}
