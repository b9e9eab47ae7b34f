package tactics

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
)

// CityUnitTactic values training one unit in one city.
type CityUnitTactic struct {
	depTactic
	Unit rules.UnitType
	City civ.CityID

	items  []UnitItem
	ladder *projection.Ladder
	turns  int
}

func newCityUnitTactic(u rules.UnitType, city civ.CityID, items []UnitItem, deps, tech []dependency.Dependency) *CityUnitTactic {
	return &CityUnitTactic{
		depTactic: depTactic{deps: newDepList(city, deps, tech)},
		Unit:      u,
		City:      city,
		items:     items,
		turns:     projection.NeverBuilt,
	}
}

// Turns returns the projected training time of the last Update.
func (t *CityUnitTactic) Turns() int { return t.turns }

// Update projects the city training the unit.
func (t *CityUnitTactic) Update(pc *PlayerContext, cd *projection.CityData) error {
	t.ladder, t.turns = nil, projection.NeverBuilt
	if cd == nil {
		live, ok := pc.Snapshot(t.City)
		if !ok {
			return fmt.Errorf("tactics.CityUnitTactic.Update: city %d: %w", t.City, ErrUnknownCity)
		}
		cd = live
	}
	info := pc.Rules.Unit(t.Unit)
	if info == nil || info.Cost < 0 {
		return nil
	}
	target := projection.QueueItem{Kind: projection.QueueUnit, ID: int(t.Unit)}
	l, err := pc.scratch(cd, func(hypo *projection.CityData) {
		t.deps.applyUnmet(pc.Player, hypo)
		hypo.Queue = hypo.Queue[:0]
		hypo.PushUnit(t.Unit)
	}, nil, target)
	if err != nil {
		return fmt.Errorf("tactics.CityUnitTactic.Update: unit %d city %d: %w", t.Unit, t.City, err)
	}
	turns := l.TargetTurn()
	if turns < 0 {
		turns = l.ExpectedTurnBuilt(info.Cost, 0, 0)
	}
	t.ladder, t.turns = l, turns
	return nil
}

// Apply runs every item against the last projection.
func (t *CityUnitTactic) Apply(pc *PlayerContext, sd *SelectionData) {
	if t.ladder == nil || t.turns >= projection.NeverBuilt {
		return
	}
	info := pc.Rules.Unit(t.Unit)
	live, ok := pc.Snapshot(t.City)
	if info == nil || !ok {
		return
	}
	h := pc.Arena.Scratch(live)
	defer pc.Arena.Release(h)
	hypo := pc.Arena.Get(h)
	t.deps.applyUnmet(pc.Player, hypo)

	e := &unitEval{pc: pc, info: info, city: t.City, turns: t.turns, snapshot: hypo}
	for _, it := range t.items {
		it.applyUnit(e, sd)
	}
}

func (t *CityUnitTactic) ApplyToMap(pc *PlayerContext, sdm *SelectionDataMap, mask dependency.Mask) {
	applyToMap(t, pc, sdm, mask)
}

// UnitTactics values one unit type across every city of the civilization.
type UnitTactics struct {
	depTactic
	Unit  rules.UnitType
	Items []UnitItem

	cityDeps []dependency.Dependency
	techDeps []dependency.Dependency
	cities   map[civ.CityID]*CityUnitTactic
}

// NewUnitTactics returns a tactic with no cities.
func NewUnitTactics(u rules.UnitType, c UnitClassification) *UnitTactics {
	return &UnitTactics{
		depTactic: depTactic{deps: newDepList(civ.NoCity, c.Deps, c.TechDeps)},
		Unit:      u,
		Items:     c.Items,
		cityDeps:  c.Deps,
		techDeps:  c.TechDeps,
		cities:    make(map[civ.CityID]*CityUnitTactic),
	}
}

// AddCity starts tracking city id. Units that cannot be trained get no city
// tactics.
func (t *UnitTactics) AddCity(r *rules.Rules, id civ.CityID) {
	if info := r.Unit(t.Unit); info == nil || info.Cost < 0 {
		return
	}
	if _, ok := t.cities[id]; !ok {
		t.cities[id] = newCityUnitTactic(t.Unit, id, t.Items, t.cityDeps, t.techDeps)
	}
}

// RemoveCity stops tracking city id.
func (t *UnitTactics) RemoveCity(id civ.CityID) { delete(t.cities, id) }

// CityTactic returns the per-city tactic for id.
func (t *UnitTactics) CityTactic(id civ.CityID) (*CityUnitTactic, bool) {
	ct, ok := t.cities[id]
	return ct, ok
}

func (t *UnitTactics) cityIDs() []civ.CityID {
	ids := make([]civ.CityID, 0, len(t.cities))
	for id := range t.cities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (t *UnitTactics) Update(pc *PlayerContext, _ *projection.CityData) error {
	for _, id := range t.cityIDs() {
		if err := t.cities[id].Update(pc, nil); err != nil {
			pc.Logger.Warn("skipping city for unit",
				zap.Int("unit", int(t.Unit)), zap.Int("city", int(id)), zap.Error(err))
		}
	}
	return nil
}

func (t *UnitTactics) UpdateDependencies(pc *PlayerContext) {
	t.deps.prune(pc.Player)
	for _, ct := range t.cities {
		ct.UpdateDependencies(pc)
	}
}

// Apply writes every city whose own dependencies are met.
func (t *UnitTactics) Apply(pc *PlayerContext, sd *SelectionData) {
	for _, id := range t.cityIDs() {
		ct := t.cities[id]
		if ct.AreDependenciesSatisfied(pc, dependency.IgnoreNone) {
			ct.Apply(pc, sd)
		}
	}
}

// ApplyToMap routes each city separately, since a building prerequisite may
// be met in one city and missing in another.
func (t *UnitTactics) ApplyToMap(pc *PlayerContext, sdm *SelectionDataMap, mask dependency.Mask) {
	for _, id := range t.cityIDs() {
		t.cities[id].ApplyToMap(pc, sdm, mask)
	}
}
