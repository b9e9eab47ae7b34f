package tactics

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
)

// CityBuildingTactic values one building in one city.
type CityBuildingTactic struct {
	depTactic
	Building rules.BuildingType
	City     civ.CityID
	Items    []BuildingItem

	ladder  *projection.Ladder
	turns   int
	delta   output.Output
	current output.Output
}

// NewCityBuildingTactic returns an un-projected tactic.
func NewCityBuildingTactic(b rules.BuildingType, city civ.CityID, items []BuildingItem, deps, tech []dependency.Dependency) *CityBuildingTactic {
	return &CityBuildingTactic{
		depTactic: depTactic{deps: newDepList(city, deps, tech)},
		Building:  b,
		City:      city,
		Items:     items,
		turns:     projection.NeverBuilt,
	}
}

// Turns returns the projected build time of the last Update.
func (t *CityBuildingTactic) Turns() int { return t.turns }

// Delta returns the projected output change of the last Update.
func (t *CityBuildingTactic) Delta() output.Output { return t.delta }

// Ladder returns the projection of the last Update, or nil.
func (t *CityBuildingTactic) Ladder() *projection.Ladder { return t.ladder }

// Update projects the city with the building queued. Unmet dependencies are
// applied to the scratch copy first, so the value is what the building would
// be worth once they are met.
//
// Postcondition: the city's live snapshot is unchanged.
func (t *CityBuildingTactic) Update(pc *PlayerContext, cd *projection.CityData) error {
	t.reset()
	if cd == nil {
		live, ok := pc.Snapshot(t.City)
		if !ok {
			return fmt.Errorf("tactics.CityBuildingTactic.Update: city %d: %w", t.City, ErrUnknownCity)
		}
		cd = live
	}
	info := pc.Rules.Building(t.Building)
	if info == nil || cd.Buildings[t.Building] {
		return nil
	}

	h := pc.Arena.Scratch(cd)
	defer pc.Arena.Release(h)
	hypo := pc.Arena.Get(h)

	var base *projection.Ladder
	var err error
	if t.deps.applyUnmet(pc.Player, hypo) == 0 {
		base, err = pc.baselineOf(cd)
	} else {
		base, err = pc.project(hypo, nil, projection.NoItem)
	}
	if err != nil {
		return fmt.Errorf("tactics.CityBuildingTactic.Update: building %d city %d: %w", t.Building, t.City, err)
	}

	target := projection.QueueItem{Kind: projection.QueueBuilding, ID: int(t.Building)}
	hypo.Queue = hypo.Queue[:0]
	hypo.PushBuilding(t.Building)
	l, err := pc.project(hypo, nil, target)
	if err != nil {
		return fmt.Errorf("tactics.CityBuildingTactic.Update: building %d city %d: %w", t.Building, t.City, err)
	}

	turns := l.TargetTurn()
	if turns < 0 {
		turns = l.ExpectedTurnBuilt(info.Cost, 0, 0)
	}
	t.ladder = l
	t.turns = turns
	if turns < projection.NeverBuilt {
		t.delta = l.OutputFrom(turns + 1).Sub(base.OutputFrom(turns + 1))
	}
	if n := len(base.Entries); n > 0 {
		t.current = base.Output().Div(n)
	}
	return nil
}

func (t *CityBuildingTactic) reset() {
	t.ladder = nil
	t.turns = projection.NeverBuilt
	t.delta = output.Output{}
	t.current = output.Output{}
}

// Apply runs every item against the last projection.
func (t *CityBuildingTactic) Apply(pc *PlayerContext, sd *SelectionData) {
	if t.ladder == nil || t.turns >= projection.NeverBuilt {
		return
	}
	info := pc.Rules.Building(t.Building)
	live, ok := pc.Snapshot(t.City)
	if info == nil || !ok {
		return
	}
	h := pc.Arena.Scratch(live)
	defer pc.Arena.Release(h)
	hypo := pc.Arena.Get(h)
	t.deps.applyUnmet(pc.Player, hypo)

	e := &buildingEval{
		pc:       pc,
		info:     info,
		city:     t.City,
		turns:    t.turns,
		delta:    t.delta,
		current:  t.current,
		snapshot: hypo,
	}
	for _, it := range t.Items {
		it.applyBuilding(e, sd)
	}
}

// ApplyToMap writes the tactic into the bucket keyed by its missing
// dependencies.
func (t *CityBuildingTactic) ApplyToMap(pc *PlayerContext, sdm *SelectionDataMap, mask dependency.Mask) {
	applyToMap(t, pc, sdm, mask)
}

// LimitedBuildingTactic values a national or world wonder. Only one city of
// the civilization can build it, so every city competes and the fastest
// builder among the more productive half wins.
type LimitedBuildingTactic struct {
	depTactic
	Building   rules.BuildingType
	Scope      ComparisonScope
	AreaScoped bool
	Items      []BuildingItem

	cities     map[civ.CityID]*CityBuildingTactic
	cityDeps   []dependency.Dependency
	techDeps   []dependency.Dependency
	firstCity  civ.CityID
	firstTurns int
}

// NewLimitedBuildingTactic returns a tactic with no cities.
func NewLimitedBuildingTactic(info *rules.BuildingInfo, c BuildingClassification) *LimitedBuildingTactic {
	return &LimitedBuildingTactic{
		depTactic:  depTactic{deps: newDepList(civ.NoCity, c.Deps, c.TechDeps)},
		Building:   info.ID,
		Scope:      c.Scope,
		AreaScoped: info.AreaScoped,
		Items:      c.Items,
		cities:     make(map[civ.CityID]*CityBuildingTactic),
		cityDeps:   c.Deps,
		techDeps:   c.TechDeps,
		firstCity:  civ.NoCity,
		firstTurns: -1,
	}
}

// AddCity starts tracking city id.
func (t *LimitedBuildingTactic) AddCity(id civ.CityID) {
	if _, ok := t.cities[id]; ok {
		return
	}
	t.cities[id] = NewCityBuildingTactic(t.Building, id, t.Items, t.cityDeps, t.techDeps)
}

// RemoveCity stops tracking city id.
func (t *LimitedBuildingTactic) RemoveCity(id civ.CityID) {
	delete(t.cities, id)
	if t.firstCity == id {
		t.firstCity, t.firstTurns = civ.NoCity, -1
	}
}

// CityTactic returns the per-city tactic for id.
func (t *LimitedBuildingTactic) CityTactic(id civ.CityID) (*CityBuildingTactic, bool) {
	ct, ok := t.cities[id]
	return ct, ok
}

// FirstBuildCity returns the city chosen by the last Apply and its build
// time, or (civ.NoCity, -1).
func (t *LimitedBuildingTactic) FirstBuildCity() (civ.CityID, int) {
	return t.firstCity, t.firstTurns
}

func (t *LimitedBuildingTactic) cityIDs() []civ.CityID {
	ids := make([]civ.CityID, 0, len(t.cities))
	for id := range t.cities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Update projects every city. A city whose projection fails is logged and
// left without a value.
func (t *LimitedBuildingTactic) Update(pc *PlayerContext, _ *projection.CityData) error {
	for _, id := range t.cityIDs() {
		if err := t.cities[id].Update(pc, nil); err != nil {
			pc.Logger.Warn("skipping city for limited building",
				zap.Int("building", int(t.Building)), zap.Int("city", int(id)), zap.Error(err))
		}
	}
	return nil
}

func (t *LimitedBuildingTactic) UpdateDependencies(pc *PlayerContext) {
	t.deps.prune(pc.Player)
	for _, ct := range t.cities {
		ct.UpdateDependencies(pc)
	}
}

// candidates returns the cities allowed to compete, in ascending id order.
// Cities are ranked 1..n by baseline production, ties by id, and those
// ranked 1+n/2 or lower are skipped.
func (t *LimitedBuildingTactic) candidates(pc *PlayerContext) []civ.CityID {
	ids := t.cityIDs()
	n := len(ids)
	if n <= 1 {
		return ids
	}
	prod := make(map[civ.CityID]int, n)
	for _, id := range ids {
		if l, err := pc.Baseline(id); err == nil {
			prod[id] = l.AverageProduction()
		}
	}
	ranked := append([]civ.CityID(nil), ids...)
	sort.SliceStable(ranked, func(i, j int) bool { return prod[ranked[i]] > prod[ranked[j]] })
	allowed := make(map[civ.CityID]bool, n)
	for i, id := range ranked {
		if rank := i + 1; rank >= 1+n/2 {
			break
		}
		allowed[id] = true
	}
	out := ids[:0]
	for _, id := range ids {
		if allowed[id] {
			out = append(out, id)
		}
	}
	return out
}

// selectCity picks the candidate whose own dependencies hold under mask and
// that finishes the building first with something to record. The choice is
// kept for FirstBuildCity.
func (t *LimitedBuildingTactic) selectCity(pc *PlayerContext, mask dependency.Mask) *CityBuildingTactic {
	t.firstCity, t.firstTurns = civ.NoCity, -1
	if pc.Player.BuildingCount(t.Building) > 0 {
		return nil
	}
	var winner *CityBuildingTactic
	for _, id := range t.candidates(pc) {
		ct := t.cities[id]
		if ct.turns >= projection.NeverBuilt || !ct.AreDependenciesSatisfied(pc, mask) {
			continue
		}
		tmp := NewSelectionData()
		ct.Apply(pc, tmp)
		if tmp.Empty() {
			continue
		}
		if winner == nil || ct.turns < winner.turns {
			winner = ct
		}
	}
	if winner != nil {
		t.firstCity, t.firstTurns = winner.City, winner.turns
	}
	return winner
}

// Apply picks the city that finishes the building first among those whose
// dependencies are all met, and records its value including what the
// building's effects are worth in every other city it reaches.
func (t *LimitedBuildingTactic) Apply(pc *PlayerContext, sd *SelectionData) {
	if winner := t.selectCity(pc, dependency.IgnoreNone); winner != nil {
		t.record(pc, winner, sd)
	}
}

// ApplyToMap picks the winning city under mask and writes it into the bucket
// keyed by what that city is still missing.
func (t *LimitedBuildingTactic) ApplyToMap(pc *PlayerContext, sdm *SelectionDataMap, mask dependency.Mask) {
	if !t.AreDependenciesSatisfied(pc, mask) {
		t.firstCity, t.firstTurns = civ.NoCity, -1
		return
	}
	if winner := t.selectCity(pc, mask); winner != nil {
		t.record(pc, winner, sdm.Get(winner.DepItems(pc, mask)))
	}
}

func (t *LimitedBuildingTactic) record(pc *PlayerContext, winner *CityBuildingTactic, sd *SelectionData) {
	winner.Apply(pc, sd)
	global := t.globalDelta(pc, winner)
	if global.IsZero() {
		return
	}
	for _, v := range sd.EconomicBuildings {
		if v.Building == t.Building && v.City == winner.City {
			v.Delta = v.Delta.Add(global)
			sd.AddEconomicBuilding(v)
			return
		}
	}
	total := winner.delta.Add(global)
	if total.AnyPositive(nil) {
		sd.AddEconomicBuilding(BuildingValue{Building: t.Building, City: winner.City, Turns: winner.turns, Delta: total})
	}
}

// globalDelta sums the output change in every other city once the winner
// completes the building. Area scoped buildings only reach cities in the
// winner's area.
func (t *LimitedBuildingTactic) globalDelta(pc *PlayerContext, winner *CityBuildingTactic) output.Output {
	if t.Scope != GlobalComparison && t.Scope != AreaComparison {
		return output.Output{}
	}
	wc, ok := pc.Player.City(winner.City)
	if !ok {
		return output.Output{}
	}
	events := []projection.Event{projection.BuildingBuiltEvent{
		Turn:     winner.turns,
		Building: t.Building,
		City:     winner.City,
		Area:     wc.Area,
	}}
	var total output.Output
	for _, c := range pc.Player.Cities() {
		if c.ID == winner.City {
			continue
		}
		if t.AreaScoped && c.Area != wc.Area {
			continue
		}
		cd, ok := pc.Snapshot(c.ID)
		if !ok {
			continue
		}
		base, err := pc.Baseline(c.ID)
		if err != nil {
			continue
		}
		l, err := pc.project(cd, events, projection.NoItem)
		if err != nil {
			pc.Logger.Warn("skipping city in wonder projection",
				zap.Int("building", int(t.Building)), zap.Int("city", int(c.ID)), zap.Error(err))
			continue
		}
		total = total.Add(l.Output().Sub(base.Output()))
	}
	return total
}
