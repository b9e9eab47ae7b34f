package tactics

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
)

// ConstructItem is what a city should build next. At most one of Building,
// Unit, Process and Project is set; the others hold their sentinels.
type ConstructItem struct {
	Building rules.BuildingType
	Unit     rules.UnitType
	Process  rules.ProcessType
	Project  rules.ProjectType
	// BuildTarget is the building Building is a prerequisite for, or
	// rules.NoBuilding.
	BuildTarget rules.BuildingType
}

// NoConstructItem builds nothing.
var NoConstructItem = ConstructItem{
	Building:    rules.NoBuilding,
	Unit:        rules.NoUnit,
	Process:     rules.NoProcess,
	Project:     rules.NoProject,
	BuildTarget: rules.NoBuilding,
}

// IsZero reports whether the item builds nothing.
func (c ConstructItem) IsZero() bool { return c == NoConstructItem }

func (c ConstructItem) String() string {
	switch {
	case c.Building != rules.NoBuilding && c.BuildTarget != rules.NoBuilding:
		return fmt.Sprintf("building %d for %d", c.Building, c.BuildTarget)
	case c.Building != rules.NoBuilding:
		return fmt.Sprintf("building %d", c.Building)
	case c.Unit != rules.NoUnit:
		return fmt.Sprintf("unit %d", c.Unit)
	case c.Process != rules.NoProcess:
		return fmt.Sprintf("process %d", c.Process)
	case c.Project != rules.NoProject:
		return fmt.Sprintf("project %d", c.Project)
	}
	return "nothing"
}

type buildCandidate struct {
	item  ConstructItem
	score float64
}

// BuildItem selects what city should construct next: the buildable building
// or unit with the best value per turn, a prerequisite of a better building
// when that is worth more, or else the most useful process.
//
// Precondition: Refresh has run for the current turn.
func (pt *PlayerTactics) BuildItem(city civ.CityID) (ConstructItem, error) {
	pc := pt.ctx
	if err := pt.UpdateCityBuildingTactics(city); err != nil {
		return NoConstructItem, fmt.Errorf("tactics.PlayerTactics.BuildItem: %w", err)
	}
	pt.updateCityUnits(city)

	var best *buildCandidate
	consider := func(c buildCandidate) {
		if c.score <= 0 {
			return
		}
		if best == nil || c.score > best.score {
			best = &c
		}
	}

	m := pt.buildings[city]
	for _, b := range sortedKeys(m) {
		t := m[b]
		if !t.AreDependenciesSatisfied(pc, dependency.IgnoreNone) {
			continue
		}
		consider(buildCandidate{item: buildingItem(b, rules.NoBuilding), score: pt.buildingScore(t, t.turns)})
	}
	for _, b := range sortedKeys(pt.limited) {
		lt := pt.limited[b]
		if !lt.AreDependenciesSatisfied(pc, dependency.IgnoreNone) {
			continue
		}
		ct, ok := lt.CityTactic(city)
		if !ok || !ct.AreDependenciesSatisfied(pc, dependency.IgnoreNone) {
			continue
		}
		sd := NewSelectionData()
		lt.Apply(pc, sd)
		if first, turns := lt.FirstBuildCity(); first == city {
			consider(buildCandidate{item: buildingItem(b, rules.NoBuilding), score: pt.selectionScore(sd) / float64(max(1, turns))})
		}
	}
	for _, u := range sortedKeys(pt.units) {
		ct, ok := pt.units[u].CityTactic(city)
		if !ok || !ct.AreDependenciesSatisfied(pc, dependency.IgnoreNone) || ct.turns >= projection.NeverBuilt {
			continue
		}
		sd := NewSelectionData()
		ct.Apply(pc, sd)
		consider(buildCandidate{item: unitItem(u), score: pt.selectionScore(sd) / float64(max(1, ct.turns))})
	}

	if prereq, ok := pt.prerequisiteBuild(city); ok {
		consider(prereq)
	}

	if best != nil {
		pc.Logger.Debug("build selected", zap.Int("city", int(city)), zap.Stringer("item", best.item), zap.Float64("score", best.score))
		return best.item, nil
	}
	if p, ok := pt.bestProcess(city); ok {
		pc.Logger.Debug("build falls back to process", zap.Int("city", int(city)), zap.String("process", pc.Rules.ProcessKey(p)))
		item := NoConstructItem
		item.Process = p
		return item, nil
	}
	return NoConstructItem, nil
}

func buildingItem(b, target rules.BuildingType) ConstructItem {
	item := NoConstructItem
	item.Building = b
	item.BuildTarget = target
	return item
}

func unitItem(u rules.UnitType) ConstructItem {
	item := NoConstructItem
	item.Unit = u
	return item
}

func (pt *PlayerTactics) updateCityUnits(city civ.CityID) {
	for _, u := range sortedKeys(pt.units) {
		ct, ok := pt.units[u].CityTactic(city)
		if !ok {
			continue
		}
		if err := ct.Update(pt.ctx, nil); err != nil {
			pt.ctx.Logger.Warn("skipping unit tactic", zap.Int("unit", int(u)), zap.Int("city", int(city)), zap.Error(err))
			continue
		}
		ct.UpdateDependencies(pt.ctx)
	}
}

// buildingScore is the value per turn of t finishing after turns.
func (pt *PlayerTactics) buildingScore(t *CityBuildingTactic, turns int) float64 {
	if turns >= projection.NeverBuilt {
		return 0
	}
	sd := NewSelectionData()
	t.Apply(pt.ctx, sd)
	return pt.selectionScore(sd) / float64(max(1, turns))
}

// selectionScore values the entries one construct candidate wrote. A
// building listed under several headings counts once, at its best.
func (pt *PlayerTactics) selectionScore(sd *SelectionData) float64 {
	pc := pt.ctx
	value := pc.Value()
	score := 0.0

	buildings := make(map[rules.BuildingType]float64)
	for _, list := range [][]BuildingValue{sd.EconomicBuildings, sd.CultureBuildings, sd.SpecialistBuildings} {
		for _, v := range list {
			if x := value(v.Delta); x > buildings[v.Building] {
				buildings[v.Building] = x
			}
		}
	}
	for _, b := range sortedKeys(buildings) {
		score += buildings[b]
	}

	m := pc.militaryScale(pt.militaryValue(sd))
	if pc.Player.AtWar {
		m *= 2
	} else {
		m /= float64(pc.Settings.PeaceMilitaryDiscount)
	}
	score += m

	if len(sd.WorkerUnits) > 0 && pt.workerCount() < len(pc.Player.Cities()) {
		score += value(sd.WorkerUnits[0].Delta)
	}
	score += value(sd.ExpansionValue)
	for _, r := range sortedKeys(sd.ReligionOutputDeltas) {
		score += value(sd.ReligionOutputDeltas[r])
	}
	return score
}

func (pt *PlayerTactics) workerCount() int {
	n := 0
	for _, u := range pt.ctx.Player.Units() {
		if isWorker(pt.ctx.Rules.Unit(u.Type)) {
			n++
		}
	}
	return n
}

func isWorker(info *rules.UnitInfo) bool {
	if info == nil {
		return false
	}
	for _, n := range info.Nodes {
		if _, ok := n.(rules.WorkerNode); ok {
			return true
		}
	}
	return false
}

// prerequisiteBuild looks for a building in city that is blocked only by
// other buildings of the same city, and returns the first buildable
// prerequisite of the best such building. The target's value is spread over
// the turns of both.
func (pt *PlayerTactics) prerequisiteBuild(city civ.CityID) (buildCandidate, bool) {
	pc := pt.ctx
	m := pt.buildings[city]
	var best *buildCandidate
	for _, b := range sortedKeys(m) {
		t := m[b]
		if t.AreDependenciesSatisfied(pc, dependency.IgnoreNone) ||
			!t.AreDependenciesSatisfied(pc, dependency.IgnoreCityBuildings) ||
			t.turns >= projection.NeverBuilt {
			continue
		}
		pre, preTurns, ok := pt.buildablePrereq(city, t)
		if !ok {
			continue
		}
		score := pt.buildingScore(t, t.turns+preTurns)
		if score > 0 && (best == nil || score > best.score) {
			best = &buildCandidate{item: buildingItem(pre, b), score: score}
		}
	}
	if best == nil {
		return buildCandidate{}, false
	}
	return *best, true
}

// buildablePrereq returns the first unmet city building dependency of t
// that city can build right now, with its build time.
func (pt *PlayerTactics) buildablePrereq(city civ.CityID, t *CityBuildingTactic) (rules.BuildingType, int, bool) {
	for _, dep := range t.deps.unmet(pt.ctx.Player) {
		item := dep.BuildItem()
		if dep.Kind() != dependency.CityBuilding || item.Kind != projection.QueueBuilding {
			continue
		}
		pre, ok := pt.CityBuildingTactic(city, rules.BuildingType(item.ID))
		if !ok || !pre.AreDependenciesSatisfied(pt.ctx, dependency.IgnoreNone) || pre.turns >= projection.NeverBuilt {
			continue
		}
		return pre.Building, pre.turns, true
	}
	return rules.NoBuilding, 0, false
}

// bestProcess returns the available process worth the most in city.
func (pt *PlayerTactics) bestProcess(city civ.CityID) (rules.ProcessType, bool) {
	value := pt.ctx.Value()
	best, bestValue := rules.NoProcess, 0.0
	for _, p := range sortedKeys(pt.processes) {
		t := pt.processes[p]
		if !t.AreDependenciesSatisfied(pt.ctx, dependency.IgnoreNone) {
			continue
		}
		d, ok := t.CityDelta(city)
		if !ok {
			continue
		}
		if v := value(d); v > bestValue {
			best, bestValue = p, v
		}
	}
	return best, best != rules.NoProcess
}
