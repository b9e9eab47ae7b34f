package tactics

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
)

// ErrUnknownCity is returned when a city id is not owned by the player.
var ErrUnknownCity = errors.New("tactics: unknown city")

// PlayerTactics is the tactic tree of one civilization: every container the
// classifier produced from the rules, kept current through lifecycle events
// and queried by the selection algorithms.
//
// PlayerTactics is not safe for concurrent use.
type PlayerTactics struct {
	ctx *PlayerContext

	// classified holds the classification of every unlimited building so
	// new or recaptured cities can get their tactics.
	classified map[rules.BuildingType]BuildingClassification

	buildings    map[civ.CityID]map[rules.BuildingType]*CityBuildingTactic
	limited      map[rules.BuildingType]*LimitedBuildingTactic
	units        map[rules.UnitType]*UnitTactics
	civics       map[rules.CivicType]*CivicTactics
	techs        map[rules.TechType]*TechTactics
	resources    map[rules.BonusType]*ResourceTactics
	religions    map[rules.ReligionType]*ReligionTactics
	processes    map[rules.ProcessType]*ProcessTactic
	improvements map[rules.ImprovementType]*ImprovementTactics
}

func newPlayerTactics(pc *PlayerContext) *PlayerTactics {
	return &PlayerTactics{
		ctx:          pc,
		classified:   make(map[rules.BuildingType]BuildingClassification),
		buildings:    make(map[civ.CityID]map[rules.BuildingType]*CityBuildingTactic),
		limited:      make(map[rules.BuildingType]*LimitedBuildingTactic),
		units:        make(map[rules.UnitType]*UnitTactics),
		civics:       make(map[rules.CivicType]*CivicTactics),
		techs:        make(map[rules.TechType]*TechTactics),
		resources:    make(map[rules.BonusType]*ResourceTactics),
		religions:    make(map[rules.ReligionType]*ReligionTactics),
		processes:    make(map[rules.ProcessType]*ProcessTactic),
		improvements: make(map[rules.ImprovementType]*ImprovementTactics),
	}
}

// NewPlayerTactics classifies every rule entity for pc's player and creates
// tactics for each of its cities. Nothing is projected until Refresh.
//
// Precondition: pc must be non-nil.
func NewPlayerTactics(pc *PlayerContext) *PlayerTactics {
	if pc == nil {
		panic("tactics.NewPlayerTactics: context must not be nil")
	}
	pt := newPlayerTactics(pc)
	r := pc.Rules
	for _, info := range r.Buildings {
		c, ok := ClassifyBuilding(r, info)
		if !ok {
			continue
		}
		if info.IsLimited() {
			if pc.Player.BuildingCount(info.ID) == 0 {
				pt.limited[info.ID] = NewLimitedBuildingTactic(info, c)
			}
			continue
		}
		pt.classified[info.ID] = c
	}
	for _, info := range r.Units {
		if c, ok := ClassifyUnit(r, info); ok {
			pt.units[info.ID] = NewUnitTactics(info.ID, c)
		}
	}
	for _, info := range r.Civics {
		if items, tech, ok := ClassifyCivic(r, info); ok {
			pt.civics[info.ID] = NewCivicTactics(info.ID, items, tech)
		}
	}
	for _, info := range r.Techs {
		if pc.Player.HasTech(info.ID) {
			continue
		}
		if items, ok := ClassifyTech(r, info); ok {
			pt.techs[info.ID] = NewTechTactics(info.ID, items)
		}
	}
	for _, info := range r.Resources {
		if items, tech, ok := ClassifyResource(r, info); ok {
			pt.resources[info.ID] = NewResourceTactics(info.ID, items, tech)
		}
	}
	for _, info := range r.Religions {
		if items, deps, tech, ok := ClassifyReligion(r, info); ok {
			pt.religions[info.ID] = NewReligionTactics(info.ID, items, deps, tech)
		}
	}
	for _, info := range r.Processes {
		if tech, ok := ClassifyProcess(r, info); ok {
			pt.processes[info.ID] = NewProcessTactic(info.ID, tech)
		}
	}
	for _, info := range r.Improvements {
		if tech, ok := ClassifyImprovement(r, info); ok {
			pt.improvements[info.ID] = NewImprovementTactics(info.ID, tech)
		}
	}
	for _, c := range pc.Player.Cities() {
		pt.AddCity(c.ID)
	}
	pc.Logger.Debug("classified tactics",
		zap.Int("limited", len(pt.limited)),
		zap.Int("units", len(pt.units)),
		zap.Int("civics", len(pt.civics)),
		zap.Int("techs", len(pt.techs)))
	return pt
}

// Context returns the player context the tactics evaluate against.
func (pt *PlayerTactics) Context() *PlayerContext { return pt.ctx }

// PlayerID returns the owning player's id.
func (pt *PlayerTactics) PlayerID() civ.PlayerID { return pt.ctx.Player.ID }

// AddCity creates tactics for a new or captured city.
//
// Precondition: the player owns id.
func (pt *PlayerTactics) AddCity(id civ.CityID) {
	c, ok := pt.ctx.Player.City(id)
	if !ok {
		return
	}
	m, ok := pt.buildings[id]
	if !ok {
		m = make(map[rules.BuildingType]*CityBuildingTactic)
		pt.buildings[id] = m
	}
	for b, cl := range pt.classified {
		if c.HasBuilding(b) {
			continue
		}
		if _, exists := m[b]; !exists {
			m[b] = NewCityBuildingTactic(b, id, cl.Items, cl.Deps, cl.TechDeps)
		}
	}
	for _, lt := range pt.limited {
		lt.AddCity(id)
	}
	for _, ut := range pt.units {
		ut.AddCity(pt.ctx.Rules, id)
	}
	pt.ctx.InvalidateAll()
}

// RemoveCity drops every tactic of a lost city.
func (pt *PlayerTactics) RemoveCity(id civ.CityID) {
	delete(pt.buildings, id)
	for _, lt := range pt.limited {
		lt.RemoveCity(id)
	}
	for _, ut := range pt.units {
		ut.RemoveCity(id)
	}
	pt.ctx.InvalidateAll()
}

// OnTechResearched drops the tech's own tactic and prunes every dependency
// the tech satisfied.
func (pt *PlayerTactics) OnTechResearched(t rules.TechType) {
	delete(pt.techs, t)
	pt.ctx.InvalidateAll()
	pt.updateDependencies()
}

// OnBuildingBuilt drops the building's tactic in city and, for a limited
// building, the whole limited tactic.
func (pt *PlayerTactics) OnBuildingBuilt(city civ.CityID, b rules.BuildingType) {
	if m, ok := pt.buildings[city]; ok {
		delete(m, b)
	}
	delete(pt.limited, b)
	pt.ctx.InvalidateAll()
	pt.updateDependencies()
}

// OnBuildingLost recreates the building's tactic in city.
func (pt *PlayerTactics) OnBuildingLost(city civ.CityID, b rules.BuildingType) {
	pt.ctx.InvalidateAll()
	cl, ok := pt.classified[b]
	if !ok {
		return
	}
	m, ok := pt.buildings[city]
	if !ok {
		return
	}
	if _, exists := m[b]; !exists {
		m[b] = NewCityBuildingTactic(b, city, cl.Items, cl.Deps, cl.TechDeps)
	}
}

// CityBuildingTactic returns the tactic of building b in city.
func (pt *PlayerTactics) CityBuildingTactic(city civ.CityID, b rules.BuildingType) (*CityBuildingTactic, bool) {
	m, ok := pt.buildings[city]
	if !ok {
		return nil, false
	}
	t, ok := m[b]
	return t, ok
}

// LimitedBuildingTactic returns the tactic of limited building b.
func (pt *PlayerTactics) LimitedBuildingTactic(b rules.BuildingType) (*LimitedBuildingTactic, bool) {
	t, ok := pt.limited[b]
	return t, ok
}

// UnitTactics returns the tactic of unit u.
func (pt *PlayerTactics) UnitTactics(u rules.UnitType) (*UnitTactics, bool) {
	t, ok := pt.units[u]
	return t, ok
}

// TechTactics returns the tactic of tech t.
func (pt *PlayerTactics) TechTactics(t rules.TechType) (*TechTactics, bool) {
	tt, ok := pt.techs[t]
	return tt, ok
}

// CivicTactics returns the tactic of civic c.
func (pt *PlayerTactics) CivicTactics(c rules.CivicType) (*CivicTactics, bool) {
	t, ok := pt.civics[c]
	return t, ok
}

// ProcessTactic returns the tactic of process p.
func (pt *PlayerTactics) ProcessTactic(p rules.ProcessType) (*ProcessTactic, bool) {
	t, ok := pt.processes[p]
	return t, ok
}

// UpdateCityBuildingTactics re-projects every building tactic of city,
// including the city's share of limited buildings.
func (pt *PlayerTactics) UpdateCityBuildingTactics(city civ.CityID) error {
	if _, ok := pt.ctx.Player.City(city); !ok {
		return fmt.Errorf("tactics.PlayerTactics.UpdateCityBuildingTactics: city %d: %w", city, ErrUnknownCity)
	}
	pt.ctx.Invalidate(city)
	m := pt.buildings[city]
	for _, b := range sortedKeys(m) {
		t := m[b]
		if err := t.Update(pt.ctx, nil); err != nil {
			pt.ctx.Logger.Warn("skipping building tactic", zap.Int("building", int(b)), zap.Int("city", int(city)), zap.Error(err))
			continue
		}
		t.UpdateDependencies(pt.ctx)
	}
	for _, b := range sortedKeys(pt.limited) {
		ct, ok := pt.limited[b].CityTactic(city)
		if !ok {
			continue
		}
		if err := ct.Update(pt.ctx, nil); err != nil {
			pt.ctx.Logger.Warn("skipping limited building tactic", zap.Int("building", int(b)), zap.Int("city", int(city)), zap.Error(err))
			continue
		}
		ct.UpdateDependencies(pt.ctx)
	}
	return nil
}

// Refresh starts a new evaluation pass for turn and re-projects every
// container. Containers whose projection fails are logged and skipped.
func (pt *PlayerTactics) Refresh(turn int) {
	pt.ctx.BeginPass(turn)
	pt.each(func(t Tactic) {
		if err := t.Update(pt.ctx, nil); err != nil {
			pt.ctx.Logger.Warn("tactic update failed", zap.Int("turn", turn), zap.Error(err))
			return
		}
		t.UpdateDependencies(pt.ctx)
	})
}

func (pt *PlayerTactics) updateDependencies() {
	pt.each(func(t Tactic) { t.UpdateDependencies(pt.ctx) })
}

// each visits every container in a fixed order: city buildings by city then
// building, then limited buildings, units, civics, techs, resources,
// religions, processes and improvements, each by ascending id.
func (pt *PlayerTactics) each(fn func(Tactic)) {
	for _, city := range sortedKeys(pt.buildings) {
		m := pt.buildings[city]
		for _, b := range sortedKeys(m) {
			fn(m[b])
		}
	}
	for _, k := range sortedKeys(pt.limited) {
		fn(pt.limited[k])
	}
	for _, k := range sortedKeys(pt.units) {
		fn(pt.units[k])
	}
	for _, k := range sortedKeys(pt.civics) {
		fn(pt.civics[k])
	}
	for _, k := range sortedKeys(pt.techs) {
		fn(pt.techs[k])
	}
	for _, k := range sortedKeys(pt.resources) {
		fn(pt.resources[k])
	}
	for _, k := range sortedKeys(pt.religions) {
		fn(pt.religions[k])
	}
	for _, k := range sortedKeys(pt.processes) {
		fn(pt.processes[k])
	}
	for _, k := range sortedKeys(pt.improvements) {
		fn(pt.improvements[k])
	}
}

// SelectionMap buckets every container under mask.
func (pt *PlayerTactics) SelectionMap(mask dependency.Mask) *SelectionDataMap {
	sdm := NewSelectionDataMap()
	pt.each(func(t Tactic) { t.ApplyToMap(pt.ctx, sdm, mask) })
	return sdm
}

// Snapshot returns the live snapshot of city, for callers that project
// alternatives of their own.
func (pt *PlayerTactics) Snapshot(city civ.CityID) (*projection.CityData, bool) {
	return pt.ctx.Snapshot(city)
}

func sortedKeys[K ~int, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
