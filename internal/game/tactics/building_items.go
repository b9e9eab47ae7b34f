package tactics

import (
	"sort"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/persist"
)

// buildingEval is what a building item sees when its tactic is applied.
type buildingEval struct {
	pc    *PlayerContext
	info  *rules.BuildingInfo
	city  civ.CityID
	turns int
	// delta is the projected output change after the building completes.
	delta output.Output
	// current is the city's average per-turn output without the building.
	current output.Output
	// snapshot is the hypothetical city the building was projected in.
	snapshot *projection.CityData
}

func (e *buildingEval) value() BuildingValue {
	return BuildingValue{Building: e.info.ID, City: e.city, Turns: e.turns, Delta: e.delta}
}

func (e *buildingEval) significant(categories ...output.Category) bool {
	return IsSignificantTacticItem(e.delta, e.current, categories, e.pc.significance())
}

// BuildingItem is one evaluation rule attached to a building tactic. The set
// of items is closed to this package.
type BuildingItem interface {
	buildingTag() persist.Tag
	applyBuilding(e *buildingEval, sd *SelectionData)
	encode(w *persist.Writer)
}

// Building item tags.
const (
	tagEconomicItem persist.Tag = iota
	tagFoodItem
	tagHappyItem
	tagHealthItem
	tagScienceItem
	tagGoldItem
	tagCultureItem
	tagEspionageItem
	tagSpecialistItem
	tagGovCenterItem
	tagUnitExperienceItem
	tagCityDefenceItem
	tagFreeTechItem
)

// EconomicItem records the building when its total output delta matters.
type EconomicItem struct{}

// FoodItem records the building when its food delta matters.
type FoodItem struct{}

// HappyItem records the building when the extra working citizens it allows
// produce anything worth having.
type HappyItem struct{}

// HealthItem records the building when reduced unhealthiness saves food.
type HealthItem struct{}

// ScienceItem records the building when its research delta matters.
type ScienceItem struct{}

// GoldItem records the building when its gold delta matters.
type GoldItem struct{}

// CultureItem records the building as a culture source.
type CultureItem struct{}

// EspionageItem records the building when its espionage delta matters.
type EspionageItem struct{}

// SpecialistItem records a building that opens specialist slots.
type SpecialistItem struct {
	Slots map[rules.SpecialistType]int
}

// GovCenterItem records a government center unless one already stands
// somewhere, so an existing capital is never relocated.
type GovCenterItem struct{}

// UnitExperienceItem values free experience for units trained in the city.
type UnitExperienceItem struct {
	Experience       int
	GlobalExperience int
	// Domain limits Experience to one domain; nil means every domain.
	Domain *rules.Domain
}

// CityDefenceItem values extra city defence.
type CityDefenceItem struct {
	Defence       int
	GlobalDefence int
}

// FreeTechItem marks a building that grants free technologies.
type FreeTechItem struct {
	Count int
}

func (EconomicItem) buildingTag() persist.Tag       { return tagEconomicItem }
func (FoodItem) buildingTag() persist.Tag           { return tagFoodItem }
func (HappyItem) buildingTag() persist.Tag          { return tagHappyItem }
func (HealthItem) buildingTag() persist.Tag         { return tagHealthItem }
func (ScienceItem) buildingTag() persist.Tag        { return tagScienceItem }
func (GoldItem) buildingTag() persist.Tag           { return tagGoldItem }
func (CultureItem) buildingTag() persist.Tag        { return tagCultureItem }
func (EspionageItem) buildingTag() persist.Tag      { return tagEspionageItem }
func (SpecialistItem) buildingTag() persist.Tag     { return tagSpecialistItem }
func (GovCenterItem) buildingTag() persist.Tag      { return tagGovCenterItem }
func (UnitExperienceItem) buildingTag() persist.Tag { return tagUnitExperienceItem }
func (CityDefenceItem) buildingTag() persist.Tag    { return tagCityDefenceItem }
func (FreeTechItem) buildingTag() persist.Tag       { return tagFreeTechItem }

func (EconomicItem) applyBuilding(e *buildingEval, sd *SelectionData) {
	if e.significant() {
		sd.AddEconomicBuilding(e.value())
	}
}

func (FoodItem) applyBuilding(e *buildingEval, sd *SelectionData) {
	if e.significant(output.Food) {
		sd.AddEconomicBuilding(e.value())
	}
}

func (HappyItem) applyBuilding(e *buildingEval, sd *SelectionData) {
	if e.significant() {
		sd.AddEconomicBuilding(e.value())
	}
}

func (HealthItem) applyBuilding(e *buildingEval, sd *SelectionData) {
	if e.significant(output.Food) {
		sd.AddEconomicBuilding(e.value())
	}
}

func (ScienceItem) applyBuilding(e *buildingEval, sd *SelectionData) {
	if e.significant(output.Research) {
		sd.AddEconomicBuilding(e.value())
	}
}

func (GoldItem) applyBuilding(e *buildingEval, sd *SelectionData) {
	if e.significant(output.Gold) {
		sd.AddEconomicBuilding(e.value())
	}
}

func (CultureItem) applyBuilding(e *buildingEval, sd *SelectionData) {
	if e.delta[output.Culture] > 0 {
		sd.CultureBuildings = insertBuilding(sd.CultureBuildings, e.value())
		sd.CultureSources++
	}
}

func (EspionageItem) applyBuilding(e *buildingEval, sd *SelectionData) {
	if e.significant(output.Espionage) {
		sd.AddEconomicBuilding(e.value())
	}
}

func (i SpecialistItem) applyBuilding(e *buildingEval, sd *SelectionData) {
	if e.delta.AnyPositive(nil) {
		sd.SpecialistBuildings = insertBuilding(sd.SpecialistBuildings, e.value())
	}
}

func (GovCenterItem) applyBuilding(e *buildingEval, sd *SelectionData) {
	for _, b := range e.pc.Rules.GovernmentCenters() {
		if e.pc.Player.BuildingCount(b) > 0 {
			return
		}
	}
	if e.significant() {
		sd.AddEconomicBuilding(e.value())
	}
}

// applyBuilding scores experience as the experience granted per unit times
// the number of units the city could train over the horizon. The unit build
// time is projected on a scratch copy of the building's own hypothetical
// snapshot.
func (i UnitExperienceItem) applyBuilding(e *buildingEval, sd *SelectionData) {
	exp := i.Experience + i.GlobalExperience*len(e.pc.Player.Cities())
	if exp <= 0 {
		return
	}
	military := exp
	if unit, ok := bestCombatUnit(e.pc.Rules, e.snapshot, i.Domain); ok {
		target := projection.QueueItem{Kind: projection.QueueUnit, ID: int(unit.ID)}
		l, err := e.pc.scratch(e.snapshot, func(cd *projection.CityData) {
			cd.AddBuilding(e.info.ID)
			cd.Queue = cd.Queue[:0]
			cd.PushUnit(unit.ID)
		}, nil, target)
		if err == nil {
			turns := l.TargetTurn()
			if turns < 0 {
				turns = l.ExpectedTurnBuilt(unit.Cost, 0, 0)
			}
			if turns > 0 && turns < projection.NeverBuilt {
				military = exp * max(1, e.pc.Horizon()/turns)
			}
		}
	}
	v := e.value()
	v.Military = military
	sd.MilitaryBuildings = insertBuilding(sd.MilitaryBuildings, v)
}

func (i CityDefenceItem) applyBuilding(e *buildingEval, sd *SelectionData) {
	military := i.Defence + i.GlobalDefence*len(e.pc.Player.Cities())
	if military <= 0 {
		return
	}
	v := e.value()
	v.Military = military
	sd.MilitaryBuildings = insertBuilding(sd.MilitaryBuildings, v)
}

func (i FreeTechItem) applyBuilding(e *buildingEval, sd *SelectionData) {
	if i.Count <= 0 {
		return
	}
	sd.PossibleFreeTech = true
	sd.FreeTechValue = max(sd.FreeTechValue, i.Count*freeTechResearch(e.pc))
}

func (EconomicItem) encode(*persist.Writer)  {}
func (FoodItem) encode(*persist.Writer)      {}
func (HappyItem) encode(*persist.Writer)     {}
func (HealthItem) encode(*persist.Writer)    {}
func (ScienceItem) encode(*persist.Writer)   {}
func (GoldItem) encode(*persist.Writer)      {}
func (CultureItem) encode(*persist.Writer)   {}
func (EspionageItem) encode(*persist.Writer) {}
func (GovCenterItem) encode(*persist.Writer) {}

func (i SpecialistItem) encode(w *persist.Writer) {
	keys := make([]int, 0, len(i.Slots))
	for s := range i.Slots {
		keys = append(keys, int(s))
	}
	sort.Ints(keys)
	w.Int(len(keys))
	for _, k := range keys {
		w.Int(k)
		w.Int(i.Slots[rules.SpecialistType(k)])
	}
}

func (i UnitExperienceItem) encode(w *persist.Writer) {
	w.Int(i.Experience)
	w.Int(i.GlobalExperience)
	w.Bool(i.Domain != nil)
	if i.Domain != nil {
		w.Int(int(*i.Domain))
	}
}

func (i CityDefenceItem) encode(w *persist.Writer) {
	w.Int(i.Defence)
	w.Int(i.GlobalDefence)
}

func (i FreeTechItem) encode(w *persist.Writer) { w.Int(i.Count) }

func decodeBuildingItem(r *persist.Reader) (BuildingItem, error) {
	tag := r.Tag()
	if err := r.Err(); err != nil {
		return nil, err
	}
	var it BuildingItem
	switch tag {
	case tagEconomicItem:
		it = EconomicItem{}
	case tagFoodItem:
		it = FoodItem{}
	case tagHappyItem:
		it = HappyItem{}
	case tagHealthItem:
		it = HealthItem{}
	case tagScienceItem:
		it = ScienceItem{}
	case tagGoldItem:
		it = GoldItem{}
	case tagCultureItem:
		it = CultureItem{}
	case tagEspionageItem:
		it = EspionageItem{}
	case tagSpecialistItem:
		n := r.Len()
		slots := make(map[rules.SpecialistType]int, n)
		for j := 0; j < n && r.Err() == nil; j++ {
			s := rules.SpecialistType(r.Int())
			slots[s] = r.Int()
		}
		it = SpecialistItem{Slots: slots}
	case tagGovCenterItem:
		it = GovCenterItem{}
	case tagUnitExperienceItem:
		i := UnitExperienceItem{Experience: r.Int(), GlobalExperience: r.Int()}
		if r.Bool() {
			d := rules.Domain(r.Int())
			i.Domain = &d
		}
		it = i
	case tagCityDefenceItem:
		it = CityDefenceItem{Defence: r.Int(), GlobalDefence: r.Int()}
	case tagFreeTechItem:
		it = FreeTechItem{Count: r.Int()}
	default:
		err := persist.UnknownTagError("building item", tag)
		r.Fail(err)
		return nil, err
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return it, nil
}

// bestCombatUnit returns the strongest trainable unit the snapshot's techs
// allow, optionally restricted to one domain.
func bestCombatUnit(r *rules.Rules, cd *projection.CityData, domain *rules.Domain) (*rules.UnitInfo, bool) {
	var best *rules.UnitInfo
	for _, u := range r.Units {
		if u.Strength <= 0 || u.Cost <= 0 {
			continue
		}
		if domain != nil && u.Domain != *domain {
			continue
		}
		known := true
		for _, t := range u.PrereqTechs {
			if !cd.Techs[t] {
				known = false
				break
			}
		}
		if !known {
			continue
		}
		if best == nil || u.Strength > best.Strength {
			best = u
		}
	}
	return best, best != nil
}

// freeTechResearch estimates the research a free tech saves: the cost of the
// most expensive tech the player could research now.
func freeTechResearch(pc *PlayerContext) int {
	best := 0
	for _, t := range pc.Rules.Techs {
		if pc.Player.HasTech(t.ID) || !pc.Player.CanResearch(t) {
			continue
		}
		best = max(best, t.Cost)
	}
	return best
}
