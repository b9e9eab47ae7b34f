package tactics

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/persist"
)

type unitEval struct {
	pc       *PlayerContext
	info     *rules.UnitInfo
	city     civ.CityID
	turns    int
	snapshot *projection.CityData
}

// remaining is how many turns of the horizon are left once the unit exists.
func (e *unitEval) remaining() int {
	return max(0, e.pc.Horizon()-e.turns)
}

// UnitItem is one evaluation rule attached to a unit tactic.
type UnitItem interface {
	unitTag() persist.Tag
	applyUnit(e *unitEval, sd *SelectionData)
	encode(w *persist.Writer)
}

// Unit item tags.
const (
	tagCombatItem persist.Tag = iota
	tagWorkerItem
	tagSettlerItem
	tagMissionaryItem
	tagGreatPersonItem
)

// CombatItem values a unit for one combat role. Bonus is the role-specific
// strength modifier in percent.
type CombatItem struct {
	Role  Role
	Bonus int
}

// WorkerItem values a unit by the best plot improvement it can build.
type WorkerItem struct {
	Improvements []rules.ImprovementType
}

// SettlerItem values a unit able to found a city.
type SettlerItem struct{}

// MissionaryItem values spreading Religion to one more city.
type MissionaryItem struct {
	Religion rules.ReligionType
}

// GreatPersonItem values settling a great person as a free specialist.
type GreatPersonItem struct {
	Specialists      []rules.SpecialistType
	DiscoverResearch int
}

func (CombatItem) unitTag() persist.Tag      { return tagCombatItem }
func (WorkerItem) unitTag() persist.Tag      { return tagWorkerItem }
func (SettlerItem) unitTag() persist.Tag     { return tagSettlerItem }
func (MissionaryItem) unitTag() persist.Tag  { return tagMissionaryItem }
func (GreatPersonItem) unitTag() persist.Tag { return tagGreatPersonItem }

func (i CombatItem) applyUnit(e *unitEval, sd *SelectionData) {
	v := e.info.Strength * (100 + i.Bonus) / 100
	if v <= 0 {
		return
	}
	sd.AddUnit(i.Role, UnitValue{Unit: e.info.ID, City: e.city, Turns: e.turns, Value: v})
}

func (i WorkerItem) applyUnit(e *unitEval, sd *SelectionData) {
	var best output.Output
	found := false
	for _, id := range i.Improvements {
		imp := e.pc.Rules.Improvement(id)
		if imp == nil || (imp.Tech != rules.NoTech && !e.snapshot.Techs[imp.Tech]) {
			continue
		}
		turns := e.remaining() - imp.BuildTurns
		if turns <= 0 {
			continue
		}
		d := imp.Yield.Mul(turns)
		if !found || output.DefaultValue(d) > output.DefaultValue(best) {
			best, found = d, true
		}
	}
	if !found || !best.AnyPositive(nil) {
		return
	}
	sd.WorkerUnits = insertWorker(sd.WorkerUnits, WorkerValue{Unit: e.info.ID, City: e.city, Turns: e.turns, Delta: best})
}

func (SettlerItem) applyUnit(e *unitEval, sd *SelectionData) {
	if e.pc.Sites == nil {
		return
	}
	site, ok := e.pc.Sites.BestSite()
	if !ok || e.remaining() == 0 {
		return
	}
	v := site.Potential.Mul(e.remaining())
	if output.DefaultValue(v) > output.DefaultValue(sd.ExpansionValue) {
		sd.ExpansionValue = v
	}
}

func (i MissionaryItem) applyUnit(e *unitEval, sd *SelectionData) {
	info := e.pc.Rules.Religion(i.Religion)
	if info == nil || e.remaining() == 0 {
		return
	}
	for _, c := range e.pc.Player.Cities() {
		if !c.HasReligion(i.Religion) {
			sd.ReligionOutputDeltas[i.Religion] = sd.ReligionOutputDeltas[i.Religion].Add(info.Commerce.Mul(e.remaining()))
			return
		}
	}
}

func (i GreatPersonItem) applyUnit(e *unitEval, sd *SelectionData) {
	for _, s := range i.Specialists {
		delta, err := e.pc.cityDelta(e.city, func(cd *projection.CityData) { cd.AddFreeSpecialist(s) })
		if err != nil {
			e.pc.Logger.Warn("skipping specialist projection", zap.Int("unit", int(e.info.ID)), zap.Int("city", int(e.city)), zap.Error(err))
			continue
		}
		sd.SettledSpecialists = insertSpecialist(sd.SettledSpecialists, SpecialistValue{
			Specialist: s,
			Unit:       e.info.ID,
			City:       e.city,
			Delta:      delta,
		})
	}
}

func (i CombatItem) encode(w *persist.Writer) {
	w.Int(int(i.Role))
	w.Int(i.Bonus)
}

func (i WorkerItem) encode(w *persist.Writer) {
	ids := make([]int, len(i.Improvements))
	for j, imp := range i.Improvements {
		ids[j] = int(imp)
	}
	w.Ints(ids)
}

func (SettlerItem) encode(*persist.Writer) {}

func (i MissionaryItem) encode(w *persist.Writer) { w.Int(int(i.Religion)) }

func (i GreatPersonItem) encode(w *persist.Writer) {
	ids := make([]int, len(i.Specialists))
	for j, s := range i.Specialists {
		ids[j] = int(s)
	}
	w.Ints(ids)
	w.Int(i.DiscoverResearch)
}

func decodeUnitItem(r *persist.Reader) (UnitItem, error) {
	tag := r.Tag()
	if err := r.Err(); err != nil {
		return nil, err
	}
	var it UnitItem
	switch tag {
	case tagCombatItem:
		it = CombatItem{Role: Role(r.Int()), Bonus: r.Int()}
	case tagWorkerItem:
		var imps []rules.ImprovementType
		for _, v := range r.Ints() {
			imps = append(imps, rules.ImprovementType(v))
		}
		it = WorkerItem{Improvements: imps}
	case tagSettlerItem:
		it = SettlerItem{}
	case tagMissionaryItem:
		it = MissionaryItem{Religion: rules.ReligionType(r.Int())}
	case tagGreatPersonItem:
		var specs []rules.SpecialistType
		for _, v := range r.Ints() {
			specs = append(specs, rules.SpecialistType(v))
		}
		it = GreatPersonItem{Specialists: specs, DiscoverResearch: r.Int()}
	default:
		err := persist.UnknownTagError("unit item", tag)
		r.Fail(err)
		return nil, err
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return it, nil
}
