package tactics

import (
	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/persist"
)

// civEval is what a civilization-wide item sees when applied: the delta its
// own projection produced on the last Update.
type civEval struct {
	pc    *PlayerContext
	delta output.Output
}

// CivicItem is one evaluation rule attached to a civic tactic.
type CivicItem interface {
	civicTag() persist.Tag
	applyCivic(e *civEval, info *rules.CivicInfo, sd *SelectionData)
	encode(w *persist.Writer)
}

// Civic item tags.
const (
	tagEconomicCivicItem persist.Tag = iota
	tagMilitaryCivicItem
	tagHurryCivicItem
)

// EconomicCivicItem records the civic's projected output change. The
// projection works the extra citizens that happiness and health allow and
// pays out specialist yields, so those effects are counted here too.
type EconomicCivicItem struct{}

// MilitaryCivicItem scores free experience and military happiness.
type MilitaryCivicItem struct {
	Experience    int
	MilitaryHappy int
}

// HurryCivicItem marks a civic that allows rushing production.
type HurryCivicItem struct {
	Gold       bool
	Population bool
}

func (EconomicCivicItem) civicTag() persist.Tag { return tagEconomicCivicItem }
func (MilitaryCivicItem) civicTag() persist.Tag { return tagMilitaryCivicItem }
func (HurryCivicItem) civicTag() persist.Tag    { return tagHurryCivicItem }

// civicEntry returns the civic's entry in sd carrying the projected delta.
// Every item of one civic shares the same projection, so setting the delta
// more than once is harmless.
func civicEntry(e *civEval, info *rules.CivicInfo, sd *SelectionData) *CivicValue {
	c := sd.civic(info.ID)
	c.Upkeep = info.Upkeep
	c.Delta = e.delta
	return c
}

func (EconomicCivicItem) applyCivic(e *civEval, info *rules.CivicInfo, sd *SelectionData) {
	civicEntry(e, info, sd)
	sd.sortCivics()
}

func (i MilitaryCivicItem) applyCivic(e *civEval, info *rules.CivicInfo, sd *SelectionData) {
	c := civicEntry(e, info, sd)
	c.Military = i.Experience + i.MilitaryHappy
	sd.sortCivics()
}

func (i HurryCivicItem) applyCivic(e *civEval, info *rules.CivicInfo, sd *SelectionData) {
	c := civicEntry(e, info, sd)
	c.Hurry = i.Gold || i.Population
	sd.sortCivics()
}

func (EconomicCivicItem) encode(*persist.Writer) {}

func (i MilitaryCivicItem) encode(w *persist.Writer) {
	w.Int(i.Experience)
	w.Int(i.MilitaryHappy)
}

func (i HurryCivicItem) encode(w *persist.Writer) {
	w.Bool(i.Gold)
	w.Bool(i.Population)
}

func decodeCivicItem(r *persist.Reader) (CivicItem, error) {
	tag := r.Tag()
	if err := r.Err(); err != nil {
		return nil, err
	}
	var it CivicItem
	switch tag {
	case tagEconomicCivicItem:
		it = EconomicCivicItem{}
	case tagMilitaryCivicItem:
		it = MilitaryCivicItem{Experience: r.Int(), MilitaryHappy: r.Int()}
	case tagHurryCivicItem:
		it = HurryCivicItem{Gold: r.Bool(), Population: r.Bool()}
	default:
		err := persist.UnknownTagError("civic item", tag)
		r.Fail(err)
		return nil, err
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return it, nil
}

// TechItem is one effect of learning a tech beyond the tactics it unlocks.
// Each item projects its own delta during Update.
type TechItem interface {
	techTag() persist.Tag
	project(pc *PlayerContext, tech *rules.TechInfo) output.Output
	applyTech(e *civEval, sd *SelectionData)
	encode(w *persist.Writer)
}

// Tech item tags.
const (
	tagFreeTechTechItem persist.Tag = iota
	tagFreeUnitItem
	tagFoundReligionItem
	tagConnectResourceItem
	tagImprovementYieldItem
	tagProcessTechItem
	tagGrantBonusItem
)

// FreeTechTechItem grants Count free techs to the first civilization.
type FreeTechTechItem struct {
	Count int
}

// FreeUnitItem grants a unit to the first civilization.
type FreeUnitItem struct {
	Unit rules.UnitType
}

// FoundReligionItem founds Religion in the capital.
type FoundReligionItem struct {
	Religion rules.ReligionType
}

// ConnectResourceItem reveals Bonus where it lies unrevealed. Units lists the
// units that need the resource.
type ConnectResourceItem struct {
	Bonus rules.BonusType
	Units []rules.UnitType
}

// ImprovementYieldItem improves the yield of an improvement.
type ImprovementYieldItem struct {
	Improvement rules.ImprovementType
	Yield       output.Output
}

// ProcessTechItem enables a process.
type ProcessTechItem struct {
	Process rules.ProcessType
}

// GrantBonusItem gives every city a resource.
type GrantBonusItem struct {
	Bonus rules.BonusType
}

func (FreeTechTechItem) techTag() persist.Tag     { return tagFreeTechTechItem }
func (FreeUnitItem) techTag() persist.Tag         { return tagFreeUnitItem }
func (FoundReligionItem) techTag() persist.Tag    { return tagFoundReligionItem }
func (ConnectResourceItem) techTag() persist.Tag  { return tagConnectResourceItem }
func (ImprovementYieldItem) techTag() persist.Tag { return tagImprovementYieldItem }
func (ProcessTechItem) techTag() persist.Tag      { return tagProcessTechItem }
func (GrantBonusItem) techTag() persist.Tag       { return tagGrantBonusItem }

func (FreeTechTechItem) project(*PlayerContext, *rules.TechInfo) output.Output {
	return output.Output{}
}
func (FreeUnitItem) project(*PlayerContext, *rules.TechInfo) output.Output { return output.Output{} }

func (i FoundReligionItem) project(pc *PlayerContext, _ *rules.TechInfo) output.Output {
	cities := pc.Player.Cities()
	if len(cities) == 0 {
		return output.Output{}
	}
	for _, c := range cities {
		if c.IsHolyCity(i.Religion) {
			return output.Output{}
		}
	}
	d, err := pc.cityDelta(cities[0].ID, func(cd *projection.CityData) {
		cd.Religions[i.Religion] = true
		cd.HolyCity[i.Religion] = true
		if cd.StateReligion == rules.NoReligion {
			cd.StateReligion = i.Religion
		}
	})
	if err != nil {
		return output.Output{}
	}
	return d
}

func (i ConnectResourceItem) project(pc *PlayerContext, tech *rules.TechInfo) output.Output {
	return pc.civDelta("connect_resource", func(c *civ.City) bool {
		return c.PotentialBonus(i.Bonus) && !c.HasBonus(i.Bonus)
	}, func(cd *projection.CityData) {
		cd.Techs[tech.ID] = true
		cd.AddBonus(i.Bonus)
	})
}

func (i ImprovementYieldItem) project(pc *PlayerContext, tech *rules.TechInfo) output.Output {
	return pc.civDelta("improvement_yield", nil, func(cd *projection.CityData) {
		cd.Techs[tech.ID] = true
		improvePlot(cd, i.Yield)
	})
}

func (i ProcessTechItem) project(pc *PlayerContext, tech *rules.TechInfo) output.Output {
	var best output.Output
	for _, c := range pc.Player.Cities() {
		d, err := pc.cityDelta(c.ID, func(cd *projection.CityData) {
			cd.Techs[tech.ID] = true
			cd.Queue = cd.Queue[:0]
			cd.PushProcess(i.Process)
		})
		if err != nil {
			continue
		}
		d = d.With(output.Production, 0)
		if output.DefaultValue(d) > output.DefaultValue(best) {
			best = d
		}
	}
	return best
}

func (i GrantBonusItem) project(pc *PlayerContext, tech *rules.TechInfo) output.Output {
	return pc.civDelta("grant_bonus", func(c *civ.City) bool {
		return !c.HasBonus(i.Bonus)
	}, func(cd *projection.CityData) {
		cd.Techs[tech.ID] = true
		cd.AddBonus(i.Bonus)
	})
}

func (i FreeTechTechItem) applyTech(e *civEval, sd *SelectionData) {
	if i.Count <= 0 {
		return
	}
	sd.PossibleFreeTech = true
	sd.FreeTechValue = max(sd.FreeTechValue, i.Count*freeTechResearch(e.pc))
}

func (i FreeUnitItem) applyTech(_ *civEval, sd *SelectionData) {
	sd.FreeUnits = unionUnits(sd.FreeUnits, []rules.UnitType{i.Unit})
}

func (i FoundReligionItem) applyTech(e *civEval, sd *SelectionData) {
	for _, c := range e.pc.Player.Cities() {
		if c.IsHolyCity(i.Religion) {
			return
		}
	}
	sd.FoundableReligions[i.Religion] = true
	sd.ReligionOutputDeltas[i.Religion] = sd.ReligionOutputDeltas[i.Religion].Add(e.delta)
}

func (i ConnectResourceItem) applyTech(e *civEval, sd *SelectionData) {
	if !e.delta.IsZero() {
		sd.ResourceOutputDeltas[i.Bonus] = sd.ResourceOutputDeltas[i.Bonus].Add(e.delta)
	}
	if len(i.Units) > 0 {
		sd.ConnectableResources[i.Bonus] = unionUnits(sd.ConnectableResources[i.Bonus], i.Units)
	}
}

func (i ImprovementYieldItem) applyTech(e *civEval, sd *SelectionData) {
	if e.delta.IsZero() {
		return
	}
	sd.ImprovementOutputDeltas[i.Improvement] = sd.ImprovementOutputDeltas[i.Improvement].Add(e.delta)
}

func (i ProcessTechItem) applyTech(e *civEval, sd *SelectionData) {
	sd.ProcessOutputs[i.Process] = sd.ProcessOutputs[i.Process].Add(e.delta)
}

func (i GrantBonusItem) applyTech(e *civEval, sd *SelectionData) {
	if e.delta.IsZero() {
		return
	}
	sd.ResourceOutputDeltas[i.Bonus] = sd.ResourceOutputDeltas[i.Bonus].Add(e.delta)
}

func (i FreeTechTechItem) encode(w *persist.Writer)  { w.Int(i.Count) }
func (i FreeUnitItem) encode(w *persist.Writer)      { w.Int(int(i.Unit)) }
func (i FoundReligionItem) encode(w *persist.Writer) { w.Int(int(i.Religion)) }

func (i ConnectResourceItem) encode(w *persist.Writer) {
	w.Int(int(i.Bonus))
	w.Ints(unitInts(i.Units))
}

func (i ImprovementYieldItem) encode(w *persist.Writer) {
	w.Int(int(i.Improvement))
	encodeOutput(w, i.Yield)
}

func (i ProcessTechItem) encode(w *persist.Writer) { w.Int(int(i.Process)) }
func (i GrantBonusItem) encode(w *persist.Writer)  { w.Int(int(i.Bonus)) }

func decodeTechItem(r *persist.Reader) (TechItem, error) {
	tag := r.Tag()
	if err := r.Err(); err != nil {
		return nil, err
	}
	var it TechItem
	switch tag {
	case tagFreeTechTechItem:
		it = FreeTechTechItem{Count: r.Int()}
	case tagFreeUnitItem:
		it = FreeUnitItem{Unit: rules.UnitType(r.Int())}
	case tagFoundReligionItem:
		it = FoundReligionItem{Religion: rules.ReligionType(r.Int())}
	case tagConnectResourceItem:
		it = ConnectResourceItem{Bonus: rules.BonusType(r.Int()), Units: intsToUnits(r.Ints())}
	case tagImprovementYieldItem:
		it = ImprovementYieldItem{Improvement: rules.ImprovementType(r.Int()), Yield: decodeOutput(r)}
	case tagProcessTechItem:
		it = ProcessTechItem{Process: rules.ProcessType(r.Int())}
	case tagGrantBonusItem:
		it = GrantBonusItem{Bonus: rules.BonusType(r.Int())}
	default:
		err := persist.UnknownTagError("tech item", tag)
		r.Fail(err)
		return nil, err
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return it, nil
}

// ResourceItem is one evaluation rule attached to a resource tactic.
type ResourceItem interface {
	resourceTag() persist.Tag
	applyResource(e *civEval, bonus rules.BonusType, sd *SelectionData)
	encode(w *persist.Writer)
}

// Resource item tags.
const (
	tagResourceEconomicItem persist.Tag = iota
	tagResourceUnitItem
)

// ResourceEconomicItem records the output of connecting the resource.
type ResourceEconomicItem struct{}

// ResourceUnitItem records the units the resource enables.
type ResourceUnitItem struct {
	Units []rules.UnitType
}

func (ResourceEconomicItem) resourceTag() persist.Tag { return tagResourceEconomicItem }
func (ResourceUnitItem) resourceTag() persist.Tag     { return tagResourceUnitItem }

func (ResourceEconomicItem) applyResource(e *civEval, bonus rules.BonusType, sd *SelectionData) {
	if e.delta.IsZero() {
		return
	}
	sd.ResourceOutputDeltas[bonus] = sd.ResourceOutputDeltas[bonus].Add(e.delta)
}

func (i ResourceUnitItem) applyResource(_ *civEval, bonus rules.BonusType, sd *SelectionData) {
	if len(i.Units) > 0 {
		sd.ConnectableResources[bonus] = unionUnits(sd.ConnectableResources[bonus], i.Units)
	}
}

func (ResourceEconomicItem) encode(*persist.Writer) {}

func (i ResourceUnitItem) encode(w *persist.Writer) { w.Ints(unitInts(i.Units)) }

func decodeResourceItem(r *persist.Reader) (ResourceItem, error) {
	tag := r.Tag()
	if err := r.Err(); err != nil {
		return nil, err
	}
	var it ResourceItem
	switch tag {
	case tagResourceEconomicItem:
		it = ResourceEconomicItem{}
	case tagResourceUnitItem:
		it = ResourceUnitItem{Units: intsToUnits(r.Ints())}
	default:
		err := persist.UnknownTagError("resource item", tag)
		r.Fail(err)
		return nil, err
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return it, nil
}

// ReligionItem is one evaluation rule attached to a religion tactic.
type ReligionItem interface {
	religionTag() persist.Tag
	project(pc *PlayerContext, info *rules.ReligionInfo) output.Output
	applyReligion(e *civEval, religion rules.ReligionType, sd *SelectionData)
	encode(w *persist.Writer)
}

// Religion item tags.
const (
	tagSpreadReligionItem persist.Tag = iota
	tagStateReligionItem
)

// SpreadReligionItem values the religion's commerce in every city lacking it.
type SpreadReligionItem struct{}

// StateReligionItem values adopting the religion as state religion where
// none is adopted yet.
type StateReligionItem struct{}

func (SpreadReligionItem) religionTag() persist.Tag { return tagSpreadReligionItem }
func (StateReligionItem) religionTag() persist.Tag  { return tagStateReligionItem }

func (SpreadReligionItem) project(pc *PlayerContext, info *rules.ReligionInfo) output.Output {
	return pc.civDelta("spread_religion", func(c *civ.City) bool {
		return !c.HasReligion(info.ID)
	}, func(cd *projection.CityData) {
		cd.Religions[info.ID] = true
	})
}

func (StateReligionItem) project(pc *PlayerContext, info *rules.ReligionInfo) output.Output {
	if pc.Player.StateReligion != rules.NoReligion {
		return output.Output{}
	}
	return pc.civDelta("state_religion", func(c *civ.City) bool {
		return c.HasReligion(info.ID)
	}, func(cd *projection.CityData) {
		cd.StateReligion = info.ID
	})
}

func (SpreadReligionItem) applyReligion(e *civEval, religion rules.ReligionType, sd *SelectionData) {
	if !e.delta.IsZero() {
		sd.ReligionOutputDeltas[religion] = sd.ReligionOutputDeltas[religion].Add(e.delta)
	}
}

func (StateReligionItem) applyReligion(e *civEval, religion rules.ReligionType, sd *SelectionData) {
	if !e.delta.IsZero() {
		sd.ReligionOutputDeltas[religion] = sd.ReligionOutputDeltas[religion].Add(e.delta)
	}
}

func (SpreadReligionItem) encode(*persist.Writer) {}
func (StateReligionItem) encode(*persist.Writer)  {}

func decodeReligionItem(r *persist.Reader) (ReligionItem, error) {
	tag := r.Tag()
	if err := r.Err(); err != nil {
		return nil, err
	}
	switch tag {
	case tagSpreadReligionItem:
		return SpreadReligionItem{}, nil
	case tagStateReligionItem:
		return StateReligionItem{}, nil
	}
	err := persist.UnknownTagError("religion item", tag)
	r.Fail(err)
	return nil, err
}

// improvePlot adds y to the weakest worked plot of cd, or to a new plot when
// the city works none.
func improvePlot(cd *projection.CityData, y output.Output) {
	worked := min(cd.Population, len(cd.Plots))
	if worked == 0 {
		cd.Plots = append(cd.Plots, y)
		return
	}
	weakest := 0
	for i := 1; i < worked; i++ {
		if output.DefaultValue(cd.Plots[i]) < output.DefaultValue(cd.Plots[weakest]) {
			weakest = i
		}
	}
	cd.Plots[weakest] = cd.Plots[weakest].Add(y)
}

func unitInts(us []rules.UnitType) []int {
	out := make([]int, len(us))
	for i, u := range us {
		out[i] = int(u)
	}
	return out
}

func intsToUnits(vs []int) []rules.UnitType {
	if len(vs) == 0 {
		return nil
	}
	out := make([]rules.UnitType, len(vs))
	for i, v := range vs {
		out[i] = rules.UnitType(v)
	}
	return out
}

func encodeOutput(w *persist.Writer, o output.Output) {
	for _, c := range output.AllCategories() {
		w.Int(o[c])
	}
}

func decodeOutput(r *persist.Reader) output.Output {
	var o output.Output
	for _, c := range output.AllCategories() {
		o[c] = r.Int()
	}
	return o
}
