package tactics

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
)

// applyTechDeps marks every tech dependency of d as known in cd.
func applyTechDeps(d *depList, cd *projection.CityData) {
	for _, dep := range d.tech {
		dep.Apply(cd)
	}
}

// CivicTactics values adopting one civic.
type CivicTactics struct {
	depTactic
	Civic rules.CivicType
	Items []CivicItem

	delta output.Output
}

// NewCivicTactics returns an un-projected tactic.
func NewCivicTactics(c rules.CivicType, items []CivicItem, tech []dependency.Dependency) *CivicTactics {
	return &CivicTactics{depTactic: depTactic{deps: newDepList(civ.NoCity, nil, tech)}, Civic: c, Items: items}
}

// Delta returns the civilization-wide output change of the last Update.
func (t *CivicTactics) Delta() output.Output { return t.delta }

// Update projects every city with the civic replacing the one adopted for
// its option.
func (t *CivicTactics) Update(pc *PlayerContext, _ *projection.CityData) error {
	t.delta = output.Output{}
	info := pc.Rules.Civic(t.Civic)
	if info == nil || pc.Player.HasCivic(t.Civic) {
		return nil
	}
	current, hasCurrent := pc.Player.Civic(info.Option)
	t.delta = pc.civDelta("civic", nil, func(cd *projection.CityData) {
		applyTechDeps(&t.deps, cd)
		if hasCurrent {
			delete(cd.Civics, current)
		}
		cd.Civics[t.Civic] = true
	})
	return nil
}

func (t *CivicTactics) Apply(pc *PlayerContext, sd *SelectionData) {
	info := pc.Rules.Civic(t.Civic)
	if info == nil || pc.Player.HasCivic(t.Civic) {
		return
	}
	e := &civEval{pc: pc, delta: t.delta}
	for _, it := range t.Items {
		it.applyCivic(e, info, sd)
	}
}

func (t *CivicTactics) ApplyToMap(pc *PlayerContext, sdm *SelectionDataMap, mask dependency.Mask) {
	applyToMap(t, pc, sdm, mask)
}

// TechTactics values the direct effects of learning one tech.
type TechTactics struct {
	depTactic
	Tech  rules.TechType
	Items []TechItem

	deltas []output.Output
}

// NewTechTactics returns an un-projected tactic. Its only dependency is the
// tech itself.
func NewTechTactics(t rules.TechType, items []TechItem) *TechTactics {
	tech := []dependency.Dependency{dependency.NewResearchTech(t)}
	return &TechTactics{depTactic: depTactic{deps: newDepList(civ.NoCity, nil, tech)}, Tech: t, Items: items}
}

func (t *TechTactics) Update(pc *PlayerContext, _ *projection.CityData) error {
	t.deltas = make([]output.Output, len(t.Items))
	info := pc.Rules.Tech(t.Tech)
	if info == nil || pc.Player.HasTech(t.Tech) {
		return nil
	}
	for i, it := range t.Items {
		t.deltas[i] = it.project(pc, info)
	}
	return nil
}

func (t *TechTactics) Apply(pc *PlayerContext, sd *SelectionData) {
	if pc.Player.HasTech(t.Tech) {
		return
	}
	for i, it := range t.Items {
		e := &civEval{pc: pc}
		if i < len(t.deltas) {
			e.delta = t.deltas[i]
		}
		it.applyTech(e, sd)
	}
}

func (t *TechTactics) ApplyToMap(pc *PlayerContext, sdm *SelectionDataMap, mask dependency.Mask) {
	applyToMap(t, pc, sdm, mask)
}

// ResourceTactics values connecting one resource in the cities that have it
// within reach.
type ResourceTactics struct {
	depTactic
	Bonus rules.BonusType
	Items []ResourceItem

	delta output.Output
}

// NewResourceTactics returns an un-projected tactic.
func NewResourceTactics(b rules.BonusType, items []ResourceItem, tech []dependency.Dependency) *ResourceTactics {
	return &ResourceTactics{depTactic: depTactic{deps: newDepList(civ.NoCity, nil, tech)}, Bonus: b, Items: items}
}

func (t *ResourceTactics) reachable(c *civ.City) bool {
	return c.PotentialBonus(t.Bonus) && !c.HasBonus(t.Bonus)
}

func (t *ResourceTactics) Update(pc *PlayerContext, _ *projection.CityData) error {
	t.delta = pc.civDelta("resource", t.reachable, func(cd *projection.CityData) {
		applyTechDeps(&t.deps, cd)
		cd.AddBonus(t.Bonus)
	})
	return nil
}

// Apply writes the tactic only when some city could connect the resource.
func (t *ResourceTactics) Apply(pc *PlayerContext, sd *SelectionData) {
	reachable := false
	for _, c := range pc.Player.Cities() {
		if t.reachable(c) {
			reachable = true
			break
		}
	}
	if !reachable {
		return
	}
	e := &civEval{pc: pc, delta: t.delta}
	for _, it := range t.Items {
		it.applyResource(e, t.Bonus, sd)
	}
}

func (t *ResourceTactics) ApplyToMap(pc *PlayerContext, sdm *SelectionDataMap, mask dependency.Mask) {
	applyToMap(t, pc, sdm, mask)
}

// ReligionTactics values one religion once present in the civilization.
type ReligionTactics struct {
	depTactic
	Religion rules.ReligionType
	Items    []ReligionItem

	deltas []output.Output
}

// NewReligionTactics returns an un-projected tactic.
func NewReligionTactics(r rules.ReligionType, items []ReligionItem, deps, tech []dependency.Dependency) *ReligionTactics {
	return &ReligionTactics{depTactic: depTactic{deps: newDepList(civ.NoCity, deps, tech)}, Religion: r, Items: items}
}

func (t *ReligionTactics) Update(pc *PlayerContext, _ *projection.CityData) error {
	t.deltas = make([]output.Output, len(t.Items))
	info := pc.Rules.Religion(t.Religion)
	if info == nil {
		return nil
	}
	for i, it := range t.Items {
		t.deltas[i] = it.project(pc, info)
	}
	return nil
}

func (t *ReligionTactics) Apply(pc *PlayerContext, sd *SelectionData) {
	for i, it := range t.Items {
		e := &civEval{pc: pc}
		if i < len(t.deltas) {
			e.delta = t.deltas[i]
		}
		it.applyReligion(e, t.Religion, sd)
	}
}

func (t *ReligionTactics) ApplyToMap(pc *PlayerContext, sdm *SelectionDataMap, mask dependency.Mask) {
	applyToMap(t, pc, sdm, mask)
}

// ImprovementTactics values improving one plot per city.
type ImprovementTactics struct {
	depTactic
	Improvement rules.ImprovementType

	delta output.Output
}

// NewImprovementTactics returns an un-projected tactic.
func NewImprovementTactics(imp rules.ImprovementType, tech []dependency.Dependency) *ImprovementTactics {
	return &ImprovementTactics{depTactic: depTactic{deps: newDepList(civ.NoCity, nil, tech)}, Improvement: imp}
}

func (t *ImprovementTactics) Update(pc *PlayerContext, _ *projection.CityData) error {
	t.delta = output.Output{}
	info := pc.Rules.Improvement(t.Improvement)
	if info == nil {
		return nil
	}
	t.delta = pc.civDelta("improvement", nil, func(cd *projection.CityData) {
		applyTechDeps(&t.deps, cd)
		improvePlot(cd, info.Yield)
	})
	return nil
}

func (t *ImprovementTactics) Apply(_ *PlayerContext, sd *SelectionData) {
	if t.delta.IsZero() {
		return
	}
	sd.ImprovementOutputDeltas[t.Improvement] = sd.ImprovementOutputDeltas[t.Improvement].Add(t.delta)
}

func (t *ImprovementTactics) ApplyToMap(pc *PlayerContext, sdm *SelectionDataMap, mask dependency.Mask) {
	applyToMap(t, pc, sdm, mask)
}

// ProcessTactic values running a process in each city. The ladders of the
// last Update are kept per city for the build fallback.
type ProcessTactic struct {
	depTactic
	Process rules.ProcessType

	cities  []civ.CityID
	deltas  map[civ.CityID]output.Output
	ladders map[civ.CityID]*projection.Ladder
}

// NewProcessTactic returns an un-projected tactic.
func NewProcessTactic(p rules.ProcessType, tech []dependency.Dependency) *ProcessTactic {
	return &ProcessTactic{
		depTactic: depTactic{deps: newDepList(civ.NoCity, nil, tech)},
		Process:   p,
		deltas:    make(map[civ.CityID]output.Output),
		ladders:   make(map[civ.CityID]*projection.Ladder),
	}
}

// Update projects every city running the process with nothing else queued.
// Production spent on the process is not counted against it.
func (t *ProcessTactic) Update(pc *PlayerContext, _ *projection.CityData) error {
	clear(t.deltas)
	clear(t.ladders)
	t.cities = t.cities[:0]
	target := projection.QueueItem{Kind: projection.QueueProcess, ID: int(t.Process)}
	for _, c := range pc.Player.Cities() {
		cd, ok := pc.Snapshot(c.ID)
		if !ok {
			continue
		}
		base, err := pc.Baseline(c.ID)
		if err != nil {
			continue
		}
		l, err := pc.scratch(cd, func(hypo *projection.CityData) {
			applyTechDeps(&t.deps, hypo)
			hypo.Queue = hypo.Queue[:0]
			hypo.PushProcess(t.Process)
		}, nil, target)
		if err != nil {
			pc.Logger.Warn("skipping city for process",
				zap.Int("process", int(t.Process)), zap.Int("city", int(c.ID)), zap.Error(err))
			continue
		}
		t.cities = append(t.cities, c.ID)
		t.ladders[c.ID] = l
		t.deltas[c.ID] = l.Output().Sub(base.Output()).With(output.Production, 0)
	}
	sort.Slice(t.cities, func(i, j int) bool { return t.cities[i] < t.cities[j] })
	return nil
}

// CityDelta returns the projected gain of running the process in city id.
func (t *ProcessTactic) CityDelta(id civ.CityID) (output.Output, bool) {
	d, ok := t.deltas[id]
	return d, ok
}

// Ladder returns the projection of city id from the last Update.
func (t *ProcessTactic) Ladder(id civ.CityID) (*projection.Ladder, bool) {
	l, ok := t.ladders[id]
	return l, ok
}

// Apply records the best city's gain.
func (t *ProcessTactic) Apply(_ *PlayerContext, sd *SelectionData) {
	var best output.Output
	found := false
	for _, id := range t.cities {
		d := t.deltas[id]
		if !found || output.DefaultValue(d) > output.DefaultValue(best) {
			best, found = d, true
		}
	}
	if found {
		sd.ProcessOutputs[t.Process] = sd.ProcessOutputs[t.Process].Add(best)
	}
}

func (t *ProcessTactic) ApplyToMap(pc *PlayerContext, sdm *SelectionDataMap, mask dependency.Mask) {
	applyToMap(t, pc, sdm, mask)
}
