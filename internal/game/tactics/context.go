// Package tactics turns static rule data into executable tactics, projects
// what each tactic is worth for one civilization, buckets the results by the
// preconditions still missing and selects what to research, build and settle.
//
// All speculation happens on scratch snapshots owned by the player's
// projection.Arena; live civ state is never modified by an evaluation pass.
package tactics

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/altai/internal/config"
	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/rules"
)

// Site summarises the best place to found a new city.
type Site struct {
	X, Y int
	// Potential is the per-turn output the site is expected to yield.
	Potential output.Output
}

// SiteOracle picks settling locations.
type SiteOracle interface {
	// BestSite returns the best available site, or false when none exists.
	BestSite() (Site, bool)
}

// WeightHook overrides the output weights for one evaluation pass.
type WeightHook interface {
	// OutputWeights returns replacement weights, or false to keep the
	// configured value function.
	OutputWeights(player civ.PlayerID, turn int, atWar bool) (output.Weights, bool, error)
}

// PlayerContext carries everything a tactic needs while it is evaluated for
// one player: live state, rules, the projection engine, the scratch arena and
// the settings of the current pass. It replaces any global game lookup.
//
// PlayerContext is not safe for concurrent use.
type PlayerContext struct {
	Player   *civ.Player
	Rules    *rules.Rules
	Engine   projection.Engine
	Arena    *projection.Arena
	Settings config.TacticsConfig
	Logger   *zap.Logger
	// Sites is optional; without it settlers are never valued.
	Sites SiteOracle
	// Weights is optional.
	Weights WeightHook
	Turn    int

	base      output.ValueF
	value     output.ValueF
	snapshots map[civ.CityID]*projection.CityData
	baselines map[civ.CityID]*projection.Ladder
}

// NewPlayerContext builds the context for p.
//
// Precondition: p, r and engine must be non-nil; settings must validate.
// Postcondition: returns an error when the configured formula or weights
// cannot be compiled.
func NewPlayerContext(p *civ.Player, r *rules.Rules, engine projection.Engine, settings config.TacticsConfig, logger *zap.Logger) (*PlayerContext, error) {
	if p == nil {
		panic("tactics.NewPlayerContext: player must not be nil")
	}
	if r == nil {
		panic("tactics.NewPlayerContext: rules must not be nil")
	}
	if engine == nil {
		panic("tactics.NewPlayerContext: engine must not be nil")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("tactics.NewPlayerContext: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	base, err := valueFunction(settings)
	if err != nil {
		return nil, fmt.Errorf("tactics.NewPlayerContext: %w", err)
	}
	return &PlayerContext{
		Player:    p,
		Rules:     r,
		Engine:    engine,
		Arena:     projection.NewArena(),
		Settings:  settings,
		Logger:    logger.With(zap.Int("player", int(p.ID))),
		base:      base,
		value:     base,
		snapshots: make(map[civ.CityID]*projection.CityData),
		baselines: make(map[civ.CityID]*projection.Ladder),
	}, nil
}

func valueFunction(s config.TacticsConfig) (output.ValueF, error) {
	if s.Formula != "" {
		f, err := output.CompileFormula(s.Formula)
		if err != nil {
			return nil, err
		}
		return f.ValueF(), nil
	}
	w, err := output.WeightsFromMap(output.DefaultWeights, s.Weights)
	if err != nil {
		return nil, err
	}
	return output.MakeValueF(w), nil
}

// BeginPass drops every cached snapshot and baseline, records turn and
// consults the weight hook.
func (pc *PlayerContext) BeginPass(turn int) {
	pc.Turn = turn
	clear(pc.snapshots)
	clear(pc.baselines)
	pc.value = pc.base
	if pc.Weights == nil {
		return
	}
	w, ok, err := pc.Weights.OutputWeights(pc.Player.ID, turn, pc.Player.AtWar)
	if err != nil {
		pc.Logger.Warn("weight hook failed; keeping configured weights", zap.Int("turn", turn), zap.Error(err))
		return
	}
	if ok {
		pc.value = output.MakeValueF(w)
	}
}

// Value returns the value function of the current pass.
func (pc *PlayerContext) Value() output.ValueF { return pc.value }

// Horizon returns the number of turns every projection covers.
func (pc *PlayerContext) Horizon() int { return pc.Settings.Horizon }

// Snapshot returns the cached snapshot of the player's live city id.
//
// Postcondition: returns false when the player has no such city.
func (pc *PlayerContext) Snapshot(id civ.CityID) (*projection.CityData, bool) {
	if cd, ok := pc.snapshots[id]; ok {
		return cd, true
	}
	c, ok := pc.Player.City(id)
	if !ok {
		return nil, false
	}
	cd := projection.FromCity(pc.Player, c)
	pc.snapshots[id] = cd
	return cd, true
}

// Baseline returns the projection of city id with nothing added.
func (pc *PlayerContext) Baseline(id civ.CityID) (*projection.Ladder, error) {
	if l, ok := pc.baselines[id]; ok {
		return l, nil
	}
	cd, ok := pc.Snapshot(id)
	if !ok {
		return nil, fmt.Errorf("tactics.PlayerContext.Baseline: city %d: %w", id, ErrUnknownCity)
	}
	l, err := pc.project(cd, nil, projection.NoItem)
	if err != nil {
		return nil, fmt.Errorf("tactics.PlayerContext.Baseline: city %d: %w", id, err)
	}
	pc.baselines[id] = l
	return l, nil
}

// baselineOf returns the cached baseline when cd is the live snapshot of its
// city, else a fresh projection of cd.
func (pc *PlayerContext) baselineOf(cd *projection.CityData) (*projection.Ladder, error) {
	if live, ok := pc.snapshots[cd.City]; ok && live == cd {
		return pc.Baseline(cd.City)
	}
	return pc.project(cd, nil, projection.NoItem)
}

// CurrentOutput returns the average per-turn output of city id's baseline.
func (pc *PlayerContext) CurrentOutput(id civ.CityID) output.Output {
	l, err := pc.Baseline(id)
	if err != nil || len(l.Entries) == 0 {
		return output.Output{}
	}
	return l.Output().Div(len(l.Entries))
}

// Invalidate forgets the cached snapshot and baseline of city id.
func (pc *PlayerContext) Invalidate(id civ.CityID) {
	delete(pc.snapshots, id)
	delete(pc.baselines, id)
}

// InvalidateAll forgets every cached snapshot and baseline.
func (pc *PlayerContext) InvalidateAll() {
	clear(pc.snapshots)
	clear(pc.baselines)
}

func (pc *PlayerContext) project(cd *projection.CityData, events []projection.Event, target projection.QueueItem) (*projection.Ladder, error) {
	return pc.Engine.Project(cd, pc.Horizon(), events, target)
}

// scratch projects a throwaway copy of src after mutate has been applied to
// it. The copy is released before returning.
func (pc *PlayerContext) scratch(src *projection.CityData, mutate func(*projection.CityData), events []projection.Event, target projection.QueueItem) (*projection.Ladder, error) {
	h := pc.Arena.Scratch(src)
	defer pc.Arena.Release(h)
	cd := pc.Arena.Get(h)
	if mutate != nil {
		mutate(cd)
	}
	return pc.project(cd, events, target)
}

// cityDelta returns how much city id's projected output changes when mutate
// is applied to a copy of its live snapshot.
func (pc *PlayerContext) cityDelta(id civ.CityID, mutate func(*projection.CityData)) (output.Output, error) {
	cd, ok := pc.Snapshot(id)
	if !ok {
		return output.Output{}, fmt.Errorf("city %d: %w", id, ErrUnknownCity)
	}
	base, err := pc.Baseline(id)
	if err != nil {
		return output.Output{}, err
	}
	l, err := pc.scratch(cd, mutate, nil, projection.NoItem)
	if err != nil {
		return output.Output{}, err
	}
	return l.Output().Sub(base.Output()), nil
}

// civDelta sums cityDelta over every city accepted by filter (nil accepts
// all). Cities whose projection fails are logged and skipped.
func (pc *PlayerContext) civDelta(what string, filter func(*civ.City) bool, mutate func(*projection.CityData)) output.Output {
	var total output.Output
	for _, c := range pc.Player.Cities() {
		if filter != nil && !filter(c) {
			continue
		}
		d, err := pc.cityDelta(c.ID, mutate)
		if err != nil {
			pc.Logger.Warn("skipping city in projection", zap.String("tactic", what), zap.Int("city", int(c.ID)), zap.Error(err))
			continue
		}
		total = total.Add(d)
	}
	return total
}

// significance returns the significance settings of the pass.
func (pc *PlayerContext) significance() Significance {
	return Significance{Horizon: pc.Horizon(), Window: pc.Settings.SignificanceWindow, Percent: pc.Settings.SignificancePercent}
}

// militaryScale converts a raw combat value into the units ValueF uses.
func (pc *PlayerContext) militaryScale(v int) float64 {
	return float64(v) * float64(pc.Settings.UnitValueWeight) / 100
}
