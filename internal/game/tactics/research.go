package tactics

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
)

// ResearchTech is the outcome of research selection.
type ResearchTech struct {
	// Tech is what to research now, or rules.NoTech.
	Tech rules.TechType
	// Depth is 1 when Tech unlocks the scored tactics itself and 2 when it is
	// a prerequisite of the tech that does.
	Depth int
	// Target is the tech Tech leads to, or rules.NoTech when Tech was chosen
	// for its own sake.
	Target rules.TechType
}

// techCandidate is one single-tech bucket under consideration.
type techCandidate struct {
	tech  rules.TechType
	depth int
	turns int
	sd    *SelectionData
	score float64
}

// ResearchTech selects the technology to research next. ignore is never
// selected; pass rules.NoTech to consider everything.
//
// Precondition: Refresh has run for the current turn.
// Postcondition: Tech is rules.NoTech only when nothing is researchable.
func (pt *PlayerTactics) ResearchTech(ignore rules.TechType) ResearchTech {
	pc := pt.ctx
	sdm := pt.SelectionMap(dependency.IgnoreTech)

	cands := pt.techCandidates(sdm, ignore)
	cands = pt.dropExpensive(sdm, cands)

	base := pt.currentBest(sdm)
	scores := make(map[rules.TechType]float64, len(cands))
	var winner *techCandidate
	for _, c := range cands {
		c.score = pt.scoreBucket(c.sd, base) / float64(c.turns)
		scores[c.tech] = c.score
		pc.Logger.Debug("scored tech",
			zap.String("tech", pc.Rules.TechKey(c.tech)),
			zap.Int("depth", c.depth),
			zap.Int("turns", c.turns),
			zap.Float64("score", c.score))
		if c.score <= 0 {
			continue
		}
		if winner == nil || c.score > winner.score {
			winner = c
		}
	}

	if winner == nil {
		choice := pt.cheapestResearchable(ignore)
		pc.Logger.Debug("no tech with positive value", zap.String("fallback", pc.Rules.TechKey(choice.Tech)))
		return choice
	}

	if ft := freeTechFirst(cands, winner); ft != nil {
		return ResearchTech{Tech: ft.tech, Depth: 1, Target: winner.tech}
	}
	if winner.depth == 1 {
		return ResearchTech{Tech: winner.tech, Depth: 1, Target: rules.NoTech}
	}
	prereq := pt.bestPrereq(winner.tech, scores, ignore)
	if prereq == rules.NoTech {
		return ResearchTech{Tech: winner.tech, Depth: 1, Target: rules.NoTech}
	}
	return ResearchTech{Tech: prereq, Depth: 2, Target: winner.tech}
}

// techCandidates returns every bucket keyed by exactly one tech that is
// researchable now or one step away, in ascending tech order.
func (pt *PlayerTactics) techCandidates(sdm *SelectionDataMap, ignore rules.TechType) []*techCandidate {
	var out []*techCandidate
	sdm.Each(func(key dependency.ItemSet, sd *SelectionData) {
		t, ok := key.SingleTech()
		if !ok || t == ignore {
			return
		}
		depth, turns, ok := pt.techPath(t)
		if !ok {
			return
		}
		out = append(out, &techCandidate{tech: t, depth: depth, turns: turns, sd: sd})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].tech < out[j].tech })
	return out
}

// techPath reports how far t is from being researchable and the research
// turns needed to reach and finish it, prerequisites included.
func (pt *PlayerTactics) techPath(t rules.TechType) (depth, turns int, ok bool) {
	p := pt.ctx.Player
	info := pt.ctx.Rules.Tech(t)
	if info == nil || p.HasTech(t) {
		return 0, 0, false
	}
	if p.CanResearch(info) {
		return 1, p.ResearchTurns(info), true
	}
	turns = p.ResearchTurns(info)
	for _, pre := range info.AndPrereqs {
		if p.HasTech(pre) {
			continue
		}
		pi := pt.ctx.Rules.Tech(pre)
		if !p.CanResearch(pi) {
			return 0, 0, false
		}
		turns += p.ResearchTurns(pi)
	}
	if len(info.OrPrereqs) > 0 && !hasAnyTech(p, info.OrPrereqs) {
		cheapest := -1
		for _, pre := range info.OrPrereqs {
			pi := pt.ctx.Rules.Tech(pre)
			if !p.CanResearch(pi) {
				continue
			}
			if n := p.ResearchTurns(pi); cheapest < 0 || n < cheapest {
				cheapest = n
			}
		}
		if cheapest < 0 {
			return 0, 0, false
		}
		turns += cheapest
	}
	return 2, turns, true
}

func hasAnyTech(p *civ.Player, techs []rules.TechType) bool {
	for _, t := range techs {
		if p.HasTech(t) {
			return true
		}
	}
	return false
}

// dropExpensive erases every candidate costing more than the configured
// ratio times the cheapest of the expensive candidates, where expensive
// means longer than a share of the game's maximum turns.
func (pt *PlayerTactics) dropExpensive(sdm *SelectionDataMap, cands []*techCandidate) []*techCandidate {
	s := pt.ctx.Settings
	threshold := pt.ctx.Rules.MaxTurns * s.ExpensiveTechPercent / 100
	cheapest := -1
	for _, c := range cands {
		if c.turns > threshold && (cheapest < 0 || c.turns < cheapest) {
			cheapest = c.turns
		}
	}
	if cheapest < 0 {
		return cands
	}
	limit := cheapest * s.TechCostRatio
	out := cands[:0]
	for _, c := range cands {
		if c.turns > limit {
			pt.ctx.Logger.Debug("dropping expensive tech",
				zap.String("tech", pt.ctx.Rules.TechKey(c.tech)), zap.Int("turns", c.turns), zap.Int("limit", limit))
			sdm.Erase(dependency.NewItemSet(dependency.Item{Kind: dependency.ResearchTech, Param: int(c.tech)}))
			continue
		}
		out = append(out, c)
	}
	return out
}

// currentBest returns, per city, the best economic building available now
// and finishing within the configured turns budget.
func (pt *PlayerTactics) currentBest(sdm *SelectionDataMap) map[civ.CityID]float64 {
	best := make(map[civ.CityID]float64)
	sd, ok := sdm.Lookup(dependency.ItemSet{})
	if !ok {
		return best
	}
	value := pt.ctx.Value()
	for _, v := range sd.EconomicBuildings {
		if v.Turns > pt.ctx.Settings.TurnsAvailable {
			continue
		}
		if x := value(v.Delta); x > best[v.City] {
			best[v.City] = x
		}
	}
	return best
}

// scoreBucket sums what the bucket's tactics are worth. Economic buildings
// only count by how much they improve on the best building each city could
// already build.
func (pt *PlayerTactics) scoreBucket(sd *SelectionData, base map[civ.CityID]float64) float64 {
	pc := pt.ctx
	value := pc.Value()
	score := 0.0

	if sd.PossibleFreeTech {
		score += value(output.Output{}.With(output.Research, sd.FreeTechValue))
	}
	if len(sd.WorkerUnits) > 0 {
		score += value(sd.WorkerUnits[0].Delta)
	}
	for _, imp := range sortedKeys(sd.ImprovementOutputDeltas) {
		score += value(sd.ImprovementOutputDeltas[imp])
	}
	for _, b := range sortedKeys(sd.ResourceOutputDeltas) {
		score += value(sd.ResourceOutputDeltas[b])
	}
	for _, r := range sortedKeys(sd.ReligionOutputDeltas) {
		score += value(sd.ReligionOutputDeltas[r])
	}
	for _, p := range sortedKeys(sd.ProcessOutputs) {
		if v := value(sd.ProcessOutputs[p]); v > 0 {
			score += v
		}
	}
	for _, c := range sd.CivicValues {
		if v := value(c.Delta); v > 0 {
			score += v
		}
	}
	score += value(sd.ExpansionValue)

	military := pt.militaryValue(sd)
	for _, b := range sortedKeys(sd.ConnectableResources) {
		for _, u := range sd.ConnectableResources[b] {
			if info := pc.Rules.Unit(u); info != nil {
				military += info.Strength
			}
		}
	}
	m := pc.militaryScale(military)
	if !pc.Player.AtWar {
		m /= float64(pc.Settings.PeaceMilitaryDiscount)
	}
	score += m

	running := make(map[civ.CityID]float64, len(base))
	for id, v := range base {
		running[id] = v
	}
	for _, v := range sd.EconomicBuildings {
		if v.Turns > pc.Settings.TurnsAvailable {
			continue
		}
		x := value(v.Delta)
		if cur := running[v.City]; x > cur {
			score += x - cur
			running[v.City] = x
		}
	}
	return score
}

// militaryValue returns the raw combat worth of sd: the best unit of every
// role, military buildings, civic experience and free units.
func (pt *PlayerTactics) militaryValue(sd *SelectionData) int {
	total := 0
	for r := Role(0); r < numRoles; r++ {
		if l := sd.Units(r); len(l) > 0 {
			total += l[0].Value
		}
	}
	for _, b := range sd.MilitaryBuildings {
		total += b.Military
	}
	for _, c := range sd.CivicValues {
		total += c.Military
	}
	for _, u := range sd.FreeUnits {
		if info := pt.ctx.Rules.Unit(u); info != nil {
			total += info.Strength
		}
	}
	return total
}

// freeTechFirst returns a researchable candidate granting a free tech that
// finishes sooner than the winner, or nil.
func freeTechFirst(cands []*techCandidate, winner *techCandidate) *techCandidate {
	var best *techCandidate
	for _, c := range cands {
		if c == winner || c.depth != 1 || !c.sd.PossibleFreeTech || c.turns >= winner.turns {
			continue
		}
		if best == nil || c.turns < best.turns {
			best = c
		}
	}
	return best
}

// bestPrereq picks the researchable prerequisite of t to start with. The
// highest scored wins, then the quickest, then the lowest id.
func (pt *PlayerTactics) bestPrereq(t rules.TechType, scores map[rules.TechType]float64, ignore rules.TechType) rules.TechType {
	p := pt.ctx.Player
	info := pt.ctx.Rules.Tech(t)
	if info == nil {
		return rules.NoTech
	}
	var options []rules.TechType
	for _, pre := range info.AndPrereqs {
		if !p.HasTech(pre) {
			options = append(options, pre)
		}
	}
	if len(info.OrPrereqs) > 0 && !hasAnyTech(p, info.OrPrereqs) {
		options = append(options, info.OrPrereqs...)
	}
	best := rules.NoTech
	bestTurns := 0
	for _, pre := range options {
		pi := pt.ctx.Rules.Tech(pre)
		if pre == ignore || !p.CanResearch(pi) {
			continue
		}
		turns := p.ResearchTurns(pi)
		switch {
		case best == rules.NoTech,
			scores[pre] > scores[best],
			scores[pre] == scores[best] && turns < bestTurns,
			scores[pre] == scores[best] && turns == bestTurns && pre < best:
			best, bestTurns = pre, turns
		}
	}
	return best
}

// cheapestResearchable returns the quickest tech the player can research.
func (pt *PlayerTactics) cheapestResearchable(ignore rules.TechType) ResearchTech {
	p := pt.ctx.Player
	best := ResearchTech{Tech: rules.NoTech, Target: rules.NoTech}
	bestTurns := 0
	for _, info := range pt.ctx.Rules.Techs {
		if info.ID == ignore || !p.CanResearch(info) {
			continue
		}
		turns := p.ResearchTurns(info)
		if best.Tech == rules.NoTech || turns < bestTurns || (turns == bestTurns && info.ID < best.Tech) {
			best = ResearchTech{Tech: info.ID, Depth: 1, Target: rules.NoTech}
			bestTurns = turns
		}
	}
	return best
}
