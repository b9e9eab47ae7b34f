package tactics

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/rules"
)

// SpecialistChoice describes the best way to settle a great person.
type SpecialistChoice struct {
	Specialist rules.SpecialistType
	City       civ.CityID
	// Value is what settling is worth over the horizon.
	Value float64
	// Alternative is what discovering research instead is worth.
	Alternative float64
}

// SpecialistBuild decides whether a great person of type unit should settle
// as a free specialist. It returns the best settling option and true when
// settling beats spending the unit on research.
//
// Postcondition: Specialist is rules.NoSpecialist when unit cannot settle
// anywhere.
func (pt *PlayerTactics) SpecialistBuild(unit rules.UnitType) (SpecialistChoice, bool) {
	pc := pt.ctx
	choice := SpecialistChoice{Specialist: rules.NoSpecialist, City: civ.NoCity}
	node, ok := greatPersonNode(pc.Rules.Unit(unit))
	if !ok {
		return choice, false
	}
	value := pc.Value()

	research := node.DiscoverResearch
	if research <= 0 {
		research = freeTechResearch(pc)
	}
	choice.Alternative = value(output.Output{}.With(output.Research, research))

	found := false
	for _, c := range pc.Player.Cities() {
		for _, s := range node.Specialists {
			d, err := pc.cityDelta(c.ID, func(cd *projection.CityData) { cd.AddFreeSpecialist(s) })
			if err != nil {
				pc.Logger.Warn("skipping city for specialist", zap.Int("unit", int(unit)), zap.Int("city", int(c.ID)), zap.Error(err))
				continue
			}
			v := value(d)
			if !found || v > choice.Value {
				choice.Specialist, choice.City, choice.Value = s, c.ID, v
				found = true
			}
		}
	}
	if !found {
		return choice, false
	}
	settle := choice.Value > choice.Alternative
	pc.Logger.Debug("specialist decision",
		zap.String("unit", pc.Rules.UnitKey(unit)),
		zap.Int("city", int(choice.City)),
		zap.Float64("settle", choice.Value),
		zap.Float64("discover", choice.Alternative),
		zap.Bool("settles", settle))
	return choice, settle
}

func greatPersonNode(info *rules.UnitInfo) (rules.GreatPersonNode, bool) {
	if info == nil {
		return rules.GreatPersonNode{}, false
	}
	for _, n := range info.Nodes {
		if gp, ok := n.(rules.GreatPersonNode); ok && len(gp.Specialists) > 0 {
			return gp, true
		}
	}
	return rules.GreatPersonNode{}, false
}
