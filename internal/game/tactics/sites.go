package tactics

import (
	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
)

// ScoutedSites is a SiteOracle over the settling spots a player has scouted.
type ScoutedSites struct {
	Player *civ.Player
}

// BestSite returns the scouted site with the highest default value. Ties go
// to the site scouted first.
func (s ScoutedSites) BestSite() (Site, bool) {
	if s.Player == nil {
		return Site{}, false
	}
	var best Site
	found := false
	for _, cand := range s.Player.Sites() {
		if !cand.Potential.AnyPositive(nil) {
			continue
		}
		if !found || output.DefaultValue(cand.Potential) > output.DefaultValue(best.Potential) {
			best, found = Site{X: cand.X, Y: cand.Y, Potential: cand.Potential}, true
		}
	}
	return best, found
}
