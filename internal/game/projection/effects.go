package projection

import (
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/rules"
)

// cityEffects is the sum of every rule effect active in a city for one turn.
type cityEffects struct {
	yield    output.Output
	modifier output.Output

	happy    int
	health   int
	unhealth int

	foodKept           int
	maintenance        int
	militaryProduction int
	tradeRoutes        int
	routeModifier      int
	noUnhappiness      bool

	slots map[rules.SpecialistType]int
	free  map[rules.SpecialistType]int
	// specialistExtra is keyed by specialist; NoSpecialist applies to all.
	specialistExtra map[rules.SpecialistType]output.Output
}

func newCityEffects() cityEffects {
	return cityEffects{
		slots:           make(map[rules.SpecialistType]int),
		free:            make(map[rules.SpecialistType]int),
		specialistExtra: make(map[rules.SpecialistType]output.Output),
	}
}

func (e *SimpleEngine) effects(s *CityData, external []BuildingBuiltEvent) cityEffects {
	eff := newCityEffects()
	for sp, n := range s.FreeSpecialists {
		eff.free[sp] += n
	}

	extraBonuses := make(map[rules.BonusType]int)
	for b := range s.Buildings {
		info := e.rules.Building(b)
		if info == nil || e.obsolete(s, info) {
			continue
		}
		for _, n := range info.Nodes {
			e.localBuildingNode(s, &eff, n, extraBonuses)
		}
	}
	for _, ev := range external {
		info := e.rules.Building(ev.Building)
		if info == nil || e.obsolete(s, info) {
			continue
		}
		for _, n := range info.Nodes {
			externalBuildingNode(&eff, n, ev.Area == s.Area)
		}
	}
	for c := range s.Civics {
		info := e.rules.Civic(c)
		if info == nil {
			continue
		}
		for _, n := range info.Nodes {
			civicNode(&eff, n)
		}
	}
	bonuses := make(map[rules.BonusType]int, len(s.Bonuses)+len(extraBonuses))
	for b, n := range s.Bonuses {
		bonuses[b] += n
	}
	for b, n := range extraBonuses {
		bonuses[b] += n
	}
	for b, n := range bonuses {
		info := e.rules.Resource(b)
		if info == nil || n <= 0 {
			continue
		}
		for _, node := range info.Nodes {
			resourceNode(s, &eff, node)
		}
	}
	for r := range s.Religions {
		info := e.rules.Religion(r)
		if info == nil {
			continue
		}
		eff.yield = eff.yield.Add(info.Commerce)
		if s.HolyCity[r] {
			eff.yield = eff.yield.Add(info.HolyCityCommerce)
		}
		if r == s.StateReligion {
			eff.happy += info.StateHappy
		}
	}
	return eff
}

func (e *SimpleEngine) obsolete(s *CityData, info *rules.BuildingInfo) bool {
	return info.ObsoleteTech != rules.NoTech && s.Techs[info.ObsoleteTech]
}

func (e *SimpleEngine) localBuildingNode(s *CityData, eff *cityEffects, n rules.BuildingNode, extraBonuses map[rules.BonusType]int) {
	switch n := n.(type) {
	case rules.YieldNode:
		eff.yield = eff.yield.Add(n.Yield)
		eff.modifier = eff.modifier.Add(n.Modifier)
		eff.militaryProduction += n.MilitaryProductionModifier
	case rules.CommerceNode:
		eff.yield = eff.yield.Add(n.Commerce)
		eff.modifier = eff.modifier.Add(n.Modifier)
	case rules.TradeNode:
		eff.tradeRoutes += n.ExtraRoutes
		eff.routeModifier += n.RouteModifier
	case rules.SpecialistSlotNode:
		for sp, c := range n.Slots {
			eff.slots[sp] += c
		}
		for sp, c := range n.Free {
			eff.free[sp] += c
		}
	case rules.HappyNode:
		eff.happy += n.Happy
		if s.StateReligion != rules.NoReligion && s.Religions[s.StateReligion] {
			eff.happy += n.StateReligionHappy
		}
	case rules.HealthNode:
		eff.health += n.Health
		eff.unhealth += n.Unhealth
	case rules.AreaEffectNode:
		eff.happy += n.AreaHappy + n.GlobalHappy
		eff.health += n.AreaHealth + n.GlobalHealth
	case rules.MiscEffectNode:
		eff.foodKept += n.FoodKeptPercent
		eff.maintenance += n.MaintenanceModifier
		eff.noUnhappiness = eff.noUnhappiness || n.NoUnhappiness
	case rules.FreeBonusNode:
		extraBonuses[n.Bonus] += n.Count
	case rules.BonusEffectNode:
		if s.HasBonus(n.Bonus) {
			eff.yield = eff.yield.Add(n.Yield)
			eff.modifier = eff.modifier.Add(n.Modifier)
			eff.happy += n.Happy
			eff.health += n.Health
		}
	case rules.ReligionCommerceNode:
		if s.Religions[n.Religion] {
			eff.yield = eff.yield.Add(n.Commerce)
		}
	}
}

// externalBuildingNode applies the part of a building built elsewhere that
// reaches this city.
func externalBuildingNode(eff *cityEffects, n rules.BuildingNode, sameArea bool) {
	switch n := n.(type) {
	case rules.YieldNode:
		if n.Global {
			eff.yield = eff.yield.Add(n.Yield)
			eff.modifier = eff.modifier.Add(n.Modifier)
		}
	case rules.CommerceNode:
		if n.Global {
			eff.yield = eff.yield.Add(n.Commerce)
			eff.modifier = eff.modifier.Add(n.Modifier)
		}
	case rules.AreaEffectNode:
		eff.happy += n.GlobalHappy
		eff.health += n.GlobalHealth
		if sameArea {
			eff.happy += n.AreaHappy
			eff.health += n.AreaHealth
		}
	}
}

func civicNode(eff *cityEffects, n rules.CivicNode) {
	switch n := n.(type) {
	case rules.CivicYieldNode:
		eff.modifier = eff.modifier.Add(n.Modifier)
	case rules.CivicMaintenanceNode:
		eff.maintenance += n.MaintenanceModifier
	case rules.CivicHappyNode:
		eff.happy += n.Happy + n.MilitaryHappy
	case rules.CivicHealthNode:
		eff.health += n.Health
	case rules.CivicSpecialistNode:
		if n.FreeSpecialists > 0 && n.Specialist != rules.NoSpecialist {
			eff.free[n.Specialist] += n.FreeSpecialists
		}
		eff.specialistExtra[n.Specialist] = eff.specialistExtra[n.Specialist].Add(n.ExtraYield)
	}
}

func resourceNode(s *CityData, eff *cityEffects, n rules.ResourceNode) {
	switch n := n.(type) {
	case rules.BonusHappyNode:
		eff.happy += n.Happy
	case rules.BonusHealthNode:
		eff.health += n.Health
	case rules.BonusYieldNode:
		eff.yield = eff.yield.Add(n.Yield)
	case rules.BonusBuildingNode:
		if s.Buildings[n.Building] {
			eff.happy += n.Happy
			eff.health += n.Health
			eff.modifier = eff.modifier.Add(n.Modifier)
		}
	}
}
