package tactics

import (
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
)

// ComparisonScope says which cities compete for a building.
type ComparisonScope int

// Comparison scopes.
const (
	NoComparison ComparisonScope = iota
	CityComparison
	AreaComparison
	GlobalComparison
)

func (s ComparisonScope) String() string {
	switch s {
	case CityComparison:
		return "city"
	case AreaComparison:
		return "area"
	case GlobalComparison:
		return "global"
	}
	return "none"
}

// BuildingClassification is what the classifier derives from one building.
type BuildingClassification struct {
	Items    []BuildingItem
	Scope    ComparisonScope
	Deps     []dependency.Dependency
	TechDeps []dependency.Dependency

	Economic  bool
	Military  bool
	Regional  bool
	Global    bool
	GovCenter bool
}

// buildingFlags accumulates the classification of one building's nodes.
type buildingFlags struct {
	items     []BuildingItem
	economic  bool
	military  bool
	regional  bool
	global    bool
	govCenter bool
}

// add appends it unless an item of the same kind is already present. Items
// with a payload are folded into the existing one.
func (f *buildingFlags) add(it BuildingItem) {
	for i, existing := range f.items {
		if existing.buildingTag() != it.buildingTag() {
			continue
		}
		switch cur := existing.(type) {
		case SpecialistItem:
			next := it.(SpecialistItem)
			slots := make(map[rules.SpecialistType]int, len(cur.Slots)+len(next.Slots))
			for s, n := range cur.Slots {
				slots[s] += n
			}
			for s, n := range next.Slots {
				slots[s] += n
			}
			f.items[i] = SpecialistItem{Slots: slots}
		case UnitExperienceItem:
			next := it.(UnitExperienceItem)
			cur.Experience += next.Experience
			cur.GlobalExperience += next.GlobalExperience
			if cur.Domain == nil {
				cur.Domain = next.Domain
			}
			f.items[i] = cur
		case CityDefenceItem:
			next := it.(CityDefenceItem)
			cur.Defence += next.Defence
			cur.GlobalDefence += next.GlobalDefence
			f.items[i] = cur
		case FreeTechItem:
			f.items[i] = FreeTechItem{Count: cur.Count + it.(FreeTechItem).Count}
		}
		return
	}
	f.items = append(f.items, it)
}

func (f *buildingFlags) commerceItems(o output.Output) {
	if o[output.Research] != 0 {
		f.add(ScienceItem{})
	}
	if o[output.Gold] != 0 {
		f.add(GoldItem{})
	}
	if o[output.Culture] != 0 {
		f.add(CultureItem{})
	}
	if o[output.Espionage] != 0 {
		f.add(EspionageItem{})
	}
}

func (f *buildingFlags) yieldNode(n rules.YieldNode) {
	if n.Yield.IsZero() && n.Modifier.IsZero() {
		return
	}
	f.economic = true
	if n.Global {
		f.global = true
	}
	if n.Yield[output.Food] != 0 || n.Modifier[output.Food] != 0 {
		f.add(FoodItem{})
	}
	f.add(EconomicItem{})
	f.commerceItems(n.Yield.Add(n.Modifier))
}

func (f *buildingFlags) commerceNode(n rules.CommerceNode) {
	if n.Commerce.IsZero() && n.Modifier.IsZero() {
		return
	}
	f.economic = true
	if n.Global {
		f.global = true
	}
	f.commerceItems(n.Commerce.Add(n.Modifier))
	f.add(EconomicItem{})
}

func (f *buildingFlags) tradeNode(n rules.TradeNode) {
	if n.ExtraRoutes == 0 && n.RouteModifier == 0 {
		return
	}
	f.economic = true
	f.add(GoldItem{})
}

func (f *buildingFlags) specialistNode(n rules.SpecialistSlotNode) {
	if len(n.Slots) == 0 && len(n.Free) == 0 {
		return
	}
	f.economic = true
	if len(n.Slots) > 0 {
		f.add(SpecialistItem{Slots: n.Slots})
	}
	if len(n.Free) > 0 {
		f.add(EconomicItem{})
	}
}

func (f *buildingFlags) happyNode(n rules.HappyNode) {
	if n.Happy == 0 && n.StateReligionHappy == 0 {
		return
	}
	f.economic = true
	f.add(HappyItem{})
}

func (f *buildingFlags) healthNode(n rules.HealthNode) {
	if n.Health == 0 && n.Unhealth == 0 {
		return
	}
	f.economic = true
	f.add(HealthItem{})
}

func (f *buildingFlags) areaNode(n rules.AreaEffectNode) {
	if n.AreaHappy != 0 || n.AreaHealth != 0 {
		f.regional = true
	}
	if n.GlobalHappy != 0 || n.GlobalHealth != 0 {
		f.global = true
	}
	if n.AreaHappy != 0 || n.GlobalHappy != 0 {
		f.add(HappyItem{})
	}
	if n.AreaHealth != 0 || n.GlobalHealth != 0 {
		f.add(HealthItem{})
	}
}

func (f *buildingFlags) miscNode(n rules.MiscEffectNode) {
	if n.FoodKeptPercent != 0 {
		f.economic = true
		f.add(FoodItem{})
	}
	if n.MaintenanceModifier != 0 {
		f.economic = true
		f.add(GoldItem{})
	}
	if n.NoUnhappiness {
		f.economic = true
		f.add(HappyItem{})
	}
	if n.GovernmentCenter {
		f.global = true
		f.govCenter = true
		f.add(GovCenterItem{})
	}
}

func (f *buildingFlags) unitExpNode(n rules.UnitExpNode) {
	if n.FreeExperience == 0 && n.GlobalFreeExperience == 0 {
		return
	}
	f.military = true
	if n.GlobalFreeExperience != 0 {
		f.global = true
	}
	f.add(UnitExperienceItem{Experience: n.FreeExperience, GlobalExperience: n.GlobalFreeExperience, Domain: n.Domain})
}

func (f *buildingFlags) defenceNode(n rules.CityDefenceNode) {
	if n.Defence == 0 && n.GlobalDefence == 0 && n.BombardRate == 0 {
		return
	}
	f.military = true
	f.add(CityDefenceItem{Defence: n.Defence + n.BombardRate, GlobalDefence: n.GlobalDefence})
}

func (f *buildingFlags) freeBonusNode(n rules.FreeBonusNode) {
	if n.Count <= 0 {
		return
	}
	f.economic = true
	f.global = true
	f.add(EconomicItem{})
}

func (f *buildingFlags) bonusEffectNode(n rules.BonusEffectNode) {
	if n.Yield.IsZero() && n.Modifier.IsZero() && n.Happy == 0 && n.Health == 0 {
		return
	}
	f.economic = true
	f.add(EconomicItem{})
	if n.Happy != 0 {
		f.add(HappyItem{})
	}
	if n.Health != 0 {
		f.add(HealthItem{})
	}
}

func (f *buildingFlags) freeTechNode(n rules.FreeTechNode) {
	if n.Count > 0 {
		f.add(FreeTechItem{Count: n.Count})
	}
}

func (f *buildingFlags) religionCommerceNode(n rules.ReligionCommerceNode) {
	if n.Commerce.IsZero() {
		return
	}
	f.economic = true
	f.commerceItems(n.Commerce)
	f.add(EconomicItem{})
}

func (f *buildingFlags) node(n rules.BuildingNode) {
	switch n := n.(type) {
	case rules.YieldNode:
		f.yieldNode(n)
	case rules.CommerceNode:
		f.commerceNode(n)
	case rules.TradeNode:
		f.tradeNode(n)
	case rules.SpecialistSlotNode:
		f.specialistNode(n)
	case rules.HappyNode:
		f.happyNode(n)
	case rules.HealthNode:
		f.healthNode(n)
	case rules.AreaEffectNode:
		f.areaNode(n)
	case rules.MiscEffectNode:
		f.miscNode(n)
	case rules.UnitExpNode:
		f.unitExpNode(n)
	case rules.CityDefenceNode:
		f.defenceNode(n)
	case rules.FreeBonusNode:
		f.freeBonusNode(n)
	case rules.BonusEffectNode:
		f.bonusEffectNode(n)
	case rules.FreeTechNode:
		f.freeTechNode(n)
	case rules.ReligionCommerceNode:
		f.religionCommerceNode(n)
	}
}

func (f *buildingFlags) scope() ComparisonScope {
	switch {
	case f.global:
		return GlobalComparison
	case f.regional:
		return AreaComparison
	case f.economic || f.military:
		return CityComparison
	}
	return NoComparison
}

// BuildingTacticItems returns only the tactic items of info.
func BuildingTacticItems(info *rules.BuildingInfo) []BuildingItem {
	var f buildingFlags
	for _, n := range info.Nodes {
		f.node(n)
	}
	return f.items
}

// ClassifyBuilding derives the tactic items, comparison scope and
// dependencies of info.
//
// Postcondition: returns false when info references an entity r does not
// define, or when the building has no tactic items.
func ClassifyBuilding(r *rules.Rules, info *rules.BuildingInfo) (BuildingClassification, bool) {
	var f buildingFlags
	for _, n := range info.Nodes {
		f.node(n)
	}
	if len(f.items) == 0 {
		return BuildingClassification{}, false
	}
	out := BuildingClassification{
		Items:     f.items,
		Scope:     f.scope(),
		Economic:  f.economic,
		Military:  f.military,
		Regional:  f.regional,
		Global:    f.global,
		GovCenter: f.govCenter,
	}
	for _, t := range info.PrereqTechs {
		if r.Tech(t) == nil {
			return BuildingClassification{}, false
		}
		out.TechDeps = append(out.TechDeps, dependency.NewResearchTech(t))
	}
	for _, b := range info.RequiredBuildings {
		if r.Building(b) == nil {
			return BuildingClassification{}, false
		}
		out.Deps = append(out.Deps, dependency.NewCityBuilding(b))
	}
	for _, c := range info.RequiredBuildingCounts {
		if r.Building(c.Building) == nil {
			return BuildingClassification{}, false
		}
		out.Deps = append(out.Deps, dependency.NewCivBuilding(c.Building, c.Count, info.ID))
	}
	switch {
	case info.RequiresStateReligion:
		if info.PrereqReligion != rules.NoReligion && r.Religion(info.PrereqReligion) == nil {
			return BuildingClassification{}, false
		}
		out.Deps = append(out.Deps, dependency.NewStateReligion(info.PrereqReligion))
	case info.PrereqReligion != rules.NoReligion:
		if r.Religion(info.PrereqReligion) == nil {
			return BuildingClassification{}, false
		}
		out.Deps = append(out.Deps, dependency.NewReligious(info.PrereqReligion))
	}
	if len(info.AndBonuses) > 0 || len(info.OrBonuses) > 0 {
		if !bonusesKnown(r, info.AndBonuses) || !bonusesKnown(r, info.OrBonuses) {
			return BuildingClassification{}, false
		}
		out.Deps = append(out.Deps, dependency.NewCityBonus(r, info.AndBonuses, info.OrBonuses))
	}
	return out, true
}

// UnitClassification is what the classifier derives from one unit.
type UnitClassification struct {
	Items    []UnitItem
	Deps     []dependency.Dependency
	TechDeps []dependency.Dependency
}

// ClassifyUnit derives the tactic items and dependencies of info.
//
// Postcondition: returns false for units with no tactic items and units
// referencing undefined entities.
func ClassifyUnit(r *rules.Rules, info *rules.UnitInfo) (UnitClassification, bool) {
	var out UnitClassification
	combat := false
	addCombat := func(role Role, bonus int) {
		combat = true
		for i, it := range out.Items {
			if c, ok := it.(CombatItem); ok && c.Role == role {
				out.Items[i] = CombatItem{Role: role, Bonus: max(c.Bonus, bonus)}
				return
			}
		}
		out.Items = append(out.Items, CombatItem{Role: role, Bonus: bonus})
	}
	for _, n := range info.Nodes {
		switch n := n.(type) {
		case rules.CityCombatNode:
			if n.AttackPercent > 0 {
				addCombat(CityAttack, n.AttackPercent)
			}
			if n.DefencePercent > 0 {
				addCombat(CityDefence, n.DefencePercent)
			}
		case rules.FieldCombatNode:
			if n.AttackPercent > 0 || n.FirstStrikes > 0 {
				addCombat(FieldAttack, n.AttackPercent+10*n.FirstStrikes)
			}
			if n.DefencePercent > 0 {
				addCombat(FieldDefence, n.DefencePercent)
			}
		case rules.CollateralNode:
			if n.Damage > 0 {
				addCombat(Collateral, 0)
			}
		case rules.WorkerNode:
			if len(n.Improvements) > 0 {
				out.Items = append(out.Items, WorkerItem{Improvements: n.Improvements})
			}
		case rules.SettlerNode:
			out.Items = append(out.Items, SettlerItem{})
		case rules.MissionaryNode:
			if r.Religion(n.Religion) == nil {
				return UnitClassification{}, false
			}
			out.Items = append(out.Items, MissionaryItem{Religion: n.Religion})
			out.Deps = append(out.Deps, dependency.NewReligious(n.Religion))
		case rules.GreatPersonNode:
			out.Items = append(out.Items, GreatPersonItem{Specialists: n.Specialists, DiscoverResearch: n.DiscoverResearch})
		}
	}
	if info.Strength > 0 {
		switch {
		case info.Domain == rules.Sea:
			kept := out.Items[:0]
			for _, it := range out.Items {
				if _, ok := it.(CombatItem); !ok {
					kept = append(kept, it)
				}
			}
			out.Items = append(kept, CombatItem{Role: SeaCombat})
		case !combat:
			addCombat(FieldDefence, 0)
		}
	}
	if len(out.Items) == 0 {
		return UnitClassification{}, false
	}
	for _, t := range info.PrereqTechs {
		if r.Tech(t) == nil {
			return UnitClassification{}, false
		}
		out.TechDeps = append(out.TechDeps, dependency.NewResearchTech(t))
	}
	if info.PrereqBuilding != rules.NoBuilding {
		if r.Building(info.PrereqBuilding) == nil {
			return UnitClassification{}, false
		}
		out.Deps = append(out.Deps, dependency.NewCityBuilding(info.PrereqBuilding))
	}
	if info.PrereqReligion != rules.NoReligion {
		if r.Religion(info.PrereqReligion) == nil {
			return UnitClassification{}, false
		}
		out.Deps = append(out.Deps, dependency.NewReligious(info.PrereqReligion))
	}
	if len(info.AndBonuses) > 0 || len(info.OrBonuses) > 0 {
		if !bonusesKnown(r, info.AndBonuses) || !bonusesKnown(r, info.OrBonuses) {
			return UnitClassification{}, false
		}
		out.Deps = append(out.Deps, dependency.NewCityBonus(r, info.AndBonuses, info.OrBonuses))
	}
	return out, true
}

// ClassifyCivic derives the tactic items and tech dependency of info.
func ClassifyCivic(r *rules.Rules, info *rules.CivicInfo) ([]CivicItem, []dependency.Dependency, bool) {
	var items []CivicItem
	add := func(it CivicItem) {
		for i, existing := range items {
			if existing.civicTag() != it.civicTag() {
				continue
			}
			switch cur := existing.(type) {
			case MilitaryCivicItem:
				next := it.(MilitaryCivicItem)
				items[i] = MilitaryCivicItem{Experience: cur.Experience + next.Experience, MilitaryHappy: cur.MilitaryHappy + next.MilitaryHappy}
			case HurryCivicItem:
				next := it.(HurryCivicItem)
				items[i] = HurryCivicItem{Gold: cur.Gold || next.Gold, Population: cur.Population || next.Population}
			}
			return
		}
		items = append(items, it)
	}
	for _, n := range info.Nodes {
		switch n := n.(type) {
		case rules.CivicYieldNode, rules.CivicMaintenanceNode, rules.CivicImprovementNode,
			rules.CivicHealthNode, rules.CivicSpecialistNode:
			add(EconomicCivicItem{})
		case rules.CivicHappyNode:
			if n.Happy != 0 {
				add(EconomicCivicItem{})
			}
			if n.MilitaryHappy != 0 {
				add(MilitaryCivicItem{MilitaryHappy: n.MilitaryHappy})
			}
		case rules.CivicUnitNode:
			if n.FreeExperience != 0 {
				add(MilitaryCivicItem{Experience: n.FreeExperience})
			}
		case rules.CivicHurryNode:
			if n.HurryWithGold || n.HurryWithPopulation {
				add(HurryCivicItem{Gold: n.HurryWithGold, Population: n.HurryWithPopulation})
			}
		}
	}
	var tech []dependency.Dependency
	if info.PrereqTech != rules.NoTech {
		if r.Tech(info.PrereqTech) == nil {
			return nil, nil, false
		}
		tech = append(tech, dependency.NewResearchTech(info.PrereqTech))
	}
	return items, tech, len(items) > 0
}

// ClassifyTech derives the tactic items of learning info.
func ClassifyTech(r *rules.Rules, info *rules.TechInfo) ([]TechItem, bool) {
	var items []TechItem
	for _, n := range info.Nodes {
		switch n := n.(type) {
		case rules.FirstToTechNode:
			if n.FreeTechs > 0 {
				items = append(items, FreeTechTechItem{Count: n.FreeTechs})
			}
			if n.FreeUnit != rules.NoUnit && r.Unit(n.FreeUnit) != nil {
				items = append(items, FreeUnitItem{Unit: n.FreeUnit})
			}
		case rules.FoundReligionNode:
			if r.Religion(n.Religion) == nil {
				return nil, false
			}
			items = append(items, FoundReligionItem{Religion: n.Religion})
		case rules.RevealBonusNode:
			if r.Resource(n.Bonus) == nil {
				return nil, false
			}
			items = append(items, ConnectResourceItem{Bonus: n.Bonus, Units: r.UnitsRequiringBonus(n.Bonus)})
		case rules.ImprovementYieldNode:
			if r.Improvement(n.Improvement) == nil {
				return nil, false
			}
			items = append(items, ImprovementYieldItem{Improvement: n.Improvement, Yield: n.Yield})
		case rules.ProcessNode:
			if r.Process(n.Process) == nil {
				return nil, false
			}
			items = append(items, ProcessTechItem{Process: n.Process})
		case rules.GrantBonusNode:
			if r.Resource(n.Bonus) == nil {
				return nil, false
			}
			items = append(items, GrantBonusItem{Bonus: n.Bonus})
		}
	}
	return items, len(items) > 0
}

// ClassifyResource derives the tactic items and tech dependency of info.
func ClassifyResource(r *rules.Rules, info *rules.ResourceInfo) ([]ResourceItem, []dependency.Dependency, bool) {
	var items []ResourceItem
	if len(info.Nodes) > 0 {
		items = append(items, ResourceEconomicItem{})
	}
	if units := r.UnitsRequiringBonus(info.ID); len(units) > 0 {
		items = append(items, ResourceUnitItem{Units: units})
	}
	var tech []dependency.Dependency
	if t := r.BonusTech(info.ID); t != rules.NoTech {
		tech = append(tech, dependency.NewResearchTech(t))
	}
	return items, tech, len(items) > 0
}

// ClassifyReligion derives the tactic items and dependencies of info.
func ClassifyReligion(r *rules.Rules, info *rules.ReligionInfo) ([]ReligionItem, []dependency.Dependency, []dependency.Dependency, bool) {
	var items []ReligionItem
	if !info.Commerce.IsZero() {
		items = append(items, SpreadReligionItem{})
	}
	if info.StateHappy > 0 {
		items = append(items, StateReligionItem{})
	}
	var tech []dependency.Dependency
	if info.FoundingTech != rules.NoTech {
		if r.Tech(info.FoundingTech) == nil {
			return nil, nil, nil, false
		}
		tech = append(tech, dependency.NewResearchTech(info.FoundingTech))
	}
	deps := []dependency.Dependency{dependency.NewReligious(info.ID)}
	return items, deps, tech, len(items) > 0
}

// ClassifyProcess returns the tech dependency of info.
func ClassifyProcess(r *rules.Rules, info *rules.ProcessInfo) ([]dependency.Dependency, bool) {
	if info.Conversion.IsZero() {
		return nil, false
	}
	if info.Tech == rules.NoTech {
		return nil, true
	}
	if r.Tech(info.Tech) == nil {
		return nil, false
	}
	return []dependency.Dependency{dependency.NewResearchTech(info.Tech)}, true
}

// ClassifyImprovement returns the tech dependency of info.
func ClassifyImprovement(r *rules.Rules, info *rules.ImprovementInfo) ([]dependency.Dependency, bool) {
	if info.Yield.IsZero() {
		return nil, false
	}
	if info.Tech == rules.NoTech {
		return nil, true
	}
	if r.Tech(info.Tech) == nil {
		return nil, false
	}
	return []dependency.Dependency{dependency.NewResearchTech(info.Tech)}, true
}

func bonusesKnown(r *rules.Rules, bs []rules.BonusType) bool {
	for _, b := range bs {
		if r.Resource(b) == nil {
			return false
		}
	}
	return true
}
