package rules

import "github.com/cory-johannsen/altai/internal/game/output"

// Output is the per-category vector used throughout rule data.
type Output = output.Output

// BuildingNode is one effect of a building. The set of node kinds is closed;
// consumers type-switch over it.
type BuildingNode interface {
	isBuildingNode()
}

// YieldNode changes the city's flat yield and yield modifiers.
// Global applies the modifier to every city of the owner.
type YieldNode struct {
	Yield    Output
	Modifier Output
	Global   bool
	// MilitaryProductionModifier only speeds up unit production.
	MilitaryProductionModifier int
}

// CommerceNode changes commerce output and modifiers.
type CommerceNode struct {
	Commerce Output
	Modifier Output
	Global   bool
}

// TradeNode adds trade routes or boosts their yield.
type TradeNode struct {
	ExtraRoutes   int
	RouteModifier int
}

// SpecialistSlotNode adds specialist slots and free specialists.
type SpecialistSlotNode struct {
	Slots map[SpecialistType]int
	Free  map[SpecialistType]int
}

// HappyNode adds local happiness.
type HappyNode struct {
	Happy int
	// StateReligionHappy applies only while the city has the owner's state religion.
	StateReligionHappy int
}

// HealthNode adds local health.
type HealthNode struct {
	Health   int
	Unhealth int
}

// AreaEffectNode spreads happiness or health beyond the city.
type AreaEffectNode struct {
	AreaHappy    int
	AreaHealth   int
	GlobalHappy  int
	GlobalHealth int
}

// MiscEffectNode collects city-management effects.
type MiscEffectNode struct {
	FoodKeptPercent     int
	MaintenanceModifier int
	GovernmentCenter    bool
	NoUnhappiness       bool
	HurryAngerModifier  int
}

// UnitExpNode grants free experience to trained units.
type UnitExpNode struct {
	FreeExperience       int
	GlobalFreeExperience int
	// Domain restricts FreeExperience to one domain; nil means all.
	Domain *Domain
}

// CityDefenceNode strengthens the city's defences.
type CityDefenceNode struct {
	Defence       int
	GlobalDefence int
	BombardRate   int
}

// FreeBonusNode grants copies of a resource to the owner.
type FreeBonusNode struct {
	Bonus BonusType
	Count int
}

// BonusEffectNode applies only when the city has the given resource.
type BonusEffectNode struct {
	Bonus    BonusType
	Yield    Output
	Modifier Output
	Happy    int
	Health   int
}

// FreeTechNode grants free technologies on completion.
type FreeTechNode struct {
	Count int
}

// ReligionCommerceNode produces commerce per city following a religion.
type ReligionCommerceNode struct {
	Religion ReligionType
	Commerce Output
}

func (YieldNode) isBuildingNode()            {}
func (CommerceNode) isBuildingNode()         {}
func (TradeNode) isBuildingNode()            {}
func (SpecialistSlotNode) isBuildingNode()   {}
func (HappyNode) isBuildingNode()            {}
func (HealthNode) isBuildingNode()           {}
func (AreaEffectNode) isBuildingNode()       {}
func (MiscEffectNode) isBuildingNode()       {}
func (UnitExpNode) isBuildingNode()          {}
func (CityDefenceNode) isBuildingNode()      {}
func (FreeBonusNode) isBuildingNode()        {}
func (BonusEffectNode) isBuildingNode()      {}
func (FreeTechNode) isBuildingNode()         {}
func (ReligionCommerceNode) isBuildingNode() {}

// UnitNode is one capability of a unit.
type UnitNode interface {
	isUnitNode()
}

// CityCombatNode modifies combat against or inside cities.
type CityCombatNode struct {
	AttackPercent  int
	DefencePercent int
}

// FieldCombatNode modifies combat in open terrain.
type FieldCombatNode struct {
	AttackPercent  int
	DefencePercent int
	FirstStrikes   int
}

// CollateralNode deals damage to units stacked with the target.
type CollateralNode struct {
	Damage   int
	MaxUnits int
}

// WorkerNode lists the improvements the unit can build.
type WorkerNode struct {
	Improvements []ImprovementType
}

// SettlerNode marks a unit able to found cities.
type SettlerNode struct{}

// MissionaryNode marks a unit able to spread a religion.
type MissionaryNode struct {
	Religion ReligionType
}

// GreatPersonNode lists the special uses of a great person.
type GreatPersonNode struct {
	Specialists []SpecialistType
	// DiscoverResearch is the research a discover-technology action yields.
	DiscoverResearch int
}

func (CityCombatNode) isUnitNode()  {}
func (FieldCombatNode) isUnitNode() {}
func (CollateralNode) isUnitNode()  {}
func (WorkerNode) isUnitNode()      {}
func (SettlerNode) isUnitNode()     {}
func (MissionaryNode) isUnitNode()  {}
func (GreatPersonNode) isUnitNode() {}

// CivicNode is one effect of a civic.
type CivicNode interface {
	isCivicNode()
}

// CivicYieldNode modifies yields and commerce in every city.
type CivicYieldNode struct {
	Modifier Output
}

// CivicMaintenanceNode changes city maintenance.
type CivicMaintenanceNode struct {
	MaintenanceModifier int
}

// CivicHappyNode adds happiness in every city.
type CivicHappyNode struct {
	Happy         int
	MilitaryHappy int
}

// CivicHealthNode adds health in every city.
type CivicHealthNode struct {
	Health int
}

// CivicSpecialistNode grants free or improved specialists.
type CivicSpecialistNode struct {
	FreeSpecialists int
	Specialist      SpecialistType
	ExtraYield      Output
}

// CivicUnitNode grants free experience to new units.
type CivicUnitNode struct {
	FreeExperience int
}

// CivicHurryNode enables rushing production.
type CivicHurryNode struct {
	HurryWithGold       bool
	HurryWithPopulation bool
}

// CivicImprovementNode changes an improvement's yield.
type CivicImprovementNode struct {
	Improvement ImprovementType
	Yield       Output
}

func (CivicYieldNode) isCivicNode()       {}
func (CivicMaintenanceNode) isCivicNode() {}
func (CivicHappyNode) isCivicNode()       {}
func (CivicHealthNode) isCivicNode()      {}
func (CivicSpecialistNode) isCivicNode()  {}
func (CivicUnitNode) isCivicNode()        {}
func (CivicHurryNode) isCivicNode()       {}
func (CivicImprovementNode) isCivicNode() {}

// TechNode is one effect of learning a technology beyond enabling entities
// that name it as a prerequisite.
type TechNode interface {
	isTechNode()
}

// FirstToTechNode rewards the first civilization to learn the technology.
type FirstToTechNode struct {
	FreeTechs int
	FreeUnit  UnitType
}

// FoundReligionNode founds a religion for the first civilization to learn it.
type FoundReligionNode struct {
	Religion ReligionType
}

// RevealBonusNode reveals a resource on the map.
type RevealBonusNode struct {
	Bonus BonusType
}

// ImprovementYieldNode changes an improvement's yield.
type ImprovementYieldNode struct {
	Improvement ImprovementType
	Yield       Output
}

// ProcessNode enables a process.
type ProcessNode struct {
	Process ProcessType
}

// GrantBonusNode gives the civilization a resource outright.
type GrantBonusNode struct {
	Bonus BonusType
}

func (FirstToTechNode) isTechNode()      {}
func (FoundReligionNode) isTechNode()    {}
func (RevealBonusNode) isTechNode()      {}
func (ImprovementYieldNode) isTechNode() {}
func (ProcessNode) isTechNode()          {}
func (GrantBonusNode) isTechNode()       {}

// ResourceNode is one effect of having a resource.
type ResourceNode interface {
	isResourceNode()
}

// BonusHappyNode adds happiness to connected cities.
type BonusHappyNode struct {
	Happy int
}

// BonusHealthNode adds health to connected cities.
type BonusHealthNode struct {
	Health int
}

// BonusYieldNode adds yield to the worked plot.
type BonusYieldNode struct {
	Yield Output
}

// BonusBuildingNode adds effects to a building when the resource is present.
type BonusBuildingNode struct {
	Building BuildingType
	Happy    int
	Health   int
	Modifier Output
}

func (BonusHappyNode) isResourceNode()    {}
func (BonusHealthNode) isResourceNode()   {}
func (BonusYieldNode) isResourceNode()    {}
func (BonusBuildingNode) isResourceNode() {}
