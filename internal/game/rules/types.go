// Package rules holds the static, read-only game rule data the tactics engine
// classifies: technologies, buildings, units, civics, resources, religions,
// processes, specialists and improvements.
//
// Every entity is identified by a dense integer id assigned in load order and
// by a string key (e.g. "TECH_BRONZE_WORKING") used in YAML content. Entity
// effects are expressed as closed node sum types (see nodes.go).
package rules

// TechType identifies a technology.
type TechType int

// BuildingType identifies a building.
type BuildingType int

// UnitType identifies a unit.
type UnitType int

// CivicType identifies a civic.
type CivicType int

// BonusType identifies a resource (bonus).
type BonusType int

// ReligionType identifies a religion.
type ReligionType int

// ProcessType identifies a production-to-commerce process.
type ProcessType int

// SpecialistType identifies a specialist.
type SpecialistType int

// ImprovementType identifies a worker-buildable plot improvement.
type ImprovementType int

// ProjectType identifies a project. Projects are not classified; the type
// exists so construct items can carry the sentinel.
type ProjectType int

// Sentinels meaning "none".
const (
	NoTech        TechType        = -1
	NoBuilding    BuildingType    = -1
	NoUnit        UnitType        = -1
	NoCivic       CivicType       = -1
	NoBonus       BonusType       = -1
	NoReligion    ReligionType    = -1
	NoProcess     ProcessType     = -1
	NoSpecialist  SpecialistType  = -1
	NoImprovement ImprovementType = -1
	NoProject     ProjectType     = -1
)

// Limit classifies how many instances of a building may exist.
type Limit int

// Building limits.
const (
	Unlimited Limit = iota
	NationalLimit
	WorldLimit
)

// Domain is where a unit operates.
type Domain int

// Unit domains.
const (
	Land Domain = iota
	Sea
	Air
)

// BuildingCount requires the civilization to own Count instances of Building.
type BuildingCount struct {
	Building BuildingType
	Count    int
}

// TechInfo describes a technology.
type TechInfo struct {
	ID         TechType
	Key        string
	Cost       int
	Era        int
	AndPrereqs []TechType
	OrPrereqs  []TechType
	Nodes      []TechNode
}

// BuildingInfo describes a building and the conditions gating it.
type BuildingInfo struct {
	ID                     BuildingType
	Key                    string
	Cost                   int
	PrereqTechs            []TechType
	ObsoleteTech           TechType
	RequiredBuildings      []BuildingType
	RequiredBuildingCounts []BuildingCount
	PrereqReligion         ReligionType
	RequiresStateReligion  bool
	AndBonuses             []BonusType
	OrBonuses              []BonusType
	Limit                  Limit
	// AreaScoped marks a limited building whose effects reach only cities in
	// the builder's area.
	AreaScoped bool
	Nodes      []BuildingNode
}

// IsLimited reports whether the building is a national or world wonder.
func (b *BuildingInfo) IsLimited() bool {
	return b.Limit != Unlimited
}

// UnitInfo describes a unit.
type UnitInfo struct {
	ID             UnitType
	Key            string
	Cost           int
	Domain         Domain
	Strength       int
	Moves          int
	PrereqTechs    []TechType
	PrereqBuilding BuildingType
	PrereqReligion ReligionType
	AndBonuses     []BonusType
	OrBonuses      []BonusType
	Nodes          []UnitNode
}

// CivicInfo describes a civic.
type CivicInfo struct {
	ID         CivicType
	Key        string
	Option     string
	PrereqTech TechType
	Upkeep     int
	Nodes      []CivicNode
}

// ResourceInfo describes a bonus resource.
type ResourceInfo struct {
	ID         BonusType
	Key        string
	RevealTech TechType
	Nodes      []ResourceNode
}

// ReligionInfo describes a religion.
type ReligionInfo struct {
	ID               ReligionType
	Key              string
	FoundingTech     TechType
	Commerce         Output
	HolyCityCommerce Output
	StateHappy       int
	Missionary       UnitType
}

// ProcessInfo describes a production-to-commerce conversion.
type ProcessInfo struct {
	ID   ProcessType
	Key  string
	Tech TechType
	// Conversion is the percentage of production converted into each category.
	Conversion Output
}

// SpecialistInfo describes a specialist.
type SpecialistInfo struct {
	ID    SpecialistType
	Key   string
	Yield Output
}

// ImprovementInfo describes a plot improvement.
type ImprovementInfo struct {
	ID         ImprovementType
	Key        string
	Tech       TechType
	Yield      Output
	BuildTurns int
	// Bonuses lists the resources this improvement connects.
	Bonuses []BonusType
}
