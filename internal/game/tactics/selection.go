package tactics

import (
	"sort"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/rules"
)

// BuildingValue is the projected worth of one building in one city.
type BuildingValue struct {
	Building rules.BuildingType
	City     civ.CityID
	// Turns is the expected build time.
	Turns int
	// Delta is the projected output change over the horizon.
	Delta output.Output
	// Military scores experience and defence for military buildings.
	Military int
}

// UnitValue is the combat worth of training one unit in one city.
type UnitValue struct {
	Unit  rules.UnitType
	City  civ.CityID
	Turns int
	Value int
}

// WorkerValue is the output a worker unit is expected to add by improving plots.
type WorkerValue struct {
	Unit  rules.UnitType
	City  civ.CityID
	Turns int
	Delta output.Output
}

// SpecialistValue is the output gained by settling a specialist in a city.
type SpecialistValue struct {
	Specialist rules.SpecialistType
	Unit       rules.UnitType
	City       civ.CityID
	Delta      output.Output
}

// CivicValue is the civilization-wide output change of adopting a civic.
type CivicValue struct {
	Civic    rules.CivicType
	Upkeep   int
	Delta    output.Output
	Hurry    bool
	Military int
}

// Role is the combat job a unit is valued for.
type Role int

// Unit roles.
const (
	CityAttack Role = iota
	CityDefence
	FieldAttack
	FieldDefence
	Collateral
	SeaCombat
	numRoles
)

func (r Role) String() string {
	switch r {
	case CityAttack:
		return "city_attack"
	case CityDefence:
		return "city_defence"
	case FieldAttack:
		return "field_attack"
	case FieldDefence:
		return "field_defence"
	case Collateral:
		return "collateral"
	case SeaCombat:
		return "sea"
	}
	return "unknown"
}

// SelectionData aggregates the scored candidates of one evaluation branch.
//
// Invariant: every slice is ordered best first by output.DefaultValue (by
// Value for units), ties broken by ascending entity then city id.
type SelectionData struct {
	EconomicBuildings   []BuildingValue
	CultureBuildings    []BuildingValue
	MilitaryBuildings   []BuildingValue
	SpecialistBuildings []BuildingValue
	SettledSpecialists  []SpecialistValue

	CityAttackUnits   []UnitValue
	CityDefenceUnits  []UnitValue
	FieldAttackUnits  []UnitValue
	FieldDefenceUnits []UnitValue
	CollateralUnits   []UnitValue
	SeaUnits          []UnitValue
	WorkerUnits       []WorkerValue

	CivicValues []CivicValue

	ResourceOutputDeltas    map[rules.BonusType]output.Output
	ConnectableResources    map[rules.BonusType][]rules.UnitType
	ReligionOutputDeltas    map[rules.ReligionType]output.Output
	ImprovementOutputDeltas map[rules.ImprovementType]output.Output
	ProcessOutputs          map[rules.ProcessType]output.Output
	FoundableReligions      map[rules.ReligionType]bool

	CultureSources   int
	PossibleFreeTech bool
	// FreeTechValue is the research a free tech is expected to save.
	FreeTechValue int
	FreeUnits     []rules.UnitType
	// ExpansionValue is the projected output of the best new city site.
	ExpansionValue output.Output
}

// NewSelectionData returns an empty aggregate with every map allocated.
func NewSelectionData() *SelectionData {
	return &SelectionData{
		ResourceOutputDeltas:    make(map[rules.BonusType]output.Output),
		ConnectableResources:    make(map[rules.BonusType][]rules.UnitType),
		ReligionOutputDeltas:    make(map[rules.ReligionType]output.Output),
		ImprovementOutputDeltas: make(map[rules.ImprovementType]output.Output),
		ProcessOutputs:          make(map[rules.ProcessType]output.Output),
		FoundableReligions:      make(map[rules.ReligionType]bool),
	}
}

// Empty reports whether nothing has been recorded.
func (sd *SelectionData) Empty() bool {
	for _, l := range [][]BuildingValue{sd.EconomicBuildings, sd.CultureBuildings, sd.MilitaryBuildings, sd.SpecialistBuildings} {
		if len(l) > 0 {
			return false
		}
	}
	for r := Role(0); r < numRoles; r++ {
		if len(*sd.units(r)) > 0 {
			return false
		}
	}
	return len(sd.SettledSpecialists) == 0 && len(sd.WorkerUnits) == 0 && len(sd.CivicValues) == 0 &&
		len(sd.ResourceOutputDeltas) == 0 && len(sd.ConnectableResources) == 0 &&
		len(sd.ReligionOutputDeltas) == 0 && len(sd.ImprovementOutputDeltas) == 0 &&
		len(sd.ProcessOutputs) == 0 && len(sd.FoundableReligions) == 0 &&
		sd.CultureSources == 0 && !sd.PossibleFreeTech && len(sd.FreeUnits) == 0 &&
		sd.ExpansionValue.IsZero()
}

func (sd *SelectionData) units(r Role) *[]UnitValue {
	switch r {
	case CityAttack:
		return &sd.CityAttackUnits
	case CityDefence:
		return &sd.CityDefenceUnits
	case FieldAttack:
		return &sd.FieldAttackUnits
	case FieldDefence:
		return &sd.FieldDefenceUnits
	case Collateral:
		return &sd.CollateralUnits
	}
	return &sd.SeaUnits
}

// Units returns the unit values recorded for role r.
func (sd *SelectionData) Units(r Role) []UnitValue { return *sd.units(r) }

func lessBuilding(a, b BuildingValue) bool {
	va, vb := output.DefaultValue(a.Delta)+float64(a.Military), output.DefaultValue(b.Delta)+float64(b.Military)
	if va != vb {
		return va > vb
	}
	if a.Building != b.Building {
		return a.Building < b.Building
	}
	return a.City < b.City
}

// insertBuilding adds v keeping list ordered. An existing entry for the same
// building and city is replaced.
func insertBuilding(list []BuildingValue, v BuildingValue) []BuildingValue {
	for i, e := range list {
		if e.Building == v.Building && e.City == v.City {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	i := sort.Search(len(list), func(i int) bool { return lessBuilding(v, list[i]) })
	list = append(list, BuildingValue{})
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}

func insertUnit(list []UnitValue, v UnitValue) []UnitValue {
	for i, e := range list {
		if e.Unit == v.Unit && e.City == v.City {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	i := sort.Search(len(list), func(i int) bool {
		e := list[i]
		if v.Value != e.Value {
			return v.Value > e.Value
		}
		if v.Unit != e.Unit {
			return v.Unit < e.Unit
		}
		return v.City < e.City
	})
	list = append(list, UnitValue{})
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}

func insertWorker(list []WorkerValue, v WorkerValue) []WorkerValue {
	for i, e := range list {
		if e.Unit == v.Unit && e.City == v.City {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	list = append(list, v)
	sort.SliceStable(list, func(i, j int) bool {
		vi, vj := output.DefaultValue(list[i].Delta), output.DefaultValue(list[j].Delta)
		if vi != vj {
			return vi > vj
		}
		if list[i].Unit != list[j].Unit {
			return list[i].Unit < list[j].Unit
		}
		return list[i].City < list[j].City
	})
	return list
}

func insertSpecialist(list []SpecialistValue, v SpecialistValue) []SpecialistValue {
	for i, e := range list {
		if e.Specialist == v.Specialist && e.City == v.City && e.Unit == v.Unit {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	list = append(list, v)
	sort.SliceStable(list, func(i, j int) bool {
		vi, vj := output.DefaultValue(list[i].Delta), output.DefaultValue(list[j].Delta)
		if vi != vj {
			return vi > vj
		}
		if list[i].Specialist != list[j].Specialist {
			return list[i].Specialist < list[j].Specialist
		}
		return list[i].City < list[j].City
	})
	return list
}

// civic returns the entry for c, appending an empty one when absent.
func (sd *SelectionData) civic(c rules.CivicType) *CivicValue {
	for i := range sd.CivicValues {
		if sd.CivicValues[i].Civic == c {
			return &sd.CivicValues[i]
		}
	}
	sd.CivicValues = append(sd.CivicValues, CivicValue{Civic: c})
	return &sd.CivicValues[len(sd.CivicValues)-1]
}

func (sd *SelectionData) sortCivics() {
	sort.SliceStable(sd.CivicValues, func(i, j int) bool {
		vi, vj := output.DefaultValue(sd.CivicValues[i].Delta), output.DefaultValue(sd.CivicValues[j].Delta)
		if vi != vj {
			return vi > vj
		}
		return sd.CivicValues[i].Civic < sd.CivicValues[j].Civic
	})
}

// AddEconomicBuilding records v as an economic building.
func (sd *SelectionData) AddEconomicBuilding(v BuildingValue) {
	sd.EconomicBuildings = insertBuilding(sd.EconomicBuildings, v)
}

// AddUnit records v under role r.
func (sd *SelectionData) AddUnit(r Role, v UnitValue) {
	l := sd.units(r)
	*l = insertUnit(*l, v)
}

// Merge folds other into sd. Entries for the same entity and city are
// replaced by other's; map deltas are summed.
func (sd *SelectionData) Merge(other *SelectionData) {
	if other == nil {
		return
	}
	for _, v := range other.EconomicBuildings {
		sd.EconomicBuildings = insertBuilding(sd.EconomicBuildings, v)
	}
	for _, v := range other.CultureBuildings {
		sd.CultureBuildings = insertBuilding(sd.CultureBuildings, v)
	}
	for _, v := range other.MilitaryBuildings {
		sd.MilitaryBuildings = insertBuilding(sd.MilitaryBuildings, v)
	}
	for _, v := range other.SpecialistBuildings {
		sd.SpecialistBuildings = insertBuilding(sd.SpecialistBuildings, v)
	}
	for _, v := range other.SettledSpecialists {
		sd.SettledSpecialists = insertSpecialist(sd.SettledSpecialists, v)
	}
	for r := Role(0); r < numRoles; r++ {
		for _, v := range *other.units(r) {
			sd.AddUnit(r, v)
		}
	}
	for _, v := range other.WorkerUnits {
		sd.WorkerUnits = insertWorker(sd.WorkerUnits, v)
	}
	for _, v := range other.CivicValues {
		c := sd.civic(v.Civic)
		c.Upkeep = v.Upkeep
		c.Delta = c.Delta.Add(v.Delta)
		c.Hurry = c.Hurry || v.Hurry
		c.Military += v.Military
	}
	sd.sortCivics()
	addOutputs(sd.ResourceOutputDeltas, other.ResourceOutputDeltas)
	addOutputs(sd.ReligionOutputDeltas, other.ReligionOutputDeltas)
	addOutputs(sd.ImprovementOutputDeltas, other.ImprovementOutputDeltas)
	addOutputs(sd.ProcessOutputs, other.ProcessOutputs)
	for b, units := range other.ConnectableResources {
		sd.ConnectableResources[b] = unionUnits(sd.ConnectableResources[b], units)
	}
	for r, ok := range other.FoundableReligions {
		if ok {
			sd.FoundableReligions[r] = true
		}
	}
	sd.CultureSources += other.CultureSources
	sd.PossibleFreeTech = sd.PossibleFreeTech || other.PossibleFreeTech
	sd.FreeTechValue = max(sd.FreeTechValue, other.FreeTechValue)
	sd.FreeUnits = unionUnits(sd.FreeUnits, other.FreeUnits)
	if output.DefaultValue(other.ExpansionValue) > output.DefaultValue(sd.ExpansionValue) {
		sd.ExpansionValue = other.ExpansionValue
	}
}

func addOutputs[K comparable](dst, src map[K]output.Output) {
	for k, v := range src {
		dst[k] = dst[k].Add(v)
	}
}

func unionUnits(a, b []rules.UnitType) []rules.UnitType {
	seen := make(map[rules.UnitType]bool, len(a)+len(b))
	var out []rules.UnitType
	for _, u := range append(append([]rules.UnitType(nil), a...), b...) {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BuildingValueOf returns the first entry for b in list, or a zero value with
// Building set to rules.NoBuilding.
func BuildingValueOf(list []BuildingValue, b rules.BuildingType) BuildingValue {
	for _, v := range list {
		if v.Building == b {
			return v
		}
	}
	return BuildingValue{Building: rules.NoBuilding, City: civ.NoCity}
}

// UnitValueOf returns the first entry for u in list, or a zero value with
// Unit set to rules.NoUnit.
func UnitValueOf(list []UnitValue, u rules.UnitType) UnitValue {
	for _, v := range list {
		if v.Unit == u {
			return v
		}
	}
	return UnitValue{Unit: rules.NoUnit, City: civ.NoCity}
}

// Significance configures IsSignificantTacticItem.
type Significance struct {
	// Horizon is the number of turns delta was projected over.
	Horizon int
	// Window is the number of turns delta is scaled to.
	Window int
	// Percent is the share of current output the scaled delta must exceed.
	Percent int
}

// IsSignificantTacticItem reports whether delta, projected over s.Horizon
// turns and scaled to s.Window turns, exceeds s.Percent percent of the
// per-turn output current sustained over the same window. Only the given
// categories count; an empty list counts every category.
func IsSignificantTacticItem(delta, current output.Output, categories []output.Category, s Significance) bool {
	if len(categories) == 0 {
		categories = output.AllCategories()
	}
	d := delta.SumOf(categories)
	if d <= 0 || s.Horizon <= 0 {
		return false
	}
	scaled := float64(d) * float64(s.Window) / float64(s.Horizon)
	threshold := float64(current.SumOf(categories)) * float64(s.Window) * float64(s.Percent) / 100
	return scaled > threshold
}
