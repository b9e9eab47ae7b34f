// Package dependency models the preconditions that gate a tactic: a tech
// researched, a building present, a religion or resource available, a unit
// ever built. Each precondition can be queried against live state, ignored
// through a Mask, flattened into comparable Items, and applied to a scratch
// projection snapshot.
package dependency

import "strings"

// Kind identifies a dependency variant. The values are the persisted tags.
type Kind int

// Dependency kinds.
const (
	NoDependency  Kind = -1
	ResearchTech  Kind = 0
	CityBuilding  Kind = 1
	CivBuilding   Kind = 2
	Religious     Kind = 3
	StateReligion Kind = 4
	CityBonus     Kind = 5
	CivUnit       Kind = 6
)

var kindNames = map[Kind]string{
	NoDependency:  "none",
	ResearchTech:  "research_tech",
	CityBuilding:  "city_building",
	CivBuilding:   "civ_building",
	Religious:     "religious",
	StateReligion: "state_religion",
	CityBonus:     "city_bonus",
	CivUnit:       "civ_unit",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Mask is a set of dependency kinds to treat as already satisfied.
type Mask uint32

// Ignore bits. The numeric values are part of the persisted format.
const (
	IgnoreNone          Mask = 0
	IgnoreTech          Mask = 1
	IgnoreCityBuildings Mask = 2
	IgnoreCivBuildings  Mask = 4
	IgnoreReligion      Mask = 8
	IgnoreResource      Mask = 16
	IgnoreCivUnits      Mask = 32
	IgnoreAll           Mask = IgnoreTech | IgnoreCityBuildings | IgnoreCivBuildings | IgnoreReligion | IgnoreResource | IgnoreCivUnits
)

// Includes reports whether every bit of bits is set in m.
func (m Mask) Includes(bits Mask) bool {
	return bits != 0 && m&bits == bits
}

// IgnoreBit returns the mask bit that ignores dependencies of kind k.
func (k Kind) IgnoreBit() Mask {
	switch k {
	case ResearchTech:
		return IgnoreTech
	case CityBuilding:
		return IgnoreCityBuildings
	case CivBuilding:
		return IgnoreCivBuildings
	case Religious, StateReligion:
		return IgnoreReligion
	case CityBonus:
		return IgnoreResource
	case CivUnit:
		return IgnoreCivUnits
	}
	return IgnoreNone
}

func (m Mask) String() string {
	if m == IgnoreNone {
		return "none"
	}
	var parts []string
	for _, b := range []struct {
		bit  Mask
		name string
	}{
		{IgnoreTech, "tech"},
		{IgnoreCityBuildings, "city_buildings"},
		{IgnoreCivBuildings, "civ_buildings"},
		{IgnoreReligion, "religion"},
		{IgnoreResource, "resource"},
		{IgnoreCivUnits, "civ_units"},
	} {
		if m.Includes(b.bit) {
			parts = append(parts, b.name)
		}
	}
	return strings.Join(parts, "|")
}
