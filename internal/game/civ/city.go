package civ

import (
	"sort"

	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/rules"
)

// CityID identifies a city within a game.
type CityID int

// NoCity is the sentinel for "no city".
const NoCity CityID = -1

// City is the live state of one city.
//
// Invariant: Plots is ordered best first; the engine works the first
// min(Population, len(Plots)) of them.
type City struct {
	ID    CityID
	Name  string
	Owner PlayerID
	// Area is the landmass or region the city sits on.
	Area int

	Population  int
	FoodStored  int
	Plots       []output.Output
	BaseHappy   int
	BaseHealth  int
	Maintenance int
	TradeRoutes int

	holyCity    map[rules.ReligionType]bool
	buildings   map[rules.BuildingType]bool
	religions   map[rules.ReligionType]bool
	bonuses     map[rules.BonusType]int
	potential   map[rules.BonusType]bool
	specialists map[rules.SpecialistType]int
}

// Starting happiness and health of a city with no modifiers.
const (
	defaultHappy  = 4
	defaultHealth = 4
)

// NewCity returns an empty city owned by owner.
func NewCity(id CityID, name string, owner PlayerID) *City {
	return &City{
		ID:          id,
		Name:        name,
		Owner:       owner,
		Population:  1,
		BaseHappy:   defaultHappy,
		BaseHealth:  defaultHealth,
		holyCity:    make(map[rules.ReligionType]bool),
		buildings:   make(map[rules.BuildingType]bool),
		religions:   make(map[rules.ReligionType]bool),
		bonuses:     make(map[rules.BonusType]int),
		potential:   make(map[rules.BonusType]bool),
		specialists: make(map[rules.SpecialistType]int),
	}
}

// HasBuilding reports whether the city contains b.
func (c *City) HasBuilding(b rules.BuildingType) bool { return c.buildings[b] }

// AddBuilding records b as built.
func (c *City) AddBuilding(b rules.BuildingType) { c.buildings[b] = true }

// RemoveBuilding records the loss of b.
func (c *City) RemoveBuilding(b rules.BuildingType) { delete(c.buildings, b) }

// Buildings returns the city's buildings in ascending id order.
func (c *City) Buildings() []rules.BuildingType {
	out := make([]rules.BuildingType, 0, len(c.buildings))
	for b := range c.buildings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasReligion reports whether religion r is present in the city.
func (c *City) HasReligion(r rules.ReligionType) bool { return c.religions[r] }

// AddReligion spreads r to the city.
func (c *City) AddReligion(r rules.ReligionType) { c.religions[r] = true }

// RemoveReligion removes r from the city.
func (c *City) RemoveReligion(r rules.ReligionType) { delete(c.religions, r) }

// Religions returns the religions present in ascending id order.
func (c *City) Religions() []rules.ReligionType {
	out := make([]rules.ReligionType, 0, len(c.religions))
	for r := range c.religions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsHolyCity reports whether the city is the holy city of r.
func (c *City) IsHolyCity(r rules.ReligionType) bool { return c.holyCity[r] }

// SetHolyCity marks the city as the holy city of r.
func (c *City) SetHolyCity(r rules.ReligionType) {
	c.holyCity[r] = true
	c.religions[r] = true
}

// HolyCities returns the religions this city is holy to.
func (c *City) HolyCities() []rules.ReligionType {
	out := make([]rules.ReligionType, 0, len(c.holyCity))
	for r := range c.holyCity {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasBonus reports whether at least one copy of b is connected to the city.
func (c *City) HasBonus(b rules.BonusType) bool { return c.bonuses[b] > 0 }

// BonusCount returns how many copies of b reach the city.
func (c *City) BonusCount(b rules.BonusType) int { return c.bonuses[b] }

// AddBonus connects one more copy of b.
func (c *City) AddBonus(b rules.BonusType) { c.bonuses[b]++ }

// RemoveBonus disconnects one copy of b.
func (c *City) RemoveBonus(b rules.BonusType) {
	if c.bonuses[b] <= 1 {
		delete(c.bonuses, b)
		return
	}
	c.bonuses[b]--
}

// Bonuses returns the connected resources in ascending id order.
func (c *City) Bonuses() []rules.BonusType {
	out := make([]rules.BonusType, 0, len(c.bonuses))
	for b := range c.bonuses {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PotentialBonus reports whether b lies in the city's radius but is not yet
// revealed or connected.
func (c *City) PotentialBonus(b rules.BonusType) bool { return c.potential[b] }

// AddPotentialBonus records an unrevealed resource within the city's radius.
func (c *City) AddPotentialBonus(b rules.BonusType) { c.potential[b] = true }

// PotentialBonuses returns the unrevealed resources in ascending id order.
func (c *City) PotentialBonuses() []rules.BonusType {
	out := make([]rules.BonusType, 0, len(c.potential))
	for b := range c.potential {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Specialists returns a copy of the settled free specialists.
func (c *City) Specialists() map[rules.SpecialistType]int {
	out := make(map[rules.SpecialistType]int, len(c.specialists))
	for s, n := range c.specialists {
		out[s] = n
	}
	return out
}

// SettleSpecialist adds one free specialist of type s.
func (c *City) SettleSpecialist(s rules.SpecialistType) { c.specialists[s]++ }
