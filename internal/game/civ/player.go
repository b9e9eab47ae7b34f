// Package civ holds the live state of each civilization: its technologies,
// civics, cities and units. The tactics engine reads this state; it never
// writes it during an evaluation pass.
package civ

import (
	"sort"

	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/rules"
)

// PlayerID identifies a civilization.
type PlayerID int

// UnitID identifies a unit owned by a player.
type UnitID int

// Unit is one unit in the field.
type Unit struct {
	ID   UnitID
	Type rules.UnitType
	// City is where the unit stands, or NoCity.
	City CityID
}

// Site is an unclaimed spot the player has scouted for a new city.
type Site struct {
	X, Y int
	// Potential is the per-turn output a city founded there would yield.
	Potential output.Output
}

// Player is the live state of one civilization.
//
// Invariant: cities are kept in ascending id order.
type Player struct {
	ID   PlayerID
	Name string

	AtWar bool
	// ResearchRate is research produced per turn across all cities.
	ResearchRate  int
	StateReligion rules.ReligionType

	techs      map[rules.TechType]bool
	progress   map[rules.TechType]int
	civics     map[string]rules.CivicType
	cities     []*City
	units      []*Unit
	unitCounts map[rules.UnitType]int
	sites      []Site
}

// NewPlayer returns a player with no techs, cities or units.
func NewPlayer(id PlayerID, name string) *Player {
	return &Player{
		ID:            id,
		Name:          name,
		StateReligion: rules.NoReligion,
		techs:         make(map[rules.TechType]bool),
		progress:      make(map[rules.TechType]int),
		civics:        make(map[string]rules.CivicType),
		unitCounts:    make(map[rules.UnitType]int),
	}
}

// HasTech reports whether t has been researched.
func (p *Player) HasTech(t rules.TechType) bool { return p.techs[t] }

// AddTech records t as researched.
func (p *Player) AddTech(t rules.TechType) {
	p.techs[t] = true
	delete(p.progress, t)
}

// Techs returns the researched techs in ascending id order.
func (p *Player) Techs() []rules.TechType {
	out := make([]rules.TechType, 0, len(p.techs))
	for t := range p.techs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ResearchProgress returns research already spent towards t.
func (p *Player) ResearchProgress(t rules.TechType) int { return p.progress[t] }

// SetResearchProgress records research spent towards t.
func (p *Player) SetResearchProgress(t rules.TechType, n int) { p.progress[t] = n }

// CanResearch reports whether t is unknown and all of its prerequisites are
// met: every AND prerequisite known and, if any OR prerequisites exist, at
// least one of them known.
func (p *Player) CanResearch(info *rules.TechInfo) bool {
	if info == nil || p.techs[info.ID] {
		return false
	}
	for _, t := range info.AndPrereqs {
		if !p.techs[t] {
			return false
		}
	}
	if len(info.OrPrereqs) == 0 {
		return true
	}
	for _, t := range info.OrPrereqs {
		if p.techs[t] {
			return true
		}
	}
	return false
}

// ResearchTurns estimates the turns needed to finish t at the current rate.
//
// Postcondition: returns at least 1.
func (p *Player) ResearchTurns(info *rules.TechInfo) int {
	remaining := info.Cost - p.progress[info.ID]
	if remaining <= 0 {
		return 1
	}
	rate := p.ResearchRate
	if rate < 1 {
		rate = 1
	}
	turns := (remaining + rate - 1) / rate
	if turns < 1 {
		turns = 1
	}
	return turns
}

// Civic returns the civic adopted for option.
func (p *Player) Civic(option string) (rules.CivicType, bool) {
	c, ok := p.civics[option]
	return c, ok
}

// HasCivic reports whether c is currently adopted.
func (p *Player) HasCivic(c rules.CivicType) bool {
	for _, adopted := range p.civics {
		if adopted == c {
			return true
		}
	}
	return false
}

// AdoptCivic replaces the civic adopted for info.Option.
func (p *Player) AdoptCivic(info *rules.CivicInfo) { p.civics[info.Option] = info.ID }

// Civics returns the adopted civics in ascending id order.
func (p *Player) Civics() []rules.CivicType {
	out := make([]rules.CivicType, 0, len(p.civics))
	for _, c := range p.civics {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Cities returns the player's cities in ascending id order.
func (p *Player) Cities() []*City { return p.cities }

// City returns the city with id.
//
// Postcondition: returns (nil, false) when the player does not own id.
func (p *Player) City(id CityID) (*City, bool) {
	for _, c := range p.cities {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// AddCity takes ownership of c.
func (p *Player) AddCity(c *City) {
	c.Owner = p.ID
	p.cities = append(p.cities, c)
	sort.Slice(p.cities, func(i, j int) bool { return p.cities[i].ID < p.cities[j].ID })
}

// RemoveCity drops the city with id, returning it if it was owned.
func (p *Player) RemoveCity(id CityID) (*City, bool) {
	for i, c := range p.cities {
		if c.ID == id {
			p.cities = append(p.cities[:i], p.cities[i+1:]...)
			return c, true
		}
	}
	return nil, false
}

// BuildingCount returns how many of the player's cities contain b.
func (p *Player) BuildingCount(b rules.BuildingType) int {
	n := 0
	for _, c := range p.cities {
		if c.HasBuilding(b) {
			n++
		}
	}
	return n
}

// HasBonus reports whether any city of the player has b connected.
func (p *Player) HasBonus(b rules.BonusType) bool {
	for _, c := range p.cities {
		if c.HasBonus(b) {
			return true
		}
	}
	return false
}

// AddUnit records a new unit. Units are counted per type for the lifetime of
// the player, so losing a unit does not reset its type's count.
func (p *Player) AddUnit(u *Unit) {
	p.units = append(p.units, u)
	p.unitCounts[u.Type]++
}

// RemoveUnit drops the unit with id.
func (p *Player) RemoveUnit(id UnitID) (*Unit, bool) {
	for i, u := range p.units {
		if u.ID == id {
			p.units = append(p.units[:i], p.units[i+1:]...)
			return u, true
		}
	}
	return nil, false
}

// Unit returns the unit with id.
func (p *Player) Unit(id UnitID) (*Unit, bool) {
	for _, u := range p.units {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

// Units returns the player's current units.
func (p *Player) Units() []*Unit { return p.units }

// UnitCount returns how many units of type u the player has ever built.
func (p *Player) UnitCount(u rules.UnitType) int { return p.unitCounts[u] }

// AddSite records a scouted settling spot.
func (p *Player) AddSite(s Site) { p.sites = append(p.sites, s) }

// Sites returns the scouted settling spots in the order they were added.
func (p *Player) Sites() []Site { return p.sites }

// ClaimSite forgets the site at x, y once a city is founded there.
func (p *Player) ClaimSite(x, y int) bool {
	for i, s := range p.sites {
		if s.X == x && s.Y == y {
			p.sites = append(p.sites[:i], p.sites[i+1:]...)
			return true
		}
	}
	return false
}
