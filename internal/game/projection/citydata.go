// Package projection simulates a city's future output. The tactics engine
// clones a CityData, mutates the clone to describe a hypothetical future
// (a building queued, a resource connected, a civic adopted) and asks an
// Engine for the resulting Ladder.
package projection

import (
	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/rules"
)

// QueueKind says what a QueueItem builds.
type QueueKind int

// Queue kinds.
const (
	NoQueue QueueKind = iota
	QueueBuilding
	QueueUnit
	QueueProcess
	QueueProject
)

func (k QueueKind) String() string {
	switch k {
	case QueueBuilding:
		return "building"
	case QueueUnit:
		return "unit"
	case QueueProcess:
		return "process"
	case QueueProject:
		return "project"
	}
	return "none"
}

// QueueItem is one entry of a city's build queue.
type QueueItem struct {
	Kind QueueKind
	ID   int
}

// NoItem is the empty queue item.
var NoItem = QueueItem{Kind: NoQueue, ID: -1}

// CityData is a self-contained copy of everything the engine needs to
// simulate one city. It never aliases live game state.
type CityData struct {
	City  civ.CityID
	Owner civ.PlayerID
	Area  int

	Population  int
	FoodStored  int
	Plots       []output.Output
	BaseHappy   int
	BaseHealth  int
	Maintenance int
	TradeRoutes int
	AtWar       bool

	StateReligion rules.ReligionType
	Process       rules.ProcessType

	Techs           map[rules.TechType]bool
	Civics          map[rules.CivicType]bool
	Buildings       map[rules.BuildingType]bool
	CivBuildings    map[rules.BuildingType]int
	Religions       map[rules.ReligionType]bool
	HolyCity        map[rules.ReligionType]bool
	Bonuses         map[rules.BonusType]int
	FreeSpecialists map[rules.SpecialistType]int

	Queue []QueueItem
}

// NewCityData returns an empty snapshot with every map allocated.
func NewCityData(city civ.CityID, owner civ.PlayerID) *CityData {
	return &CityData{
		City:            city,
		Owner:           owner,
		Population:      1,
		StateReligion:   rules.NoReligion,
		Process:         rules.NoProcess,
		Techs:           make(map[rules.TechType]bool),
		Civics:          make(map[rules.CivicType]bool),
		Buildings:       make(map[rules.BuildingType]bool),
		CivBuildings:    make(map[rules.BuildingType]int),
		Religions:       make(map[rules.ReligionType]bool),
		HolyCity:        make(map[rules.ReligionType]bool),
		Bonuses:         make(map[rules.BonusType]int),
		FreeSpecialists: make(map[rules.SpecialistType]int),
	}
}

// FromCity copies the live state of c, owned by p, into a new snapshot.
//
// Precondition: p owns c.
func FromCity(p *civ.Player, c *civ.City) *CityData {
	cd := NewCityData(c.ID, p.ID)
	cd.Area = c.Area
	cd.Population = c.Population
	cd.FoodStored = c.FoodStored
	cd.Plots = append([]output.Output(nil), c.Plots...)
	cd.BaseHappy = c.BaseHappy
	cd.BaseHealth = c.BaseHealth
	cd.Maintenance = c.Maintenance
	cd.TradeRoutes = c.TradeRoutes
	cd.AtWar = p.AtWar
	cd.StateReligion = p.StateReligion
	for _, t := range p.Techs() {
		cd.Techs[t] = true
	}
	for _, civic := range p.Civics() {
		cd.Civics[civic] = true
	}
	for _, b := range c.Buildings() {
		cd.Buildings[b] = true
	}
	for _, other := range p.Cities() {
		for _, b := range other.Buildings() {
			cd.CivBuildings[b]++
		}
	}
	for _, r := range c.Religions() {
		cd.Religions[r] = true
	}
	for _, r := range c.HolyCities() {
		cd.HolyCity[r] = true
	}
	for _, b := range c.Bonuses() {
		cd.Bonuses[b] = c.BonusCount(b)
	}
	for s, n := range c.Specialists() {
		cd.FreeSpecialists[s] = n
	}
	return cd
}

// Clone returns a deep copy. Mutating the copy never affects cd.
func (cd *CityData) Clone() *CityData {
	out := *cd
	out.Plots = append([]output.Output(nil), cd.Plots...)
	out.Queue = append([]QueueItem(nil), cd.Queue...)
	out.Techs = cloneMap(cd.Techs)
	out.Civics = cloneMap(cd.Civics)
	out.Buildings = cloneMap(cd.Buildings)
	out.CivBuildings = cloneMap(cd.CivBuildings)
	out.Religions = cloneMap(cd.Religions)
	out.HolyCity = cloneMap(cd.HolyCity)
	out.Bonuses = cloneMap(cd.Bonuses)
	out.FreeSpecialists = cloneMap(cd.FreeSpecialists)
	return &out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// PushBuilding appends b to the build queue.
func (cd *CityData) PushBuilding(b rules.BuildingType) {
	cd.Queue = append(cd.Queue, QueueItem{Kind: QueueBuilding, ID: int(b)})
}

// PushUnit appends u to the build queue.
func (cd *CityData) PushUnit(u rules.UnitType) {
	cd.Queue = append(cd.Queue, QueueItem{Kind: QueueUnit, ID: int(u)})
}

// PushProcess appends p to the build queue. A process never completes; once
// it reaches the head of the queue it converts production every turn.
func (cd *CityData) PushProcess(p rules.ProcessType) {
	cd.Queue = append(cd.Queue, QueueItem{Kind: QueueProcess, ID: int(p)})
}

// AddBuilding marks b as already built.
func (cd *CityData) AddBuilding(b rules.BuildingType) {
	if !cd.Buildings[b] {
		cd.Buildings[b] = true
		cd.CivBuildings[b]++
	}
}

// RemoveBuilding marks b as absent.
func (cd *CityData) RemoveBuilding(b rules.BuildingType) {
	if cd.Buildings[b] {
		delete(cd.Buildings, b)
		if cd.CivBuildings[b] > 0 {
			cd.CivBuildings[b]--
		}
	}
}

// AddBonus connects one more copy of b.
func (cd *CityData) AddBonus(b rules.BonusType) { cd.Bonuses[b]++ }

// RemoveBonus disconnects one copy of b.
func (cd *CityData) RemoveBonus(b rules.BonusType) {
	if cd.Bonuses[b] <= 1 {
		delete(cd.Bonuses, b)
		return
	}
	cd.Bonuses[b]--
}

// AddFreeSpecialist settles one free specialist of type s.
func (cd *CityData) AddFreeSpecialist(s rules.SpecialistType) { cd.FreeSpecialists[s]++ }

// HasBonus reports whether b reaches the city.
func (cd *CityData) HasBonus(b rules.BonusType) bool { return cd.Bonuses[b] > 0 }
