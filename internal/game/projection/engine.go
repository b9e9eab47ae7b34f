package projection

import (
	"errors"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/rules"
)

// ErrInvalidSnapshot is returned when a snapshot cannot be simulated.
var ErrInvalidSnapshot = errors.New("projection: invalid snapshot")

// Event is something that happens outside the city during the projection.
// The set of events is closed.
type Event interface {
	// At is the turn the event takes effect.
	At() int
	isEvent()
}

// BuildingBuiltEvent says another city finishes Building on turn Turn. Its
// global effects reach every city of the owner from then on, and its area
// effects reach cities in Area.
type BuildingBuiltEvent struct {
	Turn     int
	Building rules.BuildingType
	City     civ.CityID
	Area     int
}

// TechResearchedEvent says the owner learns Tech on turn Turn.
type TechResearchedEvent struct {
	Turn int
	Tech rules.TechType
}

func (e BuildingBuiltEvent) At() int  { return e.Turn }
func (e TechResearchedEvent) At() int { return e.Turn }

func (BuildingBuiltEvent) isEvent()  {}
func (TechResearchedEvent) isEvent() {}

// Engine projects a city's output over a horizon.
//
// Implementations must be pure: the same snapshot and events yield the same
// Ladder, and cd is never modified.
type Engine interface {
	Project(cd *CityData, horizon int, events []Event, target QueueItem) (*Ladder, error)
}
