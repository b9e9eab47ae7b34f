package projection

import (
	"math"

	"github.com/cory-johannsen/altai/internal/game/output"
)

// NeverBuilt is returned by ExpectedTurnBuilt when the city cannot finish the
// item at its projected production rate.
const NeverBuilt = math.MaxInt32

// Entry is one simulated turn.
type Entry struct {
	Turn       int
	Population int
	// Output is the net yield of the turn after upkeep and conversion.
	Output output.Output
	// Production is the raw hammers produced before any process conversion.
	Production int
}

// Completion records an item finishing during the projection.
type Completion struct {
	Turn int
	Item QueueItem
}

// Ladder is the simulated trajectory of one city over the projection horizon.
type Ladder struct {
	Entries   []Entry
	Completed []Completion
	// Target is the item the caller asked to track.
	Target QueueItem
}

// Output sums the net output over every projected turn.
func (l *Ladder) Output() output.Output {
	var total output.Output
	for _, e := range l.Entries {
		total = total.Add(e.Output)
	}
	return total
}

// OutputFrom sums the net output of turns at or after turn.
func (l *Ladder) OutputFrom(turn int) output.Output {
	var total output.Output
	for _, e := range l.Entries {
		if e.Turn >= turn {
			total = total.Add(e.Output)
		}
	}
	return total
}

// TurnBuilt returns the turn item completed, or -1 if it never did.
func (l *Ladder) TurnBuilt(item QueueItem) int {
	for _, c := range l.Completed {
		if c.Item == item {
			return c.Turn
		}
	}
	return -1
}

// TargetTurn returns the turn the tracked item completed, or -1.
func (l *Ladder) TargetTurn() int {
	if l.Target.Kind == NoQueue {
		return -1
	}
	return l.TurnBuilt(l.Target)
}

// AverageProduction returns the mean raw production per projected turn.
func (l *Ladder) AverageProduction() int {
	if len(l.Entries) == 0 {
		return 0
	}
	total := 0
	for _, e := range l.Entries {
		total += e.Production
	}
	return total / len(l.Entries)
}

// FinalPopulation returns the population at the end of the projection.
func (l *Ladder) FinalPopulation() int {
	if len(l.Entries) == 0 {
		return 0
	}
	return l.Entries[len(l.Entries)-1].Population
}

// ExpectedTurnBuilt estimates how many turns remaining hammers take at the
// ladder's average production, boosted by productionModifier and
// totalYieldModifier percent.
//
// Postcondition: returns at least 1, or NeverBuilt when production is zero.
func (l *Ladder) ExpectedTurnBuilt(remaining, productionModifier, totalYieldModifier int) int {
	if remaining <= 0 {
		return 1
	}
	rate := l.AverageProduction() * (100 + productionModifier + totalYieldModifier) / 100
	if rate <= 0 {
		return NeverBuilt
	}
	return max(1, (remaining+rate-1)/rate)
}
