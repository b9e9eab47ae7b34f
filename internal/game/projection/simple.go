package projection

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/rules"
)

const (
	foodPerCitizen = 2
	baseGrowth     = 20
	growthPerPop   = 6
	tradeRouteGold = 1
)

// SimpleEngine is a deterministic turn-by-turn city model. It is deliberately
// coarse: plots are worked best first, angry citizens idle, excess unhealth
// costs food and the head of the build queue receives all production.
type SimpleEngine struct {
	rules   *rules.Rules
	citizen rules.SpecialistType
}

// NewSimpleEngine returns an engine reading effects from r. The first
// specialist in r is used for citizens that have no plot or slot to work.
//
// Precondition: r must be non-nil.
func NewSimpleEngine(r *rules.Rules) *SimpleEngine {
	if r == nil {
		panic("projection.NewSimpleEngine: rules must not be nil")
	}
	e := &SimpleEngine{rules: r, citizen: rules.NoSpecialist}
	if len(r.Specialists) > 0 {
		e.citizen = r.Specialists[0].ID
	}
	return e
}

// Project simulates cd for horizon turns.
//
// Precondition: cd must be non-nil and horizon >= 0.
// Postcondition: cd is unchanged; the returned ladder has exactly horizon entries.
func (e *SimpleEngine) Project(cd *CityData, horizon int, events []Event, target QueueItem) (*Ladder, error) {
	if cd == nil {
		return nil, fmt.Errorf("projection.SimpleEngine.Project: nil snapshot: %w", ErrInvalidSnapshot)
	}
	if horizon < 0 {
		return nil, fmt.Errorf("projection.SimpleEngine.Project: horizon %d: %w", horizon, ErrInvalidSnapshot)
	}
	s := cd.Clone()
	ladder := &Ladder{Target: target, Entries: make([]Entry, 0, horizon)}
	stored := 0

	for turn := 1; turn <= horizon; turn++ {
		var external []BuildingBuiltEvent
		for _, ev := range events {
			if ev.At() > turn {
				continue
			}
			switch ev := ev.(type) {
			case BuildingBuiltEvent:
				if ev.City != s.City {
					external = append(external, ev)
				}
			case TechResearchedEvent:
				s.Techs[ev.Tech] = true
			}
		}

		eff := e.effects(s, external)
		entry, err := e.step(s, eff, &stored, turn, ladder)
		if err != nil {
			return nil, fmt.Errorf("projection.SimpleEngine.Project: turn %d: %w", turn, err)
		}
		ladder.Entries = append(ladder.Entries, entry)
	}
	return ladder, nil
}

func (e *SimpleEngine) step(s *CityData, eff cityEffects, stored *int, turn int, ladder *Ladder) (Entry, error) {
	pop := s.Population
	working := pop
	if !eff.noUnhappiness {
		working = min(pop, max(0, s.BaseHappy+eff.happy))
	}
	worked := min(working, len(s.Plots))

	var base output.Output
	for _, p := range s.Plots[:worked] {
		base = base.Add(p)
	}
	for spec, n := range e.assignSpecialists(working-worked, eff) {
		info := e.rules.Specialist(spec)
		if info == nil {
			continue
		}
		y := info.Yield.Add(eff.specialistExtra[spec]).Add(eff.specialistExtra[rules.NoSpecialist])
		base = base.Add(y.Mul(n))
	}
	base = base.Add(eff.yield)
	routes := s.TradeRoutes + eff.tradeRoutes
	base[output.Gold] += routes * tradeRouteGold * (100 + eff.routeModifier) / 100

	total := base.ApplyPercent(eff.modifier)
	unhealthy := max(0, pop+eff.unhealth-(s.BaseHealth+eff.health))
	net := total
	net[output.Food] = total[output.Food] - foodPerCitizen*pop - unhealthy
	net[output.Gold] -= max(0, s.Maintenance*(100+eff.maintenance)/100)

	production := total[output.Production]
	if err := e.build(s, eff, &net, production, stored, turn, ladder); err != nil {
		return Entry{}, err
	}

	entry := Entry{Turn: turn, Population: pop, Output: net, Production: production}

	s.FoodStored += net[output.Food]
	threshold := baseGrowth + growthPerPop*pop
	switch {
	case s.FoodStored >= threshold:
		s.Population++
		kept := threshold * min(eff.foodKept, 100) / 100
		s.FoodStored = s.FoodStored - threshold + kept
	case s.FoodStored < 0:
		if s.Population > 1 {
			s.Population--
		}
		s.FoodStored = 0
	}
	return entry, nil
}

func (e *SimpleEngine) build(s *CityData, eff cityEffects, net *output.Output, production int, stored *int, turn int, ladder *Ladder) error {
	for len(s.Queue) > 0 {
		head := s.Queue[0]
		switch head.Kind {
		case QueueProcess:
			info := e.rules.Process(rules.ProcessType(head.ID))
			if info == nil {
				return fmt.Errorf("unknown process %d: %w", head.ID, ErrInvalidSnapshot)
			}
			for _, c := range output.AllCategories() {
				net[c] += production * info.Conversion[c] / 100
			}
			net[output.Production] -= production
			return nil
		case QueueBuilding:
			info := e.rules.Building(rules.BuildingType(head.ID))
			if info == nil {
				return fmt.Errorf("unknown building %d: %w", head.ID, ErrInvalidSnapshot)
			}
			if s.Buildings[info.ID] {
				s.Queue = s.Queue[1:]
				continue
			}
			*stored += production
			if *stored >= info.Cost {
				*stored -= info.Cost
				s.AddBuilding(info.ID)
				s.Queue = s.Queue[1:]
				ladder.Completed = append(ladder.Completed, Completion{Turn: turn, Item: head})
			}
			return nil
		case QueueUnit:
			info := e.rules.Unit(rules.UnitType(head.ID))
			if info == nil {
				return fmt.Errorf("unknown unit %d: %w", head.ID, ErrInvalidSnapshot)
			}
			if info.Cost < 0 {
				s.Queue = s.Queue[1:]
				continue
			}
			*stored += production * (100 + eff.militaryProduction) / 100
			if *stored >= info.Cost {
				*stored -= info.Cost
				s.Queue = s.Queue[1:]
				ladder.Completed = append(ladder.Completed, Completion{Turn: turn, Item: head})
			}
			return nil
		default:
			s.Queue = s.Queue[1:]
		}
	}
	return nil
}

// assignSpecialists places spare citizens into the most valuable open slots,
// then the default citizen, and adds every free specialist.
func (e *SimpleEngine) assignSpecialists(spare int, eff cityEffects) map[rules.SpecialistType]int {
	out := make(map[rules.SpecialistType]int)
	for s, n := range eff.free {
		out[s] += n
	}
	if spare <= 0 {
		return out
	}
	type slot struct {
		spec  rules.SpecialistType
		count int
		value float64
	}
	var slots []slot
	for s, n := range eff.slots {
		info := e.rules.Specialist(s)
		if info == nil || n <= 0 {
			continue
		}
		slots = append(slots, slot{spec: s, count: n, value: output.DefaultValue(info.Yield)})
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].value != slots[j].value {
			return slots[i].value > slots[j].value
		}
		return slots[i].spec < slots[j].spec
	})
	for _, sl := range slots {
		n := min(spare, sl.count)
		out[sl.spec] += n
		spare -= n
		if spare == 0 {
			return out
		}
	}
	if e.citizen != rules.NoSpecialist {
		out[e.citizen] += spare
	}
	return out
}
