package civ

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/rules"
)

// Scenario is a snapshot of every civilization at a given turn.
type Scenario struct {
	Turn    int
	Players []*Player
}

// Player returns the player with id.
func (s *Scenario) Player(id PlayerID) (*Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

type scenarioFile struct {
	Turn    int              `yaml:"turn"`
	Players []scenarioPlayer `yaml:"players"`
}

type scenarioPlayer struct {
	ID            int            `yaml:"id"`
	Name          string         `yaml:"name"`
	AtWar         bool           `yaml:"at_war"`
	ResearchRate  int            `yaml:"research_rate"`
	StateReligion string         `yaml:"state_religion"`
	Techs         []string       `yaml:"techs"`
	Progress      map[string]int `yaml:"research_progress"`
	Civics        []string       `yaml:"civics"`
	Cities        []scenarioCity `yaml:"cities"`
	Units         []scenarioUnit `yaml:"units"`
	UnitsBuilt    map[string]int `yaml:"units_built"`
	Sites         []scenarioSite `yaml:"sites"`
}

type scenarioCity struct {
	ID               int              `yaml:"id"`
	Name             string           `yaml:"name"`
	Area             int              `yaml:"area"`
	Population       int              `yaml:"population"`
	FoodStored       int              `yaml:"food_stored"`
	Happy            *int             `yaml:"happy"`
	Health           *int             `yaml:"health"`
	Maintenance      int              `yaml:"maintenance"`
	TradeRoutes      int              `yaml:"trade_routes"`
	Plots            []map[string]int `yaml:"plots"`
	Buildings        []string         `yaml:"buildings"`
	Religions        []string         `yaml:"religions"`
	HolyCity         []string         `yaml:"holy_city"`
	Bonuses          []string         `yaml:"bonuses"`
	PotentialBonuses []string         `yaml:"potential_bonuses"`
	Specialists      map[string]int   `yaml:"specialists"`
}

type scenarioSite struct {
	X         int            `yaml:"x"`
	Y         int            `yaml:"y"`
	Potential map[string]int `yaml:"potential"`
}

type scenarioUnit struct {
	ID   int    `yaml:"id"`
	Type string `yaml:"type"`
	City *int   `yaml:"city"`
}

// LoadScenario reads a scenario YAML file and resolves its keys against r.
//
// Precondition: r must be non-nil.
// Postcondition: returns a fully populated Scenario or a descriptive error.
func LoadScenario(path string, r *rules.Rules) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("civ.LoadScenario: reading %q: %w", path, err)
	}
	s, err := ParseScenario(data, r)
	if err != nil {
		return nil, fmt.Errorf("civ.LoadScenario: %s: %w", path, err)
	}
	return s, nil
}

// ParseScenario resolves one scenario document.
func ParseScenario(data []byte, r *rules.Rules) (*Scenario, error) {
	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if len(f.Players) == 0 {
		return nil, errors.New("scenario must have at least one player")
	}
	res := &keyResolver{rules: r}
	s := &Scenario{Turn: f.Turn}
	seen := make(map[int]bool)
	for _, fp := range f.Players {
		if seen[fp.ID] {
			return nil, fmt.Errorf("duplicate player id %d", fp.ID)
		}
		seen[fp.ID] = true
		p := res.player(fp)
		if res.err != nil {
			return nil, fmt.Errorf("player %q: %w", fp.Name, res.err)
		}
		s.Players = append(s.Players, p)
	}
	return s, nil
}

type keyResolver struct {
	rules *rules.Rules
	err   error
}

func (k *keyResolver) id(key string) int {
	if k.err != nil {
		return -1
	}
	id, ok := k.rules.Lookup(key)
	if !ok {
		k.err = fmt.Errorf("%w: %q", rules.ErrUnknownKey, key)
		return -1
	}
	return id
}

func (k *keyResolver) player(fp scenarioPlayer) *Player {
	p := NewPlayer(PlayerID(fp.ID), fp.Name)
	p.AtWar = fp.AtWar
	p.ResearchRate = fp.ResearchRate
	if fp.StateReligion != "" {
		p.StateReligion = rules.ReligionType(k.id(fp.StateReligion))
	}
	for _, key := range fp.Techs {
		p.AddTech(rules.TechType(k.id(key)))
	}
	for key, n := range fp.Progress {
		p.SetResearchProgress(rules.TechType(k.id(key)), n)
	}
	for _, key := range fp.Civics {
		if info := k.rules.Civic(rules.CivicType(k.id(key))); info != nil {
			p.AdoptCivic(info)
		}
	}
	for _, fc := range fp.Cities {
		p.AddCity(k.city(p.ID, fc))
	}
	for key, n := range fp.UnitsBuilt {
		u := rules.UnitType(k.id(key))
		p.unitCounts[u] += n
	}
	for _, fu := range fp.Units {
		u := &Unit{ID: UnitID(fu.ID), Type: rules.UnitType(k.id(fu.Type)), City: NoCity}
		if fu.City != nil {
			u.City = CityID(*fu.City)
		}
		p.AddUnit(u)
	}
	for _, fs := range fp.Sites {
		o, err := output.FromMap(fs.Potential)
		if err != nil && k.err == nil {
			k.err = fmt.Errorf("site (%d,%d): %w", fs.X, fs.Y, err)
		}
		p.AddSite(Site{X: fs.X, Y: fs.Y, Potential: o})
	}
	return p
}

func (k *keyResolver) city(owner PlayerID, fc scenarioCity) *City {
	c := NewCity(CityID(fc.ID), fc.Name, owner)
	c.Area = fc.Area
	if fc.Population > 0 {
		c.Population = fc.Population
	}
	c.FoodStored = fc.FoodStored
	if fc.Happy != nil {
		c.BaseHappy = *fc.Happy
	}
	if fc.Health != nil {
		c.BaseHealth = *fc.Health
	}
	c.Maintenance = fc.Maintenance
	c.TradeRoutes = fc.TradeRoutes
	for _, m := range fc.Plots {
		o, err := output.FromMap(m)
		if err != nil && k.err == nil {
			k.err = fmt.Errorf("city %q: %w", fc.Name, err)
		}
		c.Plots = append(c.Plots, o)
	}
	for _, key := range fc.Buildings {
		c.AddBuilding(rules.BuildingType(k.id(key)))
	}
	for _, key := range fc.Religions {
		c.AddReligion(rules.ReligionType(k.id(key)))
	}
	for _, key := range fc.HolyCity {
		c.SetHolyCity(rules.ReligionType(k.id(key)))
	}
	for _, key := range fc.Bonuses {
		c.AddBonus(rules.BonusType(k.id(key)))
	}
	for _, key := range fc.PotentialBonuses {
		c.AddPotentialBonus(rules.BonusType(k.id(key)))
	}
	for key, n := range fc.Specialists {
		s := rules.SpecialistType(k.id(key))
		for i := 0; i < n; i++ {
			c.SettleSpecialist(s)
		}
	}
	return c
}
