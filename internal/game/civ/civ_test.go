package civ_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/rules"
)

const civRules = `
techs:
  - key: TECH_MINING
    cost: 60
  - key: TECH_POTTERY
    cost: 80
  - key: TECH_BRONZE_WORKING
    cost: 120
    and_prereqs: [TECH_MINING]
  - key: TECH_WRITING
    cost: 120
    or_prereqs: [TECH_POTTERY, TECH_BRONZE_WORKING]
buildings:
  - key: BUILDING_GRANARY
    cost: 60
resources:
  - key: BONUS_COPPER
    reveal_tech: TECH_BRONZE_WORKING
religions:
  - key: RELIGION_JUDAISM
civics:
  - key: CIVIC_DESPOTISM
    option: government
  - key: CIVIC_MONARCHY
    option: government
units:
  - key: UNIT_SETTLER
    cost: 100
`

func loadRules(t *testing.T) *rules.Rules {
	t.Helper()
	r, err := rules.Parse([]byte(civRules))
	require.NoError(t, err)
	return r
}

func TestPlayer_CanResearch(t *testing.T) {
	r := loadRules(t)
	p := civ.NewPlayer(0, "Rome")

	assert.True(t, p.CanResearch(r.Tech(0)))
	assert.False(t, p.CanResearch(r.Tech(2)), "needs mining")
	assert.False(t, p.CanResearch(r.Tech(3)), "needs one or-prereq")

	p.AddTech(0)
	assert.False(t, p.CanResearch(r.Tech(0)), "already known")
	assert.True(t, p.CanResearch(r.Tech(2)))

	p.AddTech(1)
	assert.True(t, p.CanResearch(r.Tech(3)))
}

func TestPlayer_ResearchTurns(t *testing.T) {
	r := loadRules(t)
	p := civ.NewPlayer(0, "Rome")
	p.ResearchRate = 10
	assert.Equal(t, 12, p.ResearchTurns(r.Tech(2)))

	p.SetResearchProgress(2, 115)
	assert.Equal(t, 1, p.ResearchTurns(r.Tech(2)))

	p.ResearchRate = 0
	p.SetResearchProgress(2, 0)
	assert.Equal(t, 120, p.ResearchTurns(r.Tech(2)))
}

func TestPlayer_CivicsReplacePerOption(t *testing.T) {
	r := loadRules(t)
	p := civ.NewPlayer(0, "Rome")
	p.AdoptCivic(r.Civic(0))
	p.AdoptCivic(r.Civic(1))
	assert.False(t, p.HasCivic(0))
	assert.True(t, p.HasCivic(1))
	assert.Equal(t, []rules.CivicType{1}, p.Civics())
}

func TestPlayer_CitiesSortedAndCounted(t *testing.T) {
	p := civ.NewPlayer(0, "Rome")
	b := civ.NewCity(5, "Antium", 0)
	a := civ.NewCity(2, "Roma", 0)
	p.AddCity(b)
	p.AddCity(a)
	require.Len(t, p.Cities(), 2)
	assert.Equal(t, civ.CityID(2), p.Cities()[0].ID)

	a.AddBuilding(0)
	b.AddBuilding(0)
	assert.Equal(t, 2, p.BuildingCount(0))

	_, ok := p.RemoveCity(5)
	require.True(t, ok)
	assert.Equal(t, 1, p.BuildingCount(0))
	_, ok = p.City(5)
	assert.False(t, ok)
}

func TestPlayer_UnitCountSurvivesLoss(t *testing.T) {
	p := civ.NewPlayer(0, "Rome")
	p.AddUnit(&civ.Unit{ID: 1, Type: 0, City: civ.NoCity})
	_, ok := p.RemoveUnit(1)
	require.True(t, ok)
	assert.Equal(t, 1, p.UnitCount(0))
	assert.Empty(t, p.Units())
}

func TestCity_BonusCounting(t *testing.T) {
	c := civ.NewCity(0, "Roma", 0)
	c.AddBonus(3)
	c.AddBonus(3)
	c.RemoveBonus(3)
	assert.True(t, c.HasBonus(3))
	c.RemoveBonus(3)
	assert.False(t, c.HasBonus(3))
	assert.Empty(t, c.Bonuses())
}

func TestCity_HolyCityImpliesReligion(t *testing.T) {
	c := civ.NewCity(0, "Jerusalem", 0)
	c.SetHolyCity(0)
	assert.True(t, c.HasReligion(0))
	assert.True(t, c.IsHolyCity(0))
}

func TestParseScenario(t *testing.T) {
	r := loadRules(t)
	s, err := civ.ParseScenario([]byte(`
turn: 40
players:
  - id: 0
    name: Rome
    research_rate: 8
    techs: [TECH_MINING]
    civics: [CIVIC_DESPOTISM]
    cities:
      - id: 0
        name: Roma
        area: 1
        population: 3
        plots:
          - {food: 3, production: 1}
          - {food: 2, gold: 1}
        buildings: [BUILDING_GRANARY]
        potential_bonuses: [BONUS_COPPER]
    units:
      - id: 7
        type: UNIT_SETTLER
        city: 0
`), r)
	require.NoError(t, err)
	assert.Equal(t, 40, s.Turn)
	p, ok := s.Player(0)
	require.True(t, ok)
	assert.True(t, p.HasTech(0))
	assert.True(t, p.HasCivic(0))
	assert.Equal(t, rules.NoReligion, p.StateReligion)

	city, ok := p.City(0)
	require.True(t, ok)
	assert.Equal(t, 3, city.Population)
	assert.Equal(t, output.New(3, 1), city.Plots[0])
	assert.True(t, city.HasBuilding(0))
	assert.True(t, city.PotentialBonus(0))

	u, ok := p.Unit(7)
	require.True(t, ok)
	assert.Equal(t, civ.CityID(0), u.City)
	assert.Equal(t, 1, p.UnitCount(0))
}

func TestParseScenario_UnknownKey(t *testing.T) {
	r := loadRules(t)
	_, err := civ.ParseScenario([]byte(`
players:
  - id: 0
    name: Rome
    techs: [TECH_FLIGHT]
`), r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rules.ErrUnknownKey))
}

func TestParseScenario_NoPlayers(t *testing.T) {
	_, err := civ.ParseScenario([]byte("turn: 1\n"), loadRules(t))
	assert.Error(t, err)
}

func TestLoadScenario_ShippedContent(t *testing.T) {
	content := filepath.Join("..", "..", "..", "content")
	r, err := rules.LoadDir(filepath.Join(content, "rules"))
	require.NoError(t, err)

	s, err := civ.LoadScenario(filepath.Join(content, "scenarios", "ancient.yaml"), r)
	require.NoError(t, err)
	assert.Equal(t, 40, s.Turn)

	rome, ok := s.Player(0)
	require.True(t, ok)
	assert.Len(t, rome.Cities(), 2)
	carthage, ok := s.Player(1)
	require.True(t, ok)
	assert.True(t, carthage.AtWar)
	assert.Len(t, rome.Sites(), 2)
	assert.Empty(t, carthage.Sites())
}

func TestParseScenario_Sites(t *testing.T) {
	s, err := civ.ParseScenario([]byte(`
players:
  - id: 0
    name: Rome
    sites:
      - {x: 12, y: 7, potential: {food: 3, production: 2}}
      - {x: 9, y: 4, potential: {gold: 2}}
`), loadRules(t))
	require.NoError(t, err)
	p, ok := s.Player(0)
	require.True(t, ok)
	require.Len(t, p.Sites(), 2)
	assert.Equal(t, civ.Site{X: 12, Y: 7, Potential: output.New(3, 2)}, p.Sites()[0])
	assert.Equal(t, output.New(0, 0, 2), p.Sites()[1].Potential)
}

func TestParseScenario_SiteUnknownCategory(t *testing.T) {
	_, err := civ.ParseScenario([]byte(`
players:
  - id: 0
    name: Rome
    sites:
      - {x: 1, y: 1, potential: {faith: 3}}
`), loadRules(t))
	assert.Error(t, err)
}

func TestPlayer_ClaimSite(t *testing.T) {
	p := civ.NewPlayer(0, "Rome")
	p.AddSite(civ.Site{X: 1, Y: 2})
	p.AddSite(civ.Site{X: 3, Y: 4})

	assert.False(t, p.ClaimSite(5, 5))
	assert.True(t, p.ClaimSite(1, 2))
	assert.Equal(t, []civ.Site{{X: 3, Y: 4}}, p.Sites())
}
