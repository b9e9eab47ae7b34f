package tactics_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/altai/internal/config"
	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics"
)

type fixture struct {
	pt     *tactics.PlayerTactics
	player *civ.Player
	rules  *rules.Rules
}

// newFixture parses the rule and scenario documents and builds tactics for
// the scenario's first player.
func newFixture(t *testing.T, rulesYAML, scenarioYAML string) fixture {
	t.Helper()
	r, err := rules.Parse([]byte(rulesYAML))
	require.NoError(t, err)
	s, err := civ.ParseScenario([]byte(scenarioYAML), r)
	require.NoError(t, err)
	p := s.Players[0]
	pc, err := tactics.NewPlayerContext(p, r, projection.NewSimpleEngine(r), config.DefaultTactics(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return fixture{pt: tactics.NewPlayerTactics(pc), player: p, rules: r}
}

func (f fixture) id(t *testing.T, key string) int {
	t.Helper()
	id, ok := f.rules.Lookup(key)
	require.True(t, ok, "unknown key %s", key)
	return id
}

func (f fixture) tech(t *testing.T, key string) rules.TechType {
	return rules.TechType(f.id(t, key))
}

func (f fixture) building(t *testing.T, key string) rules.BuildingType {
	return rules.BuildingType(f.id(t, key))
}

func (f fixture) city(t *testing.T, id civ.CityID) *civ.City {
	t.Helper()
	c, ok := f.player.City(id)
	require.True(t, ok)
	return c
}

// bronzeRules has one building gated by Bronze Working and nothing else of
// value.
const bronzeRules = `
techs:
  - key: TECH_BRONZE_WORKING
    cost: 100
  - key: TECH_MYSTICISM
    cost: 100
buildings:
  - key: BUILDING_FORGE
    cost: 30
    techs: [TECH_BRONZE_WORKING]
    effects:
      - kind: commerce
        commerce: {gold: 5}
`

const oneCityScenario = `
turn: 1
players:
  - id: 0
    name: Rome
    research_rate: 10
    cities:
      - id: 1
        name: Roma
        population: 2
        plots:
          - {food: 2, production: 3, gold: 1}
          - {food: 2, production: 2}
`
