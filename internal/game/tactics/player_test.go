package tactics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
)

func TestNewPlayerTactics_SkipsKnownTechsAndBuiltBuildings(t *testing.T) {
	const rulesYAML = `
techs:
  - key: TECH_PHILOSOPHY
    cost: 60
    effects:
      - kind: first_to
        free_techs: 1
  - key: TECH_LIBERALISM
    cost: 90
    effects:
      - kind: first_to
        free_techs: 1
buildings:
  - key: BUILDING_FORGE
    cost: 30
    effects:
      - kind: commerce
        commerce: {gold: 5}
`
	const scenario = `
players:
  - id: 0
    name: Rome
    research_rate: 10
    techs: [TECH_PHILOSOPHY]
    cities:
      - id: 1
        name: Roma
        buildings: [BUILDING_FORGE]
        plots:
          - {food: 2, production: 2}
`
	f := newFixture(t, rulesYAML, scenario)

	_, ok := f.pt.TechTactics(f.tech(t, "TECH_PHILOSOPHY"))
	assert.False(t, ok)
	_, ok = f.pt.TechTactics(f.tech(t, "TECH_LIBERALISM"))
	assert.True(t, ok)
	_, ok = f.pt.CityBuildingTactic(1, f.building(t, "BUILDING_FORGE"))
	assert.False(t, ok)
}

func TestPlayerTactics_CityLifecycle(t *testing.T) {
	f := newFixture(t, bronzeRules, oneCityScenario)
	forge := f.building(t, "BUILDING_FORGE")

	_, ok := f.pt.CityBuildingTactic(1, forge)
	require.True(t, ok)

	f.player.AddCity(civ.NewCity(7, "Antium", f.player.ID))
	f.pt.AddCity(7)
	_, ok = f.pt.CityBuildingTactic(7, forge)
	assert.True(t, ok, "new city gets building tactics")

	f.player.RemoveCity(7)
	f.pt.RemoveCity(7)
	_, ok = f.pt.CityBuildingTactic(7, forge)
	assert.False(t, ok)

	f.city(t, 1).AddBuilding(forge)
	f.pt.OnBuildingBuilt(1, forge)
	_, ok = f.pt.CityBuildingTactic(1, forge)
	assert.False(t, ok, "built buildings are not valued again")

	f.city(t, 1).RemoveBuilding(forge)
	f.pt.OnBuildingLost(1, forge)
	_, ok = f.pt.CityBuildingTactic(1, forge)
	assert.True(t, ok, "lost buildings are valued again")
}

func TestPlayerTactics_AddCityIgnoresUnknownCity(t *testing.T) {
	f := newFixture(t, bronzeRules, oneCityScenario)

	f.pt.AddCity(99)

	_, ok := f.pt.CityBuildingTactic(99, f.building(t, "BUILDING_FORGE"))
	assert.False(t, ok)
}

func TestPlayerTactics_UpdateCityBuildingTacticsUnknownCity(t *testing.T) {
	f := newFixture(t, bronzeRules, oneCityScenario)

	err := f.pt.UpdateCityBuildingTactics(99)
	assert.ErrorIs(t, err, tactics.ErrUnknownCity)
}

func TestRefresh_ProjectsBuildTimeAndDelta(t *testing.T) {
	f := newFixture(t, bronzeRules, bronzeKnownScenario)
	f.pt.Refresh(1)

	ct, ok := f.pt.CityBuildingTactic(1, f.building(t, "BUILDING_FORGE"))
	require.True(t, ok)
	// 5 production a turn finishes 30 hammers on turn 6; 24 turns of +5 gold follow.
	assert.Equal(t, 6, ct.Turns())
	assert.Equal(t, 120, ct.Delta()[output.Gold])
	assert.NotNil(t, ct.Ladder())
}

const routingRules = `
techs:
  - key: TECH_CURRENCY
    cost: 100
buildings:
  - key: BUILDING_GRANARY
    cost: 20
    effects:
      - kind: commerce
        commerce: {gold: 2}
  - key: BUILDING_MARKET
    cost: 30
    techs: [TECH_CURRENCY]
    required_buildings: [BUILDING_GRANARY]
    effects:
      - kind: commerce
        commerce: {gold: 3}
`

func TestSelectionMap_BucketsByIgnoredDependencies(t *testing.T) {
	f := newFixture(t, routingRules, oneCityScenario)
	granary := f.building(t, "BUILDING_GRANARY")
	market := f.building(t, "BUILDING_MARKET")
	f.pt.Refresh(1)

	techAndBuilding := dependency.NewItemSet(
		dependency.Item{Kind: dependency.ResearchTech, Param: int(f.tech(t, "TECH_CURRENCY"))},
		dependency.Item{Kind: dependency.CityBuilding, Param: int(granary)},
	)

	sdm := f.pt.SelectionMap(dependency.IgnoreTech | dependency.IgnoreCityBuildings)
	sd, ok := sdm.Lookup(techAndBuilding)
	require.True(t, ok)
	assert.Equal(t, market, tactics.BuildingValueOf(sd.EconomicBuildings, market).Building)

	empty, ok := sdm.Lookup(dependency.ItemSet{})
	require.True(t, ok)
	assert.Equal(t, granary, tactics.BuildingValueOf(empty.EconomicBuildings, granary).Building)

	sdm = f.pt.SelectionMap(dependency.IgnoreTech)
	for _, key := range sdm.Keys() {
		sd, _ := sdm.Lookup(key)
		assert.Equal(t, rules.NoBuilding, tactics.BuildingValueOf(sd.EconomicBuildings, market).Building,
			"market still needs a granary in bucket %s", key)
	}
}

func TestSelectionMap_KeysOrderedBySize(t *testing.T) {
	f := newFixture(t, routingRules, oneCityScenario)
	f.pt.Refresh(1)

	keys := f.pt.SelectionMap(dependency.IgnoreTech | dependency.IgnoreCityBuildings).Keys()
	require.NotEmpty(t, keys)
	for i := 1; i < len(keys); i++ {
		assert.LessOrEqual(t, keys[i-1].Len(), keys[i].Len())
	}
}
