package tactics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
)

const classifyRules = `
techs:
  - key: TECH_MASONRY
    cost: 40
  - key: TECH_PHILOSOPHY
    cost: 60
    effects:
      - kind: first_to
        free_techs: 1
  - key: TECH_SAILING
    cost: 50
buildings:
  - key: BUILDING_WALLS
    cost: 30
  - key: BUILDING_MARKET
    cost: 60
    techs: [TECH_MASONRY]
    required_buildings: [BUILDING_WALLS]
    effects:
      - kind: commerce
        commerce: {gold: 2}
  - key: BUILDING_TEMPLE_OF_ARTEMIS
    cost: 200
    limit: world
    effects:
      - kind: area_effect
        area_happy: 2
  - key: BUILDING_SHWEDAGON
    cost: 200
    limit: world
    effects:
      - kind: commerce
        modifier: {gold: 25}
        global: true
units:
  - key: UNIT_WARRIOR
    cost: 15
    strength: 1
  - key: UNIT_GALLEY
    cost: 30
    strength: 2
    domain: sea
    techs: [TECH_SAILING]
  - key: UNIT_SCOUT
    cost: 15
`

func classifyFixture(t *testing.T) *rules.Rules {
	t.Helper()
	r, err := rules.Parse([]byte(classifyRules))
	require.NoError(t, err)
	return r
}

func building(t *testing.T, r *rules.Rules, key string) *rules.BuildingInfo {
	t.Helper()
	id, ok := r.Lookup(key)
	require.True(t, ok)
	return r.Building(rules.BuildingType(id))
}

func unit(t *testing.T, r *rules.Rules, key string) *rules.UnitInfo {
	t.Helper()
	id, ok := r.Lookup(key)
	require.True(t, ok)
	return r.Unit(rules.UnitType(id))
}

func TestClassifyBuilding_Scopes(t *testing.T) {
	r := classifyFixture(t)
	cases := []struct {
		key   string
		scope tactics.ComparisonScope
	}{
		{"BUILDING_MARKET", tactics.CityComparison},
		{"BUILDING_TEMPLE_OF_ARTEMIS", tactics.AreaComparison},
		{"BUILDING_SHWEDAGON", tactics.GlobalComparison},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			c, ok := tactics.ClassifyBuilding(r, building(t, r, tc.key))
			require.True(t, ok)
			assert.Equal(t, tc.scope, c.Scope)
		})
	}
}

func TestClassifyBuilding_NoItemsIsSkipped(t *testing.T) {
	r := classifyFixture(t)
	_, ok := tactics.ClassifyBuilding(r, building(t, r, "BUILDING_WALLS"))
	assert.False(t, ok)
}

func TestClassifyBuilding_Dependencies(t *testing.T) {
	r := classifyFixture(t)
	c, ok := tactics.ClassifyBuilding(r, building(t, r, "BUILDING_MARKET"))
	require.True(t, ok)

	require.Len(t, c.TechDeps, 1)
	assert.Equal(t, dependency.ResearchTech, c.TechDeps[0].Kind())
	require.Len(t, c.Deps, 1)
	assert.Equal(t, dependency.CityBuilding, c.Deps[0].Kind())
	assert.True(t, c.Economic)
	assert.False(t, c.Military)

	var gold, economic bool
	for _, it := range c.Items {
		switch it.(type) {
		case tactics.GoldItem:
			gold = true
		case tactics.EconomicItem:
			economic = true
		}
	}
	assert.True(t, gold)
	assert.True(t, economic)
}

func TestClassifyUnit_Roles(t *testing.T) {
	r := classifyFixture(t)

	c, ok := tactics.ClassifyUnit(r, unit(t, r, "UNIT_WARRIOR"))
	require.True(t, ok)
	require.Len(t, c.Items, 1)
	assert.Equal(t, tactics.CombatItem{Role: tactics.FieldDefence}, c.Items[0])

	c, ok = tactics.ClassifyUnit(r, unit(t, r, "UNIT_GALLEY"))
	require.True(t, ok)
	require.Len(t, c.Items, 1)
	assert.Equal(t, tactics.CombatItem{Role: tactics.SeaCombat}, c.Items[0])
	require.Len(t, c.TechDeps, 1)

	_, ok = tactics.ClassifyUnit(r, unit(t, r, "UNIT_SCOUT"))
	assert.False(t, ok, "units without a role are not tactics")
}

func TestClassifyTech_FirstToFreeTech(t *testing.T) {
	r := classifyFixture(t)
	id, ok := r.Lookup("TECH_PHILOSOPHY")
	require.True(t, ok)

	items, ok := tactics.ClassifyTech(r, r.Tech(rules.TechType(id)))
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, tactics.FreeTechTechItem{Count: 1}, items[0])

	id, _ = r.Lookup("TECH_MASONRY")
	_, ok = tactics.ClassifyTech(r, r.Tech(rules.TechType(id)))
	assert.False(t, ok)
}
