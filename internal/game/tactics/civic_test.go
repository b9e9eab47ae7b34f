package tactics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
)

const civicRules = `
civics:
  - key: CIVIC_DESPOTISM
    option: GOVERNMENT
  - key: CIVIC_HEREDITARY_RULE
    option: GOVERNMENT
    upkeep: 2
    effects:
      - kind: happy
        happy: 1
  - key: CIVIC_CASTE_SYSTEM
    option: LABOR
    effects:
      - kind: health
        health: 1
      - kind: specialist
        yield: {research: 1}
      - kind: happy
        happy: 1
  - key: CIVIC_POLICE_STATE
    option: GOVERNMENT
    effects:
      - kind: happy
        military_happy: 2
`

// crowdedScenario has a size 2 city with only one content citizen.
const crowdedScenario = `
turn: 1
players:
  - id: 0
    name: Rome
    research_rate: 10
    civics: [CIVIC_DESPOTISM]
    cities:
      - id: 1
        name: Roma
        population: 2
        happy: 1
        plots:
          - {food: 2, production: 3}
          - {food: 2, production: 2}
`

func civic(t *testing.T, r *rules.Rules, key string) *rules.CivicInfo {
	t.Helper()
	id, ok := r.Lookup(key)
	require.True(t, ok)
	return r.Civic(rules.CivicType(id))
}

func TestClassifyCivic_OneEconomicItemForHappinessHealthAndSpecialists(t *testing.T) {
	r, err := rules.Parse([]byte(civicRules))
	require.NoError(t, err)

	items, tech, ok := tactics.ClassifyCivic(r, civic(t, r, "CIVIC_CASTE_SYSTEM"))
	require.True(t, ok)
	assert.Empty(t, tech)
	assert.Equal(t, []tactics.CivicItem{tactics.EconomicCivicItem{}}, items)
}

func TestClassifyCivic_MilitaryHappiness(t *testing.T) {
	r, err := rules.Parse([]byte(civicRules))
	require.NoError(t, err)

	items, _, ok := tactics.ClassifyCivic(r, civic(t, r, "CIVIC_POLICE_STATE"))
	require.True(t, ok)
	assert.Equal(t, []tactics.CivicItem{tactics.MilitaryCivicItem{MilitaryHappy: 2}}, items)
}

func TestClassifyCivic_NoEffectsIsSkipped(t *testing.T) {
	r, err := rules.Parse([]byte(civicRules))
	require.NoError(t, err)

	_, _, ok := tactics.ClassifyCivic(r, civic(t, r, "CIVIC_DESPOTISM"))
	assert.False(t, ok)
}

func TestCivicTactics_HappinessCountsExtraWorkingCitizens(t *testing.T) {
	f := newFixture(t, civicRules, crowdedScenario)
	f.pt.Refresh(1)

	hereditary := rules.CivicType(f.id(t, "CIVIC_HEREDITARY_RULE"))
	ct, ok := f.pt.CivicTactics(hereditary)
	require.True(t, ok)
	delta := ct.Delta()
	assert.Positive(t, delta[output.Production], "the second citizen works the second plot")

	sd, ok := f.pt.SelectionMap(dependency.IgnoreNone).Lookup(dependency.NewItemSet())
	require.True(t, ok)
	var found bool
	for _, v := range sd.CivicValues {
		if v.Civic == hereditary {
			found = true
			assert.Equal(t, delta, v.Delta)
			assert.Equal(t, 2, v.Upkeep)
		}
	}
	assert.True(t, found)
}
