package tactics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/rules"
)

const greatPersonRules = `
specialists:
  - key: SPECIALIST_CITIZEN
    yield: {production: 1}
  - key: SPECIALIST_SCIENTIST
    yield: {research: 3}
units:
  - key: UNIT_SCIENTIST
    cost: -1
    abilities:
      - kind: great_person
        specialists: [SPECIALIST_SCIENTIST]
        discover_research: 10
  - key: UNIT_SAGE
    cost: -1
    abilities:
      - kind: great_person
        specialists: [SPECIALIST_SCIENTIST]
        discover_research: 1000
  - key: UNIT_WARRIOR
    cost: 15
    strength: 1
`

func unitID(t *testing.T, f fixture, key string) rules.UnitType {
	return rules.UnitType(f.id(t, key))
}

func TestSpecialistBuild_SettlesWhenWorthMore(t *testing.T) {
	f := newFixture(t, greatPersonRules, twoCityScenario)
	f.pt.Refresh(1)

	choice, settle := f.pt.SpecialistBuild(unitID(t, f, "UNIT_SCIENTIST"))

	require.True(t, settle)
	assert.Equal(t, rules.SpecialistType(f.id(t, "SPECIALIST_SCIENTIST")), choice.Specialist)
	assert.Equal(t, civ.CityID(1), choice.City, "equal gains resolve to the first city")
	assert.Greater(t, choice.Value, choice.Alternative)
	assert.Zero(t, f.pt.Context().Arena.InUse())
}

func TestSpecialistBuild_DiscoversWhenResearchIsWorthMore(t *testing.T) {
	f := newFixture(t, greatPersonRules, twoCityScenario)
	f.pt.Refresh(1)

	choice, settle := f.pt.SpecialistBuild(unitID(t, f, "UNIT_SAGE"))

	assert.False(t, settle)
	assert.NotEqual(t, rules.NoSpecialist, choice.Specialist)
	assert.Greater(t, choice.Alternative, choice.Value)
}

func TestSpecialistBuild_NotAGreatPerson(t *testing.T) {
	f := newFixture(t, greatPersonRules, twoCityScenario)
	f.pt.Refresh(1)

	choice, settle := f.pt.SpecialistBuild(unitID(t, f, "UNIT_WARRIOR"))

	assert.False(t, settle)
	assert.Equal(t, rules.NoSpecialist, choice.Specialist)
	assert.Equal(t, civ.NoCity, choice.City)
}
