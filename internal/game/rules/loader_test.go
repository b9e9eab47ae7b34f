package rules_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/rules"
)

const sampleRules = `
max_turns: 400
techs:
  - key: TECH_MINING
    cost: 60
  - key: TECH_BRONZE_WORKING
    cost: 120
    and_prereqs: [TECH_MINING]
    effects:
      - kind: reveal_bonus
        bonus: BONUS_COPPER
resources:
  - key: BONUS_COPPER
    reveal_tech: TECH_BRONZE_WORKING
    effects:
      - kind: health
        health: 1
improvements:
  - key: IMPROVEMENT_MINE
    tech: TECH_MINING
    build_turns: 5
    yield: {production: 2}
    bonuses: [BONUS_COPPER]
buildings:
  - key: BUILDING_FORGE
    cost: 120
    techs: [TECH_BRONZE_WORKING]
    effects:
      - kind: yield
        modifier: {production: 25}
  - key: BUILDING_COLOSSUS
    cost: 250
    techs: [TECH_BRONZE_WORKING]
    limit: world
    effects:
      - kind: commerce
        commerce: {gold: 2}
units:
  - key: UNIT_AXEMAN
    cost: 35
    strength: 5
    techs: [TECH_BRONZE_WORKING]
    and_bonuses: [BONUS_COPPER]
    abilities:
      - kind: field_combat
        attack_percent: 50
`

func TestParse_ResolvesKeys(t *testing.T) {
	r, err := rules.Parse([]byte(sampleRules))
	require.NoError(t, err)

	assert.Equal(t, 400, r.MaxTurns)
	require.Len(t, r.Techs, 2)
	bw := r.Techs[1]
	assert.Equal(t, "TECH_BRONZE_WORKING", bw.Key)
	assert.Equal(t, []rules.TechType{0}, bw.AndPrereqs)
	require.Len(t, bw.Nodes, 1)
	assert.Equal(t, rules.RevealBonusNode{Bonus: 0}, bw.Nodes[0])

	forge := r.Building(0)
	require.NotNil(t, forge)
	assert.False(t, forge.IsLimited())
	assert.Equal(t, rules.NoTech, forge.ObsoleteTech)
	assert.Equal(t, rules.NoReligion, forge.PrereqReligion)
	yn, ok := forge.Nodes[0].(rules.YieldNode)
	require.True(t, ok)
	assert.Equal(t, 25, yn.Modifier.Get(output.Production))

	assert.True(t, r.Building(1).IsLimited())
	assert.Equal(t, rules.NoBuilding, r.Unit(0).PrereqBuilding)

	id, ok := r.Lookup("UNIT_AXEMAN")
	require.True(t, ok)
	assert.Equal(t, 0, id)
}

func TestParse_DefaultMaxTurns(t *testing.T) {
	r, err := rules.Parse([]byte("techs:\n  - key: TECH_A\n    cost: 10\n"))
	require.NoError(t, err)
	assert.Equal(t, rules.DefaultMaxTurns, r.MaxTurns)
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := rules.Parse([]byte(`
buildings:
  - key: BUILDING_X
    techs: [TECH_MISSING]
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, rules.ErrUnknownKey))
	assert.Contains(t, err.Error(), "TECH_MISSING")
}

func TestParse_WrongFamilyIsUnknown(t *testing.T) {
	_, err := rules.Parse([]byte(`
techs:
  - key: TECH_A
buildings:
  - key: BUILDING_X
    required_buildings: [TECH_A]
`))
	assert.True(t, errors.Is(err, rules.ErrUnknownKey))
}

func TestParse_DuplicateKey(t *testing.T) {
	_, err := rules.Parse([]byte(`
techs:
  - key: TECH_A
  - key: TECH_A
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestParse_UnknownEffectKind(t *testing.T) {
	_, err := rules.Parse([]byte(`
buildings:
  - key: BUILDING_X
    effects:
      - kind: teleport
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teleport")
}

func TestParse_UnknownField(t *testing.T) {
	_, err := rules.Parse([]byte("techs:\n  - key: TECH_A\n    colour: red\n"))
	assert.Error(t, err)
}

func TestRules_BonusHelpers(t *testing.T) {
	r, err := rules.Parse([]byte(sampleRules))
	require.NoError(t, err)

	assert.Equal(t, []rules.UnitType{0}, r.UnitsRequiringBonus(0))
	imp, ok := r.ImprovementConnecting(0)
	require.True(t, ok)
	assert.Equal(t, rules.ImprovementType(0), imp)
	// Mine needs Mining, which gates access to copper ahead of the reveal tech.
	assert.Equal(t, rules.TechType(0), r.BonusTech(0))
	assert.Equal(t, "NO_TECH", r.TechKey(rules.NoTech))
	assert.Nil(t, r.Tech(99))
}

func TestLoadDir_MergesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10_techs.yaml"), []byte(`
techs:
  - key: TECH_A
    cost: 10
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20_buildings.yml"), []byte(`
max_turns: 300
buildings:
  - key: BUILDING_B
    techs: [TECH_A]
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))

	r, err := rules.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 300, r.MaxTurns)
	require.Len(t, r.Buildings, 1)
	assert.Equal(t, []rules.TechType{0}, r.Buildings[0].PrereqTechs)
}

func TestLoadDir_MissingDir(t *testing.T) {
	_, err := rules.LoadDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoadDir_ShippedContent(t *testing.T) {
	r, err := rules.LoadDir(filepath.Join("..", "..", "..", "content", "rules"))
	require.NoError(t, err)
	_, ok := r.Lookup("TECH_BRONZE_WORKING")
	assert.True(t, ok)
	assert.NotEmpty(t, r.GovernmentCenters())
}
