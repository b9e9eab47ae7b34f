package tactics_test

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
)

type testCity struct {
	production int
	area       int
	buildings  []string
}

// citiesScenario returns a one-player scenario with a size 1 city per entry,
// numbered from 1, each working one plot of the given production.
func citiesScenario(cities ...testCity) string {
	var b strings.Builder
	b.WriteString("turn: 1\nplayers:\n  - id: 0\n    name: Greece\n    research_rate: 10\n    cities:\n")
	for i, c := range cities {
		fmt.Fprintf(&b, "      - id: %d\n        name: City%d\n        area: %d\n        population: 1\n", i+1, i+1, c.area)
		fmt.Fprintf(&b, "        plots:\n          - {food: 2, production: %d}\n", c.production)
		if len(c.buildings) > 0 {
			fmt.Fprintf(&b, "        buildings: [%s]\n", strings.Join(c.buildings, ", "))
		}
	}
	return b.String()
}

func economicValue(t *testing.T, sd *tactics.SelectionData, b rules.BuildingType) tactics.BuildingValue {
	t.Helper()
	for _, v := range sd.EconomicBuildings {
		if v.Building == b {
			return v
		}
	}
	require.FailNow(t, "no economic value recorded", "building %d", b)
	return tactics.BuildingValue{}
}

func TestLimitedBuilding_LowerHalfNeverWins(t *testing.T) {
	for _, n := range []int{2, 3, 4} {
		t.Run(fmt.Sprintf("%d cities", n), func(t *testing.T) {
			// City i has rank i: production falls with the id.
			cities := make([]testCity, n)
			for i := range cities {
				cities[i] = testCity{production: n - i + 1}
			}
			f := newFixture(t, wonderRules, citiesScenario(cities...))
			lt, ok := f.pt.LimitedBuildingTactic(f.building(t, "BUILDING_COLOSSUS"))
			require.True(t, ok)
			pc := f.pt.Context()
			pc.BeginPass(1)

			cutoff := 1 + n/2
			for rank := cutoff; rank <= n; rank++ {
				require.NoError(t, f.pt.UpdateCityBuildingTactics(civ.CityID(rank)))
			}
			lt.Apply(pc, tactics.NewSelectionData())
			city, turns := lt.FirstBuildCity()
			assert.Equal(t, civ.NoCity, city, "ranks %d..%d are excluded", cutoff, n)
			assert.Equal(t, -1, turns)

			last := cutoff - 1
			require.NoError(t, f.pt.UpdateCityBuildingTactics(civ.CityID(last)))
			lt.Apply(pc, tactics.NewSelectionData())
			city, _ = lt.FirstBuildCity()
			assert.Equal(t, civ.CityID(last), city)
		})
	}
}

func TestLimitedBuilding_WinnerIsAlwaysInUpperHalf(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 6).Draw(rt, "cities")
		perm := rapid.Permutation(seq(n)).Draw(rt, "production")
		projected := rapid.SliceOfN(rapid.Bool(), n, n).Draw(rt, "projected")

		cities := make([]testCity, n)
		for i := range cities {
			cities[i] = testCity{production: perm[i] + 2}
		}
		f := newFixture(t, wonderRules, citiesScenario(cities...))
		lt, ok := f.pt.LimitedBuildingTactic(f.building(t, "BUILDING_COLOSSUS"))
		require.True(rt, ok)
		pc := f.pt.Context()
		pc.BeginPass(1)
		for i, p := range projected {
			if p {
				require.NoError(rt, f.pt.UpdateCityBuildingTactics(civ.CityID(i+1)))
			}
		}

		lt.Apply(pc, tactics.NewSelectionData())
		city, _ := lt.FirstBuildCity()
		if city == civ.NoCity {
			return
		}
		rank := productionRank(cities, city)
		if rank >= 1+n/2 {
			rt.Fatalf("city %d of rank %d won among %d cities", city, rank, n)
		}
	})
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// productionRank returns the 1-based rank of city by descending production.
func productionRank(cities []testCity, city civ.CityID) int {
	ids := make([]int, len(cities))
	for i := range ids {
		ids[i] = i
	}
	sort.SliceStable(ids, func(a, b int) bool { return cities[ids[a]].production > cities[ids[b]].production })
	for r, i := range ids {
		if civ.CityID(i+1) == city {
			return r + 1
		}
	}
	return -1
}

const templeWonderRules = `
buildings:
  - key: BUILDING_TEMPLE
    cost: 30
  - key: BUILDING_COLOSSUS
    cost: 40
    limit: world
    required_buildings: [BUILDING_TEMPLE]
    effects:
      - kind: commerce
        commerce: {gold: 4}
`

func TestLimitedBuilding_CityMissingPrerequisiteNeverWins(t *testing.T) {
	f := newFixture(t, templeWonderRules, citiesScenario(
		testCity{production: 5},
		testCity{production: 4, buildings: []string{"BUILDING_TEMPLE"}},
		testCity{production: 1},
		testCity{production: 1},
	))
	colossus := f.building(t, "BUILDING_COLOSSUS")
	f.pt.Refresh(1)

	sdm := f.pt.SelectionMap(dependency.IgnoreNone)
	lt, ok := f.pt.LimitedBuildingTactic(colossus)
	require.True(t, ok)
	city, turns := lt.FirstBuildCity()
	assert.Equal(t, civ.CityID(2), city, "the faster city has no temple")
	assert.Equal(t, 10, turns)
	sd, ok := sdm.Lookup(dependency.NewItemSet())
	require.True(t, ok)
	assert.Equal(t, civ.CityID(2), economicValue(t, sd, colossus).City)

	got, err := f.pt.BuildItem(2)
	require.NoError(t, err)
	assert.Equal(t, colossus, got.Building)

	got, err = f.pt.BuildItem(1)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestLimitedBuilding_MaskedWinnerBucketsOnItsMissingBuilding(t *testing.T) {
	f := newFixture(t, templeWonderRules, citiesScenario(
		testCity{production: 5},
		testCity{production: 4, buildings: []string{"BUILDING_TEMPLE"}},
		testCity{production: 1},
		testCity{production: 1},
	))
	colossus := f.building(t, "BUILDING_COLOSSUS")
	temple := f.building(t, "BUILDING_TEMPLE")
	f.pt.Refresh(1)

	sdm := f.pt.SelectionMap(dependency.IgnoreCityBuildings)
	lt, ok := f.pt.LimitedBuildingTactic(colossus)
	require.True(t, ok)
	city, turns := lt.FirstBuildCity()
	assert.Equal(t, civ.CityID(1), city)
	assert.Equal(t, 8, turns)

	key := dependency.NewItemSet(dependency.Item{Kind: dependency.CityBuilding, Param: int(temple)})
	sd, ok := sdm.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, civ.CityID(1), economicValue(t, sd, colossus).City)

	if now, ok := sdm.Lookup(dependency.NewItemSet()); ok {
		for _, v := range now.EconomicBuildings {
			assert.NotEqual(t, colossus, v.Building)
		}
	}
}

const globalWonderRules = `
buildings:
  - key: BUILDING_COLOSSUS
    cost: 40
    limit: world
    effects:
      - kind: commerce
        commerce: {gold: 3}
        global: true
  - key: BUILDING_MAUSOLEUM
    cost: 40
    limit: world
    area_scoped: true
    effects:
      - kind: commerce
        commerce: {gold: 3}
        global: true
  - key: BUILDING_STATUE
    cost: 40
    limit: world
    effects:
      - kind: commerce
        commerce: {gold: 3}
`

// globalGain returns the gold b's winner records beyond its own city's delta.
func globalGain(t *testing.T, f fixture, key string) int {
	t.Helper()
	b := f.building(t, key)
	lt, ok := f.pt.LimitedBuildingTactic(b)
	require.True(t, ok)
	sd := tactics.NewSelectionData()
	lt.Apply(f.pt.Context(), sd)

	city, _ := lt.FirstBuildCity()
	require.Equal(t, civ.CityID(1), city)
	ct, ok := lt.CityTactic(city)
	require.True(t, ok)
	own := ct.Delta()[output.Gold]
	require.Positive(t, own)
	return economicValue(t, sd, b).Delta[output.Gold] - own
}

func TestLimitedBuilding_GlobalEffectsAddOtherCities(t *testing.T) {
	f := newFixture(t, globalWonderRules, citiesScenario(
		testCity{production: 4, area: 1},
		testCity{production: 1, area: 1},
		testCity{production: 1, area: 2},
	))
	f.pt.Refresh(1)

	local := globalGain(t, f, "BUILDING_STATUE")
	everywhere := globalGain(t, f, "BUILDING_COLOSSUS")
	sameArea := globalGain(t, f, "BUILDING_MAUSOLEUM")

	assert.Zero(t, local, "a local wonder only counts its own city")
	assert.Positive(t, sameArea)
	assert.Equal(t, 2*sameArea, everywhere, "the area scoped wonder skips the city in area 2")
}
