package dependency_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
	"github.com/cory-johannsen/altai/internal/persist"
)

const depRules = `
techs:
  - key: TECH_MINING
  - key: TECH_BRONZE_WORKING
  - key: TECH_IRON_WORKING
resources:
  - key: BONUS_COPPER
    reveal_tech: TECH_BRONZE_WORKING
  - key: BONUS_IRON
    reveal_tech: TECH_IRON_WORKING
  - key: BONUS_STONE
`

const (
	mining  rules.TechType  = 0
	bronze  rules.TechType  = 1
	iron    rules.TechType  = 2
	copper  rules.BonusType = 0
	ironOre rules.BonusType = 1
	stone   rules.BonusType = 2
)

func loadRules(t *testing.T) *rules.Rules {
	t.Helper()
	r, err := rules.Parse([]byte(depRules))
	require.NoError(t, err)
	return r
}

func newPlayer() (*civ.Player, *civ.City) {
	p := civ.NewPlayer(0, "Rome")
	c := civ.NewCity(0, "Roma", 0)
	p.AddCity(c)
	return p, c
}

func allDeps(r *rules.Rules) []dependency.Dependency {
	return []dependency.Dependency{
		dependency.NewResearchTech(bronze),
		dependency.NewCityBuilding(3),
		dependency.NewCivBuilding(4, 2, 5),
		dependency.NewReligious(1),
		dependency.NewStateReligion(rules.NoReligion),
		dependency.NewCityBonus(r, []rules.BonusType{copper}, []rules.BonusType{ironOre, stone}),
		dependency.NewCivUnit(6),
	}
}

func TestMask_Includes(t *testing.T) {
	m := dependency.IgnoreTech | dependency.IgnoreResource
	assert.True(t, m.Includes(dependency.IgnoreTech))
	assert.True(t, m.Includes(dependency.IgnoreTech|dependency.IgnoreResource))
	assert.False(t, m.Includes(dependency.IgnoreReligion))
	assert.False(t, m.Includes(dependency.IgnoreNone))
	assert.Equal(t, "tech|resource", m.String())
}

func TestMask_DocumentedValues(t *testing.T) {
	assert.Equal(t, dependency.Mask(1), dependency.IgnoreTech)
	assert.Equal(t, dependency.Mask(2), dependency.IgnoreCityBuildings)
	assert.Equal(t, dependency.Mask(4), dependency.IgnoreCivBuildings)
	assert.Equal(t, dependency.Mask(8), dependency.IgnoreReligion)
	assert.Equal(t, dependency.Mask(16), dependency.IgnoreResource)
	assert.Equal(t, dependency.Mask(32), dependency.IgnoreCivUnits)
}

func TestResearchTech_Required(t *testing.T) {
	p, c := newPlayer()
	d := dependency.NewResearchTech(bronze)
	assert.True(t, d.RequiredForPlayer(p, dependency.IgnoreNone))
	assert.False(t, d.RequiredForPlayer(p, dependency.IgnoreTech))
	p.AddTech(bronze)
	assert.False(t, d.RequiredInCity(p, c, dependency.IgnoreNone))
	assert.True(t, d.Removeable())
}

func TestCityBuilding_RequiredAndBuildItem(t *testing.T) {
	p, c := newPlayer()
	d := dependency.NewCityBuilding(3)
	assert.True(t, d.RequiredInCity(p, c, dependency.IgnoreNone))
	assert.False(t, d.RequiredInCity(p, c, dependency.IgnoreCityBuildings))
	c.AddBuilding(3)
	assert.False(t, d.RequiredInCity(p, c, dependency.IgnoreNone))
	assert.False(t, d.RequiredForPlayer(p, dependency.IgnoreNone))
	assert.Equal(t, projection.QueueItem{Kind: projection.QueueBuilding, ID: 3}, d.BuildItem())
}

func TestCivBuilding_RegressesWhenCountDrops(t *testing.T) {
	p, c := newPlayer()
	other := civ.NewCity(1, "Antium", 0)
	p.AddCity(other)
	d := dependency.NewCivBuilding(4, 2, 5)

	c.AddBuilding(4)
	assert.True(t, d.RequiredForPlayer(p, dependency.IgnoreNone))
	other.AddBuilding(4)
	assert.False(t, d.RequiredForPlayer(p, dependency.IgnoreNone))

	// Losing a city is a regressing event.
	_, ok := p.RemoveCity(1)
	require.True(t, ok)
	assert.True(t, d.RequiredForPlayer(p, dependency.IgnoreNone))
	assert.False(t, d.Removeable())
}

func TestReligious_Required(t *testing.T) {
	p, c := newPlayer()
	d := dependency.NewReligious(1)
	assert.True(t, d.RequiredInCity(p, c, dependency.IgnoreNone))
	assert.True(t, d.RequiredForPlayer(p, dependency.IgnoreNone))
	c.AddReligion(1)
	assert.False(t, d.RequiredInCity(p, c, dependency.IgnoreNone))
	assert.False(t, d.RequiredForPlayer(p, dependency.IgnoreNone))
}

func TestStateReligion_Required(t *testing.T) {
	p, c := newPlayer()
	anyReligion := dependency.NewStateReligion(rules.NoReligion)
	specific := dependency.NewStateReligion(2)

	c.AddReligion(1)
	assert.True(t, anyReligion.RequiredInCity(p, c, dependency.IgnoreNone), "no state religion yet")
	p.StateReligion = 1
	assert.False(t, anyReligion.RequiredInCity(p, c, dependency.IgnoreNone))
	assert.True(t, specific.RequiredInCity(p, c, dependency.IgnoreNone))
	assert.False(t, specific.RequiredInCity(p, c, dependency.IgnoreReligion))
	assert.False(t, anyReligion.Removeable())
}

func TestCityBonus_AndOrSemantics(t *testing.T) {
	r := loadRules(t)
	p, c := newPlayer()
	d := dependency.NewCityBonus(r, []rules.BonusType{copper}, []rules.BonusType{ironOre, stone})

	assert.True(t, d.RequiredInCity(p, c, dependency.IgnoreNone))
	c.AddBonus(copper)
	assert.True(t, d.RequiredInCity(p, c, dependency.IgnoreNone), "no or-resource yet")
	c.AddBonus(stone)
	assert.False(t, d.RequiredInCity(p, c, dependency.IgnoreNone))
	c.RemoveBonus(copper)
	assert.True(t, d.RequiredInCity(p, c, dependency.IgnoreNone), "and-resource missing")
	assert.False(t, d.RequiredInCity(p, c, dependency.IgnoreResource))
	assert.False(t, d.Removeable())
}

func TestCityBonus_IgnoreTechCountsUnrevealedResources(t *testing.T) {
	r := loadRules(t)
	p, c := newPlayer()
	d := dependency.NewCityBonus(r, []rules.BonusType{copper}, nil)

	assert.True(t, d.RequiredInCity(p, c, dependency.IgnoreTech), "copper is not in range")
	c.AddPotentialBonus(copper)
	assert.True(t, d.RequiredInCity(p, c, dependency.IgnoreNone))
	assert.False(t, d.RequiredInCity(p, c, dependency.IgnoreTech))
	assert.Equal(t, []dependency.Item{{Kind: dependency.ResearchTech, Param: int(bronze)}}, d.KeyItems(p, dependency.IgnoreTech))

	// Once the reveal tech is known the resource must really be connected.
	p.AddTech(bronze)
	assert.True(t, d.RequiredInCity(p, c, dependency.IgnoreTech))
	assert.Equal(t, []dependency.Item{{Kind: dependency.CityBonus, Param: int(copper)}}, d.KeyItems(p, dependency.IgnoreTech))
}

func TestCityBonus_MatchesTechOnlyWithRevealTechs(t *testing.T) {
	r := loadRules(t)
	revealed := dependency.NewCityBonus(r, []rules.BonusType{copper}, nil)
	plain := dependency.NewCityBonus(r, []rules.BonusType{stone}, nil)
	assert.True(t, revealed.Matches(dependency.IgnoreTech))
	assert.False(t, plain.Matches(dependency.IgnoreTech))
	assert.True(t, plain.Matches(dependency.IgnoreResource))
	assert.Len(t, revealed.Items(), 2)
}

func TestCivUnit_Required(t *testing.T) {
	p, c := newPlayer()
	d := dependency.NewCivUnit(6)
	assert.True(t, d.RequiredInCity(p, c, dependency.IgnoreNone))
	p.AddUnit(&civ.Unit{ID: 1, Type: 6, City: civ.NoCity})
	assert.False(t, d.RequiredForPlayer(p, dependency.IgnoreNone))
	assert.Equal(t, projection.QueueUnit, d.BuildItem().Kind)
}

func TestApplyRemove_MutatesOnlyScratch(t *testing.T) {
	r := loadRules(t)
	p, c := newPlayer()
	cd := projection.FromCity(p, c)
	for _, d := range allDeps(r) {
		d.Apply(cd)
	}
	assert.True(t, cd.Techs[bronze])
	assert.True(t, cd.Buildings[3])
	assert.Equal(t, 2, cd.CivBuildings[4])
	assert.True(t, cd.Religions[1])
	assert.True(t, cd.HasBonus(copper))
	assert.True(t, cd.HasBonus(ironOre))

	for _, d := range allDeps(r) {
		d.Remove(cd)
	}
	assert.False(t, cd.Techs[bronze])
	assert.False(t, cd.Buildings[3])
	assert.Equal(t, 1, cd.CivBuildings[4])
	assert.False(t, cd.HasBonus(copper))

	assert.False(t, c.HasBuilding(3))
	assert.False(t, p.HasTech(bronze))
}

func TestCodec_RoundTripsEveryKind(t *testing.T) {
	r := loadRules(t)
	deps := allDeps(r)
	var buf bytes.Buffer
	w := persist.NewWriter(&buf)
	dependency.EncodeList(w, deps)
	require.NoError(t, w.Err())

	got, err := dependency.DecodeList(persist.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, deps, got)
}

func TestCodec_UnknownTag(t *testing.T) {
	var buf bytes.Buffer
	w := persist.NewWriter(&buf)
	w.Tag(99)
	_, err := dependency.Decode(persist.NewReader(&buf))
	require.Error(t, err)
	assert.True(t, errors.Is(err, persist.ErrUnknownTag))
}

func TestItemSet_SizeFirstOrdering(t *testing.T) {
	longer := dependency.NewItemSet(
		dependency.Item{Kind: dependency.CityBuilding, Param: 1},
		dependency.Item{Kind: dependency.ResearchTech, Param: 1},
	)
	shorter := dependency.NewItemSet(dependency.Item{Kind: dependency.ResearchTech, Param: 1})
	assert.True(t, shorter.Less(longer))
	assert.False(t, longer.Less(shorter))

	bigParam := dependency.NewItemSet(dependency.Item{Kind: dependency.CivUnit, Param: 99})
	assert.True(t, bigParam.Less(longer))
}

func TestItemSet_SentinelIsEmpty(t *testing.T) {
	s := dependency.NewItemSet(dependency.NoDependencyItem)
	assert.True(t, s.Empty())
	assert.True(t, s.Equal(dependency.ItemSet{}))
	assert.Equal(t, "", s.Key())
}

func TestItemSet_SingleTech(t *testing.T) {
	s := dependency.NewItemSet(dependency.Item{Kind: dependency.ResearchTech, Param: 4})
	tech, ok := s.SingleTech()
	require.True(t, ok)
	assert.Equal(t, rules.TechType(4), tech)

	_, ok = s.Union(dependency.NewItemSet(dependency.Item{Kind: dependency.CivUnit, Param: 1})).SingleTech()
	assert.False(t, ok)
}

func TestItemSet_CodecRoundTrip(t *testing.T) {
	s := dependency.NewItemSet(
		dependency.Item{Kind: dependency.CivUnit, Param: 2},
		dependency.Item{Kind: dependency.ResearchTech, Param: 7},
	)
	var buf bytes.Buffer
	w := persist.NewWriter(&buf)
	dependency.EncodeItemSet(w, s)
	got, err := dependency.DecodeItemSet(persist.NewReader(&buf))
	require.NoError(t, err)
	assert.True(t, s.Equal(got))
}

func drawItem(t *rapid.T, label string) dependency.Item {
	return dependency.Item{
		Kind:  dependency.Kind(rapid.IntRange(0, 6).Draw(t, label+"_kind")),
		Param: rapid.IntRange(0, 5).Draw(t, label+"_param"),
	}
}

func drawSet(t *rapid.T, label string) ([]dependency.Item, dependency.ItemSet) {
	n := rapid.IntRange(0, 4).Draw(t, label+"_len")
	items := make([]dependency.Item, n)
	for i := range items {
		items[i] = drawItem(t, label)
	}
	return items, dependency.NewItemSet(items...)
}

func TestProperty_ItemSetStrictTotalOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		_, a := drawSet(rt, "a")
		_, b := drawSet(rt, "b")
		_, c := drawSet(rt, "c")

		n := 0
		if a.Less(b) {
			n++
		}
		if b.Less(a) {
			n++
		}
		if a.Equal(b) {
			n++
		}
		if n != 1 {
			rt.Fatalf("trichotomy violated for %v and %v", a, b)
		}
		if a.Less(b) && b.Less(c) && !a.Less(c) {
			rt.Fatalf("transitivity violated: %v < %v < %v", a, b, c)
		}
		if a.Equal(b) != (a.Key() == b.Key()) {
			rt.Fatalf("key disagrees with equality for %v and %v", a, b)
		}
	})
}

func TestProperty_ItemSetInsertionOrderIndependent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		items, s := drawSet(rt, "s")
		reversed := make([]dependency.Item, len(items))
		for i, it := range items {
			reversed[len(items)-1-i] = it
		}
		shuffled := rapid.Permutation(items).Draw(rt, "perm")
		if !s.Equal(dependency.NewItemSet(reversed...)) || !s.Equal(dependency.NewItemSet(shuffled...)) {
			rt.Fatalf("order dependent set for %v", items)
		}
	})
}

func TestProperty_MatchesIsMonotonic(t *testing.T) {
	r := loadRules(t)
	deps := allDeps(r)
	rapid.Check(t, func(rt *rapid.T) {
		f1 := dependency.Mask(rapid.IntRange(0, int(dependency.IgnoreAll)).Draw(rt, "f1"))
		extra := dependency.Mask(rapid.IntRange(0, int(dependency.IgnoreAll)).Draw(rt, "extra"))
		f2 := f1 | extra
		for _, d := range deps {
			if f1.Includes(d.Kind().IgnoreBit()) && !d.Matches(f1) {
				rt.Fatalf("%s: own bit set in %s but Matches is false", d, f1)
			}
			if d.Matches(f1) && !d.Matches(f2) {
				rt.Fatalf("%s: Matches(%s) but not Matches(%s)", d, f1, f2)
			}
		}
	})
}

func TestProperty_IgnoredKindIsNeverRequired(t *testing.T) {
	r := loadRules(t)
	deps := allDeps(r)
	p, c := newPlayer()
	rapid.Check(t, func(rt *rapid.T) {
		mask := dependency.Mask(rapid.IntRange(0, int(dependency.IgnoreAll)).Draw(rt, "mask"))
		for _, d := range deps {
			if !mask.Includes(d.Kind().IgnoreBit()) {
				continue
			}
			if d.RequiredInCity(p, c, mask) || d.RequiredForPlayer(p, mask) {
				rt.Fatalf("%s required although ignored by %s", d, mask)
			}
		}
	})
}

// Satisfied non-regressing dependencies stay satisfied as unrelated state grows.
func TestProperty_SatisfiedStaysSatisfied(t *testing.T) {
	r := loadRules(t)
	rapid.Check(t, func(rt *rapid.T) {
		p, c := newPlayer()
		p.AddTech(bronze)
		c.AddBuilding(3)
		c.AddReligion(1)
		p.AddUnit(&civ.Unit{ID: 1, Type: 6, City: civ.NoCity})
		c.AddBonus(copper)
		c.AddBonus(stone)
		deps := []dependency.Dependency{
			dependency.NewResearchTech(bronze),
			dependency.NewCityBuilding(3),
			dependency.NewReligious(1),
			dependency.NewCivUnit(6),
			dependency.NewCityBonus(r, []rules.BonusType{copper}, []rules.BonusType{ironOre, stone}),
		}
		steps := rapid.IntRange(0, 10).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 4).Draw(rt, "event") {
			case 0:
				p.AddTech(rules.TechType(rapid.IntRange(0, 10).Draw(rt, "tech")))
			case 1:
				c.AddBuilding(rules.BuildingType(rapid.IntRange(0, 10).Draw(rt, "building")))
			case 2:
				c.AddReligion(rules.ReligionType(rapid.IntRange(0, 3).Draw(rt, "religion")))
			case 3:
				c.AddBonus(rules.BonusType(rapid.IntRange(0, 2).Draw(rt, "bonus")))
			case 4:
				p.AddCity(civ.NewCity(civ.CityID(10+i), "extra", 0))
			}
			for _, d := range deps {
				if d.RequiredInCity(p, c, dependency.IgnoreNone) {
					rt.Fatalf("%s became required after step %d", d, i)
				}
			}
		}
	})
}
