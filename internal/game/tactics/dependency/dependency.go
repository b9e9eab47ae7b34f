package dependency

import (
	"fmt"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/persist"
)

// Dependency is one precondition of a tactic. The set of implementations is
// closed to this package.
type Dependency interface {
	Kind() Kind
	// RequiredInCity reports whether the condition is unmet for city c of
	// player p and its kind is not ignored by mask.
	RequiredInCity(p *civ.Player, c *civ.City, mask Mask) bool
	// RequiredForPlayer reports whether the condition is unmet everywhere in
	// p's civilization and its kind is not ignored by mask.
	RequiredForPlayer(p *civ.Player, mask Mask) bool
	// Matches reports whether mask ignores this dependency. It depends on
	// the mask only.
	Matches(mask Mask) bool
	// Removeable reports whether the dependency may be dropped once met.
	Removeable() bool
	// Items returns every flattened key this dependency can contribute.
	Items() []Item
	// KeyItems returns the keys naming what is still missing for p when
	// mask is applied.
	KeyItems(p *civ.Player, mask Mask) []Item
	// Apply makes a scratch snapshot look as if the dependency were met.
	Apply(cd *projection.CityData)
	// Remove makes a scratch snapshot look as if the dependency were unmet.
	Remove(cd *projection.CityData)
	// BuildItem returns what to queue to satisfy the dependency, or
	// projection.NoItem.
	BuildItem() projection.QueueItem
	String() string

	encodePayload(w *persist.Writer)
}

// ResearchTechDep requires a technology.
type ResearchTechDep struct {
	Tech rules.TechType
}

// NewResearchTech returns a tech dependency.
func NewResearchTech(t rules.TechType) ResearchTechDep { return ResearchTechDep{Tech: t} }

func (d ResearchTechDep) Kind() Kind { return ResearchTech }

func (d ResearchTechDep) RequiredInCity(p *civ.Player, _ *civ.City, mask Mask) bool {
	return d.RequiredForPlayer(p, mask)
}

func (d ResearchTechDep) RequiredForPlayer(p *civ.Player, mask Mask) bool {
	return !d.Matches(mask) && !p.HasTech(d.Tech)
}

func (d ResearchTechDep) Matches(mask Mask) bool { return mask.Includes(IgnoreTech) }
func (d ResearchTechDep) Removeable() bool       { return true }
func (d ResearchTechDep) Items() []Item          { return []Item{{Kind: ResearchTech, Param: int(d.Tech)}} }

func (d ResearchTechDep) KeyItems(_ *civ.Player, _ Mask) []Item { return d.Items() }

func (d ResearchTechDep) Apply(cd *projection.CityData)  { cd.Techs[d.Tech] = true }
func (d ResearchTechDep) Remove(cd *projection.CityData) { delete(cd.Techs, d.Tech) }

func (d ResearchTechDep) BuildItem() projection.QueueItem { return projection.NoItem }

func (d ResearchTechDep) String() string { return fmt.Sprintf("research_tech(%d)", d.Tech) }

func (d ResearchTechDep) encodePayload(w *persist.Writer) { w.Int(int(d.Tech)) }

// CityBuildingDep requires a building in the same city.
type CityBuildingDep struct {
	Building rules.BuildingType
}

// NewCityBuilding returns a same-city building dependency.
func NewCityBuilding(b rules.BuildingType) CityBuildingDep { return CityBuildingDep{Building: b} }

func (d CityBuildingDep) Kind() Kind { return CityBuilding }

func (d CityBuildingDep) RequiredInCity(_ *civ.Player, c *civ.City, mask Mask) bool {
	return !d.Matches(mask) && !c.HasBuilding(d.Building)
}

func (d CityBuildingDep) RequiredForPlayer(p *civ.Player, mask Mask) bool {
	return !d.Matches(mask) && p.BuildingCount(d.Building) == 0
}

func (d CityBuildingDep) Matches(mask Mask) bool { return mask.Includes(IgnoreCityBuildings) }
func (d CityBuildingDep) Removeable() bool       { return true }
func (d CityBuildingDep) Items() []Item          { return []Item{{Kind: CityBuilding, Param: int(d.Building)}} }

func (d CityBuildingDep) KeyItems(_ *civ.Player, _ Mask) []Item { return d.Items() }

func (d CityBuildingDep) Apply(cd *projection.CityData)  { cd.AddBuilding(d.Building) }
func (d CityBuildingDep) Remove(cd *projection.CityData) { cd.RemoveBuilding(d.Building) }

func (d CityBuildingDep) BuildItem() projection.QueueItem {
	return projection.QueueItem{Kind: projection.QueueBuilding, ID: int(d.Building)}
}

func (d CityBuildingDep) String() string { return fmt.Sprintf("city_building(%d)", d.Building) }

func (d CityBuildingDep) encodePayload(w *persist.Writer) { w.Int(int(d.Building)) }

// CivBuildingDep requires Count instances of Building across the
// civilization before Source may be built. The count can drop again when a
// city is lost, so it is never removed.
type CivBuildingDep struct {
	Building rules.BuildingType
	Count    int
	Source   rules.BuildingType
}

// NewCivBuilding returns a civilization building-count dependency.
func NewCivBuilding(b rules.BuildingType, count int, source rules.BuildingType) CivBuildingDep {
	return CivBuildingDep{Building: b, Count: count, Source: source}
}

func (d CivBuildingDep) Kind() Kind { return CivBuilding }

func (d CivBuildingDep) RequiredInCity(p *civ.Player, _ *civ.City, mask Mask) bool {
	return d.RequiredForPlayer(p, mask)
}

func (d CivBuildingDep) RequiredForPlayer(p *civ.Player, mask Mask) bool {
	return !d.Matches(mask) && p.BuildingCount(d.Building) < d.Count
}

func (d CivBuildingDep) Matches(mask Mask) bool { return mask.Includes(IgnoreCivBuildings) }
func (d CivBuildingDep) Removeable() bool       { return false }
func (d CivBuildingDep) Items() []Item          { return []Item{{Kind: CivBuilding, Param: int(d.Building)}} }

func (d CivBuildingDep) KeyItems(_ *civ.Player, _ Mask) []Item { return d.Items() }

func (d CivBuildingDep) Apply(cd *projection.CityData) {
	cd.CivBuildings[d.Building] = max(cd.CivBuildings[d.Building], d.Count)
}

func (d CivBuildingDep) Remove(cd *projection.CityData) {
	cd.CivBuildings[d.Building] = min(cd.CivBuildings[d.Building], max(0, d.Count-1))
}

func (d CivBuildingDep) BuildItem() projection.QueueItem {
	return projection.QueueItem{Kind: projection.QueueBuilding, ID: int(d.Building)}
}

func (d CivBuildingDep) String() string {
	return fmt.Sprintf("civ_building(%d x%d for %d)", d.Building, d.Count, d.Source)
}

func (d CivBuildingDep) encodePayload(w *persist.Writer) {
	w.Int(int(d.Building))
	w.Int(d.Count)
	w.Int(int(d.Source))
}

// ReligiousDep requires a religion present in the city.
type ReligiousDep struct {
	Religion rules.ReligionType
}

// NewReligious returns a religion-presence dependency.
func NewReligious(r rules.ReligionType) ReligiousDep { return ReligiousDep{Religion: r} }

func (d ReligiousDep) Kind() Kind { return Religious }

func (d ReligiousDep) RequiredInCity(_ *civ.Player, c *civ.City, mask Mask) bool {
	return !d.Matches(mask) && !c.HasReligion(d.Religion)
}

func (d ReligiousDep) RequiredForPlayer(p *civ.Player, mask Mask) bool {
	if d.Matches(mask) {
		return false
	}
	for _, c := range p.Cities() {
		if c.HasReligion(d.Religion) {
			return false
		}
	}
	return true
}

func (d ReligiousDep) Matches(mask Mask) bool { return mask.Includes(IgnoreReligion) }
func (d ReligiousDep) Removeable() bool       { return true }
func (d ReligiousDep) Items() []Item          { return []Item{{Kind: Religious, Param: int(d.Religion)}} }

func (d ReligiousDep) KeyItems(_ *civ.Player, _ Mask) []Item { return d.Items() }

func (d ReligiousDep) Apply(cd *projection.CityData)  { cd.Religions[d.Religion] = true }
func (d ReligiousDep) Remove(cd *projection.CityData) { delete(cd.Religions, d.Religion) }

func (d ReligiousDep) BuildItem() projection.QueueItem { return projection.NoItem }

func (d ReligiousDep) String() string { return fmt.Sprintf("religious(%d)", d.Religion) }

func (d ReligiousDep) encodePayload(w *persist.Writer) { w.Int(int(d.Religion)) }

// StateReligionDep requires the owner's state religion to be present in the
// city. With Religion set it additionally requires that religion to be the
// state religion. A civilization can change state religion at any time, so
// the dependency is never removed.
type StateReligionDep struct {
	Religion rules.ReligionType
}

// NewStateReligion returns a state religion dependency; pass
// rules.NoReligion to accept whichever religion is the state religion.
func NewStateReligion(r rules.ReligionType) StateReligionDep { return StateReligionDep{Religion: r} }

func (d StateReligionDep) Kind() Kind { return StateReligion }

func (d StateReligionDep) RequiredInCity(p *civ.Player, c *civ.City, mask Mask) bool {
	if d.Matches(mask) {
		return false
	}
	return !d.satisfiedBy(p, c)
}

func (d StateReligionDep) RequiredForPlayer(p *civ.Player, mask Mask) bool {
	if d.Matches(mask) {
		return false
	}
	for _, c := range p.Cities() {
		if d.satisfiedBy(p, c) {
			return false
		}
	}
	return true
}

func (d StateReligionDep) satisfiedBy(p *civ.Player, c *civ.City) bool {
	if p.StateReligion == rules.NoReligion {
		return false
	}
	if d.Religion != rules.NoReligion && p.StateReligion != d.Religion {
		return false
	}
	return c.HasReligion(p.StateReligion)
}

func (d StateReligionDep) Matches(mask Mask) bool { return mask.Includes(IgnoreReligion) }
func (d StateReligionDep) Removeable() bool       { return false }
func (d StateReligionDep) Items() []Item {
	return []Item{{Kind: StateReligion, Param: int(d.Religion)}}
}

func (d StateReligionDep) KeyItems(_ *civ.Player, _ Mask) []Item { return d.Items() }

func (d StateReligionDep) Apply(cd *projection.CityData) {
	if d.Religion != rules.NoReligion {
		cd.StateReligion = d.Religion
	}
	if cd.StateReligion != rules.NoReligion {
		cd.Religions[cd.StateReligion] = true
	}
}

func (d StateReligionDep) Remove(cd *projection.CityData) {
	if d.Religion == rules.NoReligion || cd.StateReligion == d.Religion {
		cd.StateReligion = rules.NoReligion
	}
}

func (d StateReligionDep) BuildItem() projection.QueueItem { return projection.NoItem }

func (d StateReligionDep) String() string { return fmt.Sprintf("state_religion(%d)", d.Religion) }

func (d StateReligionDep) encodePayload(w *persist.Writer) { w.Int(int(d.Religion)) }

// Reveal pairs a resource with the technology that reveals it.
type Reveal struct {
	Bonus rules.BonusType
	Tech  rules.TechType
}

// CityBonusDep requires every And resource and, when Or is non-empty, at
// least one Or resource to reach the city. Resources can be lost when a
// trade route is cut, so the dependency is never removed.
type CityBonusDep struct {
	And    []rules.BonusType
	Or     []rules.BonusType
	Reveal []Reveal
}

// NewCityBonus returns a resource dependency, looking up the reveal tech of
// each resource in r.
func NewCityBonus(r *rules.Rules, and, or []rules.BonusType) CityBonusDep {
	d := CityBonusDep{
		And: append([]rules.BonusType(nil), and...),
		Or:  append([]rules.BonusType(nil), or...),
	}
	for _, b := range append(append([]rules.BonusType(nil), and...), or...) {
		info := r.Resource(b)
		if info == nil || info.RevealTech == rules.NoTech {
			continue
		}
		d.Reveal = append(d.Reveal, Reveal{Bonus: b, Tech: info.RevealTech})
	}
	return d
}

func (d CityBonusDep) Kind() Kind { return CityBonus }

func (d CityBonusDep) revealTech(b rules.BonusType) rules.TechType {
	for _, r := range d.Reveal {
		if r.Bonus == b {
			return r.Tech
		}
	}
	return rules.NoTech
}

// present treats a resource as available when the city has it, or when tech
// dependencies are ignored and the resource lies unrevealed in the city's
// radius awaiting its reveal tech.
func (d CityBonusDep) present(p *civ.Player, c *civ.City, b rules.BonusType, mask Mask) bool {
	if c.HasBonus(b) {
		return true
	}
	if !mask.Includes(IgnoreTech) {
		return false
	}
	t := d.revealTech(b)
	return t != rules.NoTech && !p.HasTech(t) && c.PotentialBonus(b)
}

func (d CityBonusDep) RequiredInCity(p *civ.Player, c *civ.City, mask Mask) bool {
	if mask.Includes(IgnoreResource) {
		return false
	}
	for _, b := range d.And {
		if !d.present(p, c, b, mask) {
			return true
		}
	}
	if len(d.Or) == 0 {
		return false
	}
	for _, b := range d.Or {
		if d.present(p, c, b, mask) {
			return false
		}
	}
	return true
}

func (d CityBonusDep) RequiredForPlayer(p *civ.Player, mask Mask) bool {
	if mask.Includes(IgnoreResource) {
		return false
	}
	for _, c := range p.Cities() {
		if !d.RequiredInCity(p, c, mask) {
			return false
		}
	}
	return true
}

func (d CityBonusDep) Matches(mask Mask) bool {
	return mask.Includes(IgnoreResource) || (len(d.Reveal) > 0 && mask.Includes(IgnoreTech))
}

func (d CityBonusDep) Removeable() bool { return false }

// Items lists one item per And resource, one alternative item per Or
// resource and one ResearchTech item per reveal tech.
func (d CityBonusDep) Items() []Item {
	var out []Item
	for _, b := range d.And {
		out = append(out, Item{Kind: CityBonus, Param: int(b)})
	}
	for _, b := range d.Or {
		out = append(out, Item{Kind: CityBonus, Param: int(b)})
	}
	for _, r := range d.Reveal {
		out = append(out, Item{Kind: ResearchTech, Param: int(r.Tech)})
	}
	return out
}

// KeyItems names the reveal techs p still lacks when only tech dependencies
// are ignored; the resources themselves otherwise.
func (d CityBonusDep) KeyItems(p *civ.Player, mask Mask) []Item {
	if mask.Includes(IgnoreTech) && !mask.Includes(IgnoreResource) {
		var out []Item
		for _, r := range d.Reveal {
			if !p.HasTech(r.Tech) {
				out = append(out, Item{Kind: ResearchTech, Param: int(r.Tech)})
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	var out []Item
	for _, b := range d.And {
		out = append(out, Item{Kind: CityBonus, Param: int(b)})
	}
	for _, b := range d.Or {
		out = append(out, Item{Kind: CityBonus, Param: int(b)})
	}
	return out
}

func (d CityBonusDep) Apply(cd *projection.CityData) {
	for _, b := range d.And {
		if !cd.HasBonus(b) {
			cd.AddBonus(b)
		}
	}
	if len(d.Or) == 0 {
		return
	}
	for _, b := range d.Or {
		if cd.HasBonus(b) {
			return
		}
	}
	cd.AddBonus(d.Or[0])
}

func (d CityBonusDep) Remove(cd *projection.CityData) {
	for _, b := range d.And {
		delete(cd.Bonuses, b)
	}
	for _, b := range d.Or {
		delete(cd.Bonuses, b)
	}
}

func (d CityBonusDep) BuildItem() projection.QueueItem { return projection.NoItem }

func (d CityBonusDep) String() string {
	return fmt.Sprintf("city_bonus(and=%v or=%v)", d.And, d.Or)
}

func (d CityBonusDep) encodePayload(w *persist.Writer) {
	w.Ints(bonusInts(d.And))
	w.Ints(bonusInts(d.Or))
	w.Int(len(d.Reveal))
	for _, r := range d.Reveal {
		w.Int(int(r.Bonus))
		w.Int(int(r.Tech))
	}
}

// CivUnitDep requires the civilization to have built a unit type at least once.
type CivUnitDep struct {
	Unit rules.UnitType
}

// NewCivUnit returns a unit-ever-built dependency.
func NewCivUnit(u rules.UnitType) CivUnitDep { return CivUnitDep{Unit: u} }

func (d CivUnitDep) Kind() Kind { return CivUnit }

func (d CivUnitDep) RequiredInCity(p *civ.Player, _ *civ.City, mask Mask) bool {
	return d.RequiredForPlayer(p, mask)
}

func (d CivUnitDep) RequiredForPlayer(p *civ.Player, mask Mask) bool {
	return !d.Matches(mask) && p.UnitCount(d.Unit) == 0
}

func (d CivUnitDep) Matches(mask Mask) bool { return mask.Includes(IgnoreCivUnits) }
func (d CivUnitDep) Removeable() bool       { return true }
func (d CivUnitDep) Items() []Item          { return []Item{{Kind: CivUnit, Param: int(d.Unit)}} }

func (d CivUnitDep) KeyItems(_ *civ.Player, _ Mask) []Item { return d.Items() }

func (d CivUnitDep) Apply(*projection.CityData)  {}
func (d CivUnitDep) Remove(*projection.CityData) {}

func (d CivUnitDep) BuildItem() projection.QueueItem {
	return projection.QueueItem{Kind: projection.QueueUnit, ID: int(d.Unit)}
}

func (d CivUnitDep) String() string { return fmt.Sprintf("civ_unit(%d)", d.Unit) }

func (d CivUnitDep) encodePayload(w *persist.Writer) { w.Int(int(d.Unit)) }

func bonusInts(bs []rules.BonusType) []int {
	out := make([]int, len(bs))
	for i, b := range bs {
		out[i] = int(b)
	}
	return out
}
