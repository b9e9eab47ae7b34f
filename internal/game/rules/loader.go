package rules

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/altai/internal/game/output"
)

// rawEffect is the YAML form of every node kind. Kind selects the node; only
// the fields that node uses are read.
type rawEffect struct {
	Kind string `yaml:"kind"`

	Yield    map[string]int `yaml:"yield"`
	Modifier map[string]int `yaml:"modifier"`
	Commerce map[string]int `yaml:"commerce"`
	Global   bool           `yaml:"global"`

	MilitaryProductionModifier int `yaml:"military_production_modifier"`

	ExtraRoutes   int `yaml:"extra_routes"`
	RouteModifier int `yaml:"route_modifier"`

	Slots map[string]int `yaml:"slots"`
	Free  map[string]int `yaml:"free"`

	Happy              int `yaml:"happy"`
	StateReligionHappy int `yaml:"state_religion_happy"`
	MilitaryHappy      int `yaml:"military_happy"`
	Health             int `yaml:"health"`
	Unhealth           int `yaml:"unhealth"`
	AreaHappy          int `yaml:"area_happy"`
	AreaHealth         int `yaml:"area_health"`
	GlobalHappy        int `yaml:"global_happy"`
	GlobalHealth       int `yaml:"global_health"`

	FoodKeptPercent     int  `yaml:"food_kept_percent"`
	MaintenanceModifier int  `yaml:"maintenance_modifier"`
	GovernmentCenter    bool `yaml:"government_center"`
	NoUnhappiness       bool `yaml:"no_unhappiness"`
	HurryAngerModifier  int  `yaml:"hurry_anger_modifier"`

	FreeExperience       int    `yaml:"free_experience"`
	GlobalFreeExperience int    `yaml:"global_free_experience"`
	Domain               string `yaml:"domain"`

	Defence       int `yaml:"defence"`
	GlobalDefence int `yaml:"global_defence"`
	BombardRate   int `yaml:"bombard_rate"`

	Bonus    string `yaml:"bonus"`
	Count    int    `yaml:"count"`
	Building string `yaml:"building"`
	Religion string `yaml:"religion"`

	FreeTechs int    `yaml:"free_techs"`
	FreeUnit  string `yaml:"free_unit"`

	Improvement  string   `yaml:"improvement"`
	Improvements []string `yaml:"improvements"`
	Process      string   `yaml:"process"`

	AttackPercent  int `yaml:"attack_percent"`
	DefencePercent int `yaml:"defence_percent"`
	FirstStrikes   int `yaml:"first_strikes"`
	Damage         int `yaml:"damage"`
	MaxUnits       int `yaml:"max_units"`

	Specialists      []string `yaml:"specialists"`
	Specialist       string   `yaml:"specialist"`
	FreeSpecialists  int      `yaml:"free_specialists"`
	DiscoverResearch int      `yaml:"discover_research"`

	HurryWithGold       bool `yaml:"hurry_with_gold"`
	HurryWithPopulation bool `yaml:"hurry_with_population"`
}

type rawBuildingCount struct {
	Building string `yaml:"building"`
	Count    int    `yaml:"count"`
}

type rawTech struct {
	Key       string      `yaml:"key"`
	Cost      int         `yaml:"cost"`
	Era       int         `yaml:"era"`
	AndPrereq []string    `yaml:"and_prereqs"`
	OrPrereq  []string    `yaml:"or_prereqs"`
	Effects   []rawEffect `yaml:"effects"`
}

type rawBuilding struct {
	Key                    string             `yaml:"key"`
	Cost                   int                `yaml:"cost"`
	Techs                  []string           `yaml:"techs"`
	ObsoleteTech           string             `yaml:"obsolete_tech"`
	RequiredBuildings      []string           `yaml:"required_buildings"`
	RequiredBuildingCounts []rawBuildingCount `yaml:"required_building_counts"`
	Religion               string             `yaml:"religion"`
	RequiresStateReligion  bool               `yaml:"requires_state_religion"`
	AndBonuses             []string           `yaml:"and_bonuses"`
	OrBonuses              []string           `yaml:"or_bonuses"`
	Limit                  string             `yaml:"limit"`
	AreaScoped             bool               `yaml:"area_scoped"`
	Effects                []rawEffect        `yaml:"effects"`
}

type rawUnit struct {
	Key        string      `yaml:"key"`
	Cost       int         `yaml:"cost"`
	Domain     string      `yaml:"domain"`
	Strength   int         `yaml:"strength"`
	Moves      int         `yaml:"moves"`
	Techs      []string    `yaml:"techs"`
	Building   string      `yaml:"building"`
	Religion   string      `yaml:"religion"`
	AndBonuses []string    `yaml:"and_bonuses"`
	OrBonuses  []string    `yaml:"or_bonuses"`
	Abilities  []rawEffect `yaml:"abilities"`
}

type rawCivic struct {
	Key     string      `yaml:"key"`
	Option  string      `yaml:"option"`
	Tech    string      `yaml:"tech"`
	Upkeep  int         `yaml:"upkeep"`
	Effects []rawEffect `yaml:"effects"`
}

type rawResource struct {
	Key        string      `yaml:"key"`
	RevealTech string      `yaml:"reveal_tech"`
	Effects    []rawEffect `yaml:"effects"`
}

type rawReligion struct {
	Key              string         `yaml:"key"`
	FoundingTech     string         `yaml:"founding_tech"`
	Commerce         map[string]int `yaml:"commerce"`
	HolyCityCommerce map[string]int `yaml:"holy_city_commerce"`
	StateHappy       int            `yaml:"state_happy"`
	Missionary       string         `yaml:"missionary"`
}

type rawProcess struct {
	Key        string         `yaml:"key"`
	Tech       string         `yaml:"tech"`
	Conversion map[string]int `yaml:"conversion"`
}

type rawSpecialist struct {
	Key   string         `yaml:"key"`
	Yield map[string]int `yaml:"yield"`
}

type rawImprovement struct {
	Key        string         `yaml:"key"`
	Tech       string         `yaml:"tech"`
	Yield      map[string]int `yaml:"yield"`
	BuildTurns int            `yaml:"build_turns"`
	Bonuses    []string       `yaml:"bonuses"`
}

// rawFile is the top-level layout of one rule content file. Any section may
// be omitted; sections from all files are concatenated in file name order.
type rawFile struct {
	MaxTurns     int              `yaml:"max_turns"`
	Techs        []rawTech        `yaml:"techs"`
	Buildings    []rawBuilding    `yaml:"buildings"`
	Units        []rawUnit        `yaml:"units"`
	Civics       []rawCivic       `yaml:"civics"`
	Resources    []rawResource    `yaml:"resources"`
	Religions    []rawReligion    `yaml:"religions"`
	Processes    []rawProcess     `yaml:"processes"`
	Specialists  []rawSpecialist  `yaml:"specialists"`
	Improvements []rawImprovement `yaml:"improvements"`
}

func (f *rawFile) merge(o rawFile) {
	if o.MaxTurns > 0 {
		f.MaxTurns = o.MaxTurns
	}
	f.Techs = append(f.Techs, o.Techs...)
	f.Buildings = append(f.Buildings, o.Buildings...)
	f.Units = append(f.Units, o.Units...)
	f.Civics = append(f.Civics, o.Civics...)
	f.Resources = append(f.Resources, o.Resources...)
	f.Religions = append(f.Religions, o.Religions...)
	f.Processes = append(f.Processes, o.Processes...)
	f.Specialists = append(f.Specialists, o.Specialists...)
	f.Improvements = append(f.Improvements, o.Improvements...)
}

// DefaultMaxTurns is used when no content file sets max_turns.
const DefaultMaxTurns = 500

// LoadDir reads every *.yaml/*.yml file in dir, in lexicographic order, and
// resolves them into one Rules.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns a fully resolved Rules or an error naming the first
// file or key that failed.
func LoadDir(dir string) (*Rules, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("rules.LoadDir: reading %q: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all rawFile
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("rules.LoadDir: reading %s: %w", name, err)
		}
		f, err := decodeFile(data)
		if err != nil {
			return nil, fmt.Errorf("rules.LoadDir: parsing %s: %w", name, err)
		}
		all.merge(f)
	}
	return resolve(all)
}

// Parse resolves a single YAML document.
//
// Postcondition: returns a fully resolved Rules or a descriptive error.
func Parse(data []byte) (*Rules, error) {
	f, err := decodeFile(data)
	if err != nil {
		return nil, fmt.Errorf("rules.Parse: %w", err)
	}
	return resolve(f)
}

func decodeFile(data []byte) (rawFile, error) {
	var f rawFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return rawFile{}, err
	}
	return f, nil
}

// resolver turns keys into ids, remembering the first failure.
type resolver struct {
	keys map[string]int
	kind map[string]string
	err  error
}

func (r *resolver) declare(family, key string, id int) {
	if r.err != nil {
		return
	}
	if key == "" {
		r.err = fmt.Errorf("%s #%d: empty key", family, id)
		return
	}
	if prev, dup := r.kind[key]; dup {
		r.err = fmt.Errorf("duplicate key %q (%s and %s)", key, prev, family)
		return
	}
	r.keys[key] = id
	r.kind[key] = family
}

func (r *resolver) ref(family, key string) int {
	if key == "" {
		return -1
	}
	if r.err != nil {
		return -1
	}
	id, ok := r.keys[key]
	if !ok || r.kind[key] != family {
		r.err = fmt.Errorf("%w: %s %q", ErrUnknownKey, family, key)
		return -1
	}
	return id
}

func (r *resolver) output(m map[string]int) Output {
	if r.err != nil || len(m) == 0 {
		return Output{}
	}
	o, err := output.FromMap(m)
	if err != nil {
		r.err = err
	}
	return o
}

func (r *resolver) tech(key string) TechType         { return TechType(r.ref("tech", key)) }
func (r *resolver) building(key string) BuildingType { return BuildingType(r.ref("building", key)) }
func (r *resolver) unit(key string) UnitType         { return UnitType(r.ref("unit", key)) }
func (r *resolver) bonus(key string) BonusType       { return BonusType(r.ref("resource", key)) }
func (r *resolver) religion(key string) ReligionType { return ReligionType(r.ref("religion", key)) }
func (r *resolver) process(key string) ProcessType   { return ProcessType(r.ref("process", key)) }
func (r *resolver) specialist(key string) SpecialistType {
	return SpecialistType(r.ref("specialist", key))
}
func (r *resolver) improvement(key string) ImprovementType {
	return ImprovementType(r.ref("improvement", key))
}

func (r *resolver) techs(keys []string) []TechType {
	out := make([]TechType, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.tech(k))
	}
	return out
}

func (r *resolver) bonuses(keys []string) []BonusType {
	out := make([]BonusType, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.bonus(k))
	}
	return out
}

func (r *resolver) specialistMap(m map[string]int) map[SpecialistType]int {
	if len(m) == 0 {
		return nil
	}
	out := make(map[SpecialistType]int, len(m))
	for k, v := range m {
		out[r.specialist(k)] = v
	}
	return out
}

func (r *resolver) domain(name string) Domain {
	switch name {
	case "", "land":
		return Land
	case "sea":
		return Sea
	case "air":
		return Air
	}
	if r.err == nil {
		r.err = fmt.Errorf("unknown domain %q", name)
	}
	return Land
}

func (r *resolver) limit(name string) Limit {
	switch name {
	case "", "none":
		return Unlimited
	case "national":
		return NationalLimit
	case "world":
		return WorldLimit
	}
	if r.err == nil {
		r.err = fmt.Errorf("unknown building limit %q", name)
	}
	return Unlimited
}

func resolve(f rawFile) (*Rules, error) {
	r := &resolver{keys: make(map[string]int), kind: make(map[string]string)}
	for i, t := range f.Techs {
		r.declare("tech", t.Key, i)
	}
	for i, b := range f.Buildings {
		r.declare("building", b.Key, i)
	}
	for i, u := range f.Units {
		r.declare("unit", u.Key, i)
	}
	for i, c := range f.Civics {
		r.declare("civic", c.Key, i)
	}
	for i, b := range f.Resources {
		r.declare("resource", b.Key, i)
	}
	for i, rel := range f.Religions {
		r.declare("religion", rel.Key, i)
	}
	for i, p := range f.Processes {
		r.declare("process", p.Key, i)
	}
	for i, s := range f.Specialists {
		r.declare("specialist", s.Key, i)
	}
	for i, imp := range f.Improvements {
		r.declare("improvement", imp.Key, i)
	}
	if r.err != nil {
		return nil, fmt.Errorf("rules: %w", r.err)
	}

	out := &Rules{MaxTurns: f.MaxTurns, keys: r.keys}
	if out.MaxTurns <= 0 {
		out.MaxTurns = DefaultMaxTurns
	}

	for i, s := range f.Specialists {
		out.Specialists = append(out.Specialists, &SpecialistInfo{
			ID: SpecialistType(i), Key: s.Key, Yield: r.output(s.Yield),
		})
	}
	for i, imp := range f.Improvements {
		out.Improvements = append(out.Improvements, &ImprovementInfo{
			ID:         ImprovementType(i),
			Key:        imp.Key,
			Tech:       r.tech(imp.Tech),
			Yield:      r.output(imp.Yield),
			BuildTurns: imp.BuildTurns,
			Bonuses:    r.bonuses(imp.Bonuses),
		})
	}
	for i, t := range f.Techs {
		info := &TechInfo{
			ID:         TechType(i),
			Key:        t.Key,
			Cost:       t.Cost,
			Era:        t.Era,
			AndPrereqs: r.techs(t.AndPrereq),
			OrPrereqs:  r.techs(t.OrPrereq),
		}
		for _, e := range t.Effects {
			if n := r.techNode(t.Key, e); n != nil {
				info.Nodes = append(info.Nodes, n)
			}
		}
		out.Techs = append(out.Techs, info)
	}
	for i, b := range f.Buildings {
		info := &BuildingInfo{
			ID:                    BuildingType(i),
			Key:                   b.Key,
			Cost:                  b.Cost,
			PrereqTechs:           r.techs(b.Techs),
			ObsoleteTech:          r.tech(b.ObsoleteTech),
			PrereqReligion:        r.religion(b.Religion),
			RequiresStateReligion: b.RequiresStateReligion,
			AndBonuses:            r.bonuses(b.AndBonuses),
			OrBonuses:             r.bonuses(b.OrBonuses),
			Limit:                 r.limit(b.Limit),
			AreaScoped:            b.AreaScoped,
		}
		for _, k := range b.RequiredBuildings {
			info.RequiredBuildings = append(info.RequiredBuildings, r.building(k))
		}
		for _, c := range b.RequiredBuildingCounts {
			info.RequiredBuildingCounts = append(info.RequiredBuildingCounts, BuildingCount{
				Building: r.building(c.Building), Count: c.Count,
			})
		}
		for _, e := range b.Effects {
			if n := r.buildingNode(b.Key, e); n != nil {
				info.Nodes = append(info.Nodes, n)
			}
		}
		out.Buildings = append(out.Buildings, info)
	}
	for i, u := range f.Units {
		info := &UnitInfo{
			ID:             UnitType(i),
			Key:            u.Key,
			Cost:           u.Cost,
			Domain:         r.domain(u.Domain),
			Strength:       u.Strength,
			Moves:          u.Moves,
			PrereqTechs:    r.techs(u.Techs),
			PrereqBuilding: r.building(u.Building),
			PrereqReligion: r.religion(u.Religion),
			AndBonuses:     r.bonuses(u.AndBonuses),
			OrBonuses:      r.bonuses(u.OrBonuses),
		}
		for _, e := range u.Abilities {
			if n := r.unitNode(u.Key, e); n != nil {
				info.Nodes = append(info.Nodes, n)
			}
		}
		out.Units = append(out.Units, info)
	}
	for i, c := range f.Civics {
		info := &CivicInfo{
			ID:         CivicType(i),
			Key:        c.Key,
			Option:     c.Option,
			PrereqTech: r.tech(c.Tech),
			Upkeep:     c.Upkeep,
		}
		for _, e := range c.Effects {
			if n := r.civicNode(c.Key, e); n != nil {
				info.Nodes = append(info.Nodes, n)
			}
		}
		out.Civics = append(out.Civics, info)
	}
	for i, b := range f.Resources {
		info := &ResourceInfo{ID: BonusType(i), Key: b.Key, RevealTech: r.tech(b.RevealTech)}
		for _, e := range b.Effects {
			if n := r.resourceNode(b.Key, e); n != nil {
				info.Nodes = append(info.Nodes, n)
			}
		}
		out.Resources = append(out.Resources, info)
	}
	for i, rel := range f.Religions {
		out.Religions = append(out.Religions, &ReligionInfo{
			ID:               ReligionType(i),
			Key:              rel.Key,
			FoundingTech:     r.tech(rel.FoundingTech),
			Commerce:         r.output(rel.Commerce),
			HolyCityCommerce: r.output(rel.HolyCityCommerce),
			StateHappy:       rel.StateHappy,
			Missionary:       r.unit(rel.Missionary),
		})
	}
	for i, p := range f.Processes {
		out.Processes = append(out.Processes, &ProcessInfo{
			ID: ProcessType(i), Key: p.Key, Tech: r.tech(p.Tech), Conversion: r.output(p.Conversion),
		})
	}
	if r.err != nil {
		return nil, fmt.Errorf("rules: %w", r.err)
	}
	return out, nil
}

func (r *resolver) unknownKind(owner, kind string) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: unknown effect kind %q", owner, kind)
	}
}

func (r *resolver) buildingNode(owner string, e rawEffect) BuildingNode {
	switch e.Kind {
	case "yield":
		return YieldNode{
			Yield:                      r.output(e.Yield),
			Modifier:                   r.output(e.Modifier),
			Global:                     e.Global,
			MilitaryProductionModifier: e.MilitaryProductionModifier,
		}
	case "commerce":
		return CommerceNode{Commerce: r.output(e.Commerce), Modifier: r.output(e.Modifier), Global: e.Global}
	case "trade":
		return TradeNode{ExtraRoutes: e.ExtraRoutes, RouteModifier: e.RouteModifier}
	case "specialist_slots":
		return SpecialistSlotNode{Slots: r.specialistMap(e.Slots), Free: r.specialistMap(e.Free)}
	case "happy":
		return HappyNode{Happy: e.Happy, StateReligionHappy: e.StateReligionHappy}
	case "health":
		return HealthNode{Health: e.Health, Unhealth: e.Unhealth}
	case "area_effect":
		return AreaEffectNode{
			AreaHappy: e.AreaHappy, AreaHealth: e.AreaHealth,
			GlobalHappy: e.GlobalHappy, GlobalHealth: e.GlobalHealth,
		}
	case "misc":
		return MiscEffectNode{
			FoodKeptPercent:     e.FoodKeptPercent,
			MaintenanceModifier: e.MaintenanceModifier,
			GovernmentCenter:    e.GovernmentCenter,
			NoUnhappiness:       e.NoUnhappiness,
			HurryAngerModifier:  e.HurryAngerModifier,
		}
	case "unit_experience":
		n := UnitExpNode{FreeExperience: e.FreeExperience, GlobalFreeExperience: e.GlobalFreeExperience}
		if e.Domain != "" {
			d := r.domain(e.Domain)
			n.Domain = &d
		}
		return n
	case "city_defence":
		return CityDefenceNode{Defence: e.Defence, GlobalDefence: e.GlobalDefence, BombardRate: e.BombardRate}
	case "free_bonus":
		return FreeBonusNode{Bonus: r.bonus(e.Bonus), Count: e.Count}
	case "bonus_effect":
		return BonusEffectNode{
			Bonus: r.bonus(e.Bonus), Yield: r.output(e.Yield), Modifier: r.output(e.Modifier),
			Happy: e.Happy, Health: e.Health,
		}
	case "free_tech":
		return FreeTechNode{Count: e.FreeTechs}
	case "religion_commerce":
		return ReligionCommerceNode{Religion: r.religion(e.Religion), Commerce: r.output(e.Commerce)}
	}
	r.unknownKind(owner, e.Kind)
	return nil
}

func (r *resolver) unitNode(owner string, e rawEffect) UnitNode {
	switch e.Kind {
	case "city_combat":
		return CityCombatNode{AttackPercent: e.AttackPercent, DefencePercent: e.DefencePercent}
	case "field_combat":
		return FieldCombatNode{AttackPercent: e.AttackPercent, DefencePercent: e.DefencePercent, FirstStrikes: e.FirstStrikes}
	case "collateral":
		return CollateralNode{Damage: e.Damage, MaxUnits: e.MaxUnits}
	case "worker":
		n := WorkerNode{}
		for _, k := range e.Improvements {
			n.Improvements = append(n.Improvements, r.improvement(k))
		}
		return n
	case "settler":
		return SettlerNode{}
	case "missionary":
		return MissionaryNode{Religion: r.religion(e.Religion)}
	case "great_person":
		n := GreatPersonNode{DiscoverResearch: e.DiscoverResearch}
		for _, k := range e.Specialists {
			n.Specialists = append(n.Specialists, r.specialist(k))
		}
		return n
	}
	r.unknownKind(owner, e.Kind)
	return nil
}

func (r *resolver) civicNode(owner string, e rawEffect) CivicNode {
	switch e.Kind {
	case "yield":
		return CivicYieldNode{Modifier: r.output(e.Modifier)}
	case "maintenance":
		return CivicMaintenanceNode{MaintenanceModifier: e.MaintenanceModifier}
	case "happy":
		return CivicHappyNode{Happy: e.Happy, MilitaryHappy: e.MilitaryHappy}
	case "health":
		return CivicHealthNode{Health: e.Health}
	case "specialist":
		n := CivicSpecialistNode{FreeSpecialists: e.FreeSpecialists, Specialist: NoSpecialist, ExtraYield: r.output(e.Yield)}
		if e.Specialist != "" {
			n.Specialist = r.specialist(e.Specialist)
		}
		return n
	case "unit":
		return CivicUnitNode{FreeExperience: e.FreeExperience}
	case "hurry":
		return CivicHurryNode{HurryWithGold: e.HurryWithGold, HurryWithPopulation: e.HurryWithPopulation}
	case "improvement":
		return CivicImprovementNode{Improvement: r.improvement(e.Improvement), Yield: r.output(e.Yield)}
	}
	r.unknownKind(owner, e.Kind)
	return nil
}

func (r *resolver) techNode(owner string, e rawEffect) TechNode {
	switch e.Kind {
	case "first_to":
		n := FirstToTechNode{FreeTechs: e.FreeTechs, FreeUnit: NoUnit}
		if e.FreeUnit != "" {
			n.FreeUnit = r.unit(e.FreeUnit)
		}
		return n
	case "found_religion":
		return FoundReligionNode{Religion: r.religion(e.Religion)}
	case "reveal_bonus":
		return RevealBonusNode{Bonus: r.bonus(e.Bonus)}
	case "improvement_yield":
		return ImprovementYieldNode{Improvement: r.improvement(e.Improvement), Yield: r.output(e.Yield)}
	case "process":
		return ProcessNode{Process: r.process(e.Process)}
	case "grant_bonus":
		return GrantBonusNode{Bonus: r.bonus(e.Bonus)}
	}
	r.unknownKind(owner, e.Kind)
	return nil
}

func (r *resolver) resourceNode(owner string, e rawEffect) ResourceNode {
	switch e.Kind {
	case "happy":
		return BonusHappyNode{Happy: e.Happy}
	case "health":
		return BonusHealthNode{Health: e.Health}
	case "yield":
		return BonusYieldNode{Yield: r.output(e.Yield)}
	case "building":
		return BonusBuildingNode{
			Building: r.building(e.Building), Happy: e.Happy, Health: e.Health, Modifier: r.output(e.Modifier),
		}
	}
	r.unknownKind(owner, e.Kind)
	return nil
}
