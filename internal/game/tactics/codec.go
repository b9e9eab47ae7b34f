package tactics

import (
	"errors"
	"fmt"
	"io"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
	"github.com/cory-johannsen/altai/internal/persist"
)

// codecVersion is written first so a format change can be detected.
const codecVersion = 1

// ErrCodecVersion is returned when a stream was written by another format version.
var ErrCodecVersion = errors.New("tactics: unsupported codec version")

// Container tags. The values are part of the persisted format.
const (
	tagCityBuilding persist.Tag = iota
	tagLimitedBuilding
	tagUnit
	tagCivic
	tagTech
	tagResource
	tagReligion
	tagProcess
	tagImprovement
	tagEnd
)

// Encode writes the tactic structure: every container with its items and
// the dependencies it still tracks. Projection results are not saved; call
// Refresh after decoding.
func (pt *PlayerTactics) Encode(out io.Writer) error {
	w := persist.NewWriter(out)
	w.Int(codecVersion)
	w.Int(int(pt.PlayerID()))

	for _, city := range sortedKeys(pt.buildings) {
		m := pt.buildings[city]
		for _, b := range sortedKeys(m) {
			t := m[b]
			w.Tag(tagCityBuilding)
			w.Int(int(city))
			w.Int(int(b))
			writeItems(w, t.Items, BuildingItem.buildingTag)
			encodeDeps(w, t.deps)
		}
	}
	for _, b := range sortedKeys(pt.limited) {
		t := pt.limited[b]
		w.Tag(tagLimitedBuilding)
		w.Int(int(b))
		w.Int(int(t.Scope))
		w.Bool(t.AreaScoped)
		writeItems(w, t.Items, BuildingItem.buildingTag)
		dependency.EncodeList(w, t.cityDeps)
		dependency.EncodeList(w, t.techDeps)
		encodeDeps(w, t.deps)
		ids := t.cityIDs()
		w.Int(len(ids))
		for _, id := range ids {
			w.Int(int(id))
			encodeDeps(w, t.cities[id].deps)
		}
	}
	for _, u := range sortedKeys(pt.units) {
		t := pt.units[u]
		w.Tag(tagUnit)
		w.Int(int(u))
		writeItems(w, t.Items, UnitItem.unitTag)
		dependency.EncodeList(w, t.cityDeps)
		dependency.EncodeList(w, t.techDeps)
		encodeDeps(w, t.deps)
		ids := t.cityIDs()
		w.Int(len(ids))
		for _, id := range ids {
			w.Int(int(id))
			encodeDeps(w, t.cities[id].deps)
		}
	}
	for _, c := range sortedKeys(pt.civics) {
		t := pt.civics[c]
		w.Tag(tagCivic)
		w.Int(int(c))
		writeItems(w, t.Items, CivicItem.civicTag)
		encodeDeps(w, t.deps)
	}
	for _, k := range sortedKeys(pt.techs) {
		t := pt.techs[k]
		w.Tag(tagTech)
		w.Int(int(k))
		writeItems(w, t.Items, TechItem.techTag)
		encodeDeps(w, t.deps)
	}
	for _, b := range sortedKeys(pt.resources) {
		t := pt.resources[b]
		w.Tag(tagResource)
		w.Int(int(b))
		writeItems(w, t.Items, ResourceItem.resourceTag)
		encodeDeps(w, t.deps)
	}
	for _, r := range sortedKeys(pt.religions) {
		t := pt.religions[r]
		w.Tag(tagReligion)
		w.Int(int(r))
		writeItems(w, t.Items, ReligionItem.religionTag)
		encodeDeps(w, t.deps)
	}
	for _, p := range sortedKeys(pt.processes) {
		w.Tag(tagProcess)
		w.Int(int(p))
		encodeDeps(w, pt.processes[p].deps)
	}
	for _, i := range sortedKeys(pt.improvements) {
		w.Tag(tagImprovement)
		w.Int(int(i))
		encodeDeps(w, pt.improvements[i].deps)
	}
	w.Tag(tagEnd)
	if err := w.Err(); err != nil {
		return fmt.Errorf("tactics.PlayerTactics.Encode: %w", err)
	}
	return nil
}

// DecodePlayerTactics restores tactics written by Encode for pc's player.
// Building classifications are recomputed from pc.Rules so cities gained
// later still get tactics.
//
// Precondition: pc must be non-nil.
// Postcondition: an unknown container, item or dependency tag yields an
// error wrapping persist.ErrUnknownTag.
func DecodePlayerTactics(pc *PlayerContext, in io.Reader) (*PlayerTactics, error) {
	if pc == nil {
		panic("tactics.DecodePlayerTactics: context must not be nil")
	}
	r := persist.NewReader(in)
	if v := r.Int(); r.Err() == nil && v != codecVersion {
		return nil, fmt.Errorf("tactics.DecodePlayerTactics: %w %d", ErrCodecVersion, v)
	}
	player := civ.PlayerID(r.Int())
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("tactics.DecodePlayerTactics: %w", err)
	}
	if player != pc.Player.ID {
		return nil, fmt.Errorf("tactics.DecodePlayerTactics: stream is for player %d, context is for %d", player, pc.Player.ID)
	}

	pt := newPlayerTactics(pc)
	for _, info := range pc.Rules.Buildings {
		if info.IsLimited() {
			continue
		}
		if c, ok := ClassifyBuilding(pc.Rules, info); ok {
			pt.classified[info.ID] = c
		}
	}
	for {
		tag := r.Tag()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("tactics.DecodePlayerTactics: %w", err)
		}
		if tag == tagEnd {
			break
		}
		if err := pt.decodeContainer(r, tag); err != nil {
			return nil, fmt.Errorf("tactics.DecodePlayerTactics: %w", err)
		}
	}
	pc.InvalidateAll()
	return pt, nil
}

func (pt *PlayerTactics) decodeContainer(r *persist.Reader, tag persist.Tag) error {
	switch tag {
	case tagCityBuilding:
		city := civ.CityID(r.Int())
		b := rules.BuildingType(r.Int())
		items, err := readItems(r, decodeBuildingItem)
		if err != nil {
			return err
		}
		deps, err := decodeDeps(r, city)
		if err != nil {
			return err
		}
		t := NewCityBuildingTactic(b, city, items, nil, nil)
		t.deps = deps
		m, ok := pt.buildings[city]
		if !ok {
			m = make(map[rules.BuildingType]*CityBuildingTactic)
			pt.buildings[city] = m
		}
		m[b] = t
	case tagLimitedBuilding:
		b := rules.BuildingType(r.Int())
		scope := ComparisonScope(r.Int())
		areaScoped := r.Bool()
		items, err := readItems(r, decodeBuildingItem)
		if err != nil {
			return err
		}
		cityDeps, techDeps, err := decodeClassDeps(r)
		if err != nil {
			return err
		}
		deps, err := decodeDeps(r, civ.NoCity)
		if err != nil {
			return err
		}
		t := &LimitedBuildingTactic{
			depTactic:  depTactic{deps: deps},
			Building:   b,
			Scope:      scope,
			AreaScoped: areaScoped,
			Items:      items,
			cities:     make(map[civ.CityID]*CityBuildingTactic),
			cityDeps:   cityDeps,
			techDeps:   techDeps,
			firstCity:  civ.NoCity,
			firstTurns: -1,
		}
		n := r.Len()
		for i := 0; i < n && r.Err() == nil; i++ {
			id := civ.CityID(r.Int())
			cd, err := decodeDeps(r, id)
			if err != nil {
				return err
			}
			ct := NewCityBuildingTactic(b, id, items, nil, nil)
			ct.deps = cd
			t.cities[id] = ct
		}
		pt.limited[b] = t
	case tagUnit:
		u := rules.UnitType(r.Int())
		items, err := readItems(r, decodeUnitItem)
		if err != nil {
			return err
		}
		cityDeps, techDeps, err := decodeClassDeps(r)
		if err != nil {
			return err
		}
		deps, err := decodeDeps(r, civ.NoCity)
		if err != nil {
			return err
		}
		t := NewUnitTactics(u, UnitClassification{Items: items, Deps: cityDeps, TechDeps: techDeps})
		t.deps = deps
		n := r.Len()
		for i := 0; i < n && r.Err() == nil; i++ {
			id := civ.CityID(r.Int())
			cd, err := decodeDeps(r, id)
			if err != nil {
				return err
			}
			ct := newCityUnitTactic(u, id, items, nil, nil)
			ct.deps = cd
			t.cities[id] = ct
		}
		pt.units[u] = t
	case tagCivic:
		c := rules.CivicType(r.Int())
		items, err := readItems(r, decodeCivicItem)
		if err != nil {
			return err
		}
		deps, err := decodeDeps(r, civ.NoCity)
		if err != nil {
			return err
		}
		t := NewCivicTactics(c, items, nil)
		t.deps = deps
		pt.civics[c] = t
	case tagTech:
		k := rules.TechType(r.Int())
		items, err := readItems(r, decodeTechItem)
		if err != nil {
			return err
		}
		deps, err := decodeDeps(r, civ.NoCity)
		if err != nil {
			return err
		}
		t := NewTechTactics(k, items)
		t.deps = deps
		pt.techs[k] = t
	case tagResource:
		b := rules.BonusType(r.Int())
		items, err := readItems(r, decodeResourceItem)
		if err != nil {
			return err
		}
		deps, err := decodeDeps(r, civ.NoCity)
		if err != nil {
			return err
		}
		t := NewResourceTactics(b, items, nil)
		t.deps = deps
		pt.resources[b] = t
	case tagReligion:
		rel := rules.ReligionType(r.Int())
		items, err := readItems(r, decodeReligionItem)
		if err != nil {
			return err
		}
		deps, err := decodeDeps(r, civ.NoCity)
		if err != nil {
			return err
		}
		t := NewReligionTactics(rel, items, nil, nil)
		t.deps = deps
		pt.religions[rel] = t
	case tagProcess:
		p := rules.ProcessType(r.Int())
		deps, err := decodeDeps(r, civ.NoCity)
		if err != nil {
			return err
		}
		t := NewProcessTactic(p, nil)
		t.deps = deps
		pt.processes[p] = t
	case tagImprovement:
		i := rules.ImprovementType(r.Int())
		deps, err := decodeDeps(r, civ.NoCity)
		if err != nil {
			return err
		}
		t := NewImprovementTactics(i, nil)
		t.deps = deps
		pt.improvements[i] = t
	default:
		err := persist.UnknownTagError("tactic container", tag)
		r.Fail(err)
		return err
	}
	return r.Err()
}

type encoder interface {
	encode(w *persist.Writer)
}

func writeItems[T encoder](w *persist.Writer, items []T, tag func(T) persist.Tag) {
	w.Int(len(items))
	for _, it := range items {
		w.Tag(tag(it))
		it.encode(w)
	}
}

func readItems[T any](r *persist.Reader, decode func(*persist.Reader) (T, error)) ([]T, error) {
	n := r.Len()
	if err := r.Err(); err != nil {
		return nil, err
	}
	items := make([]T, 0, n)
	for i := 0; i < n; i++ {
		it, err := decode(r)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func encodeDeps(w *persist.Writer, d depList) {
	dependency.EncodeList(w, d.deps)
	dependency.EncodeList(w, d.tech)
}

func decodeDeps(r *persist.Reader, city civ.CityID) (depList, error) {
	deps, tech, err := decodeClassDeps(r)
	if err != nil {
		return depList{}, err
	}
	return depList{city: city, deps: deps, tech: tech}, nil
}

func decodeClassDeps(r *persist.Reader) (deps, tech []dependency.Dependency, err error) {
	if deps, err = dependency.DecodeList(r); err != nil {
		return nil, nil, err
	}
	if tech, err = dependency.DecodeList(r); err != nil {
		return nil, nil, err
	}
	return deps, tech, nil
}
