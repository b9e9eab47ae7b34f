package dependency

import (
	"github.com/cory-johannsen/altai/internal/game/rules"
	"github.com/cory-johannsen/altai/internal/persist"
)

// Encode writes d's kind tag followed by its payload.
func Encode(w *persist.Writer, d Dependency) {
	w.Tag(persist.Tag(d.Kind()))
	d.encodePayload(w)
}

// Decode reads one dependency written by Encode.
//
// Postcondition: an unknown tag yields an error wrapping persist.ErrUnknownTag.
func Decode(r *persist.Reader) (Dependency, error) {
	tag := r.Tag()
	if err := r.Err(); err != nil {
		return nil, err
	}
	var d Dependency
	switch Kind(tag) {
	case ResearchTech:
		d = ResearchTechDep{Tech: rules.TechType(r.Int())}
	case CityBuilding:
		d = CityBuildingDep{Building: rules.BuildingType(r.Int())}
	case CivBuilding:
		d = CivBuildingDep{
			Building: rules.BuildingType(r.Int()),
			Count:    r.Int(),
			Source:   rules.BuildingType(r.Int()),
		}
	case Religious:
		d = ReligiousDep{Religion: rules.ReligionType(r.Int())}
	case StateReligion:
		d = StateReligionDep{Religion: rules.ReligionType(r.Int())}
	case CityBonus:
		cb := CityBonusDep{And: intsToBonuses(r.Ints()), Or: intsToBonuses(r.Ints())}
		n := r.Len()
		for i := 0; i < n && r.Err() == nil; i++ {
			cb.Reveal = append(cb.Reveal, Reveal{Bonus: rules.BonusType(r.Int()), Tech: rules.TechType(r.Int())})
		}
		d = cb
	case CivUnit:
		d = CivUnitDep{Unit: rules.UnitType(r.Int())}
	default:
		err := persist.UnknownTagError("dependency", tag)
		r.Fail(err)
		return nil, err
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// EncodeList writes a length-prefixed list of dependencies.
func EncodeList(w *persist.Writer, deps []Dependency) {
	w.Int(len(deps))
	for _, d := range deps {
		Encode(w, d)
	}
}

// DecodeList reads a list written by EncodeList.
func DecodeList(r *persist.Reader) ([]Dependency, error) {
	n := r.Len()
	if err := r.Err(); err != nil {
		return nil, err
	}
	out := make([]Dependency, 0, n)
	for i := 0; i < n; i++ {
		d, err := Decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// EncodeItemSet writes the items of s.
func EncodeItemSet(w *persist.Writer, s ItemSet) {
	w.Int(s.Len())
	for _, it := range s.items {
		w.Int(int(it.Kind))
		w.Int(it.Param)
	}
}

// DecodeItemSet reads a set written by EncodeItemSet.
func DecodeItemSet(r *persist.Reader) (ItemSet, error) {
	n := r.Len()
	items := make([]Item, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		items = append(items, Item{Kind: Kind(r.Int()), Param: r.Int()})
	}
	if err := r.Err(); err != nil {
		return ItemSet{}, err
	}
	return NewItemSet(items...), nil
}

func intsToBonuses(vs []int) []rules.BonusType {
	if len(vs) == 0 {
		return nil
	}
	out := make([]rules.BonusType, len(vs))
	for i, v := range vs {
		out[i] = rules.BonusType(v)
	}
	return out
}
