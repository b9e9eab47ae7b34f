package rules

import "errors"

// ErrUnknownKey is returned when rule content references an undefined key.
var ErrUnknownKey = errors.New("unknown rule key")

// Rules is the resolved, read-only rule set.
//
// Invariant: every slice is indexed by its entity id (Techs[i].ID == TechType(i)).
type Rules struct {
	Techs        []*TechInfo
	Buildings    []*BuildingInfo
	Units        []*UnitInfo
	Civics       []*CivicInfo
	Resources    []*ResourceInfo
	Religions    []*ReligionInfo
	Processes    []*ProcessInfo
	Specialists  []*SpecialistInfo
	Improvements []*ImprovementInfo

	// MaxTurns is the game length used to judge research cost.
	MaxTurns int

	keys map[string]int
}

// Tech returns the TechInfo for id, or nil when out of range.
func (r *Rules) Tech(id TechType) *TechInfo {
	if id < 0 || int(id) >= len(r.Techs) {
		return nil
	}
	return r.Techs[id]
}

// Building returns the BuildingInfo for id, or nil when out of range.
func (r *Rules) Building(id BuildingType) *BuildingInfo {
	if id < 0 || int(id) >= len(r.Buildings) {
		return nil
	}
	return r.Buildings[id]
}

// Unit returns the UnitInfo for id, or nil when out of range.
func (r *Rules) Unit(id UnitType) *UnitInfo {
	if id < 0 || int(id) >= len(r.Units) {
		return nil
	}
	return r.Units[id]
}

// Civic returns the CivicInfo for id, or nil when out of range.
func (r *Rules) Civic(id CivicType) *CivicInfo {
	if id < 0 || int(id) >= len(r.Civics) {
		return nil
	}
	return r.Civics[id]
}

// Resource returns the ResourceInfo for id, or nil when out of range.
func (r *Rules) Resource(id BonusType) *ResourceInfo {
	if id < 0 || int(id) >= len(r.Resources) {
		return nil
	}
	return r.Resources[id]
}

// Religion returns the ReligionInfo for id, or nil when out of range.
func (r *Rules) Religion(id ReligionType) *ReligionInfo {
	if id < 0 || int(id) >= len(r.Religions) {
		return nil
	}
	return r.Religions[id]
}

// Process returns the ProcessInfo for id, or nil when out of range.
func (r *Rules) Process(id ProcessType) *ProcessInfo {
	if id < 0 || int(id) >= len(r.Processes) {
		return nil
	}
	return r.Processes[id]
}

// Specialist returns the SpecialistInfo for id, or nil when out of range.
func (r *Rules) Specialist(id SpecialistType) *SpecialistInfo {
	if id < 0 || int(id) >= len(r.Specialists) {
		return nil
	}
	return r.Specialists[id]
}

// Improvement returns the ImprovementInfo for id, or nil when out of range.
func (r *Rules) Improvement(id ImprovementType) *ImprovementInfo {
	if id < 0 || int(id) >= len(r.Improvements) {
		return nil
	}
	return r.Improvements[id]
}

// Lookup returns the id registered for key in any family.
//
// Postcondition: returns false when key is not defined.
func (r *Rules) Lookup(key string) (int, bool) {
	id, ok := r.keys[key]
	return id, ok
}

// TechKey returns the key of id, or "NO_TECH".
func (r *Rules) TechKey(id TechType) string {
	if t := r.Tech(id); t != nil {
		return t.Key
	}
	return "NO_TECH"
}

// BuildingKey returns the key of id, or "NO_BUILDING".
func (r *Rules) BuildingKey(id BuildingType) string {
	if b := r.Building(id); b != nil {
		return b.Key
	}
	return "NO_BUILDING"
}

// UnitKey returns the key of id, or "NO_UNIT".
func (r *Rules) UnitKey(id UnitType) string {
	if u := r.Unit(id); u != nil {
		return u.Key
	}
	return "NO_UNIT"
}

// ProcessKey returns the key of id, or "NO_PROCESS".
func (r *Rules) ProcessKey(id ProcessType) string {
	if p := r.Process(id); p != nil {
		return p.Key
	}
	return "NO_PROCESS"
}

// CivicKey returns the key of id, or "NO_CIVIC".
func (r *Rules) CivicKey(id CivicType) string {
	if c := r.Civic(id); c != nil {
		return c.Key
	}
	return "NO_CIVIC"
}

// UnitsRequiringBonus lists units whose AND or OR resource prerequisites name b.
func (r *Rules) UnitsRequiringBonus(b BonusType) []UnitType {
	var out []UnitType
	for _, u := range r.Units {
		if containsBonus(u.AndBonuses, b) || containsBonus(u.OrBonuses, b) {
			out = append(out, u.ID)
		}
	}
	return out
}

// ImprovementConnecting returns the improvement that connects b, if any.
func (r *Rules) ImprovementConnecting(b BonusType) (ImprovementType, bool) {
	for _, imp := range r.Improvements {
		if containsBonus(imp.Bonuses, b) {
			return imp.ID, true
		}
	}
	return NoImprovement, false
}

// BonusTech returns the technology gating access to b: the tech needed by its
// connecting improvement, else its reveal tech.
func (r *Rules) BonusTech(b BonusType) TechType {
	if imp, ok := r.ImprovementConnecting(b); ok {
		if info := r.Improvement(imp); info.Tech != NoTech {
			return info.Tech
		}
	}
	if info := r.Resource(b); info != nil {
		return info.RevealTech
	}
	return NoTech
}

// GovernmentCenters lists buildings flagged as a government center.
func (r *Rules) GovernmentCenters() []BuildingType {
	var out []BuildingType
	for _, b := range r.Buildings {
		for _, n := range b.Nodes {
			if m, ok := n.(MiscEffectNode); ok && m.GovernmentCenter {
				out = append(out, b.ID)
				break
			}
		}
	}
	return out
}

func containsBonus(list []BonusType, b BonusType) bool {
	for _, x := range list {
		if x == b {
			return true
		}
	}
	return false
}
