package tactics

import (
	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/projection"
	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
)

// depList holds the preconditions of one container. Tech dependencies are
// kept apart because research selection buckets on them.
//
// When city is civ.NoCity the dependencies are evaluated civilization wide.
type depList struct {
	city civ.CityID
	deps []dependency.Dependency
	tech []dependency.Dependency
}

func newDepList(city civ.CityID, deps, tech []dependency.Dependency) depList {
	return depList{
		city: city,
		deps: append([]dependency.Dependency(nil), deps...),
		tech: append([]dependency.Dependency(nil), tech...),
	}
}

func (d *depList) required(p *civ.Player, dep dependency.Dependency, mask dependency.Mask) bool {
	if d.city == civ.NoCity {
		return dep.RequiredForPlayer(p, mask)
	}
	c, ok := p.City(d.city)
	if !ok {
		return dep.RequiredForPlayer(p, mask)
	}
	return dep.RequiredInCity(p, c, mask)
}

// prune drops satisfied removeable dependencies. Irremovable ones stay for
// re-checking on later turns.
func (d *depList) prune(p *civ.Player) {
	keep := func(list []dependency.Dependency) []dependency.Dependency {
		out := list[:0]
		for _, dep := range list {
			if dep.Removeable() && !d.required(p, dep, dependency.IgnoreNone) {
				continue
			}
			out = append(out, dep)
		}
		return out
	}
	d.deps = keep(d.deps)
	d.tech = keep(d.tech)
}

// satisfied reports whether no dependency is required under mask.
func (d *depList) satisfied(p *civ.Player, mask dependency.Mask) bool {
	for _, dep := range d.all() {
		if d.required(p, dep, mask) {
			return false
		}
	}
	return true
}

// items returns the key naming what mask ignored but is still unmet.
func (d *depList) items(p *civ.Player, mask dependency.Mask) dependency.ItemSet {
	var items []dependency.Item
	for _, dep := range d.all() {
		if !dep.Matches(mask) || !d.required(p, dep, dependency.IgnoreNone) {
			continue
		}
		items = append(items, dep.KeyItems(p, mask)...)
	}
	return dependency.NewItemSet(items...)
}

// unmet returns every dependency still required with no mask.
func (d *depList) unmet(p *civ.Player) []dependency.Dependency {
	var out []dependency.Dependency
	for _, dep := range d.all() {
		if d.required(p, dep, dependency.IgnoreNone) {
			out = append(out, dep)
		}
	}
	return out
}

// applyUnmet makes cd look as if every unmet dependency were satisfied.
func (d *depList) applyUnmet(p *civ.Player, cd *projection.CityData) int {
	n := 0
	for _, dep := range d.unmet(p) {
		dep.Apply(cd)
		n++
	}
	return n
}

func (d *depList) all() []dependency.Dependency {
	out := make([]dependency.Dependency, 0, len(d.deps)+len(d.tech))
	out = append(out, d.deps...)
	return append(out, d.tech...)
}
