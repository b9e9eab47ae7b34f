package output

import "fmt"

// Weights gives the relative worth of one unit of each category.
type Weights [NumCategories]float64

// DefaultWeights values food and production above commerce, as a growing
// civilization usually should.
var DefaultWeights = Weights{4, 3, 2, 2, 1, 1}

// ValueF collapses an Output into a single comparable value.
type ValueF func(Output) float64

// MakeValueF returns the weighted sum value function for w.
func MakeValueF(w Weights) ValueF {
	return func(o Output) float64 {
		total := 0.0
		for i, v := range o {
			total += w[i] * float64(v)
		}
		return total
	}
}

// DefaultValue scores o with DefaultWeights. It is the canonical comparator
// used to keep selection data ordered.
func DefaultValue(o Output) float64 {
	return MakeValueF(DefaultWeights)(o)
}

// OnlyWeights returns weights of 1 for the given categories and 0 elsewhere.
func OnlyWeights(categories ...Category) Weights {
	var w Weights
	for _, c := range categories {
		w[c] = 1
	}
	return w
}

// WeightsFromMap converts a name-keyed map to Weights, starting from base.
//
// Postcondition: returns an error naming the first unknown category.
func WeightsFromMap(base Weights, m map[string]float64) (Weights, error) {
	w := base
	for name, v := range m {
		c, ok := ParseCategory(name)
		if !ok {
			return Weights{}, fmt.Errorf("output.WeightsFromMap: unknown category %q", name)
		}
		w[c] = v
	}
	return w, nil
}

// Scale returns w multiplied by f.
func (w Weights) Scale(f float64) Weights {
	for i := range w {
		w[i] *= f
	}
	return w
}
