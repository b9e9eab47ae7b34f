// Package output defines the per-category yield vector shared by the projection
// engine and the tactics scorer, plus the value functions that collapse it to a
// single comparable number.
package output

import (
	"fmt"
	"strings"
)

// Category identifies one output type. The order is fixed; every Output,
// Weights and serialized vector uses it.
type Category int

// Output categories.
const (
	Food Category = iota
	Production
	Gold
	Research
	Culture
	Espionage

	NumCategories = 6
)

var categoryNames = [NumCategories]string{"food", "production", "gold", "research", "culture", "espionage"}

// String returns the lower-case category name.
func (c Category) String() string {
	if c < 0 || int(c) >= NumCategories {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory maps a lower-case name back to its Category.
//
// Postcondition: returns false for unknown names.
func ParseCategory(name string) (Category, bool) {
	for i, n := range categoryNames {
		if n == strings.ToLower(name) {
			return Category(i), true
		}
	}
	return 0, false
}

// AllCategories lists every category in canonical order.
func AllCategories() []Category {
	return []Category{Food, Production, Gold, Research, Culture, Espionage}
}

// CommerceCategories lists the categories produced from commerce.
func CommerceCategories() []Category {
	return []Category{Gold, Research, Culture, Espionage}
}

// Output is a fixed-size vector of per-category amounts (TotalOutput).
type Output [NumCategories]int

// New builds an Output from positional values in canonical order; missing
// trailing values are zero.
func New(values ...int) Output {
	var o Output
	copy(o[:], values)
	return o
}

// Get returns the amount for c.
func (o Output) Get(c Category) int { return o[c] }

// With returns a copy of o with c set to v.
func (o Output) With(c Category, v int) Output {
	o[c] = v
	return o
}

// Add returns o + other.
func (o Output) Add(other Output) Output {
	for i := range o {
		o[i] += other[i]
	}
	return o
}

// Sub returns o - other.
func (o Output) Sub(other Output) Output {
	for i := range o {
		o[i] -= other[i]
	}
	return o
}

// Mul returns o with every component multiplied by n.
func (o Output) Mul(n int) Output {
	for i := range o {
		o[i] *= n
	}
	return o
}

// Div returns o with every component divided by n (truncating).
//
// Precondition: n != 0.
func (o Output) Div(n int) Output {
	for i := range o {
		o[i] /= n
	}
	return o
}

// ApplyPercent returns o scaled component-wise by (100 + modifier[c]) / 100.
func (o Output) ApplyPercent(modifier Output) Output {
	for i := range o {
		o[i] = o[i] * (100 + modifier[i]) / 100
	}
	return o
}

// Sum returns the total across all categories.
func (o Output) Sum() int {
	total := 0
	for _, v := range o {
		total += v
	}
	return total
}

// SumOf returns the total across the given categories.
func (o Output) SumOf(categories []Category) int {
	total := 0
	for _, c := range categories {
		total += o[c]
	}
	return total
}

// IsZero reports whether every component is zero.
func (o Output) IsZero() bool {
	return o == Output{}
}

// AnyPositive reports whether any of the given categories is positive. An
// empty category list checks every category.
func (o Output) AnyPositive(categories []Category) bool {
	if len(categories) == 0 {
		categories = AllCategories()
	}
	for _, c := range categories {
		if o[c] > 0 {
			return true
		}
	}
	return false
}

// String renders o as "food=1 production=2 ...", omitting zeros.
func (o Output) String() string {
	var parts []string
	for i, v := range o {
		if v != 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", categoryNames[i], v))
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " ")
}

// FromMap converts a name-keyed map (as found in YAML rule files) to an Output.
//
// Postcondition: returns an error naming the first unknown category.
func FromMap(m map[string]int) (Output, error) {
	var o Output
	for name, v := range m {
		c, ok := ParseCategory(name)
		if !ok {
			return Output{}, fmt.Errorf("output.FromMap: unknown category %q", name)
		}
		o[c] = v
	}
	return o, nil
}
