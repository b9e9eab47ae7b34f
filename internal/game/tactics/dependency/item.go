package dependency

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cory-johannsen/altai/internal/game/rules"
)

// Item is a flattened (kind, parameter) key for one precondition.
type Item struct {
	Kind  Kind
	Param int
}

// NoDependencyItem marks "no precondition".
var NoDependencyItem = Item{Kind: NoDependency, Param: -1}

// Compare orders items by kind, then parameter.
func (i Item) Compare(o Item) int {
	switch {
	case i.Kind < o.Kind:
		return -1
	case i.Kind > o.Kind:
		return 1
	case i.Param < o.Param:
		return -1
	case i.Param > o.Param:
		return 1
	}
	return 0
}

func (i Item) String() string {
	return fmt.Sprintf("%s(%d)", i.Kind, i.Param)
}

// ItemSet is a canonical, sorted, duplicate-free set of Items. The zero value
// is the empty set, meaning "immediately applicable".
//
// Invariant: items is strictly ascending and never holds NoDependencyItem.
type ItemSet struct {
	items []Item
}

// NewItemSet builds the canonical set of items. Insertion order does not
// matter and NoDependencyItem is dropped.
func NewItemSet(items ...Item) ItemSet {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it != NoDependencyItem {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Compare(out[b]) < 0 })
	n := 0
	for i, it := range out {
		if i > 0 && it == out[n-1] {
			continue
		}
		out[n] = it
		n++
	}
	if n == 0 {
		return ItemSet{}
	}
	return ItemSet{items: out[:n]}
}

// Items returns a copy of the set's items in ascending order.
func (s ItemSet) Items() []Item {
	return append([]Item(nil), s.items...)
}

// Len returns the number of items.
func (s ItemSet) Len() int { return len(s.items) }

// Empty reports whether the set has no preconditions.
func (s ItemSet) Empty() bool { return len(s.items) == 0 }

// Contains reports whether it is in the set.
func (s ItemSet) Contains(it Item) bool {
	i := sort.Search(len(s.items), func(i int) bool { return s.items[i].Compare(it) >= 0 })
	return i < len(s.items) && s.items[i] == it
}

// Union returns the set holding the items of both.
func (s ItemSet) Union(o ItemSet) ItemSet {
	return NewItemSet(append(s.Items(), o.items...)...)
}

// Compare orders sets by size first, then lexicographically by item.
func (s ItemSet) Compare(o ItemSet) int {
	if len(s.items) != len(o.items) {
		if len(s.items) < len(o.items) {
			return -1
		}
		return 1
	}
	for i := range s.items {
		if c := s.items[i].Compare(o.items[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Less reports whether s sorts before o.
func (s ItemSet) Less(o ItemSet) bool { return s.Compare(o) < 0 }

// Equal reports whether both sets hold the same items.
func (s ItemSet) Equal(o ItemSet) bool { return s.Compare(o) == 0 }

// Key returns a string that uniquely identifies the set, for use as a map key.
func (s ItemSet) Key() string {
	var b strings.Builder
	for i, it := range s.items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(it.Kind)))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(it.Param))
	}
	return b.String()
}

// SingleTech returns the tech when the set is exactly one ResearchTech item.
func (s ItemSet) SingleTech() (rules.TechType, bool) {
	if len(s.items) != 1 || s.items[0].Kind != ResearchTech {
		return rules.NoTech, false
	}
	return rules.TechType(s.items[0].Param), true
}

func (s ItemSet) String() string {
	if s.Empty() {
		return "{}"
	}
	parts := make([]string, len(s.items))
	for i, it := range s.items {
		parts[i] = it.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
