package tactics

import (
	"sort"

	"github.com/cory-johannsen/altai/internal/game/tactics/dependency"
)

type bucket struct {
	key  dependency.ItemSet
	data *SelectionData
}

// SelectionDataMap buckets selection data by the set of preconditions still
// missing for the tactics that contributed to it. The empty key holds what
// is available right now.
type SelectionDataMap struct {
	buckets map[string]*bucket
}

// NewSelectionDataMap returns an empty map.
func NewSelectionDataMap() *SelectionDataMap {
	return &SelectionDataMap{buckets: make(map[string]*bucket)}
}

// Get returns the bucket for key, creating it on first use.
func (m *SelectionDataMap) Get(key dependency.ItemSet) *SelectionData {
	k := key.Key()
	if b, ok := m.buckets[k]; ok {
		return b.data
	}
	b := &bucket{key: key, data: NewSelectionData()}
	m.buckets[k] = b
	return b.data
}

// Lookup returns the bucket for key without creating it.
func (m *SelectionDataMap) Lookup(key dependency.ItemSet) (*SelectionData, bool) {
	b, ok := m.buckets[key.Key()]
	if !ok {
		return nil, false
	}
	return b.data, true
}

// Erase removes the bucket for key.
func (m *SelectionDataMap) Erase(key dependency.ItemSet) {
	delete(m.buckets, key.Key())
}

// Len returns the number of buckets.
func (m *SelectionDataMap) Len() int { return len(m.buckets) }

// Keys returns every key in ascending ItemSet order.
func (m *SelectionDataMap) Keys() []dependency.ItemSet {
	keys := make([]dependency.ItemSet, 0, len(m.buckets))
	for _, b := range m.buckets {
		keys = append(keys, b.key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Each calls fn for every bucket in ascending key order.
func (m *SelectionDataMap) Each(fn func(key dependency.ItemSet, sd *SelectionData)) {
	for _, k := range m.Keys() {
		fn(k, m.buckets[k.Key()].data)
	}
}
