package projection

// Handle names a snapshot owned by an Arena.
type Handle int

// NoHandle is never returned by Scratch.
const NoHandle Handle = -1

// Arena owns scratch snapshots. A caller takes a Scratch handle, mutates the
// snapshot freely and Releases the handle before returning; nothing else may
// keep a reference to it.
//
// Arena is not safe for concurrent use; each player context owns one.
type Arena struct {
	slots []*CityData
	free  []Handle
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Scratch stores a deep copy of src and returns its handle.
//
// Postcondition: Get(h) returns a snapshot that shares no state with src.
func (a *Arena) Scratch(src *CityData) Handle {
	cp := src.Clone()
	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[h] = cp
		return h
	}
	a.slots = append(a.slots, cp)
	return Handle(len(a.slots) - 1)
}

// Get returns the snapshot for h, or nil when h is unknown or released.
func (a *Arena) Get(h Handle) *CityData {
	if h < 0 || int(h) >= len(a.slots) {
		return nil
	}
	return a.slots[h]
}

// Release discards the snapshot for h. Releasing twice is a no-op.
func (a *Arena) Release(h Handle) {
	if a.Get(h) == nil {
		return
	}
	a.slots[h] = nil
	a.free = append(a.free, h)
}

// InUse reports how many handles are live.
func (a *Arena) InUse() int {
	return len(a.slots) - len(a.free)
}
