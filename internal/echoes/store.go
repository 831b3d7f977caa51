package echoes

import (
	"sort"
	"time"

	"voxelscan.ai/internal/clock"
	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/ids"
	"voxelscan.ai/internal/pixel"
)

const (
	DefaultCapacity = 100
	DefaultLifetime = 10 * time.Second
)

// Store is the bounded echo cache. It keeps at most one echo per position
// and never more than its capacity; the oldest echoes go first.
//
// States live in one slice kept in store order, with a position index on
// the side. Not safe for concurrent use.
type Store struct {
	capacity int
	lifetime time.Duration
	clock    clock.Clock

	states []State
	index  map[geom.Vec3]int
}

func NewStore(capacity int, lifetime time.Duration, c clock.Clock) *Store {
	if c == nil {
		c = clock.System{}
	}
	return &Store{
		capacity: capacity,
		lifetime: lifetime,
		clock:    c,
		index:    make(map[geom.Vec3]int),
	}
}

func (s *Store) Len() int                { return len(s.states) }
func (s *Store) Capacity() int           { return s.capacity }
func (s *Store) Lifetime() time.Duration { return s.lifetime }

// Insert records echo at pos, stamped with the current time. An older echo
// at the same position is replaced; when the store is full the oldest
// echoes make room.
func (s *Store) Insert(pos geom.Vec3, echo Echo) State {
	if i, ok := s.index[pos]; ok {
		s.removeAt(i)
	}
	st := NewState(pos, echo, s.clock.NowMillis())
	if s.capacity <= 0 {
		s.truncate(0)
		return st
	}
	s.truncate(s.capacity - 1)

	at := sort.Search(len(s.states), func(i int) bool { return s.states[i].Compare(st) > 0 })
	s.states = append(s.states, State{})
	copy(s.states[at+1:], s.states[at:])
	s.states[at] = st
	s.reindex(at)
	return st
}

// Refresh changes the capacity, evicting the oldest echoes that no longer
// fit.
func (s *Store) Refresh(capacity int) {
	s.capacity = capacity
	s.truncate(max(capacity, 0))
}

func (s *Store) RefreshLifetime(lifetime time.Duration) { s.lifetime = lifetime }

// RemoveWhere evicts every echo matching pred and reports whether any were.
func (s *Store) RemoveWhere(pred func(State) bool) bool {
	kept := s.states[:0]
	for _, st := range s.states {
		if !pred(st) {
			kept = append(kept, st)
		}
	}
	removed := len(kept) != len(s.states)
	for i := len(kept); i < len(s.states); i++ {
		s.states[i] = State{}
	}
	s.states = kept
	if removed {
		s.index = make(map[geom.Vec3]int, len(s.states))
		s.reindex(0)
	}
	return removed
}

// Lookup reports what the world holds at a position: the id and true, or
// false for air and unloaded voxels.
type Lookup func(pos geom.Vec3) (ids.ID, bool)

// OldEchoes matches echoes at least one lifetime old at now and, when
// lookup is set, echoes whose position no longer holds the recorded block.
func (s *Store) OldEchoes(now int64, lookup Lookup) func(State) bool {
	lifetime := s.lifetime.Milliseconds()
	return func(st State) bool {
		if now-st.PingTime >= lifetime {
			return true
		}
		if lookup == nil {
			return false
		}
		id, ok := lookup(st.Pos)
		return !ok || id != st.Echo.ID
	}
}

// Expire drops echoes older than the lifetime.
func (s *Store) Expire() bool {
	return s.RemoveWhere(s.OldEchoes(s.clock.NowMillis(), nil))
}

func (s *Store) Get(pos geom.Vec3) (State, bool) {
	i, ok := s.index[pos]
	if !ok {
		return State{}, false
	}
	return s.states[i], true
}

// All copies the echoes in store order.
func (s *Store) All() []State {
	out := make([]State, len(s.states))
	copy(out, s.states)
	return out
}

// Snapshot copies the echoes in store order with mesh bits reset, ready to
// be grouped.
func (s *Store) Snapshot() []State {
	out := s.All()
	for i := range out {
		out[i].Sides = pixel.AllSides
		out[i].Edges = 0
	}
	return out
}

func (s *Store) Each(fn func(State) bool) {
	for _, st := range s.states {
		if !fn(st) {
			return
		}
	}
}

// truncate evicts from the oldest end until at most n echoes remain.
func (s *Store) truncate(n int) {
	if len(s.states) <= n {
		return
	}
	drop := len(s.states) - n
	for _, st := range s.states[:drop] {
		delete(s.index, st.Pos)
	}
	s.states = append(s.states[:0], s.states[drop:]...)
	s.reindex(0)
}

func (s *Store) removeAt(i int) {
	delete(s.index, s.states[i].Pos)
	s.states = append(s.states[:i], s.states[i+1:]...)
	s.reindex(i)
}

func (s *Store) reindex(from int) {
	for i := from; i < len(s.states); i++ {
		s.index[s.states[i].Pos] = i
	}
}
