// Package collection implements the in-memory multi-index container used for
// every entity kind.
//
// A Set owns the members and a by-id map. Any number of Index views can be
// attached to it; each keeps the members sorted by its own key and is updated
// together with the Set on Insert, Remove and Reindex, so every view always
// holds exactly the members of the by-id map.
//
// Members with equal keys are ordered by insertion sequence, which makes every
// listing deterministic.
//
// Neither Set nor Index is safe for concurrent use. internal/store serialises
// access with a single RWMutex.
package collection

import (
	"errors"
	"slices"
)

// ErrExists is returned when an insert or re-key would duplicate an id or a
// key of a unique index.
var ErrExists = errors.New("already exists")

// Indexer is the part of an Index a Set drives. It is implemented by *Index.
type Indexer[T any] interface {
	Name() string
	Len() int

	insert(item T, seq uint64)
	remove(seq uint64)
	conflicts(item T, seq uint64) bool
	stale(item T, seq uint64) bool
}

type member[T any] struct {
	item T
	seq  uint64
}

// Set is the primary store of one entity kind, keyed by I.
type Set[I comparable, T any] struct {
	idOf    func(T) I
	members map[I]*member[T]
	indices []Indexer[T]
	next    uint64
}

// New creates an empty Set. idOf extracts the primary id of a member.
func New[I comparable, T any](idOf func(T) I) *Set[I, T] {
	return &Set[I, T]{
		idOf:    idOf,
		members: make(map[I]*member[T]),
	}
}

// Attach registers ix with the set. Members already present are indexed.
func (s *Set[I, T]) Attach(ix Indexer[T]) {
	for _, m := range s.ordered() {
		ix.insert(m.item, m.seq)
	}
	s.indices = append(s.indices, ix)
}

// Insert adds item to the set and to every index. It fails without any change
// when the id is present or a unique index already holds an equal key.
func (s *Set[I, T]) Insert(item T) error {
	id := s.idOf(item)
	if _, ok := s.members[id]; ok {
		return ErrExists
	}
	s.next++
	seq := s.next
	for _, ix := range s.indices {
		if ix.conflicts(item, seq) {
			return ErrExists
		}
	}
	s.members[id] = &member[T]{item: item, seq: seq}
	for _, ix := range s.indices {
		ix.insert(item, seq)
	}
	return nil
}

// Remove deletes the member with the given id from the set and every index.
func (s *Set[I, T]) Remove(id I) (T, bool) {
	m, ok := s.members[id]
	if !ok {
		var zero T
		return zero, false
	}
	for _, ix := range s.indices {
		ix.remove(m.seq)
	}
	delete(s.members, id)
	return m.item, true
}

// Get returns the member with the given id.
func (s *Set[I, T]) Get(id I) (T, bool) {
	m, ok := s.members[id]
	if !ok {
		var zero T
		return zero, false
	}
	return m.item, true
}

// Has reports whether id is a member.
func (s *Set[I, T]) Has(id I) bool {
	_, ok := s.members[id]
	return ok
}

// Len returns the number of members.
func (s *Set[I, T]) Len() int {
	return len(s.members)
}

// CanReindex reports whether the member could be re-keyed after a change
// without breaking a unique index. Call it before mutating the member.
func (s *Set[I, T]) CanReindex(id I, candidate T) bool {
	m, ok := s.members[id]
	if !ok {
		return false
	}
	for _, ix := range s.indices {
		if ix.conflicts(candidate, m.seq) {
			return false
		}
	}
	return true
}

// Reindex repositions the member in the given indices (all indices when none
// are given) after one of its sort keys changed. Indices whose key did not
// change are left alone.
func (s *Set[I, T]) Reindex(id I, only ...Indexer[T]) {
	m, ok := s.members[id]
	if !ok {
		return
	}
	targets := only
	if len(targets) == 0 {
		targets = s.indices
	}
	for _, ix := range targets {
		if !ix.stale(m.item, m.seq) {
			continue
		}
		ix.remove(m.seq)
		ix.insert(m.item, m.seq)
	}
}

// All returns every member in insertion order.
func (s *Set[I, T]) All() []T {
	ordered := s.ordered()
	out := make([]T, len(ordered))
	for i, m := range ordered {
		out[i] = m.item
	}
	return out
}

// Sequence returns the insertion sequence of a member, 0 when absent.
func (s *Set[I, T]) Sequence(id I) uint64 {
	if m, ok := s.members[id]; ok {
		return m.seq
	}
	return 0
}

func (s *Set[I, T]) ordered() []*member[T] {
	out := make([]*member[T], 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *member[T]) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	return out
}
