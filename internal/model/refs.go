package model

import (
	"maps"
	"slices"
	"sort"
	"time"
)

// Ref points at another entity and remembers the timestamp it is ordered by.
type Ref struct {
	ID ID
	At time.Time
}

// RefList is a list of references kept sorted by At. References with equal
// timestamps keep their insertion order.
type RefList struct {
	refs []Ref
}

// Insert adds ref after every reference that does not sort after it.
func (l *RefList) Insert(ref Ref) {
	i := sort.Search(len(l.refs), func(i int) bool {
		return l.refs[i].At.After(ref.At)
	})
	l.refs = slices.Insert(l.refs, i, ref)
}

// Remove deletes the reference to id and reports whether it was present.
func (l *RefList) Remove(id ID) bool {
	i := slices.IndexFunc(l.refs, func(r Ref) bool { return r.ID == id })
	if i < 0 {
		return false
	}
	l.refs = slices.Delete(l.refs, i, i+1)
	return true
}

// Contains reports whether id is referenced.
func (l *RefList) Contains(id ID) bool {
	return slices.ContainsFunc(l.refs, func(r Ref) bool { return r.ID == id })
}

// Len returns the number of references.
func (l *RefList) Len() int {
	return len(l.refs)
}

// IDs returns the referenced ids in order. The slice is a copy.
func (l *RefList) IDs() []ID {
	out := make([]ID, len(l.refs))
	for i, r := range l.refs {
		out[i] = r.ID
	}
	return out
}

// First returns the earliest reference.
func (l *RefList) First() (Ref, bool) {
	if len(l.refs) == 0 {
		return Ref{}, false
	}
	return l.refs[0], true
}

// Last returns the latest reference.
func (l *RefList) Last() (Ref, bool) {
	if len(l.refs) == 0 {
		return Ref{}, false
	}
	return l.refs[len(l.refs)-1], true
}

// Refs returns a copy of the references in order.
func (l *RefList) Refs() []Ref {
	return slices.Clone(l.refs)
}

// Page returns the ids of one page counted from the start (ascending) or the
// end (descending), together with the total count.
func (l *RefList) Page(page, size int, ascending bool) ([]ID, int) {
	total := len(l.refs)
	start, end := Window(total, page, size)
	out := make([]ID, 0, end-start)
	for i := start; i < end; i++ {
		if ascending {
			out = append(out, l.refs[i].ID)
		} else {
			out = append(out, l.refs[total-1-i].ID)
		}
	}
	return out, total
}

// Window computes the clamped [start, end) bounds of page number page with
// the given size over total items. Invalid pages yield an empty window.
func Window(total, page, size int) (int, int) {
	if page < 0 || size <= 0 {
		return 0, 0
	}
	start := page * size
	if start >= total || start < 0 {
		return total, total
	}
	end := start + size
	if end > total || end < 0 {
		end = total
	}
	return start, end
}

// IDSet is an unordered set of ids.
type IDSet map[ID]struct{}

// Add inserts id and reports whether it was new.
func (s *IDSet) Add(id ID) bool {
	if *s == nil {
		*s = make(IDSet)
	}
	if _, ok := (*s)[id]; ok {
		return false
	}
	(*s)[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether it was present.
func (s IDSet) Remove(id ID) bool {
	if _, ok := s[id]; !ok {
		return false
	}
	delete(s, id)
	return true
}

func (s IDSet) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in id order so iteration is deterministic.
func (s IDSet) Sorted() []ID {
	out := slices.Collect(maps.Keys(s))
	slices.SortFunc(out, ID.Compare)
	return out
}
