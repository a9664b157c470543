package collection

import (
	"slices"
	"sort"

	"github.com/sakif/forum/internal/model"
)

type slot[T any, K any] struct {
	key  K
	seq  uint64
	item T
}

// Index is a sorted view over the members of a Set.
//
// The index remembers the key every member was inserted under. A member whose
// key changed in place is still found (and removed) under its old key, so
// callers only have to call Set.Reindex after the change.
type Index[T any, K any] struct {
	name   string
	key    func(T) K
	cmp    func(a, b K) int
	unique bool
	slots  []slot[T, K]
	keys   map[uint64]K
}

// NewIndex creates an index ordered by key using cmp.
func NewIndex[T any, K any](name string, key func(T) K, cmp func(a, b K) int) *Index[T, K] {
	return &Index[T, K]{
		name: name,
		key:  key,
		cmp:  cmp,
		keys: make(map[uint64]K),
	}
}

// NewUniqueIndex is like NewIndex but refuses members with equal keys.
func NewUniqueIndex[T any, K any](name string, key func(T) K, cmp func(a, b K) int) *Index[T, K] {
	ix := NewIndex(name, key, cmp)
	ix.unique = true
	return ix
}

func (ix *Index[T, K]) Name() string { return ix.name }
func (ix *Index[T, K]) Len() int     { return len(ix.slots) }

// search returns the position of the first slot not ordered before (key, seq).
func (ix *Index[T, K]) search(key K, seq uint64) int {
	return sort.Search(len(ix.slots), func(i int) bool {
		s := ix.slots[i]
		if c := ix.cmp(s.key, key); c != 0 {
			return c > 0
		}
		return s.seq >= seq
	})
}

func (ix *Index[T, K]) insert(item T, seq uint64) {
	key := ix.key(item)
	i := ix.search(key, seq)
	ix.slots = slices.Insert(ix.slots, i, slot[T, K]{key: key, seq: seq, item: item})
	ix.keys[seq] = key
}

func (ix *Index[T, K]) remove(seq uint64) {
	key, ok := ix.keys[seq]
	if !ok {
		return
	}
	i := ix.search(key, seq)
	if i < len(ix.slots) && ix.slots[i].seq == seq {
		ix.slots = slices.Delete(ix.slots, i, i+1)
	}
	delete(ix.keys, seq)
}

func (ix *Index[T, K]) conflicts(item T, seq uint64) bool {
	if !ix.unique {
		return false
	}
	key := ix.key(item)
	for i := ix.search(key, 0); i < len(ix.slots); i++ {
		s := ix.slots[i]
		if ix.cmp(s.key, key) != 0 {
			return false
		}
		if s.seq != seq {
			return true
		}
	}
	return false
}

func (ix *Index[T, K]) stale(item T, seq uint64) bool {
	old, ok := ix.keys[seq]
	if !ok {
		return true
	}
	return ix.cmp(old, ix.key(item)) != 0
}

// Find returns the first member whose key equals key.
func (ix *Index[T, K]) Find(key K) (T, bool) {
	i := ix.search(key, 0)
	if i < len(ix.slots) && ix.cmp(ix.slots[i].key, key) == 0 {
		return ix.slots[i].item, true
	}
	var zero T
	return zero, false
}

// Page returns one page of members and the total member count. Pages are
// counted from the smallest key when ascending and from the largest key
// otherwise.
func (ix *Index[T, K]) Page(page, size int, ascending bool) ([]T, int) {
	total := len(ix.slots)
	start, end := model.Window(total, page, size)
	out := make([]T, 0, end-start)
	for i := start; i < end; i++ {
		if ascending {
			out = append(out, ix.slots[i].item)
		} else {
			out = append(out, ix.slots[total-1-i].item)
		}
	}
	return out, total
}

// Ascend calls fn for each member from the smallest key until fn returns false.
func (ix *Index[T, K]) Ascend(fn func(T) bool) {
	for _, s := range ix.slots {
		if !fn(s.item) {
			return
		}
	}
}

// Descend calls fn for each member from the largest key until fn returns false.
func (ix *Index[T, K]) Descend(fn func(T) bool) {
	for i := len(ix.slots) - 1; i >= 0; i-- {
		if !fn(ix.slots[i].item) {
			return
		}
	}
}

// Items returns all members in ascending key order.
func (ix *Index[T, K]) Items() []T {
	out := make([]T, len(ix.slots))
	for i, s := range ix.slots {
		out[i] = s.item
	}
	return out
}

// PageSorted sorts a copy of items with cmp and returns one page of it, using
// the same paging rules as Index.Page. It serves small relation sets that do
// not warrant a maintained index.
func PageSorted[T any](items []T, cmp func(a, b T) int, page, size int, ascending bool) ([]T, int) {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, cmp)
	total := len(sorted)
	start, end := model.Window(total, page, size)
	out := make([]T, 0, end-start)
	for i := start; i < end; i++ {
		if ascending {
			out = append(out, sorted[i])
		} else {
			out = append(out, sorted[total-1-i])
		}
	}
	return out, total
}
