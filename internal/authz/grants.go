// Package authz resolves privilege levels for a (user, entity, privilege)
// triple.
//
// RESOLUTION ORDER:
//
//  1. Layered levels: the most specific entity that configures the privilege
//     wins (message, then thread, then the thread's tags, then forum-wide).
//     Nothing configured anywhere resolves to 0.
//  2. Grants: if the user holds any unexpired grant for the privilege on the
//     entity itself or forum-wide, the lowest such value replaces the layered
//     one. A negative grant therefore always beats a positive one.
//  3. A final value <= 0 denies.
//
// On top of that, the anonymous user is refused every privilege that needs
// an identity unless a forum-wide grant to the anonymous marker allows it,
// creators always see their own content, and time-limited privileges (edit
// or delete own message, reset own vote, rename or delete own thread) only
// hold for the owner within the configured window.
//
// The package keeps no lock of its own. The Engine is owned by the entity
// store and only used under its RWMutex.
package authz

import (
	"slices"
	"sort"
	"time"

	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/privilege"
)

// Grant is an explicit privilege value assigned to one user.
type Grant struct {
	User      model.ID        `json:"userId"`
	Entity    model.ID        `json:"entityId"` // zero for forum-wide grants
	Privilege privilege.Key   `json:"-"`
	Value     privilege.Value `json:"value"`
	GrantedAt time.Time       `json:"grantedAt"`
	ExpiresAt time.Time       `json:"expiresAt"` // zero means never
}

// ValidAt reports whether the grant is in effect at now. A grant whose expiry
// equals now has already expired.
func (g Grant) ValidAt(now time.Time) bool {
	return g.ExpiresAt.IsZero() || g.ExpiresAt.After(now)
}

type grantKey struct {
	user   model.ID
	entity model.ID
	priv   privilege.Key
}

// GrantStore holds every explicit grant. Grants with an expiry are also kept
// in a list sorted by expiry so SweepExpired only looks at the expired front.
type GrantStore struct {
	grants   map[grantKey][]Grant
	byUser   map[model.ID]map[grantKey]struct{}
	byEntity map[model.ID]map[grantKey]struct{}
	temporal []Grant
}

// NewGrantStore creates an empty store.
func NewGrantStore() *GrantStore {
	return &GrantStore{
		grants:   make(map[grantKey][]Grant),
		byUser:   make(map[model.ID]map[grantKey]struct{}),
		byEntity: make(map[model.ID]map[grantKey]struct{}),
	}
}

func keyOf(g Grant) grantKey {
	return grantKey{user: g.User, entity: g.Entity, priv: g.Privilege}
}

// Add stores g. Several grants may exist for the same key.
func (s *GrantStore) Add(g Grant) {
	k := keyOf(g)
	s.grants[k] = append(s.grants[k], g)
	link(s.byUser, g.User, k)
	if !g.Entity.IsZero() {
		link(s.byEntity, g.Entity, k)
	}
	if !g.ExpiresAt.IsZero() {
		position := sort.Search(len(s.temporal), func(i int) bool {
			return s.temporal[i].ExpiresAt.After(g.ExpiresAt)
		})
		s.temporal = slices.Insert(s.temporal, position, g)
	}
}

func link(index map[model.ID]map[grantKey]struct{}, id model.ID, k grantKey) {
	keys, ok := index[id]
	if !ok {
		keys = make(map[grantKey]struct{})
		index[id] = keys
	}
	keys[k] = struct{}{}
}

// Lowest returns the lowest value among grants valid at now for the given
// user, entity and privilege.
func (s *GrantStore) Lowest(user, entity model.ID, p privilege.Key, now time.Time) (privilege.Value, bool) {
	var (
		lowest privilege.Value
		found  bool
	)
	for _, g := range s.grants[grantKey{user: user, entity: entity, priv: p}] {
		if !g.ValidAt(now) {
			continue
		}
		if !found || g.Value < lowest {
			lowest = g.Value
			found = true
		}
	}
	return lowest, found
}

// ForUser returns every grant held by user, ordered by grant time.
func (s *GrantStore) ForUser(user model.ID) []Grant {
	var out []Grant
	for k := range s.byUser[user] {
		out = append(out, s.grants[k]...)
	}
	slices.SortFunc(out, func(a, b Grant) int { return a.GrantedAt.Compare(b.GrantedAt) })
	return out
}

// RevokeUser drops every grant naming user and returns how many were removed.
func (s *GrantStore) RevokeUser(user model.ID) int {
	removed := 0
	for k := range s.byUser[user] {
		removed += s.drop(k)
	}
	delete(s.byUser, user)
	return removed
}

// RevokeEntity drops every grant that targets entity.
func (s *GrantStore) RevokeEntity(entity model.ID) int {
	removed := 0
	for k := range s.byEntity[entity] {
		removed += s.drop(k)
	}
	delete(s.byEntity, entity)
	return removed
}

func (s *GrantStore) drop(k grantKey) int {
	n := len(s.grants[k])
	delete(s.grants, k)
	if keys, ok := s.byUser[k.user]; ok {
		delete(keys, k)
	}
	if keys, ok := s.byEntity[k.entity]; ok {
		delete(keys, k)
	}
	s.temporal = slices.DeleteFunc(s.temporal, func(g Grant) bool { return keyOf(g) == k })
	return n
}

// SweepExpired removes grants that are no longer valid at now and returns how
// many were removed.
func (s *GrantStore) SweepExpired(now time.Time) int {
	expired := 0
	for _, g := range s.temporal {
		if g.ValidAt(now) {
			break
		}
		expired++
	}
	if expired == 0 {
		return 0
	}
	for _, g := range s.temporal[:expired] {
		k := keyOf(g)
		s.grants[k] = slices.DeleteFunc(s.grants[k], func(other Grant) bool {
			return !other.ExpiresAt.IsZero() && !other.ValidAt(now)
		})
		if len(s.grants[k]) == 0 {
			delete(s.grants, k)
			if keys, ok := s.byUser[k.user]; ok {
				delete(keys, k)
			}
			if keys, ok := s.byEntity[k.entity]; ok {
				delete(keys, k)
			}
		}
	}
	s.temporal = slices.Delete(s.temporal, 0, expired)
	return expired
}

// Len returns the total number of stored grants.
func (s *GrantStore) Len() int {
	n := 0
	for _, gs := range s.grants {
		n += len(gs)
	}
	return n
}
