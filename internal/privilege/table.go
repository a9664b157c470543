package privilege

import (
	"maps"
	"slices"
	"time"
)

// Levels is a table of explicitly configured privilege values. A privilege
// missing from the table is "not defined here" and resolution moves on to the
// next, less specific layer.
type Levels[P Privilege] struct {
	values map[P]Value
}

// Get returns the level configured for p and whether one is configured.
func (l *Levels[P]) Get(p P) (Value, bool) {
	v, ok := l.values[p]
	return v, ok
}

// Set configures p. It returns the previous value, if any.
func (l *Levels[P]) Set(p P, v Value) (Value, bool) {
	if l.values == nil {
		l.values = make(map[P]Value)
	}
	old, ok := l.values[p]
	l.values[p] = v
	return old, ok
}

// Clear removes p from the table.
func (l *Levels[P]) Clear(p P) {
	delete(l.values, p)
}

// Len returns the number of configured privileges.
func (l *Levels[P]) Len() int {
	return len(l.values)
}

// Entries returns the configured privileges ordered by enumeration value.
func (l *Levels[P]) Entries() []Entry[P] {
	keys := slices.Sorted(maps.Keys(l.values))
	out := make([]Entry[P], 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry[P]{Privilege: k, Value: l.values[k]})
	}
	return out
}

// Merge copies every entry of other that is not configured in l.
func (l *Levels[P]) Merge(other *Levels[P]) {
	for p, v := range other.values {
		if _, ok := l.values[p]; !ok {
			l.Set(p, v)
		}
	}
}

// Entry is a single row of a Levels table.
type Entry[P Privilege] struct {
	Privilege P     `json:"privilege"`
	Value     Value `json:"value"`
}

// Durations holds default durations keyed by a duration enumeration. A zero
// duration means "unlimited" and is stored like any other value.
type Durations[D ~uint8] struct {
	values map[D]time.Duration
}

func (d *Durations[D]) Get(key D) (time.Duration, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *Durations[D]) Set(key D, v time.Duration) {
	if d.values == nil {
		d.values = make(map[D]time.Duration)
	}
	d.values[key] = v
}

func (d *Durations[D]) Len() int {
	return len(d.values)
}

// Each calls fn for every configured duration, in key order.
func (d *Durations[D]) Each(fn func(D, time.Duration)) {
	for _, k := range slices.Sorted(maps.Keys(d.values)) {
		fn(k, d.values[k])
	}
}

// RequiresIdentity reports whether the anonymous user is refused p unless a
// forum-wide grant for the anonymous marker says otherwise. Everything that
// writes, votes or subscribes requires identity; plain reads do not.
func RequiresIdentity(k Key) bool {
	switch k.Scope {
	case ScopeMessage:
		switch Message(k.Kind) {
		case MessageView, MessageViewCreatorUser, MessageViewVotes, MessageGetComments:
			return false
		}
		return true
	case ScopeThread:
		return Thread(k.Kind) != ThreadView
	case ScopeTag:
		switch Tag(k.Kind) {
		case TagView, TagGetDiscussionThreads:
			return false
		}
		return true
	case ScopeCategory:
		switch Category(k.Kind) {
		case CategoryView, CategoryGetDiscussionThreads:
			return false
		}
		return true
	case ScopeForumWide:
		switch ForumWide(k.Kind) {
		case ForumWideAddUser, ForumWideLogin, ForumWideGetEntitiesCount, ForumWideGetVersion,
			ForumWideGetAllUsers, ForumWideGetUserInfo, ForumWideGetDiscussionThreadsOfUser,
			ForumWideGetDiscussionThreadMessagesOfUser, ForumWideGetAllDiscussionCategories,
			ForumWideGetDiscussionCategoriesFromRoot, ForumWideGetAllDiscussionTags,
			ForumWideGetAllDiscussionThreads, ForumWideGetAllMessageComments,
			ForumWideGetMessageCommentsOfUser, ForumWideGetAllAttachments,
			ForumWideGetAttachmentsOfUser, ForumWideViewAttachment:
			return false
		}
		return true
	}
	return true
}
