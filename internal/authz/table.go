package authz

import (
	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/privilege"
)

// Table addresses the level tables carried by one entity through a
// privilege.Key. Scopes the entity cannot configure are nil.
type Table struct {
	Messages   *privilege.Levels[privilege.Message]
	Threads    *privilege.Levels[privilege.Thread]
	Tags       *privilege.Levels[privilege.Tag]
	Categories *privilege.Levels[privilege.Category]
	ForumWide  *privilege.Levels[privilege.ForumWide]
}

func MessageTable(m *model.Message) Table {
	return Table{Messages: &m.Levels}
}

func ThreadTable(t *model.Thread) Table {
	return Table{Messages: &t.MessageLevels, Threads: &t.ThreadLevels}
}

func TagTable(tag *model.Tag) Table {
	return Table{Messages: &tag.MessageLevels, Threads: &tag.ThreadLevels, Tags: &tag.TagLevels}
}

func CategoryTable(c *model.Category) Table {
	return Table{Categories: &c.Levels}
}

// Table exposes every forum-wide default.
func (d *Defaults) Table() Table {
	return Table{
		Messages:   &d.Messages,
		Threads:    &d.Threads,
		Tags:       &d.Tags,
		Categories: &d.Categories,
		ForumWide:  &d.ForumWide,
	}
}

// Accepts reports whether the entity can configure k.
func (t Table) Accepts(k privilege.Key) bool {
	switch k.Scope {
	case privilege.ScopeMessage:
		return t.Messages != nil
	case privilege.ScopeThread:
		return t.Threads != nil
	case privilege.ScopeTag:
		return t.Tags != nil
	case privilege.ScopeCategory:
		return t.Categories != nil
	case privilege.ScopeForumWide:
		return t.ForumWide != nil
	}
	return false
}

// Get returns the level configured for k, if any.
func (t Table) Get(k privilege.Key) (privilege.Value, bool) {
	if !t.Accepts(k) {
		return 0, false
	}
	switch k.Scope {
	case privilege.ScopeMessage:
		return t.Messages.Get(privilege.Message(k.Kind))
	case privilege.ScopeThread:
		return t.Threads.Get(privilege.Thread(k.Kind))
	case privilege.ScopeTag:
		return t.Tags.Get(privilege.Tag(k.Kind))
	case privilege.ScopeCategory:
		return t.Categories.Get(privilege.Category(k.Kind))
	default:
		return t.ForumWide.Get(privilege.ForumWide(k.Kind))
	}
}

// Set configures k and reports false when the entity cannot carry it.
func (t Table) Set(k privilege.Key, v privilege.Value) bool {
	if !t.Accepts(k) {
		return false
	}
	switch k.Scope {
	case privilege.ScopeMessage:
		t.Messages.Set(privilege.Message(k.Kind), v)
	case privilege.ScopeThread:
		t.Threads.Set(privilege.Thread(k.Kind), v)
	case privilege.ScopeTag:
		t.Tags.Set(privilege.Tag(k.Kind), v)
	case privilege.ScopeCategory:
		t.Categories.Set(privilege.Category(k.Kind), v)
	default:
		t.ForumWide.Set(privilege.ForumWide(k.Kind), v)
	}
	return true
}

// Level is one configured row, independent of scope.
type Level struct {
	Privilege privilege.Key   `json:"privilege"`
	Value     privilege.Value `json:"value"`
}

// Entries lists every configured level, scope by scope.
func (t Table) Entries() []Level {
	var out []Level
	if t.Messages != nil {
		out = appendLevels(out, t.Messages.Entries())
	}
	if t.Threads != nil {
		out = appendLevels(out, t.Threads.Entries())
	}
	if t.Tags != nil {
		out = appendLevels(out, t.Tags.Entries())
	}
	if t.Categories != nil {
		out = appendLevels(out, t.Categories.Entries())
	}
	if t.ForumWide != nil {
		out = appendLevels(out, t.ForumWide.Entries())
	}
	return out
}

func appendLevels[P privilege.Privilege](out []Level, entries []privilege.Entry[P]) []Level {
	for _, e := range entries {
		out = append(out, Level{Privilege: privilege.KeyOf(e.Privilege), Value: e.Value})
	}
	return out
}
