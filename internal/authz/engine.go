package authz

import (
	"time"

	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/privilege"
)

// Graph gives the engine access to the entities on a resolution path. The
// entity store implements it.
type Graph interface {
	Thread(id model.ID) (*model.Thread, bool)
	Tag(id model.ID) (*model.Tag, bool)
}

// Decision is the outcome of one privilege check.
type Decision struct {
	Value    privilege.Value
	Explicit bool // the value came from a grant rather than from the layers
	Allowed  bool
}

// Engine resolves privileges against the forum-wide defaults, the levels
// configured on entities and the grant store.
type Engine struct {
	Defaults *Defaults
	Grants   *GrantStore
	graph    Graph
}

// NewEngine creates an engine. Nil defaults mean "nothing configured".
func NewEngine(defaults *Defaults, graph Graph) *Engine {
	if graph == nil {
		panic("authz: nil graph")
	}
	if defaults == nil {
		defaults = &Defaults{}
	}
	return &Engine{
		Defaults: defaults,
		Grants:   NewGrantStore(),
		graph:    graph,
	}
}

// Message checks p for user on m.
func (e *Engine) Message(user model.ID, m *model.Message, p privilege.Message, now time.Time) Decision {
	thread, _ := e.graph.Thread(m.ThreadID)
	d := e.resolve(user, m.ID, privilege.KeyOf(p), e.messageLevel(m, thread, p), now)

	if p == privilege.MessageView && isOwner(user, m.CreatedBy) {
		d.Allowed = true
		return d
	}
	if duration, ok := p.Duration(); ok && d.Allowed && !d.Explicit {
		owner, reference := isOwner(user, m.CreatedBy), m.Created
		if p == privilege.MessageResetVote {
			var vote model.Vote
			vote, reference = m.VoteOf(user)
			owner = !user.IsZero() && vote != model.VoteNone
		}
		d.Allowed = owner && within(reference, e.messageDuration(thread, duration), now)
	}
	return d
}

// CanViewMessage combines View with the approval rules: unapproved messages
// are only shown to their creator and to holders of ViewUnapproved.
func (e *Engine) CanViewMessage(user model.ID, m *model.Message, now time.Time) bool {
	if isOwner(user, m.CreatedBy) {
		return true
	}
	if !e.Message(user, m, privilege.MessageView, now).Allowed {
		return false
	}
	return m.Approved || e.Message(user, m, privilege.MessageViewUnapproved, now).Allowed
}

// Thread checks p for user on t.
func (e *Engine) Thread(user model.ID, t *model.Thread, p privilege.Thread, now time.Time) Decision {
	d := e.resolve(user, t.ID, privilege.KeyOf(p), e.threadLevel(t, p), now)

	if p == privilege.ThreadView && isOwner(user, t.CreatedBy) {
		d.Allowed = true
		return d
	}
	if duration, ok := p.Duration(); ok && d.Allowed && !d.Explicit {
		limit, _ := e.Defaults.ForumWideDurations.Get(duration)
		d.Allowed = isOwner(user, t.CreatedBy) && within(t.Created, limit, now)
	}
	return d
}

// Tag checks p for user on tag.
func (e *Engine) Tag(user model.ID, tag *model.Tag, p privilege.Tag, now time.Time) Decision {
	level, ok := tag.TagLevels.Get(p)
	if !ok {
		level, _ = e.Defaults.Tags.Get(p)
	}
	return e.resolve(user, tag.ID, privilege.KeyOf(p), level, now)
}

// Category checks p for user on c.
func (e *Engine) Category(user model.ID, c *model.Category, p privilege.Category, now time.Time) Decision {
	level, ok := c.Levels.Get(p)
	if !ok {
		level, _ = e.Defaults.Categories.Get(p)
	}
	return e.resolve(user, c.ID, privilege.KeyOf(p), level, now)
}

// ForumWide checks p for user against the forum-wide layer.
func (e *Engine) ForumWide(user model.ID, p privilege.ForumWide, now time.Time) Decision {
	level, _ := e.Defaults.ForumWide.Get(p)
	return e.resolve(user, model.ZeroID, privilege.KeyOf(p), level, now)
}

// Forum checks any privilege against the forum-wide layer only: the default
// level and the user's forum-wide grants. It is what a grant on the zero
// entity competes with.
func (e *Engine) Forum(user model.ID, k privilege.Key, now time.Time) Decision {
	level, _ := e.Defaults.Table().Get(k)
	return e.resolve(user, model.ZeroID, k, level, now)
}

// CanViewAttachment lets creators see their own attachments. Everybody else
// needs ViewAttachment, and for unapproved attachments also the right to
// change approvals.
func (e *Engine) CanViewAttachment(user model.ID, a *model.Attachment, now time.Time) bool {
	if isOwner(user, a.CreatedBy) {
		return true
	}
	if !e.ForumWide(user, privilege.ForumWideViewAttachment, now).Allowed {
		return false
	}
	return a.Approved || e.ForumWide(user, privilege.ForumWideChangeAnyAttachmentApproval, now).Allowed
}

func (e *Engine) resolve(user, entity model.ID, key privilege.Key, layered privilege.Value, now time.Time) Decision {
	if user.IsZero() && privilege.RequiresIdentity(key) {
		v, ok := e.Grants.Lowest(model.ZeroID, model.ZeroID, key, now)
		if !ok {
			return Decision{}
		}
		return Decision{Value: v, Explicit: true, Allowed: v > 0}
	}

	d := Decision{Value: layered}
	if v, ok := e.granted(user, entity, key, now); ok {
		d.Value = v
		d.Explicit = true
	}
	d.Allowed = d.Value > 0
	return d
}

// granted returns the lowest valid grant on the entity itself or forum-wide.
func (e *Engine) granted(user, entity model.ID, key privilege.Key, now time.Time) (privilege.Value, bool) {
	lowest, found := e.Grants.Lowest(user, entity, key, now)
	if entity.IsZero() {
		return lowest, found
	}
	if v, ok := e.Grants.Lowest(user, model.ZeroID, key, now); ok && (!found || v < lowest) {
		lowest, found = v, true
	}
	return lowest, found
}

// MessageLevel returns the layered value of p for m, ignoring grants.
func (e *Engine) MessageLevel(m *model.Message, p privilege.Message) privilege.Value {
	thread, _ := e.graph.Thread(m.ThreadID)
	return e.messageLevel(m, thread, p)
}

func (e *Engine) messageLevel(m *model.Message, t *model.Thread, p privilege.Message) privilege.Value {
	if v, ok := m.Levels.Get(p); ok {
		return v
	}
	return e.threadMessageLevel(t, p)
}

// threadMessageLevel resolves a message privilege for every message of t
// that does not configure it itself.
func (e *Engine) threadMessageLevel(t *model.Thread, p privilege.Message) privilege.Value {
	if t != nil {
		if v, ok := t.MessageLevels.Get(p); ok {
			return v
		}
		if v, ok := e.lowestOverTags(t, func(tag *model.Tag) (privilege.Value, bool) {
			return tag.MessageLevels.Get(p)
		}); ok {
			return v
		}
	}
	v, _ := e.Defaults.Messages.Get(p)
	return v
}

// ThreadLevel returns the layered value of p for t, ignoring grants.
func (e *Engine) ThreadLevel(t *model.Thread, p privilege.Thread) privilege.Value {
	return e.threadLevel(t, p)
}

func (e *Engine) threadLevel(t *model.Thread, p privilege.Thread) privilege.Value {
	if v, ok := t.ThreadLevels.Get(p); ok {
		return v
	}
	if v, ok := e.lowestOverTags(t, func(tag *model.Tag) (privilege.Value, bool) {
		return tag.ThreadLevels.Get(p)
	}); ok {
		return v
	}
	v, _ := e.Defaults.Threads.Get(p)
	return v
}

func (e *Engine) lowestOverTags(t *model.Thread, get func(*model.Tag) (privilege.Value, bool)) (privilege.Value, bool) {
	var (
		lowest privilege.Value
		found  bool
	)
	for id := range t.Tags {
		tag, ok := e.graph.Tag(id)
		if !ok {
			continue
		}
		if v, ok := get(tag); ok && (!found || v < lowest) {
			lowest, found = v, true
		}
	}
	return lowest, found
}

// messageDuration resolves thread, then the longest over the thread's tags,
// then forum-wide. Zero is unlimited, also when a tag configures it.
func (e *Engine) messageDuration(t *model.Thread, key privilege.MessageDuration) time.Duration {
	if t != nil {
		if d, ok := t.MessageDurations.Get(key); ok {
			return d
		}
		var (
			longest time.Duration
			found   bool
		)
		for id := range t.Tags {
			tag, ok := e.graph.Tag(id)
			if !ok {
				continue
			}
			d, ok := tag.MessageDurations.Get(key)
			if !ok {
				continue
			}
			if d == 0 {
				return 0
			}
			if !found || d > longest {
				longest, found = d, true
			}
		}
		if found {
			return longest
		}
	}
	d, _ := e.Defaults.MessageDurations.Get(key)
	return d
}

func isOwner(user, creator model.ID) bool {
	return !user.IsZero() && user == creator
}

func within(reference time.Time, limit time.Duration, now time.Time) bool {
	return limit == 0 || !now.After(reference.Add(limit))
}

// AllowUpdate decides whether a user holding the adjust privilege with value
// with may change a level from old (absent when hadOld is false) to next.
func AllowUpdate(with privilege.Value, old privilege.Value, hadOld bool, next privilege.Value) bool {
	return (!hadOld || old.Abs() <= with) && next.Abs() <= with
}

// AllowAssignment is the stricter rule for granting a value to another user:
// both the target's current value and the new one must be below with.
func AllowAssignment(with privilege.Value, current privilege.Value, next privilege.Value) bool {
	return current.Abs() < with && next.Abs() < with
}
