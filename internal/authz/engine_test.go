package authz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/privilege"
)

type fakeGraph struct {
	threads map[model.ID]*model.Thread
	tags    map[model.ID]*model.Tag
}

func (g *fakeGraph) Thread(id model.ID) (*model.Thread, bool) {
	t, ok := g.threads[id]
	return t, ok
}

func (g *fakeGraph) Tag(id model.ID) (*model.Tag, bool) {
	t, ok := g.tags[id]
	return t, ok
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	engine  *Engine
	graph   *fakeGraph
	tag     *model.Tag
	thread  *model.Thread
	message *model.Message
	author  model.ID
	reader  model.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		graph:  &fakeGraph{threads: map[model.ID]*model.Thread{}, tags: map[model.ID]*model.Tag{}},
		author: model.NewID(),
		reader: model.NewID(),
	}
	f.engine = NewEngine(&Defaults{}, f.graph)

	f.tag = &model.Tag{ID: model.NewID(), Name: "go"}
	f.thread = &model.Thread{ID: model.NewID(), Name: "hello", CreatedBy: f.author, Created: now.Add(-time.Hour)}
	f.thread.Tags.Add(f.tag.ID)
	f.message = &model.Message{
		ID:        model.NewID(),
		ThreadID:  f.thread.ID,
		CreatedBy: f.author,
		Created:   now.Add(-time.Hour),
		Approved:  true,
	}

	f.graph.tags[f.tag.ID] = f.tag
	f.graph.threads[f.thread.ID] = f.thread
	return f
}

func TestPrivilegePrecedence(t *testing.T) {
	const (
		forumWide privilege.Value = 5
		tagLevel  privilege.Value = 7
		granted   privilege.Value = 9
	)
	key := privilege.KeyOf(privilege.MessageUpVote)

	t.Run("forum-wide default applies without overrides", func(t *testing.T) {
		f := newFixture(t)
		f.engine.Defaults.Messages.Set(privilege.MessageUpVote, forumWide)

		d := f.engine.Message(f.reader, f.message, privilege.MessageUpVote, now)
		assert.Equal(t, forumWide, d.Value)
		assert.False(t, d.Explicit)
		assert.True(t, d.Allowed)
	})

	t.Run("tag override beats the default", func(t *testing.T) {
		f := newFixture(t)
		f.engine.Defaults.Messages.Set(privilege.MessageUpVote, forumWide)
		f.tag.MessageLevels.Set(privilege.MessageUpVote, tagLevel)

		assert.Equal(t, tagLevel, f.engine.Message(f.reader, f.message, privilege.MessageUpVote, now).Value)
	})

	t.Run("valid grant beats the tag override", func(t *testing.T) {
		f := newFixture(t)
		f.engine.Defaults.Messages.Set(privilege.MessageUpVote, forumWide)
		f.tag.MessageLevels.Set(privilege.MessageUpVote, tagLevel)
		f.engine.Grants.Add(Grant{User: f.reader, Entity: f.message.ID, Privilege: key, Value: granted, ExpiresAt: now.Add(time.Hour)})

		d := f.engine.Message(f.reader, f.message, privilege.MessageUpVote, now)
		assert.Equal(t, granted, d.Value)
		assert.True(t, d.Explicit)
	})

	t.Run("expired grant falls back to the tag override", func(t *testing.T) {
		f := newFixture(t)
		f.engine.Defaults.Messages.Set(privilege.MessageUpVote, forumWide)
		f.tag.MessageLevels.Set(privilege.MessageUpVote, tagLevel)
		f.engine.Grants.Add(Grant{User: f.reader, Entity: f.message.ID, Privilege: key, Value: granted, ExpiresAt: now})

		d := f.engine.Message(f.reader, f.message, privilege.MessageUpVote, now)
		assert.Equal(t, tagLevel, d.Value)
		assert.False(t, d.Explicit)
	})
}

func TestMostSpecificLayerWins(t *testing.T) {
	f := newFixture(t)
	f.engine.Defaults.Messages.Set(privilege.MessageAddComment, 1)
	f.tag.MessageLevels.Set(privilege.MessageAddComment, 2)
	f.thread.MessageLevels.Set(privilege.MessageAddComment, 3)

	assert.Equal(t, privilege.Value(3), f.engine.MessageLevel(f.message, privilege.MessageAddComment))

	f.message.Levels.Set(privilege.MessageAddComment, -1)
	d := f.engine.Message(f.reader, f.message, privilege.MessageAddComment, now)
	assert.Equal(t, privilege.Value(-1), d.Value)
	assert.False(t, d.Allowed)
}

func TestLowestTagLevelWins(t *testing.T) {
	f := newFixture(t)
	other := &model.Tag{ID: model.NewID(), Name: "rust"}
	f.graph.tags[other.ID] = other
	f.thread.Tags.Add(other.ID)

	f.tag.ThreadLevels.Set(privilege.ThreadAddMessage, 4)
	other.ThreadLevels.Set(privilege.ThreadAddMessage, 2)

	assert.Equal(t, privilege.Value(2), f.engine.ThreadLevel(f.thread, privilege.ThreadAddMessage))
}

func TestUndefinedEverywhereDenies(t *testing.T) {
	f := newFixture(t)
	d := f.engine.Thread(f.reader, f.thread, privilege.ThreadSubscribe, now)
	assert.Equal(t, privilege.Value(0), d.Value)
	assert.False(t, d.Allowed)
}

func TestNegativeGrantWins(t *testing.T) {
	f := newFixture(t)
	f.engine.Defaults.ForumWide.Set(privilege.ForumWideAddDiscussionThread, 1)
	key := privilege.KeyOf(privilege.ForumWideAddDiscussionThread)

	f.engine.Grants.Add(Grant{User: f.reader, Privilege: key, Value: 100})
	f.engine.Grants.Add(Grant{User: f.reader, Privilege: key, Value: -1, ExpiresAt: now.Add(time.Minute)})

	d := f.engine.ForumWide(f.reader, privilege.ForumWideAddDiscussionThread, now)
	assert.Equal(t, privilege.Value(-1), d.Value)
	assert.False(t, d.Allowed)

	d = f.engine.ForumWide(f.reader, privilege.ForumWideAddDiscussionThread, now.Add(time.Minute))
	assert.Equal(t, privilege.Value(100), d.Value)
}

func TestForumWideGrantAppliesToEntities(t *testing.T) {
	f := newFixture(t)
	f.engine.Grants.Add(Grant{User: f.reader, Privilege: privilege.KeyOf(privilege.TagChangeName), Value: 3})

	assert.True(t, f.engine.Tag(f.reader, f.tag, privilege.TagChangeName, now).Allowed)
	assert.False(t, f.engine.Tag(f.author, f.tag, privilege.TagChangeName, now).Allowed)
}

func TestAnonymousNeedsGrantForIdentityPrivileges(t *testing.T) {
	f := newFixture(t)
	f.engine.Defaults.Messages.Set(privilege.MessageUpVote, 1)
	f.engine.Defaults.Messages.Set(privilege.MessageView, 1)

	assert.False(t, f.engine.Message(model.ZeroID, f.message, privilege.MessageUpVote, now).Allowed)
	assert.True(t, f.engine.Message(model.ZeroID, f.message, privilege.MessageView, now).Allowed)

	f.engine.Grants.Add(Grant{Privilege: privilege.KeyOf(privilege.MessageUpVote), Value: 1})
	assert.True(t, f.engine.Message(model.ZeroID, f.message, privilege.MessageUpVote, now).Allowed)
}

func TestCreatorAlwaysSeesOwnContent(t *testing.T) {
	f := newFixture(t)
	f.message.Approved = false
	f.engine.Defaults.Messages.Set(privilege.MessageView, -1)
	f.engine.Defaults.Threads.Set(privilege.ThreadView, -1)

	assert.True(t, f.engine.CanViewMessage(f.author, f.message, now))
	assert.False(t, f.engine.CanViewMessage(f.reader, f.message, now))
	assert.True(t, f.engine.Thread(f.author, f.thread, privilege.ThreadView, now).Allowed)
	assert.False(t, f.engine.Thread(f.reader, f.thread, privilege.ThreadView, now).Allowed)

	a := &model.Attachment{ID: model.NewID(), CreatedBy: f.reader}
	assert.True(t, f.engine.CanViewAttachment(f.reader, a, now))
	assert.False(t, f.engine.CanViewAttachment(f.author, a, now))
}

func TestUnapprovedMessageNeedsViewUnapproved(t *testing.T) {
	f := newFixture(t)
	f.message.Approved = false
	f.engine.Defaults.Messages.Set(privilege.MessageView, 1)

	assert.False(t, f.engine.CanViewMessage(f.reader, f.message, now))

	f.engine.Grants.Add(Grant{User: f.reader, Entity: f.message.ID, Privilege: privilege.KeyOf(privilege.MessageViewUnapproved), Value: 1})
	assert.True(t, f.engine.CanViewMessage(f.reader, f.message, now))
}

func TestOwnContentDurations(t *testing.T) {
	f := newFixture(t)
	f.engine.Defaults.Messages.Set(privilege.MessageChangeContent, 1)
	f.engine.Defaults.MessageDurations.Set(privilege.DurationChangeContent, 2*time.Hour)

	assert.True(t, f.engine.Message(f.author, f.message, privilege.MessageChangeContent, now).Allowed)
	assert.False(t, f.engine.Message(f.reader, f.message, privilege.MessageChangeContent, now).Allowed,
		"layered edit rights only cover own messages")

	later := f.message.Created.Add(2*time.Hour + time.Second)
	assert.False(t, f.engine.Message(f.author, f.message, privilege.MessageChangeContent, later).Allowed)

	f.tag.MessageDurations.Set(privilege.DurationChangeContent, 3*time.Hour)
	assert.True(t, f.engine.Message(f.author, f.message, privilege.MessageChangeContent, later).Allowed)

	f.thread.MessageDurations.Set(privilege.DurationChangeContent, time.Minute)
	assert.False(t, f.engine.Message(f.author, f.message, privilege.MessageChangeContent, now).Allowed)

	f.engine.Grants.Add(Grant{User: f.reader, Privilege: privilege.KeyOf(privilege.MessageChangeContent), Value: 10})
	assert.True(t, f.engine.Message(f.reader, f.message, privilege.MessageChangeContent, later).Allowed,
		"an explicit grant is not limited to own content")
}

func TestResetVoteDurationStartsAtVote(t *testing.T) {
	f := newFixture(t)
	f.engine.Defaults.Messages.Set(privilege.MessageResetVote, 1)
	f.engine.Defaults.MessageDurations.Set(privilege.DurationResetVote, time.Minute)

	assert.False(t, f.engine.Message(f.reader, f.message, privilege.MessageResetVote, now).Allowed, "no vote to reset")

	f.message.UpVotes = map[model.ID]time.Time{f.reader: now}
	assert.True(t, f.engine.Message(f.reader, f.message, privilege.MessageResetVote, now.Add(time.Minute)).Allowed)
	assert.False(t, f.engine.Message(f.reader, f.message, privilege.MessageResetVote, now.Add(time.Minute+1)).Allowed)
}

func TestThreadDurationsAreForumWide(t *testing.T) {
	f := newFixture(t)
	f.engine.Defaults.Threads.Set(privilege.ThreadChangeName, 1)
	f.engine.Defaults.ForumWideDurations.Set(privilege.DurationChangeThreadName, 30*time.Minute)

	assert.False(t, f.engine.Thread(f.author, f.thread, privilege.ThreadChangeName, now).Allowed)

	f.engine.Defaults.ForumWideDurations.Set(privilege.DurationChangeThreadName, 0)
	assert.True(t, f.engine.Thread(f.author, f.thread, privilege.ThreadChangeName, now).Allowed)
	assert.False(t, f.engine.Thread(f.reader, f.thread, privilege.ThreadChangeName, now).Allowed)
}

func TestComputeMessageVisibility(t *testing.T) {
	f := newFixture(t)
	f.engine.Defaults.Messages.Set(privilege.MessageView, 1)
	f.engine.Defaults.Messages.Set(privilege.MessageViewVotes, 1)
	f.tag.MessageLevels.Set(privilege.MessageViewCreatorUser, 1)

	hidden := &model.Message{ID: model.NewID(), ThreadID: f.thread.ID, CreatedBy: f.author, Approved: true}
	hidden.Levels.Set(privilege.MessageView, 0)
	pending := &model.Message{ID: model.NewID(), ThreadID: f.thread.ID, CreatedBy: f.reader}

	got := f.engine.ComputeMessageVisibility(f.reader, []*model.Message{f.message, hidden, pending}, now)
	require.Len(t, got, 3)

	assert.Equal(t, MessageVisibility{View: true, ViewCreator: true, ViewVotes: true}, got[0])
	assert.Equal(t, MessageVisibility{}, got[1])
	assert.True(t, got[2].View, "own unapproved message stays visible")

	for i, m := range []*model.Message{f.message, hidden, pending} {
		assert.Equal(t, f.engine.CanViewMessage(f.reader, m, now), got[i].View)
	}
}

func TestAllowUpdate(t *testing.T) {
	assert.True(t, AllowUpdate(10, 0, false, 10))
	assert.True(t, AllowUpdate(10, -10, true, -5))
	assert.False(t, AllowUpdate(10, 11, true, 1))
	assert.False(t, AllowUpdate(10, 0, false, -11))
}

func TestAllowAssignment(t *testing.T) {
	assert.True(t, AllowAssignment(10, 9, -9))
	assert.False(t, AllowAssignment(10, 10, 1))
	assert.False(t, AllowAssignment(10, 1, 10))
	assert.False(t, AllowAssignment(0, 0, 0))
}
