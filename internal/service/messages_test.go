package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/forum/internal/apperror"
	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/privilege"
	"github.com/sakif/forum/internal/reqctx"
)

// =========================================================================
// MESSAGE TESTS
// =========================================================================

func TestAddMessage(t *testing.T) {
	f := newTestService(t)
	alice := f.addUser(t, "alice")
	thread := f.addThread(t, alice, "a thread")

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "empty", content: "", wantErr: apperror.ErrInvalidParameters},
		{name: "too short", content: "hi", wantErr: apperror.ErrValueTooShort},
		{name: "leading space", content: "   padded content", wantErr: apperror.ErrInvalidParameters},
		{name: "trailing newline", content: "padded content\n", wantErr: apperror.ErrInvalidParameters},
		{name: "control character", content: "bell\x07 rings", wantErr: apperror.ErrInvalidParameters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddMessage(f.as(alice), thread, tt.content)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := f.svc.AddMessage(f.as(alice), model.NewID(), "hello there")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = f.svc.AddMessage(f.anonymous(), thread, "hello there")
	assert.ErrorIs(t, err, apperror.ErrNotAllowed)

	id := f.addMessage(t, alice, thread, "hello there")
	view, err := f.svc.GetMessageByID(f.as(alice), id)
	require.NoError(t, err)
	assert.Equal(t, thread, view.ThreadID)
	assert.True(t, view.Approved, "members auto-approve their messages")
	require.NotNil(t, view.CreatedBy)
	assert.Equal(t, alice, *view.CreatedBy)
}

func TestChangeMessageContent_Window(t *testing.T) {
	f := newTestService(t)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	thread := f.addThread(t, alice, "a thread")
	message := f.addMessage(t, alice, thread, "first draft")

	assert.ErrorIs(t, f.svc.ChangeMessageContent(f.as(bob), message, "bob was here", ""), apperror.ErrNotAllowed)
	assert.ErrorIs(t, f.svc.ChangeMessageContent(f.as(alice), message, "  second draft  ", ""), apperror.ErrInvalidParameters)
	assert.ErrorIs(t, f.svc.ChangeMessageContent(f.as(alice), message, "second draft", " typo"), apperror.ErrInvalidParameters)

	f.clock.Advance(30 * time.Minute)
	require.NoError(t, f.svc.ChangeMessageContent(f.as(alice), message, "second draft", "typo"))
	assert.ErrorIs(t, f.svc.ChangeMessageContent(f.as(alice), message, "second draft", ""), apperror.ErrNoEffect)

	view, err := f.svc.GetMessageByID(f.as(alice), message)
	require.NoError(t, err)
	assert.Equal(t, "second draft", view.Content)
	require.NotNil(t, view.LastUpdated)
	assert.Equal(t, "typo", view.LastUpdated.Reason)
	assert.Equal(t, testStart.Add(30*time.Minute), view.LastUpdated.At)

	// The edit window is counted from creation, not from the last edit.
	f.clock.Advance(31 * time.Minute)
	assert.ErrorIs(t, f.svc.ChangeMessageContent(f.as(alice), message, "third draft", ""), apperror.ErrNotAllowed)
}

func TestGetMessageByID_NotModified(t *testing.T) {
	f := newTestService(t)
	alice := f.addUser(t, "alice")
	thread := f.addThread(t, alice, "a thread")
	message := f.addMessage(t, alice, thread, "first draft")

	ctx := withDisplay(f.as(alice), reqctx.Display{CheckNotChangedSince: testStart})
	_, err := f.svc.GetMessageByID(ctx, message)
	assert.ErrorIs(t, err, apperror.ErrNotUpdatedSinceLastCheck)

	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.ChangeMessageContent(f.as(alice), message, "second draft", ""))
	view, err := f.svc.GetMessageByID(ctx, message)
	require.NoError(t, err)
	assert.Equal(t, "second draft", view.Content)
}

func TestMoveMessage(t *testing.T) {
	f := newTestService(t, "root")
	root := f.addUser(t, "root")
	alice := f.addUser(t, "alice")
	first := f.addThread(t, alice, "first thread")
	second := f.addThread(t, alice, "second thread")
	message := f.addMessage(t, alice, first, "moving along")

	assert.ErrorIs(t, f.svc.MoveMessage(f.as(alice), message, second), apperror.ErrNotAllowed)
	assert.ErrorIs(t, f.svc.MoveMessage(f.as(root), message, first), apperror.ErrNoEffect)
	require.NoError(t, f.svc.MoveMessage(f.as(root), message, second))

	view, err := f.svc.GetMessageByID(f.as(alice), message)
	require.NoError(t, err)
	assert.Equal(t, second, view.ThreadID)

	detail, err := f.svc.GetThreadByID(f.as(alice), first)
	require.NoError(t, err)
	assert.Zero(t, detail.MessageCount)
}

// =========================================================================
// VOTE TESTS
// =========================================================================

func TestVote_Scenario(t *testing.T) {
	f := newTestService(t)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	thread := f.addThread(t, alice, "a thread")
	message := f.addMessage(t, alice, thread, "vote on me")

	require.NoError(t, f.svc.UpVote(f.as(bob), message))
	view, err := f.svc.GetMessageByID(f.as(bob), message)
	require.NoError(t, err)
	require.NotNil(t, view.UpVotes)
	assert.Equal(t, 1, *view.UpVotes)
	assert.Equal(t, 0, *view.DownVotes)
	assert.Equal(t, model.VoteUp, view.MyVote)

	// A second vote in either direction needs a reset first.
	assert.ErrorIs(t, f.svc.UpVote(f.as(bob), message), apperror.ErrNoEffect)
	assert.ErrorIs(t, f.svc.DownVote(f.as(bob), message), apperror.ErrNoEffect)

	author, err := f.svc.GetUserByID(f.as(alice), alice)
	require.NoError(t, err)
	assert.Equal(t, 1, author.ReceivedUpVotes)

	require.NoError(t, f.svc.ResetVote(f.as(bob), message))
	view, err = f.svc.GetMessageByID(f.as(bob), message)
	require.NoError(t, err)
	assert.Equal(t, 0, *view.UpVotes)
	assert.Equal(t, 0, *view.DownVotes)

	assert.ErrorIs(t, f.svc.UpVote(f.as(alice), message), apperror.ErrNotAllowed)
	assert.ErrorIs(t, f.svc.UpVote(f.anonymous(), message), apperror.ErrNotAllowed)
	assert.ErrorIs(t, f.svc.ResetVote(f.as(bob), message), apperror.ErrNoEffect)
}

func TestResetVote_WindowCountsFromVote(t *testing.T) {
	f := newTestService(t)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	thread := f.addThread(t, alice, "a thread")
	message := f.addMessage(t, alice, thread, "vote on me")

	f.clock.Advance(3 * time.Hour)
	require.NoError(t, f.svc.DownVote(f.as(bob), message))

	f.clock.Advance(30 * time.Minute)
	require.NoError(t, f.svc.ResetVote(f.as(bob), message))

	require.NoError(t, f.svc.DownVote(f.as(bob), message))
	f.clock.Advance(2 * time.Hour)
	assert.ErrorIs(t, f.svc.ResetVote(f.as(bob), message), apperror.ErrNotAllowed)
}

// =========================================================================
// COMMENT TESTS
// =========================================================================

func TestComments(t *testing.T) {
	f := newTestService(t, "root")
	root := f.addUser(t, "root")
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	thread := f.addThread(t, alice, "a thread")
	message := f.addMessage(t, alice, thread, "comment on me")

	for _, content := range []string{"", "  padded comment  ", "trailing\t"} {
		_, err := f.svc.AddComment(f.as(bob), message, content)
		assert.ErrorIs(t, err, apperror.ErrInvalidParameters, "%q", content)
	}

	first, err := f.svc.AddComment(f.as(bob), message, "first!")
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = f.svc.AddComment(f.as(bob), message, "second")
	require.NoError(t, err)

	page, err := f.svc.GetCommentsOfMessage(withDisplay(f.as(alice), reqctx.Display{Ascending: true}), message)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, first.ID, page.Items[0].ID)

	// Marking comments as solved is a moderation privilege.
	assert.ErrorIs(t, f.svc.SetCommentSolved(f.as(alice), first.ID), apperror.ErrNotAllowed)
	require.NoError(t, f.svc.SetCommentSolved(f.as(root), first.ID))
	assert.ErrorIs(t, f.svc.SetCommentSolved(f.as(root), first.ID), apperror.ErrNoEffect)

	view, err := f.svc.GetMessageByID(f.as(alice), message)
	require.NoError(t, err)
	require.NotNil(t, view.CommentCount)
	assert.Equal(t, 2, *view.CommentCount)
	assert.Equal(t, 1, *view.SolvedComments)
}

func TestGetCommentsOfUser_SkipsCommentsTheCallerCannotRead(t *testing.T) {
	f := newTestService(t, "root")
	root := f.addUser(t, "root")
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	carol := f.addUser(t, "carol")
	thread := f.addThread(t, alice, "a thread")
	hidden := f.addMessage(t, alice, thread, "members only")
	open := f.addMessage(t, alice, thread, "everyone welcome")

	_, err := f.svc.AddComment(f.as(bob), hidden, "on the hidden one")
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	visible, err := f.svc.AddComment(f.as(bob), open, "on the open one")
	require.NoError(t, err)

	require.NoError(t, f.svc.AssignGrant(f.as(root), privilege.ScopeMessage, hidden, carol, "message.get_message_comments", -1, time.Time{}))

	page, err := f.svc.GetCommentsOfUser(withDisplay(f.as(carol), reqctx.Display{Ascending: true}), bob)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, visible.ID, page.Items[0].ID)
	assert.Equal(t, 1, page.Total)

	// The author still sees both.
	page, err = f.svc.GetCommentsOfUser(f.as(bob), bob)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestGetMessageByID_HidesEditorWithCreator(t *testing.T) {
	f := newTestService(t, "root")
	root := f.addUser(t, "root")
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	thread := f.addThread(t, alice, "a thread")
	message := f.addMessage(t, alice, thread, "first draft")

	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.ChangeMessageContent(f.as(alice), message, "second draft", "typo"))
	require.NoError(t, f.svc.AssignGrant(f.as(root), privilege.ScopeMessage, message, bob, "message.view_creator_user", -1, time.Time{}))

	view, err := f.svc.GetMessageByID(f.as(bob), message)
	require.NoError(t, err)
	assert.Nil(t, view.CreatedBy)
	require.NotNil(t, view.LastUpdated)
	assert.True(t, view.LastUpdated.By.IsZero())
	assert.Equal(t, "typo", view.LastUpdated.Reason)

	view, err = f.svc.GetMessageByID(f.as(alice), message)
	require.NoError(t, err)
	require.NotNil(t, view.LastUpdated)
	assert.Equal(t, alice, view.LastUpdated.By)
}

// =========================================================================
// THREAD TESTS
// =========================================================================

func TestGetThreadByID_NotModifiedAndVisits(t *testing.T) {
	f := newTestService(t)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	thread := f.addThread(t, alice, "a thread")

	ctx := withDisplay(f.as(bob), reqctx.Display{CheckNotChangedSince: testStart})
	_, err := f.svc.GetThreadByID(ctx, thread)
	assert.ErrorIs(t, err, apperror.ErrNotUpdatedSinceLastCheck)

	f.clock.Advance(time.Minute)
	f.addMessage(t, alice, thread, "something new")

	detail, err := f.svc.GetThreadByID(ctx, thread)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.MessageCount)
	require.Len(t, detail.Messages.Items, 1)
	assert.False(t, detail.VisitedSinceLastChange)
	assert.Zero(t, detail.Visited)

	f.svc.Flush()
	detail, err = f.svc.GetThreadByID(f.as(bob), thread)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), detail.Visited)
	assert.True(t, detail.VisitedSinceLastChange)
}

func TestChangeThreadName_OwnerWindow(t *testing.T) {
	f := newTestService(t)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	thread := f.addThread(t, alice, "a thread")

	assert.ErrorIs(t, f.svc.ChangeThreadName(f.as(bob), thread, "stolen"), apperror.ErrNotAllowed)
	require.NoError(t, f.svc.ChangeThreadName(f.as(alice), thread, "renamed thread"))
	assert.ErrorIs(t, f.svc.ChangeThreadName(f.as(alice), thread, "renamed thread"), apperror.ErrNoEffect)

	f.clock.Advance(2 * time.Hour)
	assert.ErrorIs(t, f.svc.ChangeThreadName(f.as(alice), thread, "too late now"), apperror.ErrNotAllowed)
}

func TestThreads_AnonymousMayReadButNotWrite(t *testing.T) {
	f := newTestService(t)
	alice := f.addUser(t, "alice")
	f.addThread(t, alice, "a thread")

	_, err := f.svc.AddThread(f.anonymous(), "nope")
	assert.ErrorIs(t, err, apperror.ErrNotAllowed)

	page, err := f.svc.GetThreads(f.anonymous(), ThreadsByName)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestSubscriptions(t *testing.T) {
	f := newTestService(t)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	thread := f.addThread(t, alice, "a thread")

	require.NoError(t, f.svc.SubscribeToThread(f.as(bob), thread))
	assert.ErrorIs(t, f.svc.SubscribeToThread(f.as(bob), thread), apperror.ErrNoEffect)

	page, err := f.svc.GetSubscribedThreadsOfUser(f.as(bob), bob, ThreadsByName)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Items[0].SubscriberCount)

	require.NoError(t, f.svc.UnsubscribeFromThread(f.as(bob), thread))
	assert.ErrorIs(t, f.svc.UnsubscribeFromThread(f.as(bob), thread), apperror.ErrNoEffect)
}

func TestMergeThreads(t *testing.T) {
	f := newTestService(t, "root")
	root := f.addUser(t, "root")
	alice := f.addUser(t, "alice")

	tag, err := f.svc.AddTag(f.as(root), "merging")
	require.NoError(t, err)
	from := f.addThread(t, alice, "from thread")
	into := f.addThread(t, alice, "into thread")
	for i := range 3 {
		f.clock.Advance(time.Second)
		f.addMessage(t, alice, from, "from message "+string(rune('a'+i)))
	}
	for i := range 2 {
		f.clock.Advance(time.Second)
		f.addMessage(t, alice, into, "into message "+string(rune('a'+i)))
	}
	require.NoError(t, f.svc.AddTagToThread(f.as(root), tag.ID, from))
	require.NoError(t, f.svc.AddTagToThread(f.as(root), tag.ID, into))

	assert.ErrorIs(t, f.svc.MergeThreads(f.as(alice), from, into), apperror.ErrNotAllowed)
	assert.ErrorIs(t, f.svc.MergeThreads(f.as(root), into, into), apperror.ErrNoEffect)
	require.NoError(t, f.svc.MergeThreads(f.as(root), from, into))

	_, err = f.svc.GetThreadByID(f.as(alice), from)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	view, err := f.svc.GetTagByID(f.as(alice), tag.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.ThreadCount)
	assert.Equal(t, 5, view.MessageCount)

	page, err := f.svc.GetMessagesOfThread(withDisplay(f.as(alice), reqctx.Display{Ascending: true}), into)
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
	assert.Equal(t, "from message a", page.Items[0].Content)
	assert.Equal(t, "into message b", page.Items[4].Content)
}
