package store

import (
	"time"

	"github.com/sakif/forum/internal/model"
)

// InsertMessage adds m to its thread and to its creator's list.
func (c *EntityCollection) InsertMessage(m *model.Message) error {
	t, ok := c.Threads.Get(m.ThreadID)
	if !ok {
		return errMissing("thread", m.ThreadID)
	}
	if err := c.Messages.Insert(m); err != nil {
		return err
	}
	t.Messages.Insert(model.Ref{ID: m.ID, At: m.Created})
	t.Touch(m.CreatedBy, m.Created)

	if u, ok := c.Users.Get(m.CreatedBy); ok {
		u.Messages.Insert(model.Ref{ID: m.ID, At: m.Created})
		c.Users.Reindex(u.ID, c.UsersBy.MessageCount)
	}
	c.refreshThread(t)
	return nil
}

// ChangeMessageContent replaces the content and records who changed it.
func (c *EntityCollection) ChangeMessageContent(m *model.Message, content string, update model.MessageUpdate) {
	m.Content = content
	by := update.By
	if update.By == m.CreatedBy {
		update.By = model.ZeroID
	}
	m.Update = &update
	if t, ok := c.Threads.Get(m.ThreadID); ok {
		t.Touch(by, update.At)
		c.Threads.Reindex(t.ID, c.ThreadsBy.LastUpdated)
	}
}

// SetMessageApproval reports false when the flag already had that value.
func (c *EntityCollection) SetMessageApproval(m *model.Message, approved bool) bool {
	if m.Approved == approved {
		return false
	}
	m.Approved = approved
	return true
}

// DeleteMessage removes m and recounts the thread's tags and categories.
func (c *EntityCollection) DeleteMessage(m *model.Message) {
	t, hasThread := c.Threads.Get(m.ThreadID)
	c.deleteMessage(m)
	if hasThread {
		c.refreshThread(t)
	}
}

// deleteMessage leaves counters to the caller. Comments stay behind and are
// only removed with their creator.
func (c *EntityCollection) deleteMessage(m *model.Message) {
	for _, id := range m.Attachments.IDs() {
		if a, ok := c.Attachments.Get(id); ok {
			a.Messages.Remove(m.ID)
		}
	}

	if t, ok := c.Threads.Get(m.ThreadID); ok {
		t.Messages.Remove(m.ID)
	}

	for voter := range m.UpVotes {
		if u, ok := c.Users.Get(voter); ok {
			u.VotedMessages.Remove(m.ID)
		}
	}
	for voter := range m.DownVotes {
		if u, ok := c.Users.Get(voter); ok {
			u.VotedMessages.Remove(m.ID)
		}
	}

	c.Authz.Grants.RevokeEntity(m.ID)
	c.Messages.Remove(m.ID)

	if u, ok := c.Users.Get(m.CreatedBy); ok {
		u.Messages.Remove(m.ID)
		c.Users.Reindex(u.ID, c.UsersBy.MessageCount)
		c.refreshReceivedVotes(u.ID)
	}
}

// MoveMessage relocates m into another thread. Counters of both threads' tags
// are recounted against the new placement.
func (c *EntityCollection) MoveMessage(m *model.Message, into *model.Thread, by model.ID, now time.Time) {
	from, hasFrom := c.Threads.Get(m.ThreadID)
	if hasFrom {
		from.Messages.Remove(m.ID)
		from.Touch(by, now)
	}
	into.Messages.Insert(model.Ref{ID: m.ID, At: m.Created})
	into.Touch(by, now)
	m.ThreadID = into.ID

	c.refreshThread(into)
	if hasFrom {
		c.refreshThread(from)
	}
}

// Vote records vote by user on m. It reports false if the user already voted
// on m in either direction.
func (c *EntityCollection) Vote(m *model.Message, u *model.User, vote model.Vote, now time.Time) bool {
	if current, _ := m.VoteOf(u.ID); current != model.VoteNone {
		return false
	}
	switch vote {
	case model.VoteUp:
		if m.UpVotes == nil {
			m.UpVotes = make(map[model.ID]time.Time)
		}
		m.UpVotes[u.ID] = now
	case model.VoteDown:
		if m.DownVotes == nil {
			m.DownVotes = make(map[model.ID]time.Time)
		}
		m.DownVotes[u.ID] = now
	default:
		return false
	}
	u.VotedMessages.Add(m.ID)
	c.refreshReceivedVotes(m.CreatedBy)
	return true
}

// ResetVote removes the vote of user from m. It reports false if there was
// none.
func (c *EntityCollection) ResetVote(m *model.Message, u *model.User) bool {
	if current, _ := m.VoteOf(u.ID); current == model.VoteNone {
		return false
	}
	delete(m.UpVotes, u.ID)
	delete(m.DownVotes, u.ID)
	u.VotedMessages.Remove(m.ID)
	c.refreshReceivedVotes(m.CreatedBy)
	return true
}

// InsertComment adds comment to its message and its creator.
func (c *EntityCollection) InsertComment(comment *model.Comment) error {
	m, ok := c.Messages.Get(comment.MessageID)
	if !ok {
		return errMissing("message", comment.MessageID)
	}
	if err := c.Comments.Insert(comment); err != nil {
		return err
	}
	m.Comments.Insert(model.Ref{ID: comment.ID, At: comment.Created})
	if u, ok := c.Users.Get(comment.CreatedBy); ok {
		u.Comments.Insert(model.Ref{ID: comment.ID, At: comment.Created})
	}
	return nil
}

// SetCommentSolved marks comment as solved. It reports false if it already
// was.
func (c *EntityCollection) SetCommentSolved(comment *model.Comment) bool {
	if comment.Solved {
		return false
	}
	comment.Solved = true
	if m, ok := c.Messages.Get(comment.MessageID); ok {
		c.recountSolved(m)
	}
	return true
}

func (c *EntityCollection) deleteComment(comment *model.Comment) {
	c.Comments.Remove(comment.ID)
	if m, ok := c.Messages.Get(comment.MessageID); ok {
		m.Comments.Remove(comment.ID)
		c.recountSolved(m)
	}
	if u, ok := c.Users.Get(comment.CreatedBy); ok {
		u.Comments.Remove(comment.ID)
	}
}

func (c *EntityCollection) recountSolved(m *model.Message) {
	solved := 0
	for _, id := range m.Comments.IDs() {
		if comment, ok := c.Comments.Get(id); ok && comment.Solved {
			solved++
		}
	}
	m.SolvedComments = solved
}
