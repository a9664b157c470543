package store

import (
	"time"

	"github.com/sakif/forum/internal/collate"
	"github.com/sakif/forum/internal/collection"
	"github.com/sakif/forum/internal/model"
)

// UserByName finds a user by collated name.
func (c *EntityCollection) UserByName(name string) (*model.User, bool) {
	return c.UsersBy.Name.Find(collate.Key(name))
}

// InsertUser adds u. It fails with collection.ErrExists if the name is taken.
func (c *EntityCollection) InsertUser(u *model.User) error {
	return c.Users.Insert(u)
}

// RenameUser changes the name of u, keeping the name index unique.
func (c *EntityCollection) RenameUser(u *model.User, name string) error {
	candidate := *u
	candidate.Name = name
	if !c.Users.CanReindex(u.ID, &candidate) {
		return collection.ErrExists
	}
	u.Name = name
	c.Users.Reindex(u.ID, c.UsersBy.Name)
	return nil
}

// UpdateLastSeen moves the last-seen timestamp of user forward when at least
// precision has passed since the previous update.
func (c *EntityCollection) UpdateLastSeen(user model.ID, now time.Time, precision time.Duration) bool {
	u, ok := c.Users.Get(user)
	if !ok || now.Sub(u.LastSeen) < precision {
		return false
	}
	u.LastSeen = now
	c.Users.Reindex(u.ID, c.UsersBy.LastSeen)
	return true
}

// DeleteUser removes u and everything that only exists because of u: its
// threads (with every message in them), its messages elsewhere, its comments,
// its attachments, its votes, its subscriptions and every grant naming it.
func (c *EntityCollection) DeleteUser(u *model.User) {
	for _, id := range u.Threads.IDs() {
		if t, ok := c.Threads.Get(id); ok {
			c.DeleteThread(t)
		}
	}

	touched := map[model.ID]struct{}{}
	for _, id := range u.Messages.IDs() {
		if m, ok := c.Messages.Get(id); ok {
			touched[m.ThreadID] = struct{}{}
			c.deleteMessage(m)
		}
	}

	for _, id := range u.Comments.IDs() {
		if comment, ok := c.Comments.Get(id); ok {
			c.deleteComment(comment)
		}
	}

	for id := range u.VotedMessages {
		m, ok := c.Messages.Get(id)
		if !ok {
			continue
		}
		delete(m.UpVotes, u.ID)
		delete(m.DownVotes, u.ID)
		c.refreshReceivedVotes(m.CreatedBy)
	}

	for _, id := range u.Attachments.IDs() {
		if a, ok := c.Attachments.Get(id); ok {
			c.DeleteAttachment(a)
		}
	}

	for id := range u.SubscribedThreads {
		if t, ok := c.Threads.Get(id); ok {
			t.Subscribers.Remove(u.ID)
		}
	}

	for id := range touched {
		if t, ok := c.Threads.Get(id); ok {
			c.refreshThread(t)
		}
	}

	c.Authz.Grants.RevokeUser(u.ID)
	c.Users.Remove(u.ID)
}

// refreshReceivedVotes recounts the votes cast on the messages of user.
func (c *EntityCollection) refreshReceivedVotes(user model.ID) {
	u, ok := c.Users.Get(user)
	if !ok {
		return
	}
	up, down := 0, 0
	for _, id := range u.Messages.IDs() {
		if m, ok := c.Messages.Get(id); ok {
			up += len(m.UpVotes)
			down += len(m.DownVotes)
		}
	}
	u.ReceivedUpVotes = up
	u.ReceivedDownVotes = down
}
