package store

import (
	"time"

	"github.com/sakif/forum/internal/model"
)

// InsertThread adds t and links it to its creator.
func (c *EntityCollection) InsertThread(t *model.Thread) error {
	if err := c.Threads.Insert(t); err != nil {
		return err
	}
	if u, ok := c.Users.Get(t.CreatedBy); ok {
		u.Threads.Insert(model.Ref{ID: t.ID, At: t.Created})
		c.Users.Reindex(u.ID, c.UsersBy.ThreadCount)
	}
	return nil
}

// RenameThread changes the name of t and re-sorts it.
func (c *EntityCollection) RenameThread(t *model.Thread, name string, by model.ID, now time.Time) {
	t.Name = name
	t.Touch(by, now)
	c.Threads.Reindex(t.ID)
}

// SetPinDisplayOrder changes where t is shown among pinned threads.
func (c *EntityCollection) SetPinDisplayOrder(t *model.Thread, order uint16, by model.ID, now time.Time) {
	t.PinDisplayOrder = order
	t.LastUpdated = now
	t.LastUpdatedBy = by
	c.Threads.Reindex(t.ID)
}

// DeleteThread removes t with every message in it.
func (c *EntityCollection) DeleteThread(t *model.Thread) {
	for _, id := range t.Messages.IDs() {
		if m, ok := c.Messages.Get(id); ok {
			c.deleteMessage(m)
		}
	}

	tags := t.Tags.Sorted()
	for _, id := range tags {
		if tag, ok := c.Tags.Get(id); ok {
			tag.Threads.Remove(t.ID)
		}
	}

	for id := range t.Subscribers {
		if u, ok := c.Users.Get(id); ok {
			u.SubscribedThreads.Remove(t.ID)
		}
	}

	if u, ok := c.Users.Get(t.CreatedBy); ok {
		u.Threads.Remove(t.ID)
		c.Users.Reindex(u.ID, c.UsersBy.ThreadCount)
	}

	c.Authz.Grants.RevokeEntity(t.ID)
	c.Threads.Remove(t.ID)
	c.refreshTags(tags...)
}

// MergeThreads moves every message of from into into, keeping creation
// order, unions tags and subscribers onto into and deletes from. The caller
// rejects merging a thread into itself.
func (c *EntityCollection) MergeThreads(from, into *model.Thread, by model.ID, now time.Time) {
	for _, id := range from.Messages.IDs() {
		m, ok := c.Messages.Get(id)
		if !ok {
			continue
		}
		from.Messages.Remove(m.ID)
		into.Messages.Insert(model.Ref{ID: m.ID, At: m.Created})
		m.ThreadID = into.ID
	}

	for id := range from.Tags {
		tag, ok := c.Tags.Get(id)
		if !ok {
			continue
		}
		tag.Threads.Remove(from.ID)
		tag.Threads.Add(into.ID)
		into.Tags.Add(id)
	}
	clear(from.Tags)

	for id := range from.Subscribers {
		into.Subscribers.Add(id)
		if u, ok := c.Users.Get(id); ok {
			u.SubscribedThreads.Remove(from.ID)
			u.SubscribedThreads.Add(into.ID)
		}
	}
	clear(from.Subscribers)

	into.Touch(by, now)
	c.DeleteThread(from)
	c.refreshThread(into)
}

// Subscribe adds user to the subscribers of t. It reports false when the user
// already is one.
func (c *EntityCollection) Subscribe(t *model.Thread, u *model.User) bool {
	if !t.Subscribers.Add(u.ID) {
		return false
	}
	u.SubscribedThreads.Add(t.ID)
	return true
}

// Unsubscribe is the inverse of Subscribe.
func (c *EntityCollection) Unsubscribe(t *model.Thread, u *model.User) bool {
	if !t.Subscribers.Remove(u.ID) {
		return false
	}
	u.SubscribedThreads.Remove(t.ID)
	return true
}

// LinkTagToThread adds tag to t. It reports false when already linked.
func (c *EntityCollection) LinkTagToThread(tag *model.Tag, t *model.Thread) bool {
	if !t.Tags.Add(tag.ID) {
		return false
	}
	tag.Threads.Add(t.ID)
	c.refreshTags(tag.ID)
	return true
}

// UnlinkTagFromThread removes tag from t. It reports false when not linked.
func (c *EntityCollection) UnlinkTagFromThread(tag *model.Tag, t *model.Thread) bool {
	if !t.Tags.Remove(tag.ID) {
		return false
	}
	tag.Threads.Remove(t.ID)
	c.refreshTags(tag.ID)
	return true
}

// CategoriesOfThread is the union of the categories of every tag of t.
func (c *EntityCollection) CategoriesOfThread(t *model.Thread) []*model.Category {
	var ids model.IDSet
	for id := range t.Tags {
		if tag, ok := c.Tags.Get(id); ok {
			for category := range tag.Categories {
				ids.Add(category)
			}
		}
	}
	out := make([]*model.Category, 0, len(ids))
	for _, id := range ids.Sorted() {
		if category, ok := c.Categories.Get(id); ok {
			out = append(out, category)
		}
	}
	return out
}
