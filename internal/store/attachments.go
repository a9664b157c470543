package store

import (
	"time"

	"github.com/sakif/forum/internal/model"
)

// InsertAttachment adds a and charges its size to the creator.
func (c *EntityCollection) InsertAttachment(a *model.Attachment) error {
	if err := c.Attachments.Insert(a); err != nil {
		return err
	}
	if u, ok := c.Users.Get(a.CreatedBy); ok {
		u.Attachments.Insert(model.Ref{ID: a.ID, At: a.Created})
		c.refreshAttachmentsSize(u)
	}
	return nil
}

func (c *EntityCollection) RenameAttachment(a *model.Attachment, name string) {
	a.Name = name
	c.Attachments.Reindex(a.ID, c.AttachmentsBy.Name)
}

// SetAttachmentApproval reports false when the flag already had that value.
func (c *EntityCollection) SetAttachmentApproval(a *model.Attachment, approved bool) bool {
	if a.Approved == approved {
		return false
	}
	a.Approved = approved
	c.Attachments.Reindex(a.ID, c.AttachmentsBy.Approval)
	return true
}

// DeleteAttachment unlinks a from every message and removes it.
func (c *EntityCollection) DeleteAttachment(a *model.Attachment) {
	for id := range a.Messages {
		if m, ok := c.Messages.Get(id); ok {
			m.Attachments.Remove(a.ID)
		}
	}
	c.Attachments.Remove(a.ID)
	if u, ok := c.Users.Get(a.CreatedBy); ok {
		u.Attachments.Remove(a.ID)
		c.refreshAttachmentsSize(u)
	}
}

// LinkAttachment adds a to m. It reports false when already linked.
func (c *EntityCollection) LinkAttachment(a *model.Attachment, m *model.Message, now time.Time) bool {
	if !a.Messages.Add(m.ID) {
		return false
	}
	m.Attachments.Insert(model.Ref{ID: a.ID, At: now})
	return true
}

// UnlinkAttachment reports false when a was not linked to m.
func (c *EntityCollection) UnlinkAttachment(a *model.Attachment, m *model.Message) bool {
	if !a.Messages.Remove(m.ID) {
		return false
	}
	m.Attachments.Remove(a.ID)
	return true
}

func (c *EntityCollection) refreshAttachmentsSize(u *model.User) {
	var total uint64
	for _, id := range u.Attachments.IDs() {
		if a, ok := c.Attachments.Get(id); ok {
			total += a.Size
		}
	}
	u.AttachmentsSize = total
}
