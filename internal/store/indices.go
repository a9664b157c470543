package store

import (
	"cmp"
	"strings"
	"time"

	"github.com/sakif/forum/internal/collate"
	"github.com/sakif/forum/internal/collection"
	"github.com/sakif/forum/internal/model"
)

type UserIndices struct {
	Name         *collection.Index[*model.User, string]
	Created      *collection.Index[*model.User, time.Time]
	LastSeen     *collection.Index[*model.User, time.Time]
	ThreadCount  *collection.Index[*model.User, int]
	MessageCount *collection.Index[*model.User, int]
}

type ThreadIndices struct {
	Name          *collection.Index[*model.Thread, string]
	Created       *collection.Index[*model.Thread, time.Time]
	LastUpdated   *collection.Index[*model.Thread, time.Time]
	LatestMessage *collection.Index[*model.Thread, time.Time]
	MessageCount  *collection.Index[*model.Thread, int]
	PinOrder      *collection.Index[*model.Thread, uint16]
}

type MessageIndices struct {
	Created *collection.Index[*model.Message, time.Time]
}

type TagIndices struct {
	Name         *collection.Index[*model.Tag, string]
	ThreadCount  *collection.Index[*model.Tag, int]
	MessageCount *collection.Index[*model.Tag, int]
}

type CategoryIndices struct {
	Name         *collection.Index[*model.Category, string]
	MessageCount *collection.Index[*model.Category, int]
	DisplayOrder *collection.Index[*model.Category, int16]
}

type AttachmentIndices struct {
	Created  *collection.Index[*model.Attachment, time.Time]
	Name     *collection.Index[*model.Attachment, string]
	Size     *collection.Index[*model.Attachment, uint64]
	Approval *collection.Index[*model.Attachment, bool]
}

type CommentIndices struct {
	Created *collection.Index[*model.Comment, time.Time]
}

func compareTime(a, b time.Time) int { return a.Compare(b) }

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

func (c *EntityCollection) attachIndices() {
	c.UsersBy = UserIndices{
		Name:         collection.NewUniqueIndex("name", func(u *model.User) string { return collate.Key(u.Name) }, strings.Compare),
		Created:      collection.NewIndex("created", func(u *model.User) time.Time { return u.Created }, compareTime),
		LastSeen:     collection.NewIndex("lastSeen", func(u *model.User) time.Time { return u.LastSeen }, compareTime),
		ThreadCount:  collection.NewIndex("threadCount", (*model.User).ThreadCount, cmp.Compare[int]),
		MessageCount: collection.NewIndex("messageCount", (*model.User).MessageCount, cmp.Compare[int]),
	}
	c.Users.Attach(c.UsersBy.Name)
	c.Users.Attach(c.UsersBy.Created)
	c.Users.Attach(c.UsersBy.LastSeen)
	c.Users.Attach(c.UsersBy.ThreadCount)
	c.Users.Attach(c.UsersBy.MessageCount)

	c.ThreadsBy = ThreadIndices{
		Name:          collection.NewIndex("name", func(t *model.Thread) string { return collate.Key(t.Name) }, strings.Compare),
		Created:       collection.NewIndex("created", func(t *model.Thread) time.Time { return t.Created }, compareTime),
		LastUpdated:   collection.NewIndex("lastUpdated", func(t *model.Thread) time.Time { return t.LastUpdated }, compareTime),
		LatestMessage: collection.NewIndex("latestMessageCreated", (*model.Thread).LatestMessageCreated, compareTime),
		MessageCount:  collection.NewIndex("messageCount", (*model.Thread).MessageCount, cmp.Compare[int]),
		PinOrder:      collection.NewIndex("pinDisplayOrder", func(t *model.Thread) uint16 { return t.PinDisplayOrder }, cmp.Compare[uint16]),
	}
	c.Threads.Attach(c.ThreadsBy.Name)
	c.Threads.Attach(c.ThreadsBy.Created)
	c.Threads.Attach(c.ThreadsBy.LastUpdated)
	c.Threads.Attach(c.ThreadsBy.LatestMessage)
	c.Threads.Attach(c.ThreadsBy.MessageCount)
	c.Threads.Attach(c.ThreadsBy.PinOrder)

	c.MessagesBy = MessageIndices{
		Created: collection.NewIndex("created", func(m *model.Message) time.Time { return m.Created }, compareTime),
	}
	c.Messages.Attach(c.MessagesBy.Created)

	c.TagsBy = TagIndices{
		Name:         collection.NewUniqueIndex("name", func(t *model.Tag) string { return collate.Key(t.Name) }, strings.Compare),
		ThreadCount:  collection.NewIndex("threadCount", (*model.Tag).ThreadCount, cmp.Compare[int]),
		MessageCount: collection.NewIndex("messageCount", func(t *model.Tag) int { return t.MessageCount }, cmp.Compare[int]),
	}
	c.Tags.Attach(c.TagsBy.Name)
	c.Tags.Attach(c.TagsBy.ThreadCount)
	c.Tags.Attach(c.TagsBy.MessageCount)

	c.CategoriesBy = CategoryIndices{
		Name:         collection.NewUniqueIndex("name", func(c *model.Category) string { return collate.Key(c.Name) }, strings.Compare),
		MessageCount: collection.NewIndex("messageCount", func(c *model.Category) int { return c.TotalMessageCount }, cmp.Compare[int]),
		DisplayOrder: collection.NewIndex("displayOrder", func(c *model.Category) int16 { return c.DisplayOrder }, cmp.Compare[int16]),
	}
	c.Categories.Attach(c.CategoriesBy.Name)
	c.Categories.Attach(c.CategoriesBy.MessageCount)
	c.Categories.Attach(c.CategoriesBy.DisplayOrder)

	c.AttachmentsBy = AttachmentIndices{
		Created:  collection.NewIndex("created", func(a *model.Attachment) time.Time { return a.Created }, compareTime),
		Name:     collection.NewIndex("name", func(a *model.Attachment) string { return collate.Key(a.Name) }, strings.Compare),
		Size:     collection.NewIndex("size", func(a *model.Attachment) uint64 { return a.Size }, cmp.Compare[uint64]),
		Approval: collection.NewIndex("approval", func(a *model.Attachment) bool { return a.Approved }, compareBool),
	}
	c.Attachments.Attach(c.AttachmentsBy.Created)
	c.Attachments.Attach(c.AttachmentsBy.Name)
	c.Attachments.Attach(c.AttachmentsBy.Size)
	c.Attachments.Attach(c.AttachmentsBy.Approval)

	c.CommentsBy = CommentIndices{
		Created: collection.NewIndex("created", func(c *model.Comment) time.Time { return c.Created }, compareTime),
	}
	c.Comments.Attach(c.CommentsBy.Created)
}
