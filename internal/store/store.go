// Package store holds the forum's entity graph in memory.
//
// THE AGGREGATE ROOT:
// EntityCollection owns one collection.Set per entity kind, the sorted views
// over them and the privilege engine. Entities reference each other by id
// only, and every change that touches two related entities goes through a
// method here so both sides (and every derived counter) stay in sync.
//
// LOCKING:
// One sync.RWMutex guards everything. Read runs its callback under the shared
// lock, Write under the exclusive one. Methods on EntityCollection itself do
// not lock, they assume the caller is inside Read or Write.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sakif/forum/internal/authz"
	"github.com/sakif/forum/internal/collection"
	"github.com/sakif/forum/internal/model"
)

// ErrMissing is returned when an entity refers to another one that does not
// exist. The service layer checks references first, so seeing it is a bug.
var ErrMissing = errors.New("referenced entity does not exist")

func errMissing(kind string, id model.ID) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrMissing)
}

type EntityCollection struct {
	mu sync.RWMutex

	Users       *collection.Set[model.ID, *model.User]
	Threads     *collection.Set[model.ID, *model.Thread]
	Messages    *collection.Set[model.ID, *model.Message]
	Tags        *collection.Set[model.ID, *model.Tag]
	Categories  *collection.Set[model.ID, *model.Category]
	Attachments *collection.Set[model.ID, *model.Attachment]
	Comments    *collection.Set[model.ID, *model.Comment]

	UsersBy       UserIndices
	ThreadsBy     ThreadIndices
	MessagesBy    MessageIndices
	TagsBy        TagIndices
	CategoriesBy  CategoryIndices
	AttachmentsBy AttachmentIndices
	CommentsBy    CommentIndices

	Authz *authz.Engine
}

// New creates an empty collection whose privilege engine starts from
// defaults.
func New(defaults *authz.Defaults) *EntityCollection {
	c := &EntityCollection{
		Users:       collection.New(func(u *model.User) model.ID { return u.ID }),
		Threads:     collection.New(func(t *model.Thread) model.ID { return t.ID }),
		Messages:    collection.New(func(m *model.Message) model.ID { return m.ID }),
		Tags:        collection.New(func(t *model.Tag) model.ID { return t.ID }),
		Categories:  collection.New(func(c *model.Category) model.ID { return c.ID }),
		Attachments: collection.New(func(a *model.Attachment) model.ID { return a.ID }),
		Comments:    collection.New(func(c *model.Comment) model.ID { return c.ID }),
	}
	c.attachIndices()
	c.Authz = authz.NewEngine(defaults, c)
	return c
}

// Read runs fn under the shared lock.
func (c *EntityCollection) Read(fn func(*EntityCollection)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c)
}

// Write runs fn under the exclusive lock.
func (c *EntityCollection) Write(fn func(*EntityCollection)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}

func (c *EntityCollection) User(id model.ID) (*model.User, bool)     { return c.Users.Get(id) }
func (c *EntityCollection) Thread(id model.ID) (*model.Thread, bool) { return c.Threads.Get(id) }
func (c *EntityCollection) Tag(id model.ID) (*model.Tag, bool)       { return c.Tags.Get(id) }

func (c *EntityCollection) Message(id model.ID) (*model.Message, bool) {
	return c.Messages.Get(id)
}

func (c *EntityCollection) Category(id model.ID) (*model.Category, bool) {
	return c.Categories.Get(id)
}

func (c *EntityCollection) Attachment(id model.ID) (*model.Attachment, bool) {
	return c.Attachments.Get(id)
}

func (c *EntityCollection) Comment(id model.ID) (*model.Comment, bool) {
	return c.Comments.Get(id)
}

// Counts is the number of live entities per kind.
type Counts struct {
	Users       int `json:"users"`
	Threads     int `json:"discussionThreads"`
	Messages    int `json:"discussionMessages"`
	Tags        int `json:"discussionTags"`
	Categories  int `json:"discussionCategories"`
	Comments    int `json:"messageComments"`
	Attachments int `json:"attachments"`
}

func (c *EntityCollection) Counts() Counts {
	return Counts{
		Users:       c.Users.Len(),
		Threads:     c.Threads.Len(),
		Messages:    c.Messages.Len(),
		Tags:        c.Tags.Len(),
		Categories:  c.Categories.Len(),
		Comments:    c.Comments.Len(),
		Attachments: c.Attachments.Len(),
	}
}

// SweepExpiredGrants drops grants that expired before now.
func (c *EntityCollection) SweepExpiredGrants(now time.Time) int {
	return c.Authz.Grants.SweepExpired(now)
}
