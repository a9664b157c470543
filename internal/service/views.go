package service

import (
	"time"

	"github.com/sakif/forum/internal/authz"
	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/store"
)

// VIEWS:
// Entities live behind the store lock, so nothing returned from the service
// may point into the store. Every read copies what the caller may see into
// one of the structs below while the lock is still held.

// Result is what a successful write reports about the entity it created or
// changed.
type Result struct {
	ID      model.ID  `json:"id"`
	Name    string    `json:"name,omitempty"`
	Created time.Time `json:"created"`
}

type UserView struct {
	ID                    model.ID  `json:"id"`
	Name                  string    `json:"name"`
	Info                  string    `json:"info"`
	Title                 string    `json:"title"`
	Signature             string    `json:"signature"`
	Created               time.Time `json:"created"`
	LastSeen              time.Time `json:"lastSeen"`
	ThreadCount           int       `json:"threadCount"`
	MessageCount          int       `json:"messageCount"`
	SubscribedThreadCount int       `json:"subscribedThreadCount"`
	ReceivedUpVotes       int       `json:"receivedUpVotes"`
	ReceivedDownVotes     int       `json:"receivedDownVotes"`
	AttachmentCount       int       `json:"attachmentCount"`
	AttachmentsSize       uint64    `json:"attachmentsSize"`
	AttachmentQuota       uint64    `json:"attachmentQuota"`
}

func (s *Service) userView(u *model.User) UserView {
	return UserView{
		ID:                    u.ID,
		Name:                  u.Name,
		Info:                  u.Info,
		Title:                 u.Title,
		Signature:             u.Signature,
		Created:               u.Created,
		LastSeen:              u.LastSeen,
		ThreadCount:           u.ThreadCount(),
		MessageCount:          u.MessageCount(),
		SubscribedThreadCount: u.SubscribedThreadCount(),
		ReceivedUpVotes:       u.ReceivedUpVotes,
		ReceivedDownVotes:     u.ReceivedDownVotes,
		AttachmentCount:       u.AttachmentCount(),
		AttachmentsSize:       u.AttachmentsSize,
		AttachmentQuota:       s.quotaOf(u),
	}
}

func (s *Service) quotaOf(u *model.User) uint64 {
	if u.AttachmentQuota != nil {
		return *u.AttachmentQuota
	}
	return s.cfg.User.DefaultAttachmentQuota
}

type ThreadView struct {
	ID                     model.ID   `json:"id"`
	Name                   string     `json:"name"`
	CreatedBy              model.ID   `json:"createdBy"`
	Created                time.Time  `json:"created"`
	LastUpdated            time.Time  `json:"lastUpdated"`
	LatestVisibleChange    time.Time  `json:"latestVisibleChange"`
	LatestMessageCreated   time.Time  `json:"latestMessageCreated"`
	PinDisplayOrder        uint16     `json:"pinDisplayOrder"`
	Visited                uint64     `json:"visited"`
	MessageCount           int        `json:"messageCount"`
	SubscriberCount        int        `json:"subscribedUsersCount"`
	Tags                   []model.ID `json:"tags"`
	VisitedSinceLastChange bool       `json:"visitedSinceLastChange"`
	LatestVisitedPage      int        `json:"latestVisitedPage"`
}

func threadView(t *model.Thread, viewer model.ID) ThreadView {
	return ThreadView{
		ID:                     t.ID,
		Name:                   t.Name,
		CreatedBy:              t.CreatedBy,
		Created:                t.Created,
		LastUpdated:            t.LastUpdated,
		LatestVisibleChange:    t.LatestVisibleChange,
		LatestMessageCreated:   t.LatestMessageCreated(),
		PinDisplayOrder:        t.PinDisplayOrder,
		Visited:                t.Visited,
		MessageCount:           t.MessageCount(),
		SubscriberCount:        len(t.Subscribers),
		Tags:                   t.Tags.Sorted(),
		VisitedSinceLastChange: t.HasVisitedSinceLastChange(viewer),
		LatestVisitedPage:      t.LatestVisitedPage[viewer],
	}
}

// MessageView leaves out what the viewer may not see: the creator, the vote
// counts and the IP address are nil or empty unless allowed.
type MessageView struct {
	ID             model.ID             `json:"id"`
	ThreadID       model.ID             `json:"threadId"`
	CreatedBy      *model.ID            `json:"createdBy,omitempty"`
	Content        string               `json:"content"`
	Created        time.Time            `json:"created"`
	IP             string               `json:"ip,omitempty"`
	Approved       bool                 `json:"approved"`
	LastUpdated    *model.MessageUpdate `json:"lastUpdated,omitempty"`
	UpVotes        *int                 `json:"upVotes,omitempty"`
	DownVotes      *int                 `json:"downVotes,omitempty"`
	VoteScore      *int                 `json:"voteScore,omitempty"`
	MyVote         model.Vote           `json:"myVote"`
	CommentCount   *int                 `json:"commentsCount,omitempty"`
	SolvedComments *int                 `json:"solvedCommentsCount,omitempty"`
	Attachments    []model.ID           `json:"attachments"`
}

func messageView(m *model.Message, vis authz.MessageVisibility, viewer model.ID) MessageView {
	v := MessageView{
		ID:          m.ID,
		ThreadID:    m.ThreadID,
		Content:     m.Content,
		Created:     m.Created,
		Approved:    m.Approved,
		Attachments: m.Attachments.IDs(),
	}
	v.MyVote, _ = m.VoteOf(viewer)
	if m.Update != nil {
		update := *m.Update
		if !vis.ViewIP {
			update.IP = ""
		}
		if !vis.ViewCreator {
			update.By = model.ZeroID
		}
		v.LastUpdated = &update
	}
	if vis.ViewCreator {
		creator := m.CreatedBy
		v.CreatedBy = &creator
	}
	if vis.ViewIP {
		v.IP = m.IP
	}
	if vis.ViewVotes {
		up, down, score := len(m.UpVotes), len(m.DownVotes), m.VoteScore()
		v.UpVotes, v.DownVotes, v.VoteScore = &up, &down, &score
	}
	if vis.ViewComments {
		count, solved := m.Comments.Len(), m.SolvedComments
		v.CommentCount, v.SolvedComments = &count, &solved
	}
	return v
}

// messagePage projects messages with one batch visibility computation and
// drops those the viewer may not see at all.
func messagePage(c *store.EntityCollection, messages []*model.Message, viewer model.ID, now time.Time) []MessageView {
	vis := c.Authz.ComputeMessageVisibility(viewer, messages, now)
	out := make([]MessageView, 0, len(messages))
	for i, m := range messages {
		if vis[i].View {
			out = append(out, messageView(m, vis[i], viewer))
		}
	}
	return out
}

type TagView struct {
	ID           model.ID   `json:"id"`
	Name         string     `json:"name"`
	Created      time.Time  `json:"created"`
	LastUpdated  time.Time  `json:"lastUpdated"`
	UIBlob       string     `json:"uiBlob"`
	ThreadCount  int        `json:"threadCount"`
	MessageCount int        `json:"messageCount"`
	Categories   []model.ID `json:"categories"`
}

func tagView(t *model.Tag) TagView {
	return TagView{
		ID:           t.ID,
		Name:         t.Name,
		Created:      t.Created,
		LastUpdated:  t.LastUpdated,
		UIBlob:       t.UIBlob,
		ThreadCount:  t.ThreadCount(),
		MessageCount: t.MessageCount,
		Categories:   t.Categories.Sorted(),
	}
}

type CategoryView struct {
	ID                model.ID       `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	DisplayOrder      int16          `json:"displayOrder"`
	Created           time.Time      `json:"created"`
	LastUpdated       time.Time      `json:"lastUpdated"`
	Parent            *model.ID      `json:"parentId,omitempty"`
	Tags              []model.ID     `json:"tags"`
	ThreadCount       int            `json:"threadCount"`
	MessageCount      int            `json:"messageCount"`
	TotalThreadCount  int            `json:"threadTotalCount"`
	TotalMessageCount int            `json:"messageTotalCount"`
	Children          []CategoryView `json:"children,omitempty"`
}

func categoryView(c *model.Category) CategoryView {
	v := CategoryView{
		ID:                c.ID,
		Name:              c.Name,
		Description:       c.Description,
		DisplayOrder:      c.DisplayOrder,
		Created:           c.Created,
		LastUpdated:       c.LastUpdated,
		Tags:              c.Tags.Sorted(),
		ThreadCount:       c.ThreadCount,
		MessageCount:      c.MessageCount,
		TotalThreadCount:  c.TotalThreadCount,
		TotalMessageCount: c.TotalMessageCount,
	}
	if !c.IsRoot() {
		parent := c.Parent
		v.Parent = &parent
	}
	return v
}

type AttachmentView struct {
	ID          model.ID   `json:"id"`
	Name        string     `json:"name"`
	Size        uint64     `json:"size"`
	CreatedBy   model.ID   `json:"createdBy"`
	Created     time.Time  `json:"created"`
	Approved    bool       `json:"approved"`
	GetRequests uint64     `json:"nrOfGetRequests"`
	Messages    []model.ID `json:"messages"`
}

func attachmentView(a *model.Attachment) AttachmentView {
	return AttachmentView{
		ID:          a.ID,
		Name:        a.Name,
		Size:        a.Size,
		CreatedBy:   a.CreatedBy,
		Created:     a.Created,
		Approved:    a.Approved,
		GetRequests: a.GetRequests,
		Messages:    a.Messages.Sorted(),
	}
}

type CommentView struct {
	ID        model.ID  `json:"id"`
	MessageID model.ID  `json:"messageId"`
	CreatedBy model.ID  `json:"createdBy"`
	Content   string    `json:"content"`
	Created   time.Time `json:"created"`
	Solved    bool      `json:"solved"`
}

func commentView(c *model.Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		MessageID: c.MessageID,
		CreatedBy: c.CreatedBy,
		Content:   c.Content,
		Created:   c.Created,
		Solved:    c.Solved,
	}
}
