package model

import (
	"time"

	"github.com/sakif/forum/internal/privilege"
)

// MessageUpdate describes the latest edit of a message.
type MessageUpdate struct {
	At     time.Time `json:"at"`
	By     ID        `json:"by"` // zero when hidden from the viewer
	Reason string    `json:"reason"`
	IP     string    `json:"ip"`
}

// Message is a single post in a thread.
type Message struct {
	ID        ID             `json:"id"`
	ThreadID  ID             `json:"threadId"`
	CreatedBy ID             `json:"createdBy"`
	Content   string         `json:"content"`
	Created   time.Time      `json:"created"`
	IP        string         `json:"ip"`
	Approved  bool           `json:"approved"`
	Update    *MessageUpdate `json:"lastUpdated,omitempty"`

	// UpVotes and DownVotes map a voter to the time of the vote. A user is
	// present in at most one of the two.
	UpVotes   map[ID]time.Time `json:"-"`
	DownVotes map[ID]time.Time `json:"-"`

	Attachments    RefList `json:"-"`
	Comments       RefList `json:"-"`
	SolvedComments int     `json:"solvedCommentsCount"`

	Levels privilege.Levels[privilege.Message] `json:"-"`
}

// VoteScore is the number of up votes minus the number of down votes.
func (m *Message) VoteScore() int {
	return len(m.UpVotes) - len(m.DownVotes)
}

// Vote is the state of a single user's vote on a message.
type Vote int8

const (
	VoteNone Vote = 0
	VoteUp   Vote = 1
	VoteDown Vote = -1
)

// VoteOf returns how user voted on m and when.
func (m *Message) VoteOf(user ID) (Vote, time.Time) {
	if at, ok := m.UpVotes[user]; ok {
		return VoteUp, at
	}
	if at, ok := m.DownVotes[user]; ok {
		return VoteDown, at
	}
	return VoteNone, time.Time{}
}
