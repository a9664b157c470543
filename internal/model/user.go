// Package model defines the entities held by the in-memory forum store.
//
// ENTITIES REFER TO EACH OTHER BY ID:
// A message stores the id of its thread, a thread stores the ids of its tags,
// and so on. Nothing holds a pointer to another entity, so every cross-entity
// lookup goes through the owning collection in internal/store. This keeps the
// object graph free of cycles and lets the store replace or delete any entity
// without leaving dangling pointers behind.
//
// Derived counters (thread counts, message counts, vote totals) are exported
// fields, but only internal/store writes them.
package model

import "time"

// AnonymousName is the display name of the anonymous user.
const AnonymousName = "<anonymous>"

// User is a registered account.
type User struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Info      string    `json:"info"`
	Title     string    `json:"title"`
	Signature string    `json:"signature"`
	Created   time.Time `json:"created"`
	LastSeen  time.Time `json:"lastSeen"`

	// AuthHash is the bcrypt hash of the external auth key the user logs in with.
	AuthHash []byte `json:"-"`

	// AttachmentQuota overrides the configured default when set.
	AttachmentQuota *uint64 `json:"attachmentQuota,omitempty"`

	Threads           RefList `json:"-"`
	Messages          RefList `json:"-"`
	Comments          RefList `json:"-"`
	Attachments       RefList `json:"-"`
	SubscribedThreads IDSet   `json:"-"`
	VotedMessages     IDSet   `json:"-"`
	ReceivedUpVotes   int     `json:"receivedUpVotes"`
	ReceivedDownVotes int     `json:"receivedDownVotes"`
	AttachmentsSize   uint64  `json:"attachmentsSize"`
}

// Anonymous returns a fresh copy of the anonymous user. It is never stored.
func Anonymous() *User {
	return &User{ID: ZeroID, Name: AnonymousName}
}

// IsAnonymous reports whether u represents an unauthenticated caller.
func (u *User) IsAnonymous() bool {
	return u == nil || u.ID.IsZero()
}

func (u *User) ThreadCount() int           { return u.Threads.Len() }
func (u *User) MessageCount() int          { return u.Messages.Len() }
func (u *User) SubscribedThreadCount() int { return len(u.SubscribedThreads) }
func (u *User) AttachmentCount() int       { return u.Attachments.Len() }
