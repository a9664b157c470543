package model

import (
	"time"

	"github.com/sakif/forum/internal/privilege"
)

// Thread is a discussion thread. Messages are kept in creation order.
type Thread struct {
	ID                  ID        `json:"id"`
	Name                string    `json:"name"`
	CreatedBy           ID        `json:"createdBy"`
	Created             time.Time `json:"created"`
	LastUpdated         time.Time `json:"lastUpdated"`
	LastUpdatedBy       ID        `json:"lastUpdatedBy"`
	LatestVisibleChange time.Time `json:"latestVisibleChange"`
	PinDisplayOrder     uint16    `json:"pinDisplayOrder"`
	Visited             uint64    `json:"visited"`

	Messages    RefList `json:"-"`
	Tags        IDSet   `json:"-"`
	Subscribers IDSet   `json:"-"`

	// LatestVisitedPage remembers, per user, the last page of messages they loaded.
	LatestVisitedPage map[ID]int `json:"-"`

	// VisitedSinceLastChange holds the users that loaded the thread after its
	// latest visible change. It is emptied whenever that timestamp moves.
	VisitedSinceLastChange IDSet `json:"-"`

	ThreadLevels     privilege.Levels[privilege.Thread]             `json:"-"`
	MessageLevels    privilege.Levels[privilege.Message]            `json:"-"`
	MessageDurations privilege.Durations[privilege.MessageDuration] `json:"-"`
}

// MessageCount returns the number of live messages in the thread.
func (t *Thread) MessageCount() int {
	return t.Messages.Len()
}

// LatestMessageCreated returns the creation time of the newest message, or
// the thread creation time for an empty thread.
func (t *Thread) LatestMessageCreated() time.Time {
	if last, ok := t.Messages.Last(); ok {
		return last.At
	}
	return t.Created
}

// Touch records a visible change made by user at now.
func (t *Thread) Touch(by ID, now time.Time) {
	t.LastUpdated = now
	t.LastUpdatedBy = by
	t.LatestVisibleChange = now
	clear(t.VisitedSinceLastChange)
}

// MarkVisited records that user saw the current state of the thread. The set
// never grows beyond limit members.
func (t *Thread) MarkVisited(user ID, limit int) {
	if user.IsZero() || len(t.VisitedSinceLastChange) >= limit {
		return
	}
	t.VisitedSinceLastChange.Add(user)
}

// HasVisitedSinceLastChange reports whether user already saw the latest change.
func (t *Thread) HasVisitedSinceLastChange(user ID) bool {
	return t.VisitedSinceLastChange.Has(user)
}

// SetLatestVisitedPage stores the page number a user last loaded.
func (t *Thread) SetLatestVisitedPage(user ID, page int) {
	if user.IsZero() {
		return
	}
	if t.LatestVisitedPage == nil {
		t.LatestVisitedPage = make(map[ID]int)
	}
	t.LatestVisitedPage[user] = page
}
