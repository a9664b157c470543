package model

import (
	"time"

	"github.com/sakif/forum/internal/privilege"
)

// Tag groups threads. MessageCount is the number of messages in all of its
// threads and is maintained by the store.
type Tag struct {
	ID           ID        `json:"id"`
	Name         string    `json:"name"`
	Created      time.Time `json:"created"`
	LastUpdated  time.Time `json:"lastUpdated"`
	UIBlob       string    `json:"uiBlob"`
	MessageCount int       `json:"messageCount"`

	Threads    IDSet `json:"-"`
	Categories IDSet `json:"-"`

	TagLevels        privilege.Levels[privilege.Tag]                `json:"-"`
	ThreadLevels     privilege.Levels[privilege.Thread]             `json:"-"`
	MessageLevels    privilege.Levels[privilege.Message]            `json:"-"`
	MessageDurations privilege.Durations[privilege.MessageDuration] `json:"-"`
}

// ThreadCount returns the number of threads carrying the tag.
func (t *Tag) ThreadCount() int {
	return len(t.Threads)
}
