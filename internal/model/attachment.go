package model

import "time"

// Attachment is a file owned by a user that can be linked to any number of
// messages. Only metadata is kept in memory.
type Attachment struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Size        uint64    `json:"size"`
	CreatedBy   ID        `json:"createdBy"`
	Created     time.Time `json:"created"`
	IP          string    `json:"ip"`
	Approved    bool      `json:"approved"`
	GetRequests uint64    `json:"nrOfGetRequests"`

	Messages IDSet `json:"-"`
}

// Comment is a remark attached to a message. Comments outlive their message
// and are only removed together with their creator.
type Comment struct {
	ID        ID        `json:"id"`
	MessageID ID        `json:"messageId"`
	CreatedBy ID        `json:"createdBy"`
	Content   string    `json:"content"`
	Created   time.Time `json:"created"`
	IP        string    `json:"ip"`
	Solved    bool      `json:"solved"`
}
