package model

import (
	"time"

	"github.com/sakif/forum/internal/privilege"
)

// Category is a node in the category tree. Threads reach a category through
// the tags attached to it.
type Category struct {
	ID           ID        `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DisplayOrder int16     `json:"displayOrder"`
	Created      time.Time `json:"created"`
	LastUpdated  time.Time `json:"lastUpdated"`
	Parent       ID        `json:"parentId"` // zero for root categories

	Children IDSet `json:"-"`
	Tags     IDSet `json:"-"`

	// Direct counters only follow the tags attached to this category; the
	// totals also include every descendant. Each thread is counted once.
	ThreadCount       int `json:"threadCount"`
	MessageCount      int `json:"messageCount"`
	TotalThreadCount  int `json:"threadTotalCount"`
	TotalMessageCount int `json:"messageTotalCount"`

	Levels privilege.Levels[privilege.Category] `json:"-"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.Parent.IsZero()
}
