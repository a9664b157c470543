// Package repository defines how the forum's audit journal is stored.
//
// The entity store itself lives in memory (internal/store). What goes to disk
// is the journal: one record per committed write, as published on the event
// bus. internal/repository/sqlite is the only implementation.
package repository

import (
	"context"
	"time"

	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/observer"
)

// Record is one journal row.
type Record struct {
	ID       string         `json:"id"`
	Recorded time.Time      `json:"recorded"`
	Event    observer.Event `json:"event"`
}

// ListOptions filters and pages List. Zero values mean "no filter".
type ListOptions struct {
	Kind   observer.Kind
	Actor  model.ID
	Entity model.ID
	Since  time.Time
	Limit  int
	Offset int
}

type EventRepository interface {
	Append(ctx context.Context, e observer.Event) (Record, error)
	List(ctx context.Context, opts ListOptions) ([]Record, error)
	Count(ctx context.Context) (int, error)
}
