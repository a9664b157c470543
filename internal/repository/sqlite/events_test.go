package sqlite

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/observer"
	"github.com/sakif/forum/internal/repository"
)

// newTestDB opens a fresh in-memory database that is closed with the test.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func appendEvent(t *testing.T, db *DB, e observer.Event) repository.Record {
	t.Helper()
	rec, err := db.Append(context.Background(), e)
	if err != nil {
		t.Fatalf("Append(%s) error = %v", e.Kind, err)
	}
	return rec
}

var at = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// =========================================================================
// APPEND TESTS
// =========================================================================

func TestAppend_RoundTripsPayload(t *testing.T) {
	db := newTestDB(t)
	actor, entity, target := model.NewID(), model.NewID(), model.NewID()

	rec := appendEvent(t, db, observer.Event{
		Kind:   observer.ThreadsMerged,
		Actor:  actor,
		At:     at,
		IP:     "192.0.2.1",
		Entity: entity,
		Target: target,
		Old:    "old name",
		New:    "new name",
	})
	if rec.ID == "" {
		t.Fatal("Append() did not assign an id")
	}

	records, err := db.List(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("List() returned %d records, want 1", len(records))
	}
	got := records[0]
	if got.ID != rec.ID {
		t.Errorf("ID = %q, want %q", got.ID, rec.ID)
	}
	if got.Event.Kind != observer.ThreadsMerged {
		t.Errorf("Kind = %q, want %q", got.Event.Kind, observer.ThreadsMerged)
	}
	if got.Event.Actor != actor || got.Event.Entity != entity || got.Event.Target != target {
		t.Errorf("ids did not survive the round trip: %+v", got.Event)
	}
	if !got.Event.At.Equal(at) {
		t.Errorf("At = %v, want %v", got.Event.At, at)
	}
	if got.Event.IP != "192.0.2.1" || got.Event.Old != "old name" || got.Event.New != "new name" {
		t.Errorf("strings did not survive the round trip: %+v", got.Event)
	}
}

func TestAppend_CancelledContext(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := db.Append(ctx, observer.Event{Kind: observer.TagAdded, At: at}); err == nil {
		t.Fatal("Append() with a cancelled context should fail")
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestList_FiltersAndOrder(t *testing.T) {
	db := newTestDB(t)
	alice, bob, thread := model.NewID(), model.NewID(), model.NewID()

	appendEvent(t, db, observer.Event{Kind: observer.ThreadAdded, Actor: alice, Entity: thread, At: at})
	appendEvent(t, db, observer.Event{Kind: observer.MessageAdded, Actor: bob, Entity: model.NewID(), Target: thread, At: at.Add(time.Minute)})
	last := appendEvent(t, db, observer.Event{Kind: observer.ThreadNameChanged, Actor: alice, Entity: thread, At: at.Add(2 * time.Minute)})

	tests := []struct {
		name string
		opts repository.ListOptions
		want int
	}{
		{name: "everything", opts: repository.ListOptions{}, want: 3},
		{name: "by kind", opts: repository.ListOptions{Kind: observer.MessageAdded}, want: 1},
		{name: "by actor", opts: repository.ListOptions{Actor: alice}, want: 2},
		{name: "by entity", opts: repository.ListOptions{Entity: thread}, want: 2},
		{name: "since", opts: repository.ListOptions{Since: at.Add(time.Minute)}, want: 2},
		{name: "limit", opts: repository.ListOptions{Limit: 1}, want: 1},
		{name: "offset past end", opts: repository.ListOptions{Offset: 10}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := db.List(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(records) != tt.want {
				t.Errorf("List() returned %d records, want %d", len(records), tt.want)
			}
		})
	}

	newest, err := db.List(context.Background(), repository.ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if newest[0].ID != last.ID {
		t.Errorf("newest record = %q, want %q", newest[0].ID, last.ID)
	}

	n, err := db.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}

// =========================================================================
// JOURNAL TESTS
// =========================================================================

func TestJournal_PersistsPublishedWrites(t *testing.T) {
	db := newTestDB(t)
	bus := observer.New()
	bus.Register(repository.NewJournal(db, slog.New(slog.NewTextHandler(io.Discard, nil))))

	bus.PublishWrite(context.Background(), observer.Event{Kind: observer.UserAdded, Entity: model.NewID(), At: at})
	bus.PublishRead(context.Background(), observer.Event{Kind: observer.ThreadRead, Entity: model.NewID(), At: at})

	n, err := db.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("journal holds %d records, want 1 (reads are not journaled)", n)
	}
}
