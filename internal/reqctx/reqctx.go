// Package reqctx carries the ambient data of one request: who is acting, from
// which address, at what time and how results should be displayed.
//
// The transport layer fills it in, the service layer only reads it. Nothing
// in here is mutable after construction.
package reqctx

import (
	"context"
	"time"

	"github.com/sakif/forum/internal/model"
)

// contextKey is unexported so no other package can read or shadow our values.
type contextKey int

const (
	userKey contextKey = iota
	ipKey
	displayKey
	clockKey
)

// Display controls paging, ordering and conditional retrieval of listings.
type Display struct {
	Page      int
	Ascending bool
	// CheckNotChangedSince makes single-entity reads fail with
	// NOT_UPDATED_SINCE_LAST_CHECK when nothing changed after it.
	CheckNotChangedSince time.Time
}

func WithUser(ctx context.Context, id model.ID) context.Context {
	return context.WithValue(ctx, userKey, id)
}

// User returns the acting user, the zero id for anonymous requests.
func User(ctx context.Context) model.ID {
	id, _ := ctx.Value(userKey).(model.ID)
	return id
}

func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey, ip)
}

func IP(ctx context.Context) string {
	ip, _ := ctx.Value(ipKey).(string)
	return ip
}

func WithDisplay(ctx context.Context, d Display) context.Context {
	return context.WithValue(ctx, displayKey, d)
}

// DisplayOf returns the display context; the zero value means first page,
// descending, unconditional.
func DisplayOf(ctx context.Context) Display {
	d, _ := ctx.Value(displayKey).(Display)
	return d
}

// WithClock overrides the time source. Tests use it with a FakeClock.
func WithClock(ctx context.Context, c Clock) context.Context {
	return context.WithValue(ctx, clockKey, c)
}

// Now returns the request time according to the context's clock, or the wall
// clock when none is set.
func Now(ctx context.Context) time.Time {
	if c, ok := ctx.Value(clockKey).(Clock); ok {
		return c.Now()
	}
	return time.Now().UTC()
}
