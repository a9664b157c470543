package reqctx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/forum/internal/model"
)

func TestEmptyContextIsAnonymous(t *testing.T) {
	ctx := context.Background()

	assert.True(t, User(ctx).IsZero())
	assert.Empty(t, IP(ctx))
	assert.Equal(t, Display{}, DisplayOf(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Minute)
}

func TestValuesRoundTrip(t *testing.T) {
	id := model.NewID()
	clock := Fake(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	display := Display{Page: 3, Ascending: true}

	ctx := WithUser(context.Background(), id)
	ctx = WithIP(ctx, "10.0.0.1")
	ctx = WithDisplay(ctx, display)
	ctx = WithClock(ctx, clock)

	assert.Equal(t, id, User(ctx))
	assert.Equal(t, "10.0.0.1", IP(ctx))
	assert.Equal(t, display, DisplayOf(ctx))
	assert.Equal(t, clock.Now(), Now(ctx))

	clock.Advance(time.Hour)
	assert.Equal(t, time.Date(2026, 5, 1, 1, 0, 0, 0, time.UTC), Now(ctx))
}
