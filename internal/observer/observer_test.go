package observer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	calls *[]string
}

func (r recorder) OnWrite(_ context.Context, e Event) {
	*r.calls = append(*r.calls, r.name+":write:"+string(e.Kind))
}

func (r recorder) OnRead(_ context.Context, e Event) {
	*r.calls = append(*r.calls, r.name+":read:"+string(e.Kind))
}

func TestListenersRunInRegistrationOrder(t *testing.T) {
	var calls []string
	bus := New()
	bus.Register(recorder{name: "a", calls: &calls})
	bus.Register(WriteFunc(func(_ context.Context, e Event) {
		calls = append(calls, "func:write:"+string(e.Kind))
	}))
	bus.Register(recorder{name: "b", calls: &calls})

	bus.PublishWrite(context.Background(), Event{Kind: "thread.add"})
	bus.PublishRead(context.Background(), Event{Kind: "thread.get"})

	assert.Equal(t, []string{
		"a:write:thread.add",
		"func:write:thread.add",
		"b:write:thread.add",
		"a:read:thread.get",
		"b:read:thread.get",
	}, calls)
}

func TestRegisterIgnoresNonListeners(t *testing.T) {
	bus := New()
	bus.Register(42)
	assert.NotPanics(t, func() { bus.PublishWrite(context.Background(), Event{}) })
}
