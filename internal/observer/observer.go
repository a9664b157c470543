// Package observer lets other components react to forum operations without
// the services knowing about them.
//
// Listeners register once and are called synchronously, in registration
// order, after the operation has committed and the store lock is released.
// They cannot veto or alter the outcome.
package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sakif/forum/internal/model"
)

// Kind names the operation behind an event, e.g. "thread.add".
type Kind string

// Event describes one committed write or one read.
type Event struct {
	Kind   Kind      `cbor:"1,keyasint" json:"kind"`
	Actor  model.ID  `cbor:"2,keyasint" json:"actor"`
	At     time.Time `cbor:"3,keyasint" json:"at"`
	IP     string    `cbor:"4,keyasint,omitempty" json:"ip,omitempty"`
	Entity model.ID  `cbor:"5,keyasint" json:"entity"`
	// Target is the second entity of two-entity operations (merge into,
	// move to, tag added to).
	Target model.ID `cbor:"6,keyasint,omitempty" json:"target,omitempty"`
	Old    string   `cbor:"7,keyasint,omitempty" json:"old,omitempty"`
	New    string   `cbor:"8,keyasint,omitempty" json:"new,omitempty"`
}

// WriteListener is told about every successful write.
type WriteListener interface {
	OnWrite(ctx context.Context, e Event)
}

// ReadListener is told about reads. Most listeners do not care.
type ReadListener interface {
	OnRead(ctx context.Context, e Event)
}

// WriteFunc adapts a function to WriteListener.
type WriteFunc func(ctx context.Context, e Event)

func (f WriteFunc) OnWrite(ctx context.Context, e Event) { f(ctx, e) }

type Bus struct {
	mu     sync.Mutex
	writes []WriteListener
	reads  []ReadListener
}

func New() *Bus {
	return &Bus{}
}

// Register adds l to every listener list whose interface it implements.
func (b *Bus) Register(l any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := l.(WriteListener); ok {
		b.writes = append(b.writes, w)
	}
	if r, ok := l.(ReadListener); ok {
		b.reads = append(b.reads, r)
	}
}

func (b *Bus) PublishWrite(ctx context.Context, e Event) {
	b.mu.Lock()
	listeners := b.writes
	b.mu.Unlock()

	for _, l := range listeners {
		l.OnWrite(ctx, e)
	}
}

func (b *Bus) PublishRead(ctx context.Context, e Event) {
	b.mu.Lock()
	listeners := b.reads
	b.mu.Unlock()

	for _, l := range listeners {
		l.OnRead(ctx, e)
	}
}
