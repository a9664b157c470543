// Package service is the repository layer of the forum: the only way in to
// the entity store.
//
// THE SHAPE OF EVERY OPERATION:
//
//  1. Validate the arguments. Nothing is locked yet.
//  2. Take the store's read or write lock for the whole operation.
//  3. Resolve the acting user from the request context (anonymous when the
//     id is unknown) and bump their last-seen time.
//  4. Ask the privilege engine. A denial returns before anything changes.
//  5. Read or mutate the store.
//  6. After the lock is released, tell the observers what happened.
//  7. Return minimal data (id, name, created) for writes, a view for reads.
//
// Errors are *apperror.AppError values. apperror.StatusOf maps any returned
// error onto the status enumeration the transport layer reports.
//
// READS THAT NEED TO WRITE:
// A read runs under the shared lock and must not modify anything, yet some
// reads have side effects: the last-seen bump, thread visit counters and the
// attachment download counter. Those are queued as Tasks and executed later
// by Flush in one short write. The jobs package calls Flush whenever Ready
// fires. Tests call it directly.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/forum/internal/config"
	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/observer"
	"github.com/sakif/forum/internal/reqctx"
	"github.com/sakif/forum/internal/store"
)

// TokenIssuer signs session tokens. *auth.TokenService implements it.
type TokenIssuer interface {
	Generate(user model.ID) (string, error)
}

// KeyHasher hashes and verifies user auth keys. *auth.KeyHasher implements it.
type KeyHasher interface {
	Hash(key string) ([]byte, error)
	Verify(hash []byte, key string) error
}

// Task is deferred work that runs under the write lock. Tasks look entities
// up again by id since anything may have been deleted in between.
type Task func(c *store.EntityCollection)

// Deps are the collaborators of a Service. Store, Config, Events, Keys and
// Logger are required. Without Tokens, Login is refused.
type Deps struct {
	Store   *store.EntityCollection
	Config  *config.Config
	Events  *observer.Bus
	Keys    KeyHasher
	Tokens  TokenIssuer
	Logger  *slog.Logger
	Version string
}

type Service struct {
	store   *store.EntityCollection
	cfg     *config.Config
	events  *observer.Bus
	keys    KeyHasher
	tokens  TokenIssuer
	logger  *slog.Logger
	version string

	mu      sync.Mutex
	pending []Task
	ready   chan struct{}
}

// New panics on missing collaborators. That is a wiring bug, not something a
// caller can recover from.
func New(deps Deps) *Service {
	switch {
	case deps.Store == nil:
		panic("service: nil store")
	case deps.Config == nil:
		panic("service: nil config")
	case deps.Events == nil:
		panic("service: nil event bus")
	case deps.Keys == nil:
		panic("service: nil key hasher")
	case deps.Logger == nil:
		panic("service: nil logger")
	}
	return &Service{
		store:   deps.Store,
		cfg:     deps.Config,
		events:  deps.Events,
		keys:    deps.Keys,
		tokens:  deps.Tokens,
		logger:  deps.Logger,
		version: deps.Version,
		ready:   make(chan struct{}, 1),
	}
}

// op carries the state of one operation while the lock is held.
type op struct {
	c       *store.EntityCollection
	now     time.Time
	user    *model.User
	ip      string
	display reqctx.Display

	events []observer.Event
	tasks  []Task
}

func (s *Service) newOp(ctx context.Context, c *store.EntityCollection) *op {
	o := &op{
		c:       c,
		now:     reqctx.Now(ctx),
		ip:      reqctx.IP(ctx),
		display: reqctx.DisplayOf(ctx),
		user:    model.Anonymous(),
	}
	if u, ok := c.User(reqctx.User(ctx)); ok {
		o.user = u
	}
	return o
}

func (o *op) userID() model.ID { return o.user.ID }

func (o *op) anonymous() bool { return o.user.IsAnonymous() }

// emit records an event that is published once the lock is released.
func (o *op) emit(e observer.Event) {
	e.Actor = o.user.ID
	e.At = o.now
	e.IP = o.ip
	o.events = append(o.events, e)
}

// later queues t to run in a follow-up write.
func (o *op) later(t Task) {
	o.tasks = append(o.tasks, t)
}

func (s *Service) write(ctx context.Context, fn func(o *op) error) error {
	var (
		o   *op
		err error
	)
	s.store.Write(func(c *store.EntityCollection) {
		o = s.newOp(ctx, c)
		if !o.anonymous() {
			c.UpdateLastSeen(o.user.ID, o.now, s.cfg.User.LastSeenUpdatePrecision.Duration())
		}
		err = fn(o)
	})
	if err != nil {
		return err
	}
	for _, e := range o.events {
		s.events.PublishWrite(ctx, e)
	}
	return nil
}

func (s *Service) read(ctx context.Context, fn func(o *op) error) error {
	var (
		o   *op
		err error
	)
	s.store.Read(func(c *store.EntityCollection) {
		o = s.newOp(ctx, c)
		if !o.anonymous() && o.now.Sub(o.user.LastSeen) >= s.cfg.User.LastSeenUpdatePrecision.Duration() {
			id, now, precision := o.user.ID, o.now, s.cfg.User.LastSeenUpdatePrecision.Duration()
			o.later(func(c *store.EntityCollection) { c.UpdateLastSeen(id, now, precision) })
		}
		err = fn(o)
	})
	s.enqueue(o.tasks...)
	if err != nil {
		return err
	}
	for _, e := range o.events {
		s.events.PublishRead(ctx, e)
	}
	return nil
}

func (s *Service) enqueue(tasks ...Task) {
	if len(tasks) == 0 {
		return
	}
	s.mu.Lock()
	s.pending = append(s.pending, tasks...)
	full := s.cfg.Jobs.LastSeenQueueSize > 0 && len(s.pending) >= s.cfg.Jobs.LastSeenQueueSize
	s.mu.Unlock()

	if full {
		s.Flush()
		return
	}
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Ready receives a value whenever deferred tasks are waiting for Flush.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Flush runs every queued task in a single write and returns how many ran.
func (s *Service) Flush() int {
	s.mu.Lock()
	tasks := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(tasks) == 0 {
		return 0
	}
	s.store.Write(func(c *store.EntityCollection) {
		for _, t := range tasks {
			t(c)
		}
	})
	return len(tasks)
}

// SweepExpiredGrants drops expired grants. The jobs package runs it on a
// timer. Expired grants are already ignored by every check, this only frees
// memory.
func (s *Service) SweepExpiredGrants(now time.Time) int {
	var n int
	s.store.Write(func(c *store.EntityCollection) {
		n = c.SweepExpiredGrants(now)
	})
	if n > 0 {
		s.logger.Debug("expired grants swept", slog.Int("count", n))
	}
	return n
}
