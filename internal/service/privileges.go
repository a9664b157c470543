package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/forum/internal/apperror"
	"github.com/sakif/forum/internal/authz"
	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/observer"
	"github.com/sakif/forum/internal/privilege"
)

// ADJUSTING PRIVILEGES:
// Levels and durations live on messages, threads, tags, categories and the
// forum-wide defaults. Every target is addressed as (scope, entity id), the
// forum-wide one with the zero id. Changing anything on a target needs that
// target's AdjustPrivilege (AdjustForumWidePrivilege forum-wide), and the
// value of that decision caps how far levels can be moved:
//
//	change a level:  |old| <= with && |new| <= with
//	assign a grant:  |current| < with && |new| < with
//
// where current is what the target user effectively holds right now.

// Levels is everything configured on one target.
type Levels struct {
	Levels    []authz.Level  `json:"levels"`
	Durations []DurationView `json:"durations"`
}

type DurationView struct {
	Name    string `json:"name"`
	Seconds int64  `json:"seconds"`
}

// GrantView is one explicit grant held by a user.
type GrantView struct {
	Privilege privilege.Key   `json:"privilege"`
	Entity    model.ID        `json:"entityId"`
	Value     privilege.Value `json:"value"`
	GrantedAt time.Time       `json:"grantedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// target is an entity that carries privilege levels.
type target struct {
	scope  privilege.Scope
	entity model.ID
	table  authz.Table
	// with is the caller's adjust decision on the target.
	with authz.Decision
	// view reports whether the caller may see the target at all.
	view bool
	// effective resolves what a user holds for k on this target.
	effective func(user model.ID, k privilege.Key) privilege.Value

	thread *model.Thread
	tag    *model.Tag
}

func (o *op) findTarget(scope privilege.Scope, id model.ID) (*target, error) {
	e := o.c.Authz
	switch scope {
	case privilege.ScopeMessage:
		m, err := o.findMessage(id)
		if err != nil {
			return nil, err
		}
		return &target{
			scope:  scope,
			entity: m.ID,
			table:  authz.MessageTable(m),
			with:   e.Message(o.userID(), m, privilege.MessageAdjustPrivilege, o.now),
			view:   e.CanViewMessage(o.userID(), m, o.now),
			effective: func(user model.ID, k privilege.Key) privilege.Value {
				return e.Message(user, m, privilege.Message(k.Kind), o.now).Value
			},
		}, nil
	case privilege.ScopeThread:
		t, err := o.findThread(id)
		if err != nil {
			return nil, err
		}
		return &target{
			scope:  scope,
			entity: t.ID,
			table:  authz.ThreadTable(t),
			with:   e.Thread(o.userID(), t, privilege.ThreadAdjustPrivilege, o.now),
			view:   e.Thread(o.userID(), t, privilege.ThreadView, o.now).Allowed,
			effective: func(user model.ID, k privilege.Key) privilege.Value {
				return e.Thread(user, t, privilege.Thread(k.Kind), o.now).Value
			},
			thread: t,
		}, nil
	case privilege.ScopeTag:
		tag, err := o.findTag(id)
		if err != nil {
			return nil, err
		}
		return &target{
			scope:  scope,
			entity: tag.ID,
			table:  authz.TagTable(tag),
			with:   e.Tag(o.userID(), tag, privilege.TagAdjustPrivilege, o.now),
			view:   e.Tag(o.userID(), tag, privilege.TagView, o.now).Allowed,
			effective: func(user model.ID, k privilege.Key) privilege.Value {
				return e.Tag(user, tag, privilege.Tag(k.Kind), o.now).Value
			},
			tag: tag,
		}, nil
	case privilege.ScopeCategory:
		c, err := o.findCategory(id)
		if err != nil {
			return nil, err
		}
		return &target{
			scope:  scope,
			entity: c.ID,
			table:  authz.CategoryTable(c),
			with:   e.Category(o.userID(), c, privilege.CategoryAdjustPrivilege, o.now),
			view:   e.Category(o.userID(), c, privilege.CategoryView, o.now).Allowed,
			effective: func(user model.ID, k privilege.Key) privilege.Value {
				return e.Category(user, c, privilege.Category(k.Kind), o.now).Value
			},
		}, nil
	case privilege.ScopeForumWide:
		if !id.IsZero() {
			return nil, apperror.ValidationFailed("id", "forum-wide privileges have no entity")
		}
		return &target{
			scope: scope,
			table: e.Defaults.Table(),
			with:  e.ForumWide(o.userID(), privilege.ForumWideAdjustForumWidePrivilege, o.now),
			view:  true,
			effective: func(user model.ID, k privilege.Key) privilege.Value {
				return e.Forum(user, k, o.now).Value
			},
		}, nil
	}
	return nil, apperror.ValidationFailed("scope", fmt.Sprintf("unknown privilege scope %d", scope))
}

// durations lists the durations configured on t.
func (t *target) durations(defaults *authz.Defaults) []DurationView {
	var out []DurationView
	addMessage := func(d privilege.MessageDuration, v time.Duration) {
		out = append(out, DurationView{Name: privilege.ScopeMessage.String() + "." + d.String(), Seconds: int64(v / time.Second)})
	}
	switch {
	case t.thread != nil:
		t.thread.MessageDurations.Each(addMessage)
	case t.tag != nil:
		t.tag.MessageDurations.Each(addMessage)
	case t.scope == privilege.ScopeForumWide:
		defaults.MessageDurations.Each(addMessage)
		defaults.ForumWideDurations.Each(func(d privilege.ForumWideDuration, v time.Duration) {
			out = append(out, DurationView{Name: privilege.ScopeForumWide.String() + "." + d.String(), Seconds: int64(v / time.Second)})
		})
	}
	return out
}

// GetLevels returns what is configured on a target the caller may view.
func (s *Service) GetLevels(ctx context.Context, scope privilege.Scope, id model.ID) (Levels, error) {
	var out Levels
	err := s.read(ctx, func(o *op) error {
		t, err := o.findTarget(scope, id)
		if err != nil {
			return err
		}
		if !t.view {
			return apperror.Forbidden("not allowed to view this " + scope.String())
		}
		out = Levels{Levels: t.table.Entries(), Durations: t.durations(o.c.Authz.Defaults)}
		if out.Levels == nil {
			out.Levels = []authz.Level{}
		}
		if out.Durations == nil {
			out.Durations = []DurationView{}
		}
		return nil
	})
	return out, err
}

func parseKey(name string) (privilege.Key, error) {
	k, err := privilege.ParseKey(name)
	if err != nil {
		return privilege.Key{}, apperror.ValidationFailed("privilege", err.Error())
	}
	return k, nil
}

func checkValue(v privilege.Value) error {
	if !v.Valid() {
		return apperror.ValidationFailed("value", fmt.Sprintf("value must be within [%d, %d]", privilege.MinValue, privilege.MaxValue))
	}
	return nil
}

// ChangeLevel sets the level of the privilege called name on a target.
func (s *Service) ChangeLevel(ctx context.Context, scope privilege.Scope, id model.ID, name string, value privilege.Value) error {
	k, err := parseKey(name)
	if err != nil {
		return err
	}
	if err := checkValue(value); err != nil {
		return err
	}
	err = s.write(ctx, func(o *op) error {
		t, err := o.findTarget(scope, id)
		if err != nil {
			return err
		}
		if !t.table.Accepts(k) {
			return apperror.ValidationFailed("privilege", fmt.Sprintf("%s cannot be configured on a %s", k, scope))
		}
		if err := allowed(t.with, "adjust privileges of this "+scope.String()); err != nil {
			return err
		}
		old, had := t.table.Get(k)
		if had && old == value {
			return apperror.NoEffect("level unchanged")
		}
		if !authz.AllowUpdate(t.with.Value, old, had, value) {
			return apperror.Forbidden(fmt.Sprintf("not allowed to move %s beyond %d", k, t.with.Value))
		}
		t.table.Set(k, value)
		o.emit(observer.Event{
			Kind:   observer.PrivilegeLevelChanged,
			Entity: t.entity,
			Old:    k.String(),
			New:    fmt.Sprintf("%s=%d", k, value),
		})
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("privilege level changed",
		slog.String("scope", scope.String()),
		slog.String("entity", id.String()),
		slog.String("privilege", k.String()),
		slog.Int("value", int(value)),
	)
	return nil
}

// ChangeDuration sets a time limit. Message durations ("message.<name>") may
// be set on threads, tags and forum-wide, the thread durations
// ("forum_wide.<name>") only forum-wide. Zero means unlimited.
func (s *Service) ChangeDuration(ctx context.Context, scope privilege.Scope, id model.ID, name string, d time.Duration) error {
	if d < 0 {
		return apperror.ValidationFailed("duration", "duration must not be negative")
	}
	scopeName, kind, ok := strings.Cut(name, ".")
	if !ok {
		return apperror.ValidationFailed("privilege", fmt.Sprintf("duration %q: expected <scope>.<name>", name))
	}
	return s.write(ctx, func(o *op) error {
		t, err := o.findTarget(scope, id)
		if err != nil {
			return err
		}
		if err := allowed(t.with, "adjust privileges of this "+scope.String()); err != nil {
			return err
		}

		switch {
		case scope == privilege.ScopeForumWide:
			if err := o.c.Authz.Defaults.SetDuration(name, d); err != nil {
				return apperror.ValidationFailed("privilege", err.Error())
			}
		case scopeName == privilege.ScopeMessage.String() && (t.thread != nil || t.tag != nil):
			key, err := privilege.ParseMessageDuration(kind)
			if err != nil {
				return apperror.ValidationFailed("privilege", err.Error())
			}
			if t.thread != nil {
				t.thread.MessageDurations.Set(key, d)
			} else {
				t.tag.MessageDurations.Set(key, d)
			}
		default:
			return apperror.ValidationFailed("privilege", fmt.Sprintf("duration %s cannot be configured on a %s", name, scope))
		}
		o.emit(observer.Event{
			Kind:   observer.PrivilegeDurationChanged,
			Entity: t.entity,
			New:    fmt.Sprintf("%s=%d", name, int64(d/time.Second)),
		})
		return nil
	})
}

// AssignGrant gives user an explicit value for the privilege called name on
// a target. A forum-wide target accepts privileges of every scope, other
// targets only their own. A zero expiresAt never expires. Assigning to the
// zero user id configures what anonymous callers may do.
func (s *Service) AssignGrant(ctx context.Context, scope privilege.Scope, id, user model.ID, name string, value privilege.Value, expiresAt time.Time) error {
	k, err := parseKey(name)
	if err != nil {
		return err
	}
	if err := checkValue(value); err != nil {
		return err
	}
	if scope != privilege.ScopeForumWide && k.Scope != scope {
		return apperror.ValidationFailed("privilege", fmt.Sprintf("%s cannot be granted on a %s", k, scope))
	}
	err = s.write(ctx, func(o *op) error {
		if !expiresAt.IsZero() && !expiresAt.After(o.now) {
			return apperror.ValidationFailed("expiresAt", "expiry must be in the future")
		}
		t, err := o.findTarget(scope, id)
		if err != nil {
			return err
		}
		if !user.IsZero() {
			if _, err := o.findUser(user); err != nil {
				return err
			}
		}
		if err := allowed(t.with, "assign privileges on this "+scope.String()); err != nil {
			return err
		}
		current := t.effective(user, k)
		if !authz.AllowAssignment(t.with.Value, current, value) {
			return apperror.Forbidden(fmt.Sprintf("not allowed to assign %s at %d", k, value))
		}
		o.c.Authz.Grants.Add(authz.Grant{
			User:      user,
			Entity:    t.entity,
			Privilege: k,
			Value:     value,
			GrantedAt: o.now,
			ExpiresAt: expiresAt,
		})
		o.emit(observer.Event{
			Kind:   observer.PrivilegeAssigned,
			Entity: t.entity,
			Target: user,
			New:    fmt.Sprintf("%s=%d", k, value),
		})
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("privilege assigned",
		slog.String("user", user.String()),
		slog.String("entity", id.String()),
		slog.String("privilege", k.String()),
		slog.Int("value", int(value)),
	)
	return nil
}

// GetGrants lists the grants of a user. Users may always see their own.
func (s *Service) GetGrants(ctx context.Context, user model.ID) ([]GrantView, error) {
	var out []GrantView
	err := s.read(ctx, func(o *op) error {
		if !user.IsZero() {
			if _, err := o.findUser(user); err != nil {
				return err
			}
		}
		if o.anonymous() || user != o.userID() {
			if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideAdjustForumWidePrivilege, o.now), "view the grants of users"); err != nil {
				return err
			}
		}
		out = []GrantView{}
		for _, g := range o.c.Authz.Grants.ForUser(user) {
			if !g.ValidAt(o.now) {
				continue
			}
			out = append(out, GrantView{
				Privilege: g.Privilege,
				Entity:    g.Entity,
				Value:     g.Value,
				GrantedAt: g.GrantedAt,
				ExpiresAt: g.ExpiresAt,
			})
		}
		return nil
	})
	return out, err
}
