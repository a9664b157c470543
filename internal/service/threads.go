package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/sakif/forum/internal/apperror"
	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/observer"
	"github.com/sakif/forum/internal/privilege"
	"github.com/sakif/forum/internal/store"
)

// ThreadDetail is a thread together with one page of its messages.
type ThreadDetail struct {
	ThreadView
	Messages Page[MessageView] `json:"messages"`
}

func (o *op) canViewThread(t *model.Thread) bool {
	return o.c.Authz.Thread(o.userID(), t, privilege.ThreadView, o.now).Allowed
}

func (o *op) threadAllowed(t *model.Thread, p privilege.Thread, action string) error {
	return allowed(o.c.Authz.Thread(o.userID(), t, p, o.now), action)
}

func (s *Service) AddThread(ctx context.Context, name string) (Result, error) {
	if err := checkName("name", name, s.cfg.Thread.Name); err != nil {
		return Result{}, err
	}
	var res Result
	err := s.write(ctx, func(o *op) error {
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideAddDiscussionThread, o.now), "add threads"); err != nil {
			return err
		}
		t := &model.Thread{
			ID:                  model.NewID(),
			Name:                name,
			CreatedBy:           o.userID(),
			Created:             o.now,
			LastUpdated:         o.now,
			LastUpdatedBy:       o.userID(),
			LatestVisibleChange: o.now,
		}
		if err := o.c.InsertThread(t); err != nil {
			return err
		}
		res = Result{ID: t.ID, Name: t.Name, Created: t.Created}
		o.emit(observer.Event{Kind: observer.ThreadAdded, Entity: t.ID, New: t.Name})
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("thread added", slog.String("id", res.ID.String()), slog.String("name", res.Name))
	return res, nil
}

// GetThreads lists every thread the caller may view.
func (s *Service) GetThreads(ctx context.Context, by ThreadOrder) (Page[ThreadView], error) {
	var page Page[ThreadView]
	err := s.read(ctx, func(o *op) error {
		ix, err := by.scanner(o.c)
		if err != nil {
			return err
		}
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetAllDiscussionThreads, o.now), "list threads"); err != nil {
			return err
		}
		page = pageIndex(ix, o.display, s.cfg.Thread.MaxThreadsPerPage, o.canViewThread, o.threadView)
		return nil
	})
	return page, err
}

func (o *op) threadView(t *model.Thread) ThreadView {
	return threadView(t, o.userID())
}

// GetThreadByID returns the thread with the requested page of its messages.
// With a CheckNotChangedSince in the display context it fails with
// NOT_UPDATED_SINCE_LAST_CHECK unless a visible change happened after it.
//
// Loading a thread counts as a visit: the visit counter, the visited set and
// the caller's latest visited page are updated by a deferred task.
func (s *Service) GetThreadByID(ctx context.Context, id model.ID) (ThreadDetail, error) {
	var detail ThreadDetail
	err := s.read(ctx, func(o *op) error {
		t, err := o.findThread(id)
		if err != nil {
			return err
		}
		if err := o.threadAllowed(t, privilege.ThreadView, "view this thread"); err != nil {
			return err
		}
		since := o.display.CheckNotChangedSince
		if !since.IsZero() && !t.LatestVisibleChange.After(since) {
			return apperror.NotModified()
		}

		detail.ThreadView = o.threadView(t)
		detail.Messages = s.messagesOfThread(o, t)

		user, page, limit := o.userID(), o.display.Page, s.cfg.Thread.MaxUsersInVisitedSinceLastChange
		o.later(func(c *store.EntityCollection) {
			t, ok := c.Thread(id)
			if !ok {
				return
			}
			t.Visited++
			t.MarkVisited(user, limit)
			t.SetLatestVisitedPage(user, page)
		})
		o.emit(observer.Event{Kind: observer.ThreadRead, Entity: t.ID})
		return nil
	})
	return detail, err
}

func (s *Service) messagesOfThread(o *op, t *model.Thread) Page[MessageView] {
	size := s.cfg.Message.MaxMessagesPerPage
	ids, total := t.Messages.Page(o.display.Page, size, o.display.Ascending)
	messages := make([]*model.Message, 0, len(ids))
	for _, id := range ids {
		if m, ok := o.c.Message(id); ok {
			messages = append(messages, m)
		}
	}
	return Page[MessageView]{
		Items:    messagePage(o.c, messages, o.userID(), o.now),
		Total:    total,
		Page:     o.display.Page,
		PageSize: size,
	}
}

// threadList pages a set of threads that has no index of its own.
func (s *Service) threadList(o *op, threads []*model.Thread, by ThreadOrder) (Page[ThreadView], error) {
	order, err := by.compare()
	if err != nil {
		return Page[ThreadView]{}, err
	}
	threads = inserted(threads, func(t *model.Thread) uint64 { return o.c.Threads.Sequence(t.ID) })
	return pageSet(threads, order, o.display, s.cfg.Thread.MaxThreadsPerPage, o.canViewThread, o.threadView), nil
}

func (o *op) threadsByID(ids []model.ID) []*model.Thread {
	out := make([]*model.Thread, 0, len(ids))
	for _, id := range ids {
		if t, ok := o.c.Thread(id); ok {
			out = append(out, t)
		}
	}
	return out
}

func (s *Service) GetThreadsOfUser(ctx context.Context, userID model.ID, by ThreadOrder) (Page[ThreadView], error) {
	var page Page[ThreadView]
	err := s.read(ctx, func(o *op) error {
		u, err := o.findUser(userID)
		if err != nil {
			return err
		}
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetDiscussionThreadsOfUser, o.now), "list the threads of users"); err != nil {
			return err
		}
		page, err = s.threadList(o, o.threadsByID(u.Threads.IDs()), by)
		return err
	})
	return page, err
}

func (s *Service) GetThreadsWithTag(ctx context.Context, tagID model.ID, by ThreadOrder) (Page[ThreadView], error) {
	var page Page[ThreadView]
	err := s.read(ctx, func(o *op) error {
		tag, err := o.findTag(tagID)
		if err != nil {
			return err
		}
		if err := allowed(o.c.Authz.Tag(o.userID(), tag, privilege.TagGetDiscussionThreads, o.now), "list the threads of this tag"); err != nil {
			return err
		}
		page, err = s.threadList(o, o.threadsByID(tag.Threads.Sorted()), by)
		return err
	})
	return page, err
}

// GetThreadsOfCategory includes the threads of every descendant category.
func (s *Service) GetThreadsOfCategory(ctx context.Context, categoryID model.ID, by ThreadOrder) (Page[ThreadView], error) {
	var page Page[ThreadView]
	err := s.read(ctx, func(o *op) error {
		category, err := o.findCategory(categoryID)
		if err != nil {
			return err
		}
		if err := allowed(o.c.Authz.Category(o.userID(), category, privilege.CategoryGetDiscussionThreads, o.now), "list the threads of this category"); err != nil {
			return err
		}
		page, err = s.threadList(o, o.c.ThreadsOfCategory(category, true), by)
		return err
	})
	return page, err
}

func (s *Service) GetSubscribedThreadsOfUser(ctx context.Context, userID model.ID, by ThreadOrder) (Page[ThreadView], error) {
	var page Page[ThreadView]
	err := s.read(ctx, func(o *op) error {
		u, err := o.findUser(userID)
		if err != nil {
			return err
		}
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetSubscribedDiscussionThreadsOfUser, o.now), "list subscriptions"); err != nil {
			return err
		}
		page, err = s.threadList(o, o.threadsByID(u.SubscribedThreads.Sorted()), by)
		return err
	})
	return page, err
}

func (s *Service) ChangeThreadName(ctx context.Context, id model.ID, name string) error {
	if err := checkName("name", name, s.cfg.Thread.Name); err != nil {
		return err
	}
	return s.write(ctx, func(o *op) error {
		t, err := o.findThread(id)
		if err != nil {
			return err
		}
		if err := o.threadAllowed(t, privilege.ThreadChangeName, "rename this thread"); err != nil {
			return err
		}
		if t.Name == name {
			return apperror.NoEffect("thread already has that name")
		}
		old := t.Name
		o.c.RenameThread(t, name, o.userID(), o.now)
		o.emit(observer.Event{Kind: observer.ThreadNameChanged, Entity: t.ID, Old: old, New: name})
		return nil
	})
}

// ChangeThreadPinDisplayOrder pins the thread when order > 0 and unpins it
// when order is 0.
func (s *Service) ChangeThreadPinDisplayOrder(ctx context.Context, id model.ID, order uint16) error {
	return s.write(ctx, func(o *op) error {
		t, err := o.findThread(id)
		if err != nil {
			return err
		}
		if err := o.threadAllowed(t, privilege.ThreadChangePinDisplayOrder, "pin this thread"); err != nil {
			return err
		}
		if t.PinDisplayOrder == order {
			return apperror.NoEffect("pin display order unchanged")
		}
		old := t.PinDisplayOrder
		o.c.SetPinDisplayOrder(t, order, o.userID(), o.now)
		o.emit(observer.Event{
			Kind:   observer.ThreadPinOrderChanged,
			Entity: t.ID,
			Old:    strconv.Itoa(int(old)),
			New:    strconv.Itoa(int(order)),
		})
		return nil
	})
}

func (s *Service) DeleteThread(ctx context.Context, id model.ID) error {
	err := s.write(ctx, func(o *op) error {
		t, err := o.findThread(id)
		if err != nil {
			return err
		}
		if err := o.threadAllowed(t, privilege.ThreadDelete, "delete this thread"); err != nil {
			return err
		}
		name := t.Name
		o.c.DeleteThread(t)
		o.emit(observer.Event{Kind: observer.ThreadDeleted, Entity: id, Old: name})
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("thread deleted", slog.String("id", id.String()))
	return nil
}

// MergeThreads moves everything from one thread into another and deletes the
// first. The caller needs Merge on both.
func (s *Service) MergeThreads(ctx context.Context, fromID, intoID model.ID) error {
	err := s.write(ctx, func(o *op) error {
		from, err := o.findThread(fromID)
		if err != nil {
			return err
		}
		into, err := o.findThread(intoID)
		if err != nil {
			return err
		}
		if from.ID == into.ID {
			return apperror.NoEffect("cannot merge a thread into itself")
		}
		if err := o.threadAllowed(from, privilege.ThreadMerge, "merge this thread"); err != nil {
			return err
		}
		if err := o.threadAllowed(into, privilege.ThreadMerge, "merge into this thread"); err != nil {
			return err
		}
		o.c.MergeThreads(from, into, o.userID(), o.now)
		o.emit(observer.Event{Kind: observer.ThreadsMerged, Entity: fromID, Target: intoID})
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("threads merged", slog.String("from", fromID.String()), slog.String("into", intoID.String()))
	return nil
}

func (s *Service) SubscribeToThread(ctx context.Context, id model.ID) error {
	return s.write(ctx, func(o *op) error {
		t, err := o.findThread(id)
		if err != nil {
			return err
		}
		if err := o.threadAllowed(t, privilege.ThreadSubscribe, "subscribe to this thread"); err != nil {
			return err
		}
		if o.anonymous() || !o.c.Subscribe(t, o.user) {
			return apperror.NoEffect("already subscribed")
		}
		o.emit(observer.Event{Kind: observer.ThreadSubscribed, Entity: t.ID})
		return nil
	})
}

func (s *Service) UnsubscribeFromThread(ctx context.Context, id model.ID) error {
	return s.write(ctx, func(o *op) error {
		t, err := o.findThread(id)
		if err != nil {
			return err
		}
		if err := o.threadAllowed(t, privilege.ThreadUnsubscribe, "unsubscribe from this thread"); err != nil {
			return err
		}
		if o.anonymous() || !o.c.Unsubscribe(t, o.user) {
			return apperror.NoEffect("not subscribed")
		}
		o.emit(observer.Event{Kind: observer.ThreadUnsubscribed, Entity: t.ID})
		return nil
	})
}
