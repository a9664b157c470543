package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/sakif/forum/internal/apperror"
	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/observer"
	"github.com/sakif/forum/internal/privilege"
)

func (o *op) messageAllowed(m *model.Message, p privilege.Message, action string) error {
	return allowed(o.c.Authz.Message(o.userID(), m, p, o.now), action)
}

// AddMessage posts content to a thread. The message starts approved when the
// caller holds AutoApproveMessage on the thread.
func (s *Service) AddMessage(ctx context.Context, threadID model.ID, content string) (Result, error) {
	if err := checkContent("content", content, s.cfg.Message.Content); err != nil {
		return Result{}, err
	}
	var res Result
	err := s.write(ctx, func(o *op) error {
		t, err := o.findThread(threadID)
		if err != nil {
			return err
		}
		if err := o.threadAllowed(t, privilege.ThreadAddMessage, "add messages to this thread"); err != nil {
			return err
		}
		m := &model.Message{
			ID:        model.NewID(),
			ThreadID:  t.ID,
			CreatedBy: o.userID(),
			Content:   content,
			Created:   o.now,
			IP:        o.ip,
			Approved:  o.c.Authz.Thread(o.userID(), t, privilege.ThreadAutoApproveMessage, o.now).Allowed,
		}
		if err := o.c.InsertMessage(m); err != nil {
			return err
		}
		res = Result{ID: m.ID, Created: m.Created}
		o.emit(observer.Event{Kind: observer.MessageAdded, Entity: m.ID, Target: t.ID})
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("message added", slog.String("id", res.ID.String()), slog.String("thread", threadID.String()))
	return res, nil
}

func (s *Service) GetMessagesOfUser(ctx context.Context, userID model.ID) (Page[MessageView], error) {
	var page Page[MessageView]
	err := s.read(ctx, func(o *op) error {
		u, err := o.findUser(userID)
		if err != nil {
			return err
		}
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetDiscussionThreadMessagesOfUser, o.now), "list the messages of users"); err != nil {
			return err
		}
		size := s.cfg.Message.MaxMessagesPerPage
		ids, total := u.Messages.Page(o.display.Page, size, o.display.Ascending)
		messages := make([]*model.Message, 0, len(ids))
		for _, id := range ids {
			if m, ok := o.c.Message(id); ok {
				messages = append(messages, m)
			}
		}
		page = Page[MessageView]{
			Items:    messagePage(o.c, messages, o.userID(), o.now),
			Total:    total,
			Page:     o.display.Page,
			PageSize: size,
		}
		return nil
	})
	return page, err
}

// GetMessageByID honours CheckNotChangedSince against the latest edit, or the
// creation time of a message never edited.
func (s *Service) GetMessageByID(ctx context.Context, id model.ID) (MessageView, error) {
	var view MessageView
	err := s.read(ctx, func(o *op) error {
		m, err := o.findMessage(id)
		if err != nil {
			return err
		}
		vis := o.c.Authz.ComputeMessageVisibility(o.userID(), []*model.Message{m}, o.now)[0]
		if !vis.View {
			return apperror.Forbidden("not allowed to view this message")
		}
		changed := m.Created
		if m.Update != nil {
			changed = m.Update.At
		}
		if since := o.display.CheckNotChangedSince; !since.IsZero() && !changed.After(since) {
			return apperror.NotModified()
		}
		view = messageView(m, vis, o.userID())
		o.emit(observer.Event{Kind: observer.MessageRead, Entity: m.ID})
		return nil
	})
	return view, err
}

func (s *Service) GetMessagesOfThread(ctx context.Context, threadID model.ID) (Page[MessageView], error) {
	var page Page[MessageView]
	err := s.read(ctx, func(o *op) error {
		t, err := o.findThread(threadID)
		if err != nil {
			return err
		}
		if err := o.threadAllowed(t, privilege.ThreadView, "view this thread"); err != nil {
			return err
		}
		page = s.messagesOfThread(o, t)
		return nil
	})
	return page, err
}

// ChangeMessageContent replaces the content and records reason, the editor
// and their address as the latest update.
func (s *Service) ChangeMessageContent(ctx context.Context, id model.ID, content, reason string) error {
	if err := checkContent("content", content, s.cfg.Message.Content); err != nil {
		return err
	}
	if err := checkContent("changeReason", reason, s.cfg.Message.ChangeReason); err != nil {
		return err
	}
	return s.write(ctx, func(o *op) error {
		m, err := o.findMessage(id)
		if err != nil {
			return err
		}
		if err := o.messageAllowed(m, privilege.MessageChangeContent, "change this message"); err != nil {
			return err
		}
		if m.Content == content {
			return apperror.NoEffect("message content unchanged")
		}
		o.c.ChangeMessageContent(m, content, model.MessageUpdate{
			At:     o.now,
			By:     o.userID(),
			Reason: reason,
			IP:     o.ip,
		})
		o.emit(observer.Event{Kind: observer.MessageContentChanged, Entity: m.ID, New: reason})
		return nil
	})
}

func (s *Service) ChangeMessageApproval(ctx context.Context, id model.ID, approved bool) error {
	return s.write(ctx, func(o *op) error {
		m, err := o.findMessage(id)
		if err != nil {
			return err
		}
		if err := o.messageAllowed(m, privilege.MessageChangeApproval, "change the approval of this message"); err != nil {
			return err
		}
		if !o.c.SetMessageApproval(m, approved) {
			return apperror.NoEffect("message approval unchanged")
		}
		o.emit(observer.Event{Kind: observer.MessageApprovalChanged, Entity: m.ID, New: strconv.FormatBool(approved)})
		return nil
	})
}

func (s *Service) DeleteMessage(ctx context.Context, id model.ID) error {
	err := s.write(ctx, func(o *op) error {
		m, err := o.findMessage(id)
		if err != nil {
			return err
		}
		if err := o.messageAllowed(m, privilege.MessageDelete, "delete this message"); err != nil {
			return err
		}
		thread := m.ThreadID
		o.c.DeleteMessage(m)
		o.emit(observer.Event{Kind: observer.MessageDeleted, Entity: id, Target: thread})
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("message deleted", slog.String("id", id.String()))
	return nil
}

// MoveMessage needs Move on the message and AddMessage on the target thread.
func (s *Service) MoveMessage(ctx context.Context, id, intoThreadID model.ID) error {
	return s.write(ctx, func(o *op) error {
		m, err := o.findMessage(id)
		if err != nil {
			return err
		}
		into, err := o.findThread(intoThreadID)
		if err != nil {
			return err
		}
		if m.ThreadID == into.ID {
			return apperror.NoEffect("message already in that thread")
		}
		if err := o.messageAllowed(m, privilege.MessageMove, "move this message"); err != nil {
			return err
		}
		if err := o.threadAllowed(into, privilege.ThreadAddMessage, "add messages to the target thread"); err != nil {
			return err
		}
		o.c.MoveMessage(m, into, o.userID(), o.now)
		o.emit(observer.Event{Kind: observer.MessageMoved, Entity: m.ID, Target: into.ID})
		return nil
	})
}

func (s *Service) UpVote(ctx context.Context, id model.ID) error {
	return s.vote(ctx, id, model.VoteUp)
}

func (s *Service) DownVote(ctx context.Context, id model.ID) error {
	return s.vote(ctx, id, model.VoteDown)
}

// vote refuses votes on one's own messages. A second vote in either
// direction has no effect until the first one is reset.
func (s *Service) vote(ctx context.Context, id model.ID, vote model.Vote) error {
	p, kind, verb := privilege.MessageUpVote, observer.MessageUpVoted, "up vote"
	if vote == model.VoteDown {
		p, kind, verb = privilege.MessageDownVote, observer.MessageDownVoted, "down vote"
	}
	return s.write(ctx, func(o *op) error {
		m, err := o.findMessage(id)
		if err != nil {
			return err
		}
		if err := o.messageAllowed(m, p, verb+" this message"); err != nil {
			return err
		}
		if o.anonymous() || m.CreatedBy == o.userID() {
			return apperror.Forbidden("not allowed to vote on your own message")
		}
		if !o.c.Vote(m, o.user, vote, o.now) {
			return apperror.NoEffect("already voted")
		}
		o.emit(observer.Event{Kind: kind, Entity: m.ID})
		return nil
	})
}

// ResetVote withdraws the caller's vote, within the reset window counted from
// the vote.
func (s *Service) ResetVote(ctx context.Context, id model.ID) error {
	return s.write(ctx, func(o *op) error {
		m, err := o.findMessage(id)
		if err != nil {
			return err
		}
		if current, _ := m.VoteOf(o.userID()); o.anonymous() || current == model.VoteNone {
			return apperror.NoEffect("no vote to reset")
		}
		if err := o.messageAllowed(m, privilege.MessageResetVote, "reset this vote"); err != nil {
			return err
		}
		o.c.ResetVote(m, o.user)
		o.emit(observer.Event{Kind: observer.MessageVoteReset, Entity: m.ID})
		return nil
	})
}

func (s *Service) AddComment(ctx context.Context, messageID model.ID, content string) (Result, error) {
	if err := checkContent("content", content, s.cfg.Message.Comment); err != nil {
		return Result{}, err
	}
	var res Result
	err := s.write(ctx, func(o *op) error {
		m, err := o.findMessage(messageID)
		if err != nil {
			return err
		}
		if err := o.messageAllowed(m, privilege.MessageAddComment, "comment on this message"); err != nil {
			return err
		}
		comment := &model.Comment{
			ID:        model.NewID(),
			MessageID: m.ID,
			CreatedBy: o.userID(),
			Content:   content,
			Created:   o.now,
			IP:        o.ip,
		}
		if err := o.c.InsertComment(comment); err != nil {
			return err
		}
		res = Result{ID: comment.ID, Created: comment.Created}
		o.emit(observer.Event{Kind: observer.CommentAdded, Entity: comment.ID, Target: m.ID})
		return nil
	})
	return res, err
}

// canViewComment shows comments to their creator and to whoever may read the
// comments of their message. Comments of deleted messages are only shown to
// their creator.
func (o *op) canViewComment(c *model.Comment) bool {
	if !o.anonymous() && c.CreatedBy == o.userID() {
		return true
	}
	m, ok := o.c.Message(c.MessageID)
	return ok && o.c.Authz.Message(o.userID(), m, privilege.MessageGetComments, o.now).Allowed
}

func (s *Service) GetComments(ctx context.Context) (Page[CommentView], error) {
	var page Page[CommentView]
	err := s.read(ctx, func(o *op) error {
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetAllMessageComments, o.now), "list comments"); err != nil {
			return err
		}
		page = pageIndex(scan(o.c.CommentsBy.Created), o.display, s.cfg.Message.MaxCommentsPerPage, o.canViewComment, commentView)
		return nil
	})
	return page, err
}

func (s *Service) GetCommentsOfMessage(ctx context.Context, messageID model.ID) (Page[CommentView], error) {
	var page Page[CommentView]
	err := s.read(ctx, func(o *op) error {
		m, err := o.findMessage(messageID)
		if err != nil {
			return err
		}
		if !o.c.Authz.CanViewMessage(o.userID(), m, o.now) {
			return apperror.Forbidden("not allowed to view this message")
		}
		if err := o.messageAllowed(m, privilege.MessageGetComments, "read the comments of this message"); err != nil {
			return err
		}
		page = pageRefs(&m.Comments, o.display, s.cfg.Message.MaxCommentsPerPage, o.c.Comment, nil, commentView)
		return nil
	})
	return page, err
}

func (s *Service) GetCommentsOfUser(ctx context.Context, userID model.ID) (Page[CommentView], error) {
	var page Page[CommentView]
	err := s.read(ctx, func(o *op) error {
		u, err := o.findUser(userID)
		if err != nil {
			return err
		}
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetMessageCommentsOfUser, o.now), "list the comments of users"); err != nil {
			return err
		}
		page = pageRefs(&u.Comments, o.display, s.cfg.Message.MaxCommentsPerPage, o.c.Comment, o.canViewComment, commentView)
		return nil
	})
	return page, err
}

func (s *Service) SetCommentSolved(ctx context.Context, id model.ID) error {
	return s.write(ctx, func(o *op) error {
		comment, err := o.findComment(id)
		if err != nil {
			return err
		}
		m, err := o.findMessage(comment.MessageID)
		if err != nil {
			return err
		}
		if err := o.messageAllowed(m, privilege.MessageSetCommentToSolved, "mark comments of this message as solved"); err != nil {
			return err
		}
		if !o.c.SetCommentSolved(comment) {
			return apperror.NoEffect("comment already solved")
		}
		o.emit(observer.Event{Kind: observer.CommentSolved, Entity: comment.ID, Target: m.ID})
		return nil
	})
}
