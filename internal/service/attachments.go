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

func (o *op) canViewAttachment(a *model.Attachment) bool {
	return o.c.Authz.CanViewAttachment(o.userID(), a, o.now)
}

// authorizeAttachmentChange picks the "own" or the "any" privilege depending
// on who created the attachment.
func (o *op) authorizeAttachmentChange(a *model.Attachment, own, any privilege.ForumWide, action string) error {
	p := any
	if !o.anonymous() && a.CreatedBy == o.userID() {
		p = own
	}
	return allowed(o.c.Authz.ForumWide(o.userID(), p, o.now), action)
}

// AddAttachment records the metadata of an uploaded file. The size counts
// against the creator's quota, the per-user override or the configured
// default.
func (s *Service) AddAttachment(ctx context.Context, name string, size uint64) (Result, error) {
	if err := checkAttachmentName("name", name, s.cfg.Attachment.Name); err != nil {
		return Result{}, err
	}
	var res Result
	err := s.write(ctx, func(o *op) error {
		if o.anonymous() {
			return apperror.Forbidden("anonymous users cannot add attachments")
		}
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideAddAttachment, o.now), "add attachments"); err != nil {
			return err
		}
		used, quota := o.user.AttachmentsSize, s.quotaOf(o.user)
		if size > quota || used > quota-size {
			return apperror.QuotaExceeded(used, size, quota)
		}
		a := &model.Attachment{
			ID:        model.NewID(),
			Name:      name,
			Size:      size,
			CreatedBy: o.userID(),
			Created:   o.now,
			IP:        o.ip,
			Approved:  o.c.Authz.ForumWide(o.userID(), privilege.ForumWideAutoApproveAttachment, o.now).Allowed,
		}
		if err := o.c.InsertAttachment(a); err != nil {
			return err
		}
		res = Result{ID: a.ID, Name: a.Name, Created: a.Created}
		o.emit(observer.Event{Kind: observer.AttachmentAdded, Entity: a.ID, New: strconv.FormatUint(size, 10)})
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("attachment added", slog.String("id", res.ID.String()), slog.Uint64("size", size))
	return res, nil
}

func (s *Service) GetAttachments(ctx context.Context, by AttachmentOrder) (Page[AttachmentView], error) {
	var page Page[AttachmentView]
	err := s.read(ctx, func(o *op) error {
		ix, err := by.scanner(o.c)
		if err != nil {
			return err
		}
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetAllAttachments, o.now), "list attachments"); err != nil {
			return err
		}
		page = pageIndex(ix, o.display, s.cfg.Attachment.MaxAttachmentsPerPage, o.canViewAttachment, attachmentView)
		return nil
	})
	return page, err
}

func (s *Service) GetAttachmentsOfUser(ctx context.Context, userID model.ID, by AttachmentOrder) (Page[AttachmentView], error) {
	var page Page[AttachmentView]
	err := s.read(ctx, func(o *op) error {
		order, err := by.compare()
		if err != nil {
			return err
		}
		u, err := o.findUser(userID)
		if err != nil {
			return err
		}
		if u.ID != o.userID() {
			if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetAttachmentsOfUser, o.now), "list the attachments of users"); err != nil {
				return err
			}
		}
		attachments := make([]*model.Attachment, 0, u.Attachments.Len())
		for _, id := range u.Attachments.IDs() {
			if a, ok := o.c.Attachment(id); ok {
				attachments = append(attachments, a)
			}
		}
		attachments = inserted(attachments, func(a *model.Attachment) uint64 { return o.c.Attachments.Sequence(a.ID) })
		page = pageSet(attachments, order, o.display, s.cfg.Attachment.MaxAttachmentsPerPage, o.canViewAttachment, attachmentView)
		return nil
	})
	return page, err
}

// GetAttachment returns the metadata of one attachment and counts the
// request.
func (s *Service) GetAttachment(ctx context.Context, id model.ID) (AttachmentView, error) {
	var view AttachmentView
	err := s.read(ctx, func(o *op) error {
		a, err := o.findAttachment(id)
		if err != nil {
			return err
		}
		if !o.canViewAttachment(a) {
			return apperror.Forbidden("not allowed to view this attachment")
		}
		view = attachmentView(a)
		o.later(func(c *store.EntityCollection) {
			if a, ok := c.Attachment(id); ok {
				a.GetRequests++
			}
		})
		o.emit(observer.Event{Kind: observer.AttachmentRead, Entity: a.ID})
		return nil
	})
	return view, err
}

func (s *Service) ChangeAttachmentName(ctx context.Context, id model.ID, name string) error {
	if err := checkAttachmentName("name", name, s.cfg.Attachment.Name); err != nil {
		return err
	}
	return s.write(ctx, func(o *op) error {
		a, err := o.findAttachment(id)
		if err != nil {
			return err
		}
		if err := o.authorizeAttachmentChange(a, privilege.ForumWideChangeOwnAttachmentName, privilege.ForumWideChangeAnyAttachmentName, "rename this attachment"); err != nil {
			return err
		}
		if a.Name == name {
			return apperror.NoEffect("attachment already has that name")
		}
		old := a.Name
		o.c.RenameAttachment(a, name)
		o.emit(observer.Event{Kind: observer.AttachmentNameChanged, Entity: a.ID, Old: old, New: name})
		return nil
	})
}

func (s *Service) ChangeAttachmentApproval(ctx context.Context, id model.ID, approved bool) error {
	return s.write(ctx, func(o *op) error {
		a, err := o.findAttachment(id)
		if err != nil {
			return err
		}
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideChangeAnyAttachmentApproval, o.now), "change the approval of attachments"); err != nil {
			return err
		}
		if !o.c.SetAttachmentApproval(a, approved) {
			return apperror.NoEffect("attachment approval unchanged")
		}
		o.emit(observer.Event{Kind: observer.AttachmentApprovalSet, Entity: a.ID, New: strconv.FormatBool(approved)})
		return nil
	})
}

func (s *Service) DeleteAttachment(ctx context.Context, id model.ID) error {
	err := s.write(ctx, func(o *op) error {
		a, err := o.findAttachment(id)
		if err != nil {
			return err
		}
		if err := o.authorizeAttachmentChange(a, privilege.ForumWideDeleteOwnAttachment, privilege.ForumWideDeleteAnyAttachment, "delete this attachment"); err != nil {
			return err
		}
		name := a.Name
		o.c.DeleteAttachment(a)
		o.emit(observer.Event{Kind: observer.AttachmentDeleted, Entity: id, Old: name})
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("attachment deleted", slog.String("id", id.String()))
	return nil
}

// AddAttachmentToMessage links one of the caller's own attachments to a
// message the caller may add attachments to.
func (s *Service) AddAttachmentToMessage(ctx context.Context, attachmentID, messageID model.ID) error {
	return s.write(ctx, func(o *op) error {
		a, err := o.findAttachment(attachmentID)
		if err != nil {
			return err
		}
		m, err := o.findMessage(messageID)
		if err != nil {
			return err
		}
		if err := o.messageAllowed(m, privilege.MessageAddAttachment, "add attachments to this message"); err != nil {
			return err
		}
		if o.anonymous() || a.CreatedBy != o.userID() {
			return apperror.Forbidden("only the creator can attach an attachment")
		}
		if !o.c.LinkAttachment(a, m, o.now) {
			return apperror.Conflict("attachment", a.Name)
		}
		o.emit(observer.Event{Kind: observer.AttachmentLinked, Entity: a.ID, Target: m.ID})
		return nil
	})
}

func (s *Service) RemoveAttachmentFromMessage(ctx context.Context, attachmentID, messageID model.ID) error {
	return s.write(ctx, func(o *op) error {
		a, err := o.findAttachment(attachmentID)
		if err != nil {
			return err
		}
		m, err := o.findMessage(messageID)
		if err != nil {
			return err
		}
		if err := o.messageAllowed(m, privilege.MessageRemoveAttachment, "remove attachments from this message"); err != nil {
			return err
		}
		if !o.c.UnlinkAttachment(a, m) {
			return apperror.NoEffect("attachment is not linked to this message")
		}
		o.emit(observer.Event{Kind: observer.AttachmentUnlinked, Entity: a.ID, Target: m.ID})
		return nil
	})
}
