package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/forum/internal/apperror"
	"github.com/sakif/forum/internal/collection"
	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/observer"
	"github.com/sakif/forum/internal/privilege"
)

func (o *op) tagAllowed(tag *model.Tag, p privilege.Tag, action string) error {
	return allowed(o.c.Authz.Tag(o.userID(), tag, p, o.now), action)
}

func (o *op) canViewTag(tag *model.Tag) bool {
	return o.c.Authz.Tag(o.userID(), tag, privilege.TagView, o.now).Allowed
}

// AddTag creates a tag. Tag names are unique under collation.
func (s *Service) AddTag(ctx context.Context, name string) (Result, error) {
	if err := checkName("name", name, s.cfg.Tag.Name); err != nil {
		return Result{}, err
	}
	var res Result
	err := s.write(ctx, func(o *op) error {
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideAddDiscussionTag, o.now), "add tags"); err != nil {
			return err
		}
		tag := &model.Tag{
			ID:          model.NewID(),
			Name:        name,
			Created:     o.now,
			LastUpdated: o.now,
		}
		if err := o.c.InsertTag(tag); err != nil {
			if errors.Is(err, collection.ErrExists) {
				return apperror.Conflict("discussion tag", name)
			}
			return err
		}
		res = Result{ID: tag.ID, Name: tag.Name, Created: tag.Created}
		o.emit(observer.Event{Kind: observer.TagAdded, Entity: tag.ID, New: tag.Name})
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("tag added", slog.String("id", res.ID.String()), slog.String("name", res.Name))
	return res, nil
}

// GetTags returns every visible tag. Tags are few, so the listing is not
// paged.
func (s *Service) GetTags(ctx context.Context, by TagOrder) ([]TagView, error) {
	var out []TagView
	err := s.read(ctx, func(o *op) error {
		ix, err := by.scanner(o.c)
		if err != nil {
			return err
		}
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetAllDiscussionTags, o.now), "list tags"); err != nil {
			return err
		}
		out = []TagView{}
		ix.walk(o.display.Ascending, func(tag *model.Tag) bool {
			if o.canViewTag(tag) {
				out = append(out, tagView(tag))
			}
			return true
		})
		return nil
	})
	return out, err
}

func (s *Service) GetTagByID(ctx context.Context, id model.ID) (TagView, error) {
	var view TagView
	err := s.read(ctx, func(o *op) error {
		tag, err := o.findTag(id)
		if err != nil {
			return err
		}
		if err := o.tagAllowed(tag, privilege.TagView, "view this tag"); err != nil {
			return err
		}
		view = tagView(tag)
		return nil
	})
	return view, err
}

func (s *Service) ChangeTagName(ctx context.Context, id model.ID, name string) error {
	if err := checkName("name", name, s.cfg.Tag.Name); err != nil {
		return err
	}
	return s.write(ctx, func(o *op) error {
		tag, err := o.findTag(id)
		if err != nil {
			return err
		}
		if err := o.tagAllowed(tag, privilege.TagChangeName, "rename this tag"); err != nil {
			return err
		}
		if tag.Name == name {
			return apperror.NoEffect("tag already has that name")
		}
		old := tag.Name
		if err := o.c.RenameTag(tag, name, o.now); err != nil {
			if errors.Is(err, collection.ErrExists) {
				return apperror.Conflict("discussion tag", name)
			}
			return err
		}
		o.emit(observer.Event{Kind: observer.TagNameChanged, Entity: tag.ID, Old: old, New: name})
		return nil
	})
}

// ChangeTagUIBlob stores opaque presentation data for clients. The limit is
// in bytes.
func (s *Service) ChangeTagUIBlob(ctx context.Context, id model.ID, blob string) error {
	if len(blob) > s.cfg.Tag.MaxUIBlobSize {
		return apperror.TooLong("uiBlob", s.cfg.Tag.MaxUIBlobSize)
	}
	return s.write(ctx, func(o *op) error {
		tag, err := o.findTag(id)
		if err != nil {
			return err
		}
		if err := o.tagAllowed(tag, privilege.TagChangeUIBlob, "change the ui blob of this tag"); err != nil {
			return err
		}
		if tag.UIBlob == blob {
			return apperror.NoEffect("ui blob unchanged")
		}
		tag.UIBlob = blob
		tag.LastUpdated = o.now
		o.emit(observer.Event{Kind: observer.TagUIBlobChanged, Entity: tag.ID})
		return nil
	})
}

func (s *Service) DeleteTag(ctx context.Context, id model.ID) error {
	err := s.write(ctx, func(o *op) error {
		tag, err := o.findTag(id)
		if err != nil {
			return err
		}
		if err := o.tagAllowed(tag, privilege.TagDelete, "delete this tag"); err != nil {
			return err
		}
		name := tag.Name
		o.c.DeleteTag(tag)
		o.emit(observer.Event{Kind: observer.TagDeleted, Entity: id, Old: name})
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("tag deleted", slog.String("id", id.String()))
	return nil
}

func (s *Service) AddTagToThread(ctx context.Context, tagID, threadID model.ID) error {
	return s.write(ctx, func(o *op) error {
		tag, err := o.findTag(tagID)
		if err != nil {
			return err
		}
		t, err := o.findThread(threadID)
		if err != nil {
			return err
		}
		if err := o.threadAllowed(t, privilege.ThreadAddTag, "tag this thread"); err != nil {
			return err
		}
		if !o.c.LinkTagToThread(tag, t) {
			return apperror.NoEffect("thread already has this tag")
		}
		o.emit(observer.Event{Kind: observer.TagAddedToThread, Entity: tag.ID, Target: t.ID})
		return nil
	})
}

func (s *Service) RemoveTagFromThread(ctx context.Context, tagID, threadID model.ID) error {
	return s.write(ctx, func(o *op) error {
		tag, err := o.findTag(tagID)
		if err != nil {
			return err
		}
		t, err := o.findThread(threadID)
		if err != nil {
			return err
		}
		if err := o.threadAllowed(t, privilege.ThreadRemoveTag, "untag this thread"); err != nil {
			return err
		}
		if !o.c.UnlinkTagFromThread(tag, t) {
			return apperror.NoEffect("thread does not have this tag")
		}
		o.emit(observer.Event{Kind: observer.TagRemovedFromThread, Entity: tag.ID, Target: t.ID})
		return nil
	})
}

// MergeTags moves the threads and categories of one tag onto another and
// deletes the first. The caller needs Merge on both.
func (s *Service) MergeTags(ctx context.Context, fromID, intoID model.ID) error {
	err := s.write(ctx, func(o *op) error {
		from, err := o.findTag(fromID)
		if err != nil {
			return err
		}
		into, err := o.findTag(intoID)
		if err != nil {
			return err
		}
		if from.ID == into.ID {
			return apperror.NoEffect("cannot merge a tag into itself")
		}
		if err := o.tagAllowed(from, privilege.TagMerge, "merge this tag"); err != nil {
			return err
		}
		if err := o.tagAllowed(into, privilege.TagMerge, "merge into this tag"); err != nil {
			return err
		}
		o.c.MergeTags(from, into, o.now)
		o.emit(observer.Event{Kind: observer.TagsMerged, Entity: fromID, Target: intoID})
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("tags merged", slog.String("from", fromID.String()), slog.String("into", intoID.String()))
	return nil
}
