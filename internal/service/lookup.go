package service

import (
	"github.com/sakif/forum/internal/apperror"
	"github.com/sakif/forum/internal/model"
)

func (o *op) findUser(id model.ID) (*model.User, error) {
	if u, ok := o.c.User(id); ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", id.String())
}

func (o *op) findThread(id model.ID) (*model.Thread, error) {
	if t, ok := o.c.Thread(id); ok {
		return t, nil
	}
	return nil, apperror.NotFound("discussion thread", id.String())
}

func (o *op) findMessage(id model.ID) (*model.Message, error) {
	if m, ok := o.c.Message(id); ok {
		return m, nil
	}
	return nil, apperror.NotFound("discussion thread message", id.String())
}

func (o *op) findTag(id model.ID) (*model.Tag, error) {
	if t, ok := o.c.Tag(id); ok {
		return t, nil
	}
	return nil, apperror.NotFound("discussion tag", id.String())
}

func (o *op) findCategory(id model.ID) (*model.Category, error) {
	if c, ok := o.c.Category(id); ok {
		return c, nil
	}
	return nil, apperror.NotFound("discussion category", id.String())
}

func (o *op) findAttachment(id model.ID) (*model.Attachment, error) {
	if a, ok := o.c.Attachment(id); ok {
		return a, nil
	}
	return nil, apperror.NotFound("attachment", id.String())
}

func (o *op) findComment(id model.ID) (*model.Comment, error) {
	if c, ok := o.c.Comment(id); ok {
		return c, nil
	}
	return nil, apperror.NotFound("message comment", id.String())
}
