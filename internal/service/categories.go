package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/sakif/forum/internal/apperror"
	"github.com/sakif/forum/internal/collection"
	"github.com/sakif/forum/internal/config"
	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/observer"
	"github.com/sakif/forum/internal/privilege"
	"github.com/sakif/forum/internal/store"
)

func (o *op) categoryAllowed(c *model.Category, p privilege.Category, action string) error {
	return allowed(o.c.Authz.Category(o.userID(), c, p, o.now), action)
}

func (o *op) canViewCategory(c *model.Category) bool {
	return o.c.Authz.Category(o.userID(), c, privilege.CategoryView, o.now).Allowed
}

// AddCategory creates a category below parent, or a root category when
// parent is the zero id.
func (s *Service) AddCategory(ctx context.Context, name string, parent model.ID) (Result, error) {
	if err := checkName("name", name, s.cfg.Category.Name); err != nil {
		return Result{}, err
	}
	var res Result
	err := s.write(ctx, func(o *op) error {
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideAddDiscussionCategory, o.now), "add categories"); err != nil {
			return err
		}
		if !parent.IsZero() {
			if _, err := o.findCategory(parent); err != nil {
				return err
			}
		}
		category := &model.Category{
			ID:          model.NewID(),
			Name:        name,
			Created:     o.now,
			LastUpdated: o.now,
			Parent:      parent,
		}
		if err := o.c.InsertCategory(category); err != nil {
			if errors.Is(err, collection.ErrExists) {
				return apperror.Conflict("discussion category", name)
			}
			return err
		}
		res = Result{ID: category.ID, Name: category.Name, Created: category.Created}
		o.emit(observer.Event{Kind: observer.CategoryAdded, Entity: category.ID, Target: parent, New: name})
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("category added", slog.String("id", res.ID.String()), slog.String("name", res.Name))
	return res, nil
}

// GetCategories is the flat listing of every visible category.
func (s *Service) GetCategories(ctx context.Context, by CategoryOrder) ([]CategoryView, error) {
	var out []CategoryView
	err := s.read(ctx, func(o *op) error {
		ix, err := by.scanner(o.c)
		if err != nil {
			return err
		}
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetAllDiscussionCategories, o.now), "list categories"); err != nil {
			return err
		}
		out = []CategoryView{}
		ix.walk(o.display.Ascending, func(c *model.Category) bool {
			if o.canViewCategory(c) {
				out = append(out, categoryView(c))
			}
			return true
		})
		return nil
	})
	return out, err
}

// GetCategoriesFromRoot returns the visible category tree. Siblings are
// ordered by display order, then name, then creation. A hidden category
// hides its whole subtree.
func (s *Service) GetCategoriesFromRoot(ctx context.Context) ([]CategoryView, error) {
	var out []CategoryView
	err := s.read(ctx, func(o *op) error {
		if err := allowed(o.c.Authz.ForumWide(o.userID(), privilege.ForumWideGetDiscussionCategoriesFromRoot, o.now), "list categories"); err != nil {
			return err
		}
		out = o.categoryTree(o.c.RootCategories(), -1)
		return nil
	})
	return out, err
}

// categoryTree projects categories with their children down to depth levels.
// A negative depth has no limit.
func (o *op) categoryTree(categories []*model.Category, depth int) []CategoryView {
	out := make([]CategoryView, 0, len(categories))
	for _, c := range categories {
		if !o.canViewCategory(c) {
			continue
		}
		v := categoryView(c)
		if depth != 0 {
			v.Children = o.categoryTree(o.c.Children(c), depth-1)
		}
		out = append(out, v)
	}
	return out
}

// GetCategoryByID includes the direct children.
func (s *Service) GetCategoryByID(ctx context.Context, id model.ID) (CategoryView, error) {
	var view CategoryView
	err := s.read(ctx, func(o *op) error {
		c, err := o.findCategory(id)
		if err != nil {
			return err
		}
		if err := o.categoryAllowed(c, privilege.CategoryView, "view this category"); err != nil {
			return err
		}
		view = categoryView(c)
		view.Children = o.categoryTree(o.c.Children(c), 0)
		return nil
	})
	return view, err
}

func (s *Service) ChangeCategoryName(ctx context.Context, id model.ID, name string) error {
	if err := checkName("name", name, s.cfg.Category.Name); err != nil {
		return err
	}
	return s.write(ctx, func(o *op) error {
		c, err := o.findCategory(id)
		if err != nil {
			return err
		}
		if err := o.categoryAllowed(c, privilege.CategoryChangeName, "rename this category"); err != nil {
			return err
		}
		if c.Name == name {
			return apperror.NoEffect("category already has that name")
		}
		old := c.Name
		if err := o.c.RenameCategory(c, name, o.now); err != nil {
			if errors.Is(err, collection.ErrExists) {
				return apperror.Conflict("discussion category", name)
			}
			return err
		}
		o.emit(observer.Event{Kind: observer.CategoryNameChanged, Entity: c.ID, Old: old, New: name})
		return nil
	})
}

func (s *Service) ChangeCategoryDescription(ctx context.Context, id model.ID, description string) error {
	bounds := config.Bounds{Min: 0, Max: s.cfg.Category.MaxDescriptionLength}
	if err := checkText("description", description, bounds); err != nil {
		return err
	}
	return s.write(ctx, func(o *op) error {
		c, err := o.findCategory(id)
		if err != nil {
			return err
		}
		if err := o.categoryAllowed(c, privilege.CategoryChangeDescription, "change the description of this category"); err != nil {
			return err
		}
		if c.Description == description {
			return apperror.NoEffect("description unchanged")
		}
		c.Description = description
		c.LastUpdated = o.now
		o.emit(observer.Event{Kind: observer.CategoryDescriptionSet, Entity: c.ID})
		return nil
	})
}

// ChangeCategoryParent moves a category, or makes it a root when parent is
// the zero id. Moving below itself or a descendant is refused.
func (s *Service) ChangeCategoryParent(ctx context.Context, id, parent model.ID) error {
	return s.write(ctx, func(o *op) error {
		c, err := o.findCategory(id)
		if err != nil {
			return err
		}
		if !parent.IsZero() {
			if _, err := o.findCategory(parent); err != nil {
				return err
			}
		}
		if err := o.categoryAllowed(c, privilege.CategoryChangeParent, "move this category"); err != nil {
			return err
		}
		if c.Parent == parent {
			return apperror.NoEffect("category already has that parent")
		}
		old := c.Parent
		if err := o.c.SetCategoryParent(c, parent, o.now); err != nil {
			if errors.Is(err, store.ErrCircular) {
				return apperror.Circular("a category cannot be placed below itself or its descendants")
			}
			return err
		}
		o.emit(observer.Event{Kind: observer.CategoryParentChanged, Entity: c.ID, Target: parent, Old: old.String()})
		return nil
	})
}

func (s *Service) ChangeCategoryDisplayOrder(ctx context.Context, id model.ID, order int16) error {
	return s.write(ctx, func(o *op) error {
		c, err := o.findCategory(id)
		if err != nil {
			return err
		}
		if err := o.categoryAllowed(c, privilege.CategoryChangeDisplayOrder, "reorder this category"); err != nil {
			return err
		}
		if c.DisplayOrder == order {
			return apperror.NoEffect("display order unchanged")
		}
		old := c.DisplayOrder
		o.c.SetCategoryDisplayOrder(c, order, o.now)
		o.emit(observer.Event{
			Kind:   observer.CategoryOrderChanged,
			Entity: c.ID,
			Old:    strconv.Itoa(int(old)),
			New:    strconv.Itoa(int(order)),
		})
		return nil
	})
}

// DeleteCategory hands the children of the category to its parent.
func (s *Service) DeleteCategory(ctx context.Context, id model.ID) error {
	err := s.write(ctx, func(o *op) error {
		c, err := o.findCategory(id)
		if err != nil {
			return err
		}
		if err := o.categoryAllowed(c, privilege.CategoryDelete, "delete this category"); err != nil {
			return err
		}
		name := c.Name
		o.c.DeleteCategory(c)
		o.emit(observer.Event{Kind: observer.CategoryDeleted, Entity: id, Old: name})
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("category deleted", slog.String("id", id.String()))
	return nil
}

func (s *Service) AddTagToCategory(ctx context.Context, tagID, categoryID model.ID) error {
	return s.write(ctx, func(o *op) error {
		tag, err := o.findTag(tagID)
		if err != nil {
			return err
		}
		c, err := o.findCategory(categoryID)
		if err != nil {
			return err
		}
		if err := o.categoryAllowed(c, privilege.CategoryAddTag, "add tags to this category"); err != nil {
			return err
		}
		if !o.c.LinkTagToCategory(tag, c) {
			return apperror.NoEffect("category already has this tag")
		}
		o.emit(observer.Event{Kind: observer.TagAddedToCategory, Entity: tag.ID, Target: c.ID})
		return nil
	})
}

func (s *Service) RemoveTagFromCategory(ctx context.Context, tagID, categoryID model.ID) error {
	return s.write(ctx, func(o *op) error {
		tag, err := o.findTag(tagID)
		if err != nil {
			return err
		}
		c, err := o.findCategory(categoryID)
		if err != nil {
			return err
		}
		if err := o.categoryAllowed(c, privilege.CategoryRemoveTag, "remove tags from this category"); err != nil {
			return err
		}
		if !o.c.UnlinkTagFromCategory(tag, c) {
			return apperror.NoEffect("category does not have this tag")
		}
		o.emit(observer.Event{Kind: observer.TagRemovedFromCategory, Entity: tag.ID, Target: c.ID})
		return nil
	})
}
