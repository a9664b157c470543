package store

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/sakif/forum/internal/collate"
	"github.com/sakif/forum/internal/collection"
	"github.com/sakif/forum/internal/model"
)

// ErrCircular is returned when a category would become its own ancestor.
var ErrCircular = errors.New("category would become its own ancestor")

func (c *EntityCollection) CategoryByName(name string) (*model.Category, bool) {
	return c.CategoriesBy.Name.Find(collate.Key(name))
}

// InsertCategory adds category below its parent (or as a root).
func (c *EntityCollection) InsertCategory(category *model.Category) error {
	var parent *model.Category
	if !category.IsRoot() {
		p, ok := c.Categories.Get(category.Parent)
		if !ok {
			return errMissing("category", category.Parent)
		}
		parent = p
	}
	if err := c.Categories.Insert(category); err != nil {
		return err
	}
	if parent != nil {
		parent.Children.Add(category.ID)
	}
	return nil
}

func (c *EntityCollection) RenameCategory(category *model.Category, name string, now time.Time) error {
	candidate := *category
	candidate.Name = name
	if !c.Categories.CanReindex(category.ID, &candidate) {
		return collection.ErrExists
	}
	category.Name = name
	category.LastUpdated = now
	c.Categories.Reindex(category.ID, c.CategoriesBy.Name)
	return nil
}

func (c *EntityCollection) SetCategoryDisplayOrder(category *model.Category, order int16, now time.Time) {
	category.DisplayOrder = order
	category.LastUpdated = now
	c.Categories.Reindex(category.ID, c.CategoriesBy.DisplayOrder)
}

// SetCategoryParent moves category below parent, or to the root when parent
// is zero. It fails with ErrCircular, changing nothing, when parent is the
// category itself or one of its descendants.
func (c *EntityCollection) SetCategoryParent(category *model.Category, parent model.ID, now time.Time) error {
	if !parent.IsZero() {
		if _, ok := c.Categories.Get(parent); !ok {
			return errMissing("category", parent)
		}
		circular := false
		c.walkSubtree(category, func(sub *model.Category) {
			if sub.ID == parent {
				circular = true
			}
		})
		if circular {
			return ErrCircular
		}
	}

	old := category.Parent
	if p, ok := c.Categories.Get(old); ok {
		p.Children.Remove(category.ID)
	}
	if p, ok := c.Categories.Get(parent); ok {
		p.Children.Add(category.ID)
	}
	category.Parent = parent
	category.LastUpdated = now

	c.refreshCategories(old, parent)
	return nil
}

// DeleteCategory hands the children of category to its parent (or makes them
// roots), detaches its tags and removes it.
func (c *EntityCollection) DeleteCategory(category *model.Category) {
	parent, hasParent := c.Categories.Get(category.Parent)
	for id := range category.Children {
		child, ok := c.Categories.Get(id)
		if !ok {
			continue
		}
		child.Parent = category.Parent
		if hasParent {
			parent.Children.Add(child.ID)
		}
	}
	if hasParent {
		parent.Children.Remove(category.ID)
	}
	for id := range category.Tags {
		if tag, ok := c.Tags.Get(id); ok {
			tag.Categories.Remove(category.ID)
		}
	}
	c.Authz.Grants.RevokeEntity(category.ID)
	c.Categories.Remove(category.ID)
	c.refreshCategories(category.Parent)
}

// RootCategories returns the categories without a parent in display order.
func (c *EntityCollection) RootCategories() []*model.Category {
	var roots []*model.Category
	c.CategoriesBy.DisplayOrder.Ascend(func(category *model.Category) bool {
		if category.IsRoot() {
			roots = append(roots, category)
		}
		return true
	})
	c.sortCategories(roots)
	return roots
}

// Children returns the direct children of category ordered by display order,
// then name, then creation.
func (c *EntityCollection) Children(category *model.Category) []*model.Category {
	children := make([]*model.Category, 0, len(category.Children))
	for id := range category.Children {
		if child, ok := c.Categories.Get(id); ok {
			children = append(children, child)
		}
	}
	c.sortCategories(children)
	return children
}

func (c *EntityCollection) sortCategories(categories []*model.Category) {
	slices.SortFunc(categories, func(a, b *model.Category) int {
		if a.DisplayOrder != b.DisplayOrder {
			return int(a.DisplayOrder) - int(b.DisplayOrder)
		}
		if n := strings.Compare(collate.Key(a.Name), collate.Key(b.Name)); n != 0 {
			return n
		}
		sa, sb := c.Categories.Sequence(a.ID), c.Categories.Sequence(b.ID)
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	})
}
