package store

import (
	"time"

	"github.com/sakif/forum/internal/collate"
	"github.com/sakif/forum/internal/collection"
	"github.com/sakif/forum/internal/model"
)

func (c *EntityCollection) TagByName(name string) (*model.Tag, bool) {
	return c.TagsBy.Name.Find(collate.Key(name))
}

func (c *EntityCollection) InsertTag(tag *model.Tag) error {
	return c.Tags.Insert(tag)
}

// RenameTag fails with collection.ErrExists when another tag collates equal.
func (c *EntityCollection) RenameTag(tag *model.Tag, name string, now time.Time) error {
	candidate := *tag
	candidate.Name = name
	if !c.Tags.CanReindex(tag.ID, &candidate) {
		return collection.ErrExists
	}
	tag.Name = name
	tag.LastUpdated = now
	c.Tags.Reindex(tag.ID, c.TagsBy.Name)
	return nil
}

// DeleteTag detaches tag from its threads and categories and removes it.
func (c *EntityCollection) DeleteTag(tag *model.Tag) {
	for id := range tag.Threads {
		if t, ok := c.Threads.Get(id); ok {
			t.Tags.Remove(tag.ID)
		}
	}
	categories := tag.Categories.Sorted()
	for _, id := range categories {
		if category, ok := c.Categories.Get(id); ok {
			category.Tags.Remove(tag.ID)
		}
	}
	c.Authz.Grants.RevokeEntity(tag.ID)
	c.Tags.Remove(tag.ID)
	c.refreshCategories(categories...)
}

// MergeTags moves every thread and category link of from onto into and
// deletes from. Threads that carried both tags are counted once.
func (c *EntityCollection) MergeTags(from, into *model.Tag, now time.Time) {
	for id := range from.Threads {
		if t, ok := c.Threads.Get(id); ok {
			t.Tags.Remove(from.ID)
			t.Tags.Add(into.ID)
			into.Threads.Add(id)
		}
	}
	clear(from.Threads)

	for id := range from.Categories {
		if category, ok := c.Categories.Get(id); ok {
			category.Tags.Remove(from.ID)
			category.Tags.Add(into.ID)
			into.Categories.Add(id)
		}
	}
	clear(from.Categories)

	into.LastUpdated = now
	c.DeleteTag(from)
	c.refreshTags(into.ID)
}

// LinkTagToCategory reports false when already linked.
func (c *EntityCollection) LinkTagToCategory(tag *model.Tag, category *model.Category) bool {
	if !category.Tags.Add(tag.ID) {
		return false
	}
	tag.Categories.Add(category.ID)
	c.refreshCategories(category.ID)
	return true
}

// UnlinkTagFromCategory reports false when not linked.
func (c *EntityCollection) UnlinkTagFromCategory(tag *model.Tag, category *model.Category) bool {
	if !category.Tags.Remove(tag.ID) {
		return false
	}
	tag.Categories.Remove(category.ID)
	c.refreshCategories(category.ID)
	return true
}
