package store

import (
	"cmp"
	"slices"

	"github.com/sakif/forum/internal/model"
)

// COUNTERS:
// Tag and category counters are never adjusted by +1/-1. Every change that can
// affect them calls one of the refresh helpers below, which recount from the
// live graph. A thread reachable through two tags of the same category is
// therefore counted once, whatever order the links were made or broken in.

// refreshThread re-sorts t after its messages changed and recounts every tag
// and category that reaches it.
func (c *EntityCollection) refreshThread(t *model.Thread) {
	c.Threads.Reindex(t.ID)
	c.refreshTags(t.Tags.Sorted()...)
}

func (c *EntityCollection) refreshTags(ids ...model.ID) {
	var categories model.IDSet
	for _, id := range ids {
		tag, ok := c.Tags.Get(id)
		if !ok {
			continue
		}
		tag.MessageCount = c.messageSum(tag.Threads)
		c.Tags.Reindex(tag.ID, c.TagsBy.ThreadCount, c.TagsBy.MessageCount)
		for category := range tag.Categories {
			categories.Add(category)
		}
	}
	c.refreshCategories(categories.Sorted()...)
}

// refreshCategories recounts the given categories and all their ancestors.
func (c *EntityCollection) refreshCategories(ids ...model.ID) {
	var seen model.IDSet
	for _, id := range ids {
		for current := id; !current.IsZero() && !seen.Has(current); {
			category, ok := c.Categories.Get(current)
			if !ok {
				break
			}
			seen.Add(current)
			c.recountCategory(category)
			current = category.Parent
		}
	}
}

func (c *EntityCollection) recountCategory(category *model.Category) {
	direct := c.threadsOfTags(category.Tags)
	category.ThreadCount = len(direct)
	category.MessageCount = c.messageSum(direct)

	var total model.IDSet
	c.walkSubtree(category, func(sub *model.Category) {
		for id := range c.threadsOfTags(sub.Tags) {
			total.Add(id)
		}
	})
	category.TotalThreadCount = len(total)
	category.TotalMessageCount = c.messageSum(total)

	c.Categories.Reindex(category.ID, c.CategoriesBy.MessageCount)
}

func (c *EntityCollection) threadsOfTags(tags model.IDSet) model.IDSet {
	var threads model.IDSet
	for id := range tags {
		tag, ok := c.Tags.Get(id)
		if !ok {
			continue
		}
		for thread := range tag.Threads {
			threads.Add(thread)
		}
	}
	return threads
}

func (c *EntityCollection) messageSum(threads model.IDSet) int {
	sum := 0
	for id := range threads {
		if t, ok := c.Threads.Get(id); ok {
			sum += t.MessageCount()
		}
	}
	return sum
}

// walkSubtree calls fn for category and every descendant, once each.
func (c *EntityCollection) walkSubtree(category *model.Category, fn func(*model.Category)) {
	var seen model.IDSet
	stack := []*model.Category{category}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !seen.Add(current.ID) {
			continue
		}
		fn(current)
		for id := range current.Children {
			if child, ok := c.Categories.Get(id); ok {
				stack = append(stack, child)
			}
		}
	}
}

// ThreadsOfCategory returns the threads reachable through the tags of
// category and, when deep is set, through those of every descendant. Threads
// come back in creation order.
func (c *EntityCollection) ThreadsOfCategory(category *model.Category, deep bool) []*model.Thread {
	ids := c.threadsOfTags(category.Tags)
	if deep {
		c.walkSubtree(category, func(sub *model.Category) {
			for id := range c.threadsOfTags(sub.Tags) {
				ids.Add(id)
			}
		})
	}
	out := make([]*model.Thread, 0, len(ids))
	for id := range ids {
		if t, ok := c.Threads.Get(id); ok {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b *model.Thread) int {
		return cmp.Compare(c.Threads.Sequence(a.ID), c.Threads.Sequence(b.ID))
	})
	return out
}
