package service

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sakif/forum/internal/apperror"
	"github.com/sakif/forum/internal/collate"
	"github.com/sakif/forum/internal/collection"
	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/reqctx"
	"github.com/sakif/forum/internal/store"
)

// Page is one page of a listing.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// scanner reads an index in either direction.
type scanner[T any] struct {
	walk func(ascending bool, fn func(T) bool)
	page func(page, size int, ascending bool) ([]T, int)
}

func scan[T, K any](ix *collection.Index[T, K]) scanner[T] {
	return scanner[T]{
		walk: func(ascending bool, fn func(T) bool) {
			if ascending {
				ix.Ascend(fn)
			} else {
				ix.Descend(fn)
			}
		},
		page: ix.Page,
	}
}

// pageIndex pages through an index, skipping members keep rejects. Without a
// filter it uses the index's own paging.
func pageIndex[T, V any](ix scanner[T], d reqctx.Display, size int, keep func(T) bool, view func(T) V) Page[V] {
	var items []T
	var total int
	if keep == nil {
		items, total = ix.page(d.Page, size, d.Ascending)
	} else {
		var kept []T
		ix.walk(d.Ascending, func(item T) bool {
			if keep(item) {
				kept = append(kept, item)
			}
			return true
		})
		start, end := model.Window(len(kept), d.Page, size)
		items, total = kept[start:end], len(kept)
	}
	out := Page[V]{Items: make([]V, 0, len(items)), Total: total, Page: d.Page, PageSize: size}
	for _, item := range items {
		out.Items = append(out.Items, view(item))
	}
	return out
}

// pageSet sorts a relation set that has no index of its own and pages it.
func pageSet[T, V any](items []T, order func(a, b T) int, d reqctx.Display, size int, keep func(T) bool, view func(T) V) Page[V] {
	if keep != nil {
		filtered := items[:0:0]
		for _, item := range items {
			if keep(item) {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	page, total := collection.PageSorted(items, order, d.Page, size, d.Ascending)
	out := Page[V]{Items: make([]V, 0, len(page)), Total: total, Page: d.Page, PageSize: size}
	for _, item := range page {
		out.Items = append(out.Items, view(item))
	}
	return out
}

// inserted orders items the way their collection received them, so that
// pageSet breaks sort key ties by creation.
func inserted[T any](items []T, seq func(T) uint64) []T {
	slices.SortFunc(items, func(a, b T) int { return cmp.Compare(seq(a), seq(b)) })
	return items
}

func byName(a, b string) int {
	return strings.Compare(collate.Key(a), collate.Key(b))
}

// UserOrder selects the sort order of user listings.
type UserOrder string

const (
	UsersByName         UserOrder = "name"
	UsersByCreated      UserOrder = "created"
	UsersByLastSeen     UserOrder = "lastseen"
	UsersByThreadCount  UserOrder = "threadcount"
	UsersByMessageCount UserOrder = "messagecount"
)

func (o UserOrder) scanner(c *store.EntityCollection) (scanner[*model.User], error) {
	switch o {
	case UsersByName, "":
		return scan(c.UsersBy.Name), nil
	case UsersByCreated:
		return scan(c.UsersBy.Created), nil
	case UsersByLastSeen:
		return scan(c.UsersBy.LastSeen), nil
	case UsersByThreadCount:
		return scan(c.UsersBy.ThreadCount), nil
	case UsersByMessageCount:
		return scan(c.UsersBy.MessageCount), nil
	}
	return scanner[*model.User]{}, apperror.ValidationFailed("orderby", "unknown user order "+string(o))
}

// ThreadOrder selects the sort order of thread listings.
type ThreadOrder string

const (
	ThreadsByName          ThreadOrder = "name"
	ThreadsByCreated       ThreadOrder = "created"
	ThreadsByLastUpdated   ThreadOrder = "lastupdated"
	ThreadsByLatestMessage ThreadOrder = "latestmessagecreated"
	ThreadsByMessageCount  ThreadOrder = "messagecount"
	ThreadsByPinOrder      ThreadOrder = "pindisplayorder"
)

func (o ThreadOrder) scanner(c *store.EntityCollection) (scanner[*model.Thread], error) {
	switch o {
	case ThreadsByName, "":
		return scan(c.ThreadsBy.Name), nil
	case ThreadsByCreated:
		return scan(c.ThreadsBy.Created), nil
	case ThreadsByLastUpdated:
		return scan(c.ThreadsBy.LastUpdated), nil
	case ThreadsByLatestMessage:
		return scan(c.ThreadsBy.LatestMessage), nil
	case ThreadsByMessageCount:
		return scan(c.ThreadsBy.MessageCount), nil
	case ThreadsByPinOrder:
		return scan(c.ThreadsBy.PinOrder), nil
	}
	return scanner[*model.Thread]{}, apperror.ValidationFailed("orderby", "unknown thread order "+string(o))
}

func (o ThreadOrder) compare() (func(a, b *model.Thread) int, error) {
	switch o {
	case ThreadsByName, "":
		return func(a, b *model.Thread) int { return byName(a.Name, b.Name) }, nil
	case ThreadsByCreated:
		return func(a, b *model.Thread) int { return a.Created.Compare(b.Created) }, nil
	case ThreadsByLastUpdated:
		return func(a, b *model.Thread) int { return a.LastUpdated.Compare(b.LastUpdated) }, nil
	case ThreadsByLatestMessage:
		return func(a, b *model.Thread) int { return a.LatestMessageCreated().Compare(b.LatestMessageCreated()) }, nil
	case ThreadsByMessageCount:
		return func(a, b *model.Thread) int { return cmp.Compare(a.MessageCount(), b.MessageCount()) }, nil
	case ThreadsByPinOrder:
		return func(a, b *model.Thread) int { return cmp.Compare(a.PinDisplayOrder, b.PinDisplayOrder) }, nil
	}
	return nil, apperror.ValidationFailed("orderby", "unknown thread order "+string(o))
}

// TagOrder selects the sort order of tag listings.
type TagOrder string

const (
	TagsByName         TagOrder = "name"
	TagsByThreadCount  TagOrder = "threadcount"
	TagsByMessageCount TagOrder = "messagecount"
)

func (o TagOrder) scanner(c *store.EntityCollection) (scanner[*model.Tag], error) {
	switch o {
	case TagsByName, "":
		return scan(c.TagsBy.Name), nil
	case TagsByThreadCount:
		return scan(c.TagsBy.ThreadCount), nil
	case TagsByMessageCount:
		return scan(c.TagsBy.MessageCount), nil
	}
	return scanner[*model.Tag]{}, apperror.ValidationFailed("orderby", "unknown tag order "+string(o))
}

// CategoryOrder selects the sort order of the flat category listing.
type CategoryOrder string

const (
	CategoriesByName         CategoryOrder = "name"
	CategoriesByMessageCount CategoryOrder = "messagecount"
	CategoriesByDisplayOrder CategoryOrder = "displayorder"
)

func (o CategoryOrder) scanner(c *store.EntityCollection) (scanner[*model.Category], error) {
	switch o {
	case CategoriesByName, "":
		return scan(c.CategoriesBy.Name), nil
	case CategoriesByMessageCount:
		return scan(c.CategoriesBy.MessageCount), nil
	case CategoriesByDisplayOrder:
		return scan(c.CategoriesBy.DisplayOrder), nil
	}
	return scanner[*model.Category]{}, apperror.ValidationFailed("orderby", "unknown category order "+string(o))
}

// AttachmentOrder selects the sort order of attachment listings.
type AttachmentOrder string

const (
	AttachmentsByCreated  AttachmentOrder = "created"
	AttachmentsByName     AttachmentOrder = "name"
	AttachmentsBySize     AttachmentOrder = "size"
	AttachmentsByApproval AttachmentOrder = "approval"
)

func (o AttachmentOrder) scanner(c *store.EntityCollection) (scanner[*model.Attachment], error) {
	switch o {
	case AttachmentsByCreated, "":
		return scan(c.AttachmentsBy.Created), nil
	case AttachmentsByName:
		return scan(c.AttachmentsBy.Name), nil
	case AttachmentsBySize:
		return scan(c.AttachmentsBy.Size), nil
	case AttachmentsByApproval:
		return scan(c.AttachmentsBy.Approval), nil
	}
	return scanner[*model.Attachment]{}, apperror.ValidationFailed("orderby", "unknown attachment order "+string(o))
}

func (o AttachmentOrder) compare() (func(a, b *model.Attachment) int, error) {
	switch o {
	case AttachmentsByCreated, "":
		return func(a, b *model.Attachment) int { return a.Created.Compare(b.Created) }, nil
	case AttachmentsByName:
		return func(a, b *model.Attachment) int { return byName(a.Name, b.Name) }, nil
	case AttachmentsBySize:
		return func(a, b *model.Attachment) int { return cmp.Compare(a.Size, b.Size) }, nil
	case AttachmentsByApproval:
		return func(a, b *model.Attachment) int {
			switch {
			case a.Approved == b.Approved:
				return 0
			case !a.Approved:
				return -1
			}
			return 1
		}, nil
	}
	return nil, apperror.ValidationFailed("orderby", "unknown attachment order "+string(o))
}

// pageRefs pages a time-ordered reference list. Without a filter, ids that no
// longer resolve are skipped but still count towards the total. With one, only
// the members keep accepts are paged and counted.
func pageRefs[T, V any](refs *model.RefList, d reqctx.Display, size int, get func(model.ID) (T, bool), keep func(T) bool, view func(T) V) Page[V] {
	if keep != nil {
		ids := refs.IDs()
		if !d.Ascending {
			slices.Reverse(ids)
		}
		var kept []T
		for _, id := range ids {
			if item, ok := get(id); ok && keep(item) {
				kept = append(kept, item)
			}
		}
		start, end := model.Window(len(kept), d.Page, size)
		out := Page[V]{Items: make([]V, 0, end-start), Total: len(kept), Page: d.Page, PageSize: size}
		for _, item := range kept[start:end] {
			out.Items = append(out.Items, view(item))
		}
		return out
	}
	ids, total := refs.Page(d.Page, size, d.Ascending)
	out := Page[V]{Items: make([]V, 0, len(ids)), Total: total, Page: d.Page, PageSize: size}
	for _, id := range ids {
		if item, ok := get(id); ok {
			out.Items = append(out.Items, view(item))
		}
	}
	return out
}
