package handler

import (
	"net/http"

	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/service"
)

// TAGS AND CATEGORIES:
// Tags label threads, categories group tags into a tree. Tag and category
// listings are small and returned whole, without paging.

// HTTP: GET /api/tags?orderby=name|threadcount|messagecount
func (h *Handler) HandleGetTags(w http.ResponseWriter, r *http.Request) {
	read(h, w, r, func() ([]service.TagView, error) {
		return h.svc.GetTags(r.Context(), service.TagOrder(orderBy(r)))
	})
}

// HTTP: POST /api/tags   {"name":"..."}
func (h *Handler) HandleAddTag(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.AddTag(r.Context(), body.Name)
	h.created(w, r, res, err)
}

func (h *Handler) HandleGetTag(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) { return h.svc.GetTagByID(r.Context(), id) })
}

func (h *Handler) HandleDeleteTag(w http.ResponseWriter, r *http.Request) {
	h.onID(w, r, h.svc.DeleteTag)
}

func (h *Handler) HandleChangeTagName(w http.ResponseWriter, r *http.Request) {
	h.changeText(w, r, h.svc.ChangeTagName)
}

// HandleChangeTagUIBlob stores an opaque string the web client uses to
// render the tag (colors, icon).
//
// HTTP: PUT /api/tags/{id}/ui-blob   {"value":"..."}
func (h *Handler) HandleChangeTagUIBlob(w http.ResponseWriter, r *http.Request) {
	h.changeText(w, r, h.svc.ChangeTagUIBlob)
}

// HTTP: POST /api/tags/{id}/merge/{intoId}
func (h *Handler) HandleMergeTags(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, "id", "intoId", h.svc.MergeTags)
}

// HTTP: GET /api/categories?orderby=name|messagecount|displayorder
func (h *Handler) HandleGetCategories(w http.ResponseWriter, r *http.Request) {
	read(h, w, r, func() ([]service.CategoryView, error) {
		return h.svc.GetCategories(r.Context(), service.CategoryOrder(orderBy(r)))
	})
}

// HandleGetCategoriesFromRoot returns the top level categories in display
// order, each with its children.
//
// HTTP: GET /api/categories/root
func (h *Handler) HandleGetCategoriesFromRoot(w http.ResponseWriter, r *http.Request) {
	read(h, w, r, func() ([]service.CategoryView, error) { return h.svc.GetCategoriesFromRoot(r.Context()) })
}

// HTTP: POST /api/categories   {"name":"...","parentId":"<id or empty>"}
func (h *Handler) HandleAddCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		ParentID string `json:"parentId"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	parent, err := optionalID("parentId", body.ParentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.AddCategory(r.Context(), body.Name, parent)
	h.created(w, r, res, err)
}

func (h *Handler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) { return h.svc.GetCategoryByID(r.Context(), id) })
}

func (h *Handler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	h.onID(w, r, h.svc.DeleteCategory)
}

func (h *Handler) HandleChangeCategoryName(w http.ResponseWriter, r *http.Request) {
	h.changeText(w, r, h.svc.ChangeCategoryName)
}

func (h *Handler) HandleChangeCategoryDescription(w http.ResponseWriter, r *http.Request) {
	h.changeText(w, r, h.svc.ChangeCategoryDescription)
}

// HandleChangeCategoryParent moves a category. An empty value makes it a
// root category.
//
// HTTP: PUT /api/categories/{id}/parent   {"value":"<id or empty>"}
func (h *Handler) HandleChangeCategoryParent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	raw, err := decodeValue[string](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	parent, err := optionalID("value", raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.done(w, r, h.svc.ChangeCategoryParent(r.Context(), id, parent))
}

// HTTP: PUT /api/categories/{id}/display-order   {"value":-2}
func (h *Handler) HandleChangeCategoryDisplayOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := decodeValue[int16](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.done(w, r, h.svc.ChangeCategoryDisplayOrder(r.Context(), id, order))
}

// HTTP: POST /api/categories/{id}/tags/{tagId}
func (h *Handler) HandleAddTagToCategory(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, "tagId", "id", h.svc.AddTagToCategory)
}

func (h *Handler) HandleRemoveTagFromCategory(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, "tagId", "id", h.svc.RemoveTagFromCategory)
}
