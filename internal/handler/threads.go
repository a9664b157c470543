package handler

import (
	"net/http"

	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/service"
)

// HTTP: GET /api/threads?orderby=name|created|lastupdated|latestmessagecreated|messagecount|pindisplayorder
func (h *Handler) HandleGetThreads(w http.ResponseWriter, r *http.Request) {
	read(h, w, r, func() (service.Page[service.ThreadView], error) {
		return h.svc.GetThreads(r.Context(), service.ThreadOrder(orderBy(r)))
	})
}

// HandleAddThread opens a thread. The first message is posted separately.
//
// HTTP: POST /api/threads   {"name":"..."}
func (h *Handler) HandleAddThread(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.AddThread(r.Context(), body.Name)
	h.created(w, r, res, err)
}

// HandleGetThread returns the thread with the requested page of its messages
// and counts a visit.
//
// HTTP: GET /api/threads/{id}
func (h *Handler) HandleGetThread(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) { return h.svc.GetThreadByID(r.Context(), id) })
}

func (h *Handler) HandleDeleteThread(w http.ResponseWriter, r *http.Request) {
	h.onID(w, r, h.svc.DeleteThread)
}

func (h *Handler) HandleChangeThreadName(w http.ResponseWriter, r *http.Request) {
	h.changeText(w, r, h.svc.ChangeThreadName)
}

// HTTP: PUT /api/threads/{id}/pin-display-order   {"value":3}
func (h *Handler) HandleChangeThreadPinDisplayOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := decodeValue[uint16](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.done(w, r, h.svc.ChangeThreadPinDisplayOrder(r.Context(), id, order))
}

// HandleMergeThreads moves every message of {id} into {intoId} and deletes
// {id}.
//
// HTTP: POST /api/threads/{id}/merge/{intoId}
func (h *Handler) HandleMergeThreads(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, "id", "intoId", h.svc.MergeThreads)
}

func (h *Handler) HandleSubscribeToThread(w http.ResponseWriter, r *http.Request) {
	h.onID(w, r, h.svc.SubscribeToThread)
}

func (h *Handler) HandleUnsubscribeFromThread(w http.ResponseWriter, r *http.Request) {
	h.onID(w, r, h.svc.UnsubscribeFromThread)
}

func (h *Handler) HandleGetMessagesOfThread(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) { return h.svc.GetMessagesOfThread(r.Context(), id) })
}

// HTTP: POST /api/threads/{id}/messages   {"content":"..."}
func (h *Handler) HandleAddMessage(w http.ResponseWriter, r *http.Request) {
	threadID, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.AddMessage(r.Context(), threadID, body.Content)
	h.created(w, r, res, err)
}

// HTTP: POST /api/threads/{id}/tags/{tagId}
func (h *Handler) HandleAddTagToThread(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, "tagId", "id", h.svc.AddTagToThread)
}

func (h *Handler) HandleRemoveTagFromThread(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, "tagId", "id", h.svc.RemoveTagFromThread)
}

func (h *Handler) HandleGetThreadsWithTag(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) {
		return h.svc.GetThreadsWithTag(r.Context(), id, service.ThreadOrder(orderBy(r)))
	})
}

func (h *Handler) HandleGetThreadsOfCategory(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) {
		return h.svc.GetThreadsOfCategory(r.Context(), id, service.ThreadOrder(orderBy(r)))
	})
}
