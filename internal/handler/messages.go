package handler

import (
	"net/http"

	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/service"
)

func (h *Handler) HandleGetMessage(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) { return h.svc.GetMessageByID(r.Context(), id) })
}

func (h *Handler) HandleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	h.onID(w, r, h.svc.DeleteMessage)
}

// HandleChangeMessageContent edits a message. The previous content is kept
// in the message's history together with the reason.
//
// HTTP: PUT /api/messages/{id}/content   {"content":"...","reason":"typo"}
func (h *Handler) HandleChangeMessageContent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body struct {
		Content string `json:"content"`
		Reason  string `json:"reason"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.done(w, r, h.svc.ChangeMessageContent(r.Context(), id, body.Content, body.Reason))
}

// HTTP: PUT /api/messages/{id}/approval   {"value":true}
func (h *Handler) HandleChangeMessageApproval(w http.ResponseWriter, r *http.Request) {
	h.changeApproval(w, r, h.svc.ChangeMessageApproval)
}

// HTTP: POST /api/messages/{id}/move/{intoId}
func (h *Handler) HandleMoveMessage(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, "id", "intoId", h.svc.MoveMessage)
}

func (h *Handler) HandleUpVote(w http.ResponseWriter, r *http.Request) {
	h.onID(w, r, h.svc.UpVote)
}

func (h *Handler) HandleDownVote(w http.ResponseWriter, r *http.Request) {
	h.onID(w, r, h.svc.DownVote)
}

// HTTP: DELETE /api/messages/{id}/vote
func (h *Handler) HandleResetVote(w http.ResponseWriter, r *http.Request) {
	h.onID(w, r, h.svc.ResetVote)
}

func (h *Handler) HandleGetCommentsOfMessage(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) { return h.svc.GetCommentsOfMessage(r.Context(), id) })
}

// HTTP: POST /api/messages/{id}/comments   {"content":"..."}
func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	messageID, err := idParam(r, "id")
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
	res, err := h.svc.AddComment(r.Context(), messageID, body.Content)
	h.created(w, r, res, err)
}

// HTTP: GET /api/comments
func (h *Handler) HandleGetComments(w http.ResponseWriter, r *http.Request) {
	read(h, w, r, func() (service.Page[service.CommentView], error) { return h.svc.GetComments(r.Context()) })
}

// HTTP: PUT /api/comments/{id}/solved
func (h *Handler) HandleSetCommentSolved(w http.ResponseWriter, r *http.Request) {
	h.onID(w, r, h.svc.SetCommentSolved)
}
