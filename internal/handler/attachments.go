package handler

import (
	"net/http"

	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/service"
)

// Attachments are metadata only. The bytes live in whatever file store sits
// in front of the API; the forum tracks names, sizes, quotas and which
// messages reference them.

// HTTP: GET /api/attachments?orderby=created|name|size|approval
func (h *Handler) HandleGetAttachments(w http.ResponseWriter, r *http.Request) {
	read(h, w, r, func() (service.Page[service.AttachmentView], error) {
		return h.svc.GetAttachments(r.Context(), service.AttachmentOrder(orderBy(r)))
	})
}

// HandleAddAttachment records a new attachment against the caller's quota.
//
// HTTP: POST /api/attachments   {"name":"diagram.png","size":48213}
func (h *Handler) HandleAddAttachment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
		Size uint64 `json:"size"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.AddAttachment(r.Context(), body.Name, body.Size)
	h.created(w, r, res, err)
}

// HandleGetAttachment returns the attachment and counts a download.
func (h *Handler) HandleGetAttachment(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) { return h.svc.GetAttachment(r.Context(), id) })
}

func (h *Handler) HandleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	h.onID(w, r, h.svc.DeleteAttachment)
}

func (h *Handler) HandleChangeAttachmentName(w http.ResponseWriter, r *http.Request) {
	h.changeText(w, r, h.svc.ChangeAttachmentName)
}

func (h *Handler) HandleChangeAttachmentApproval(w http.ResponseWriter, r *http.Request) {
	h.changeApproval(w, r, h.svc.ChangeAttachmentApproval)
}

// HTTP: POST /api/messages/{id}/attachments/{attachmentId}
func (h *Handler) HandleAddAttachmentToMessage(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, "attachmentId", "id", h.svc.AddAttachmentToMessage)
}

func (h *Handler) HandleRemoveAttachmentFromMessage(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, "attachmentId", "id", h.svc.RemoveAttachmentFromMessage)
}
