package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/forum/internal/auth"
	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/service"
)

// credentials is the body of registration and login.
type credentials struct {
	Name    string `json:"name"`
	AuthKey string `json:"authKey"`
}

// HandleAddUser registers a new account.
//
// HTTP: POST /api/users
// REQUEST BODY: {"name":"alice","authKey":"..."}
func (h *Handler) HandleAddUser(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.AddUser(r.Context(), body.Name, body.AuthKey)
	h.created(w, r, res, err)
}

// HandleLogin checks the credentials and stores a session token in an
// HttpOnly cookie. The token is also returned for clients without cookies,
// which send it back as "Authorization: Bearer <token>".
//
// HTTP: POST /api/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := h.svc.Login(r.Context(), body.Name, body.AuthKey)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// HandleLogout clears the session cookie. Tokens are stateless, so a copy
// kept elsewhere stays valid until it expires.
//
// HTTP: POST /api/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeOK(w)
}

// HTTP: GET /api/users?orderby=name|created|lastseen|threadcount|messagecount
func (h *Handler) HandleGetUsers(w http.ResponseWriter, r *http.Request) {
	read(h, w, r, func() (service.Page[service.UserView], error) {
		return h.svc.GetUsers(r.Context(), service.UserOrder(orderBy(r)))
	})
}

func (h *Handler) HandleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	read(h, w, r, func() (service.UserView, error) { return h.svc.GetCurrentUser(r.Context()) })
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	read(h, w, r, func() (service.UserView, error) { return h.svc.GetUserByID(r.Context(), id) })
}

func (h *Handler) HandleGetUserByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	read(h, w, r, func() (service.UserView, error) { return h.svc.GetUserByName(r.Context(), name) })
}

func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	h.onID(w, r, h.svc.DeleteUser)
}

func (h *Handler) HandleChangeUserName(w http.ResponseWriter, r *http.Request) {
	h.changeText(w, r, h.svc.ChangeUserName)
}

func (h *Handler) HandleChangeUserInfo(w http.ResponseWriter, r *http.Request) {
	h.changeText(w, r, h.svc.ChangeUserInfo)
}

func (h *Handler) HandleChangeUserTitle(w http.ResponseWriter, r *http.Request) {
	h.changeText(w, r, h.svc.ChangeUserTitle)
}

func (h *Handler) HandleChangeUserSignature(w http.ResponseWriter, r *http.Request) {
	h.changeText(w, r, h.svc.ChangeUserSignature)
}

// HTTP: PUT /api/users/{id}/attachment-quota   {"value":1048576}
func (h *Handler) HandleChangeUserAttachmentQuota(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	quota, err := decodeValue[uint64](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.done(w, r, h.svc.ChangeUserAttachmentQuota(r.Context(), id, quota))
}

// changeTextFunc is the shape of every service call that sets one string
// field of an entity.
type changeTextFunc = func(ctx context.Context, id model.ID, value string) error

// changeText handles PUT /{id}/<field> with a {"value":"..."} body.
func (h *Handler) changeText(w http.ResponseWriter, r *http.Request, change changeTextFunc) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	value, err := decodeValue[string](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.done(w, r, change(r.Context(), id, value))
}

func (h *Handler) HandleGetThreadsOfUser(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) {
		return h.svc.GetThreadsOfUser(r.Context(), id, service.ThreadOrder(orderBy(r)))
	})
}

func (h *Handler) HandleGetSubscribedThreadsOfUser(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) {
		return h.svc.GetSubscribedThreadsOfUser(r.Context(), id, service.ThreadOrder(orderBy(r)))
	})
}

func (h *Handler) HandleGetMessagesOfUser(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) { return h.svc.GetMessagesOfUser(r.Context(), id) })
}

func (h *Handler) HandleGetCommentsOfUser(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) { return h.svc.GetCommentsOfUser(r.Context(), id) })
}

func (h *Handler) HandleGetAttachmentsOfUser(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) {
		return h.svc.GetAttachmentsOfUser(r.Context(), id, service.AttachmentOrder(orderBy(r)))
	})
}

func (h *Handler) HandleGetGrants(w http.ResponseWriter, r *http.Request) {
	h.getByID(w, r, func(id model.ID) (any, error) { return h.svc.GetGrants(r.Context(), id) })
}

// getByID serves GET /{id} and GET /{id}/<listing> for the entity named by
// the id parameter.
func (h *Handler) getByID(w http.ResponseWriter, r *http.Request, list func(id model.ID) (any, error)) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	read(h, w, r, func() (any, error) { return list(id) })
}
