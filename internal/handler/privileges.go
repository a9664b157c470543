package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/privilege"
)

// PRIVILEGE TARGETS:
// Every privilege endpoint addresses a target as /privileges/{scope}/{id}.
// The forum-wide target has no entity and is addressed as
// /privileges/forum_wide. Privileges are named "<scope>.<privilege>", e.g.
// "message.change_own_content" or "forum_wide.add_user".

// target parses the scope and the optional entity id of the request.
func target(r *http.Request) (privilege.Scope, model.ID, error) {
	scope, err := scopeParam(r)
	if err != nil {
		return 0, model.ZeroID, err
	}
	id, err := optionalID("id", chi.URLParam(r, "id"))
	if err != nil {
		return 0, model.ZeroID, err
	}
	return scope, id, nil
}

// HandleGetLevels returns the levels and durations configured on a target.
//
// HTTP: GET /api/privileges/{scope}[/{id}]
func (h *Handler) HandleGetLevels(w http.ResponseWriter, r *http.Request) {
	scope, id, err := target(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	read(h, w, r, func() (any, error) { return h.svc.GetLevels(r.Context(), scope, id) })
}

// HTTP: PUT /api/privileges/{scope}[/{id}]/levels/{name}   {"value":10}
func (h *Handler) HandleChangeLevel(w http.ResponseWriter, r *http.Request) {
	scope, id, err := target(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	value, err := decodeValue[privilege.Value](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.done(w, r, h.svc.ChangeLevel(r.Context(), scope, id, chi.URLParam(r, "name"), value))
}

// HandleChangeDuration sets a time limit in seconds. Zero removes the limit.
//
// HTTP: PUT /api/privileges/{scope}[/{id}]/durations/{name}   {"value":3600}
func (h *Handler) HandleChangeDuration(w http.ResponseWriter, r *http.Request) {
	scope, id, err := target(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	seconds, err := decodeValue[int64](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d := time.Duration(seconds) * time.Second
	h.done(w, r, h.svc.ChangeDuration(r.Context(), scope, id, chi.URLParam(r, "name"), d))
}

// grantBody assigns a privilege value to a user. An empty userId targets
// anonymous callers, a missing expiresAt never expires.
type grantBody struct {
	UserID    string          `json:"userId"`
	Privilege string          `json:"privilege"`
	Value     privilege.Value `json:"value"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// HTTP: POST /api/privileges/{scope}[/{id}]/grants
func (h *Handler) HandleAssignGrant(w http.ResponseWriter, r *http.Request) {
	scope, id, err := target(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body grantBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := optionalID("userId", body.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.done(w, r, h.svc.AssignGrant(r.Context(), scope, id, user, body.Privilege, body.Value, body.ExpiresAt.UTC()))
}
