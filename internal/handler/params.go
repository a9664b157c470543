package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/forum/internal/apperror"
	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/privilege"
)

// maxBodySize caps request bodies. The largest legitimate body is a message
// of 65535 characters, up to four bytes each.
const maxBodySize = 1 << 20

// idParam parses the path parameter name as an id. The zero id is refused:
// it names the anonymous user, never an entity.
func idParam(r *http.Request, name string) (model.ID, error) {
	raw := chi.URLParam(r, name)
	id, err := model.ParseID(raw)
	if err != nil || id.IsZero() {
		return model.ZeroID, apperror.ValidationFailed(name, fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}

// optionalID parses an id that may be empty, e.g. the parent of a root
// category.
func optionalID(field, raw string) (model.ID, error) {
	id, err := model.ParseID(raw)
	if err != nil {
		return model.ZeroID, apperror.ValidationFailed(field, fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}

func scopeParam(r *http.Request) (privilege.Scope, error) {
	raw := chi.URLParam(r, "scope")
	scope, err := privilege.ParseScope(raw)
	if err != nil {
		return 0, apperror.ValidationFailed("scope", err.Error())
	}
	return scope, nil
}

// decodeJSON reads the request body into dst. Unknown fields are refused so
// a typo in a field name does not silently become an empty value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperror.TooLong("body", maxBodySize)
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		default:
			return apperror.ValidationFailed("body", "invalid JSON body: "+err.Error())
		}
	}
	return nil
}

// valueBody is the body of every endpoint that changes a single field:
//
//	PUT /api/threads/{id}/name   {"value":"New name"}
type valueBody[T any] struct {
	Value T `json:"value"`
}

func decodeValue[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var body valueBody[T]
	err := decodeJSON(w, r, &body)
	return body.Value, err
}

// pairFunc is a service call relating two entities, e.g. a tag and a thread.
type pairFunc = func(ctx context.Context, first, second model.ID) error

// pair parses the path parameters first and second and passes them to fn in
// that order.
func (h *Handler) pair(w http.ResponseWriter, r *http.Request, first, second string, fn pairFunc) {
	a, err := idParam(r, first)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := idParam(r, second)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.done(w, r, fn(r.Context(), a, b))
}

// onID runs an operation that takes nothing but the id in the path.
func (h *Handler) onID(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id model.ID) error) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.done(w, r, fn(r.Context(), id))
}

// changeApproval handles PUT /{id}/approval with a {"value":true} body.
func (h *Handler) changeApproval(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id model.ID, approved bool) error) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	approved, err := decodeValue[bool](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.done(w, r, fn(r.Context(), id, approved))
}
