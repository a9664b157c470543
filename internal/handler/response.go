package handler

// RESPONSES:
// Every endpoint answers with JSON. Successful writes without a payload send
//
//	{"status":"OK"}
//
// and every failure sends the same shape with the status that caused it:
//
//	{"status":"NOT_FOUND","message":"discussion thread not found with id ..."}
//
// The status strings are the apperror taxonomy, so a client can switch on
// them without parsing messages. The HTTP code is a coarse mirror of it.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/forum/internal/apperror"
)

type StatusResponse struct {
	Status apperror.Status `json:"status"`
}

type ErrorResponse struct {
	Status  apperror.Status `json:"status"`
	Message string          `json:"message"`
	Field   string          `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are gone already, all that is left is to log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: apperror.StatusOK})
}

// httpStatus maps the forum status onto an HTTP code.
func httpStatus(s apperror.Status) int {
	switch s {
	case apperror.StatusOK:
		return http.StatusOK
	case apperror.StatusNotFound:
		return http.StatusNotFound
	case apperror.StatusAlreadyExists, apperror.StatusNoEffect, apperror.StatusCircularReferenceNotAllowed:
		return http.StatusConflict
	case apperror.StatusInvalidParameters, apperror.StatusValueTooShort, apperror.StatusValueTooLong:
		return http.StatusBadRequest
	case apperror.StatusNotAllowed:
		return http.StatusForbidden
	case apperror.StatusQuotaExceeded:
		return http.StatusRequestEntityTooLarge
	case apperror.StatusNotUpdatedSinceLastCheck:
		return http.StatusNotModified
	}
	return http.StatusInternalServerError
}

// writeError reports err. Errors outside the taxonomy are logged and hidden
// behind a generic message since they may carry paths or SQL.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.StatusOf(err)
	code := httpStatus(status)

	if code == http.StatusNotModified {
		// A 304 must not carry a body.
		w.WriteHeader(code)
		return
	}

	var appErr *apperror.AppError
	if status == apperror.StatusUnexpected || !errors.As(err, &appErr) {
		h.logger.Error("unexpected error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Status:  apperror.StatusUnexpected,
			Message: "an internal error occurred",
		})
		return
	}

	writeJSON(w, code, ErrorResponse{
		Status:  status,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}
