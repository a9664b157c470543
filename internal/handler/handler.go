// Package handler exposes the forum services as a JSON API.
//
// HANDLERS ARE THIN:
// A handler parses the path, query and body, calls exactly one service
// operation and writes what comes back. Privileges, validation of names and
// lengths, last-seen updates and events all happen in the service. The
// caller's identity, address and display settings were put into the request
// context by the middleware chain.
//
// QUERY PARAMETERS SHARED BY ALL LISTINGS:
//
//	?orderby=<field>   name, created, messagecount, ... (see service orders)
//	?sort=asc|desc
//	?page=<n>          zero based
//	?since=<RFC 3339>  answer 304 if nothing changed after that instant
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/forum/internal/service"
)

// ParamOrderBy selects the field a listing is sorted on.
const ParamOrderBy = "orderby"

type Handler struct {
	svc           *service.Service
	logger        *slog.Logger
	tokenLifetime time.Duration
}

// New creates a Handler. tokenLifetime sets the max age of the login cookie.
func New(svc *service.Service, logger *slog.Logger, tokenLifetime time.Duration) *Handler {
	return &Handler{svc: svc, logger: logger, tokenLifetime: tokenLifetime}
}

// Routes mounts every endpoint on r.
//
// ROUTE TABLE (all under /api):
//
//	GET    /version, /stats
//	POST   /login, /logout
//	       /users/...         registration, profile, per-user listings
//	       /threads/...       threads, their messages, tags and subscriptions
//	       /messages/...      content, votes, approval, comments, attachments
//	       /comments/...
//	       /tags/...
//	       /categories/...
//	       /attachments/...
//	       /privileges/{scope}[/{id}]  levels, durations and grants
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.HandleGetVersion)
		r.Get("/stats", h.HandleGetEntitiesCount)
		r.Post("/login", h.HandleLogin)
		r.Post("/logout", h.HandleLogout)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.HandleGetUsers)
			r.Post("/", h.HandleAddUser)
			r.Get("/current", h.HandleGetCurrentUser)
			r.Get("/name/{name}", h.HandleGetUserByName)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.HandleGetUser)
				r.Delete("/", h.HandleDeleteUser)
				r.Put("/name", h.HandleChangeUserName)
				r.Put("/info", h.HandleChangeUserInfo)
				r.Put("/title", h.HandleChangeUserTitle)
				r.Put("/signature", h.HandleChangeUserSignature)
				r.Put("/attachment-quota", h.HandleChangeUserAttachmentQuota)
				r.Get("/threads", h.HandleGetThreadsOfUser)
				r.Get("/subscribed-threads", h.HandleGetSubscribedThreadsOfUser)
				r.Get("/messages", h.HandleGetMessagesOfUser)
				r.Get("/comments", h.HandleGetCommentsOfUser)
				r.Get("/attachments", h.HandleGetAttachmentsOfUser)
				r.Get("/grants", h.HandleGetGrants)
			})
		})

		r.Route("/threads", func(r chi.Router) {
			r.Get("/", h.HandleGetThreads)
			r.Post("/", h.HandleAddThread)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.HandleGetThread)
				r.Delete("/", h.HandleDeleteThread)
				r.Put("/name", h.HandleChangeThreadName)
				r.Put("/pin-display-order", h.HandleChangeThreadPinDisplayOrder)
				r.Post("/merge/{intoId}", h.HandleMergeThreads)
				r.Post("/subscription", h.HandleSubscribeToThread)
				r.Delete("/subscription", h.HandleUnsubscribeFromThread)
				r.Get("/messages", h.HandleGetMessagesOfThread)
				r.Post("/messages", h.HandleAddMessage)
				r.Post("/tags/{tagId}", h.HandleAddTagToThread)
				r.Delete("/tags/{tagId}", h.HandleRemoveTagFromThread)
			})
		})

		r.Route("/messages/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetMessage)
			r.Delete("/", h.HandleDeleteMessage)
			r.Put("/content", h.HandleChangeMessageContent)
			r.Put("/approval", h.HandleChangeMessageApproval)
			r.Post("/move/{intoId}", h.HandleMoveMessage)
			r.Post("/upvote", h.HandleUpVote)
			r.Post("/downvote", h.HandleDownVote)
			r.Delete("/vote", h.HandleResetVote)
			r.Get("/comments", h.HandleGetCommentsOfMessage)
			r.Post("/comments", h.HandleAddComment)
			r.Post("/attachments/{attachmentId}", h.HandleAddAttachmentToMessage)
			r.Delete("/attachments/{attachmentId}", h.HandleRemoveAttachmentFromMessage)
		})

		r.Get("/comments", h.HandleGetComments)
		r.Put("/comments/{id}/solved", h.HandleSetCommentSolved)

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", h.HandleGetTags)
			r.Post("/", h.HandleAddTag)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.HandleGetTag)
				r.Delete("/", h.HandleDeleteTag)
				r.Put("/name", h.HandleChangeTagName)
				r.Put("/ui-blob", h.HandleChangeTagUIBlob)
				r.Post("/merge/{intoId}", h.HandleMergeTags)
				r.Get("/threads", h.HandleGetThreadsWithTag)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.HandleGetCategories)
			r.Post("/", h.HandleAddCategory)
			r.Get("/root", h.HandleGetCategoriesFromRoot)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.HandleGetCategory)
				r.Delete("/", h.HandleDeleteCategory)
				r.Put("/name", h.HandleChangeCategoryName)
				r.Put("/description", h.HandleChangeCategoryDescription)
				r.Put("/parent", h.HandleChangeCategoryParent)
				r.Put("/display-order", h.HandleChangeCategoryDisplayOrder)
				r.Post("/tags/{tagId}", h.HandleAddTagToCategory)
				r.Delete("/tags/{tagId}", h.HandleRemoveTagFromCategory)
				r.Get("/threads", h.HandleGetThreadsOfCategory)
			})
		})

		r.Route("/attachments", func(r chi.Router) {
			r.Get("/", h.HandleGetAttachments)
			r.Post("/", h.HandleAddAttachment)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.HandleGetAttachment)
				r.Delete("/", h.HandleDeleteAttachment)
				r.Put("/name", h.HandleChangeAttachmentName)
				r.Put("/approval", h.HandleChangeAttachmentApproval)
			})
		})

		r.Route("/privileges/{scope}", func(r chi.Router) {
			r.Get("/", h.HandleGetLevels)
			r.Put("/levels/{name}", h.HandleChangeLevel)
			r.Put("/durations/{name}", h.HandleChangeDuration)
			r.Post("/grants", h.HandleAssignGrant)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.HandleGetLevels)
				r.Put("/levels/{name}", h.HandleChangeLevel)
				r.Put("/durations/{name}", h.HandleChangeDuration)
				r.Post("/grants", h.HandleAssignGrant)
			})
		})
	})
}

// read runs a service read and writes its result as JSON.
func read[T any](h *Handler, w http.ResponseWriter, r *http.Request, fn func() (T, error)) {
	v, err := fn()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// created writes the result of an Add* operation.
func (h *Handler) created(w http.ResponseWriter, r *http.Request, res service.Result, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// done writes the outcome of an operation that returns nothing.
func (h *Handler) done(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w)
}

func orderBy(r *http.Request) string {
	return r.URL.Query().Get(ParamOrderBy)
}

// HandleGetVersion returns the build version.
//
// HTTP: GET /api/version
func (h *Handler) HandleGetVersion(w http.ResponseWriter, r *http.Request) {
	read(h, w, r, func() (map[string]string, error) {
		v, err := h.svc.GetVersion(r.Context())
		return map[string]string{"version": v}, err
	})
}

// HandleGetEntitiesCount returns how many entities of each kind exist.
//
// HTTP: GET /api/stats
func (h *Handler) HandleGetEntitiesCount(w http.ResponseWriter, r *http.Request) {
	read(h, w, r, func() (any, error) { return h.svc.GetEntitiesCount(r.Context()) })
}
