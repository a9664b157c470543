package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/forum/internal/apperror"
	"github.com/sakif/forum/internal/auth"
	"github.com/sakif/forum/internal/config"
	"github.com/sakif/forum/internal/middleware"
	"github.com/sakif/forum/internal/observer"
	"github.com/sakif/forum/internal/reqctx"
	"github.com/sakif/forum/internal/service"
	"github.com/sakif/forum/internal/store"
)

// ============================================================
// TEST SERVER
// ============================================================

type testAPI struct {
	srv   *httptest.Server
	svc   *service.Service
	clock *reqctx.FakeClock
}

// newTestAPI serves the full route table behind the same context and auth
// middleware the real server uses. "root" is an administrator.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	cfg := config.Default()
	cfg.Authorization.Administrators = []string{"root"}
	defaults, err := cfg.AuthorizationDefaults()
	require.NoError(t, err)
	tokens, err := auth.NewTokenService("handler-test-secret-0123", time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(service.Deps{
		Store:   store.New(defaults),
		Config:  cfg,
		Events:  observer.New(),
		Keys:    auth.NewKeyHasherWithCost(bcrypt.MinCost),
		Tokens:  tokens,
		Logger:  logger,
		Version: "1.2.3",
	})
	clock := reqctx.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	r := chi.NewRouter()
	r.Use(middleware.RequestContext(clock))
	r.Use(auth.OptionalAuth(tokens))
	New(svc, logger, time.Hour).Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testAPI{srv: srv, svc: svc, clock: clock}
}

// do sends a request with an optional JSON body and bearer token.
func (a *testAPI) do(t *testing.T, method, path, body, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// register creates a user and logs in, returning the session token.
func (a *testAPI) register(t *testing.T, name string) string {
	t.Helper()
	creds := `{"name":"` + name + `","authKey":"key-` + name + `"}`
	resp := a.do(t, http.MethodPost, "/api/users", creds, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/api/login", creds, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[map[string]string](t, resp)["token"]
}

func (a *testAPI) addThread(t *testing.T, token, name string) string {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/threads", `{"name":"`+name+`"}`, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[service.Result](t, resp).ID.String()
}

// ============================================================
// USERS AND SESSIONS
// ============================================================

func TestLogin_SetsCookieAndIdentifiesUser(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice")

	resp := api.do(t, http.MethodPost, "/api/login", `{"name":"alice","authKey":"key-alice"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must set the session cookie")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)

	req, err := http.NewRequest(http.MethodGet, api.srv.URL+"/api/users/current", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	current, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer current.Body.Close()

	require.Equal(t, http.StatusOK, current.StatusCode)
	assert.Equal(t, "alice", decode[service.UserView](t, current).Name)
}

func TestLogin_WrongKey(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice")

	resp := api.do(t, http.MethodPost, "/api/login", `{"name":"alice","authKey":"nope"}`, "")

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apperror.StatusNotAllowed, decode[ErrorResponse](t, resp).Status)
}

func TestLogout_ClearsCookie(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/api/logout", "", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, resp.Cookies(), 1)
	assert.Equal(t, -1, resp.Cookies()[0].MaxAge)
}

func TestAddUser_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		code   int
		status apperror.Status
	}{
		{name: "too short", body: `{"name":"ab","authKey":"k"}`, code: http.StatusBadRequest, status: apperror.StatusValueTooShort},
		{name: "unknown field", body: `{"name":"alice","authKey":"k","admin":true}`, code: http.StatusBadRequest, status: apperror.StatusInvalidParameters},
		{name: "not JSON", body: `name=alice`, code: http.StatusBadRequest, status: apperror.StatusInvalidParameters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			resp := api.do(t, http.MethodPost, "/api/users", tt.body, "")
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, tt.status, decode[ErrorResponse](t, resp).Status)
		})
	}
}

func TestAddUser_Duplicate(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice")

	resp := api.do(t, http.MethodPost, "/api/users", `{"name":"alice","authKey":"other"}`, "")

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, apperror.StatusAlreadyExists, decode[ErrorResponse](t, resp).Status)
}

// ============================================================
// THREADS AND MESSAGES
// ============================================================

func TestThreads_AnonymousCannotWrite(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/api/threads", `{"name":"Hello there"}`, "")

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apperror.StatusNotAllowed, decode[ErrorResponse](t, resp).Status)
}

func TestThreads_CreateAndRead(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "alice")
	id := api.addThread(t, token, "First thread")

	resp := api.do(t, http.MethodPost, "/api/threads/"+id+"/messages", `{"content":"Hello everyone!"}`, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/threads/"+id, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[service.ThreadDetail](t, resp)
	assert.Equal(t, "First thread", detail.Name)
	require.Len(t, detail.Messages.Items, 1)
	assert.Equal(t, "Hello everyone!", detail.Messages.Items[0].Content)
}

func TestThreads_NotModifiedHasNoBody(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "alice")
	id := api.addThread(t, token, "Quiet thread")

	since := api.clock.Now().Add(time.Minute).Format(time.RFC3339Nano)
	resp := api.do(t, http.MethodGet, "/api/threads/"+id+"?since="+since, "", "")

	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestThreads_BadAndMissingIDs(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/threads/not-an-id", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "id", decode[ErrorResponse](t, resp).Field)

	resp = api.do(t, http.MethodGet, "/api/threads/00000000-0000-0000-0000-000000000000", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/threads/6a1c1f0e-3d51-4c3a-9c0e-3b7a2f9d4e11", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apperror.StatusNotFound, decode[ErrorResponse](t, resp).Status)
}

func TestThreads_ListingOrderValidation(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "alice")
	api.addThread(t, token, "Bravo thread")
	api.addThread(t, token, "Alpha thread")

	resp := api.do(t, http.MethodGet, "/api/threads?orderby=name&sort=desc", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[service.Page[service.ThreadView]](t, resp)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Bravo thread", page.Items[0].Name)

	resp = api.do(t, http.MethodGet, "/api/threads?orderby=popularity", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "orderby", decode[ErrorResponse](t, resp).Field)
}

func TestThreads_ChangeName(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "alice")
	id := api.addThread(t, token, "Old name")

	resp := api.do(t, http.MethodPut, "/api/threads/"+id+"/name", `{"value":"New name"}`, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, apperror.StatusOK, decode[StatusResponse](t, resp).Status)

	resp = api.do(t, http.MethodGet, "/api/threads/"+id, "", "")
	assert.Equal(t, "New name", decode[service.ThreadDetail](t, resp).Name)
}

// ============================================================
// PRIVILEGES
// ============================================================

func TestPrivileges_ForumWideLevels(t *testing.T) {
	api := newTestAPI(t)
	root := api.register(t, "root")

	resp := api.do(t, http.MethodGet, "/api/privileges/forum_wide", "", root)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decode[service.Levels](t, resp).Levels)

	resp = api.do(t, http.MethodGet, "/api/privileges/galaxy_wide", "", root)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "scope", decode[ErrorResponse](t, resp).Field)
}

func TestPrivileges_AnonymousGrant(t *testing.T) {
	api := newTestAPI(t)
	root := api.register(t, "root")
	alice := api.register(t, "alice")
	id := api.addThread(t, alice, "Open thread")

	resp := api.do(t, http.MethodPost, "/api/threads/"+id+"/messages", `{"content":"drive-by comment"}`, "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	grant := `{"userId":"","privilege":"thread.add_message","value":1}`
	resp = api.do(t, http.MethodPost, "/api/privileges/forum_wide/grants", grant, root)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/api/threads/"+id+"/messages", `{"content":"drive-by comment"}`, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

// ============================================================
// MISC
// ============================================================

func TestVersionAndStats(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "alice")
	api.addThread(t, token, "Counted thread")

	resp := api.do(t, http.MethodGet, "/api/version", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1.2.3", decode[map[string]string](t, resp)["version"])

	resp = api.do(t, http.MethodGet, "/api/stats", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	counts := decode[store.Counts](t, resp)
	assert.Equal(t, 1, counts.Users)
	assert.Equal(t, 1, counts.Threads)
}

func TestWriteError_HidesUnexpectedErrors(t *testing.T) {
	h := New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)
	rec := httptest.NewRecorder()

	h.writeError(rec, httptest.NewRequest(http.MethodGet, "/api/threads", nil), errors.New("disk on fire at /var/lib/forum"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperror.StatusUnexpected, body.Status)
	assert.NotContains(t, body.Message, "/var/lib")
}

func TestHTTPStatus(t *testing.T) {
	tests := map[apperror.Status]int{
		apperror.StatusOK:                          http.StatusOK,
		apperror.StatusNotFound:                    http.StatusNotFound,
		apperror.StatusNoEffect:                    http.StatusConflict,
		apperror.StatusCircularReferenceNotAllowed: http.StatusConflict,
		apperror.StatusValueTooLong:                http.StatusBadRequest,
		apperror.StatusNotAllowed:                  http.StatusForbidden,
		apperror.StatusQuotaExceeded:               http.StatusRequestEntityTooLarge,
		apperror.StatusNotUpdatedSinceLastCheck:    http.StatusNotModified,
		apperror.StatusUnexpected:                  http.StatusInternalServerError,
	}
	for status, want := range tests {
		assert.Equal(t, want, httpStatus(status), status.String())
	}
}
