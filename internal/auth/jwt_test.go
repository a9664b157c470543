package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/reqctx"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		lifetime time.Duration
	}{
		{"short secret", "short", time.Hour},
		{"zero lifetime", "this-is-16-chars", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTokenService(tt.secret, tt.lifetime); err == nil {
				t.Fatal("NewTokenService() should fail")
			}
		})
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)
	user := model.NewID()

	token, err := ts.Generate(user)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("Generate() token doesn't look like a JWT: %q", token)
	}

	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != user {
		t.Errorf("Validate() user = %s, want %s", got, user)
	}
}

func TestGenerate_RefusesAnonymous(t *testing.T) {
	ts := newTestTokenService(t)
	if _, err := ts.Generate(model.ZeroID); err == nil {
		t.Fatal("Generate() should refuse the anonymous user")
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)
	clock := reqctx.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	ts.now = clock.Now

	token, err := ts.Generate(model.NewID())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	clock.Advance(2 * time.Hour)
	if _, err := ts.Validate(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("Validate() error = %v, want ErrExpired", err)
	}
}

func TestValidate_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate(model.NewID())

	if _, err := ts.Validate(token[:len(token)-3] + "xxx"); err == nil {
		t.Fatal("Validate() should return an error for a tampered token")
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts1, _ := NewTokenService("correct-secret-32-chars-long!!!!", time.Hour)
	ts2, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!", time.Hour)

	token, _ := ts1.Generate(model.NewID())
	if _, err := ts2.Validate(token); err == nil {
		t.Fatal("Validate() should reject a token signed with a different secret")
	}
}

func TestOptionalAuth(t *testing.T) {
	ts := newTestTokenService(t)
	user := model.NewID()
	token, _ := ts.Generate(user)

	var seen model.ID
	handler := OptionalAuth(ts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = reqctx.User(r.Context())
	}))

	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  model.ID
	}{
		{"no token", func(r *http.Request) {}, model.ZeroID},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: token}) }, user},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, user},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, model.ZeroID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = model.NewID()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			handler.ServeHTTP(httptest.NewRecorder(), r)
			if seen != tt.want {
				t.Errorf("user = %s, want %s", seen, tt.want)
			}
		})
	}
}
