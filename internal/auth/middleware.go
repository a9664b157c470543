package auth

import (
	"net/http"
	"strings"

	"github.com/sakif/forum/internal/reqctx"
)

// CookieName is the cookie Login sets and OptionalAuth reads.
const CookieName = "token"

// OptionalAuth attaches the user id carried by a valid token to the request
// context. Missing or invalid tokens leave the request anonymous.
//
// The token is read from the "token" cookie first, then from an
// "Authorization: Bearer <token>" header for non-browser clients.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := extractToken(r); raw != "" {
				if id, err := tokens.Validate(raw); err == nil {
					r = r.WithContext(reqctx.WithUser(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
