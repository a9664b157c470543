// Package auth issues and checks the session tokens of forum users.
//
// HOW IT FITS TOGETHER:
//
//	Login (service)     → verifies the auth key against the stored bcrypt hash
//	TokenService        → signs a JWT whose subject is the user id
//	OptionalAuth        → turns the token back into a user id on every request
//	                      and stores it in the request context (reqctx)
//
// A request without a valid token is not rejected. It simply runs as the
// anonymous user, and the privilege engine decides what anonymous may do.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/forum/internal/model"
)

const issuer = "forum"

// ErrExpired is returned by Validate for tokens past their expiry.
var ErrExpired = errors.New("auth: token expired")

// TokenService signs and validates HS256 session tokens.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenService rejects short secrets. HS256 is only as strong as its key.
func NewTokenService(secret string, lifetime time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if lifetime <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), lifetime: lifetime, now: time.Now}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate issues a token for user valid for the configured lifetime.
func (s *TokenService) Generate(user model.ID) (string, error) {
	return s.generate(user, s.lifetime)
}

func (s *TokenService) generate(user model.ID, lifetime time.Duration) (string, error) {
	if user.IsZero() {
		return "", errors.New("auth: cannot issue a token for the anonymous user")
	}
	now := s.now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate checks the signature, issuer and expiry of tokenStr and returns
// the user id it carries.
func (s *TokenService) Validate(tokenStr string) (model.ID, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.ZeroID, ErrExpired
		}
		return model.ZeroID, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return model.ZeroID, errors.New("auth: invalid token claims")
	}

	id, err := model.ParseID(c.Subject)
	if err != nil || id.IsZero() {
		return model.ZeroID, fmt.Errorf("auth: token subject %q is not a user id", c.Subject)
	}
	return id, nil
}
