// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

// userIDKey is the context key for storing the authenticated user ID.
const userIDKey contextKey = "userID"

// DefaultCookieName is the cookie the session token is read from.
const DefaultCookieName = "auth_token"

// Errors a TokenValidator returns so the middleware can pick the response message.
var (
	ErrTokenExpired  = errors.New("token expired")
	ErrMissingUserID = errors.New("token has no userId claim")
)

// 401 response messages.
const (
	MsgMissingToken  = "Unauthorized: Missing token"
	MsgTokenExpired  = "Unauthorized: Token expired"
	MsgInvalidToken  = "Unauthorized: Invalid token"
	MsgMissingUserID = "Unauthorized: Invalid token - Missing userId"
)

// TokenValidator is an interface for validating JWT tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (UserIDGetter, error)
}

// UserIDGetter is an interface for extracting user ID from token claims.
type UserIDGetter interface {
	GetUserID() string
}

// AuthMiddleware creates middleware that reads the session cookie, validates it and adds the user ID to the
// request context. An empty cookieName means DefaultCookieName.
func AuthMiddleware(jwtService TokenValidator, cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || strings.TrimSpace(cookie.Value) == "" {
				unauthorized(w, MsgMissingToken)
				return
			}

			claims, err := jwtService.ValidateToken(strings.TrimSpace(cookie.Value))
			if err != nil {
				unauthorized(w, messageFor(err))
				return
			}

			userID := claims.GetUserID()
			if userID == "" {
				unauthorized(w, MsgMissingUserID)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, ErrMissingUserID):
		return MsgMissingUserID
	case errors.Is(err, ErrTokenExpired):
		return MsgTokenExpired
	default:
		return MsgInvalidToken
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}
