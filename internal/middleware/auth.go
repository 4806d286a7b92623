package middleware

import (
	"context"
	"net/http"
)

// SessionCookie is the name of the HttpOnly cookie carrying the signed
// session token.
const SessionCookie = "session"

type contextKey string

const sessionKey contextKey = "session"

// Session is the authenticated identity threaded through the request
// context. Handlers read it with FromContext instead of casting loose
// context values.
type Session struct {
	UserID   int
	Username string
	IsAdmin  bool
}

// TokenValidator decouples 'middleware' from 'user': anything that can
// turn a token string into a session will do.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Session, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(v TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: v}
}

// Handle rejects requests without a valid session cookie and injects
// the Session into the request context.
func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			http.Error(w, "not logged in", http.StatusUnauthorized)
			return
		}

		sess, err := am.validator.ValidateToken(cookie.Value)
		if err != nil {
			http.Error(w, "invalid session", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must be mounted inside Handle.
func (am *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := FromContext(r.Context())
		if !ok || !sess.IsAdmin {
			http.Error(w, "admin privileges required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FromContext returns the Session stored by Handle, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*Session)
	return sess, ok
}

// NewContext attaches a Session to ctx. Exported for tests that call
// handlers directly without the middleware stack.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}
