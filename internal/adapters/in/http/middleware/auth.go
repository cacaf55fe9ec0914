// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"

	userdom "shopez/internal/domain/user"
)

// FirebaseAuthClient is an alias for the firebase auth client so callers can
// take a *middleware.FirebaseAuthClient.
type FirebaseAuthClient = fbauth.Client

// context keys use an unexported struct type to avoid collisions (SA1029)
type ctxKey struct{ name string }

var ctxKeySession = ctxKey{name: "session"}

// Auth verifies
//
//   - Authorization: Bearer <ID_TOKEN>
//
// and stores the resulting user session in the request context for the next
// handler.
type Auth struct {
	FirebaseAuth *FirebaseAuthClient
}

func (m *Auth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.FirebaseAuth == nil {
			http.Error(w, "auth middleware not initialized", http.StatusServiceUnavailable)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "unauthorized: missing bearer token", http.StatusUnauthorized)
			return
		}

		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			http.Error(w, "unauthorized: empty bearer token", http.StatusUnauthorized)
			return
		}

		token, err := m.FirebaseAuth.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			http.Error(w, "invalid uid in token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeySession, userdom.Session{UID: uid})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFrom extracts the authenticated session set by Auth.
func SessionFrom(ctx context.Context) (userdom.Session, bool) {
	s, ok := ctx.Value(ctxKeySession).(userdom.Session)
	return s, ok && s.Active()
}

// WithSession returns a context carrying the session. Exposed for handler
// tests that bypass token verification.
func WithSession(ctx context.Context, s userdom.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}
