package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/eluvju/wapp-shop-express/internal/auth"
	"github.com/google/uuid"
)

const (
	sessionCookie = "storefront_session"
	sessionHeader = "X-Session-ID"

	headerUserID    = "X-User-ID"
	headerUserEmail = "X-User-Email"
	headerUserName  = "X-User-Name"
)

type sessionKey struct{}

// SessionMiddleware pins an anonymous session id to every request: header
// wins over cookie, and a fresh uuid is minted when neither is present. The
// cookie keeps the session sticky across visits, like browser storage.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := r.Header.Get(sessionHeader)
		if sid == "" {
			if c, err := r.Cookie(sessionCookie); err == nil {
				sid = c.Value
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sid,
				Path:     "/",
				Expires:  time.Now().Add(30 * 24 * time.Hour),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionID returns the request's session id, empty outside the middleware.
func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey{}).(string)
	return sid
}

// IdentityMiddleware trusts the identity headers the auth proxy sets.
// Verification happened upstream; requests without a user id stay anonymous.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(headerUserID)
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := auth.WithIdentity(r.Context(), &auth.Identity{
			ID:    userID,
			Email: r.Header.Get(headerUserEmail),
			Name:  r.Header.Get(headerUserName),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
