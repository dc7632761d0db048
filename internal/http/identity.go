package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/log"
)

const (
	// HeaderUsername carries the caller's username on every request.
	HeaderUsername = "X-Username"
	// CookieUsername is set by /auth/login for browser clients.
	CookieUsername = "u"
)

// IdentityResolver turns a request into the calling user, or fails with
// core.ErrUnauthorized.
type IdentityResolver interface {
	Resolve(r *http.Request) (core.User, error)
}

// UserResolver looks up a user by name; services.UserService satisfies it.
type UserResolver interface {
	Resolve(ctx context.Context, username string) (core.User, error)
}

// HeaderCookieResolver reads the username from the x-username header and
// falls back to the login cookie.
type HeaderCookieResolver struct {
	users UserResolver
}

func NewHeaderCookieResolver(users UserResolver) *HeaderCookieResolver {
	return &HeaderCookieResolver{users: users}
}

func (h *HeaderCookieResolver) Resolve(r *http.Request) (core.User, error) {
	username := strings.TrimSpace(r.Header.Get(HeaderUsername))
	if username == "" {
		if c, err := r.Cookie(CookieUsername); err == nil {
			username = strings.TrimSpace(c.Value)
		}
	}
	if username == "" {
		return core.User{}, fmt.Errorf("%w: not logged in", core.ErrUnauthorized)
	}
	return h.users.Resolve(r.Context(), username)
}

type userContextKey struct{}

// WithUser stores the resolved caller in ctx.
func WithUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext returns the caller stored by RequireUser.
func UserFromContext(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(core.User)
	return u, ok
}

// RequireUser rejects requests without a resolvable identity and enriches
// the request logger with the caller.
func RequireUser(resolver IdentityResolver) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			u, err := resolver.Resolve(r)
			if err != nil {
				writeError(w, r, log.OpRead, err)
				return
			}

			logger := log.FromContext(r.Context()).With(log.FieldUserID, u.ID)
			ctx := context.WithValue(WithUser(r.Context(), u), log.LoggerContextKey, logger)
			next(w, r.WithContext(ctx))
		}
	}
}

func loginCookie(username string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieUsername,
		Value:    username,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
	}
}

func logoutCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieUsername,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}
