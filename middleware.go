package loginapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

type userContextKey struct{}

const msgLoginRequired = "Log in to view this page."

// SessionResolver turns the user id held in a session into a user
type SessionResolver interface {
	ResolveSession(ctx context.Context, userId string) (*User, error)
}

// StoreResolver resolves sessions straight from a UserStore
type StoreResolver struct {
	Store UserStore
}

func (s StoreResolver) ResolveSession(ctx context.Context, userId string) (*User, error) {
	return s.Store.GetUserById(ctx, userId)
}

type Middleware struct {
	Sessions *Sessions
	Resolver SessionResolver

	// Where anonymous callers are sent by EnsureUser. Defaults to /login/
	LoginURL string

	// Query param carrying the requested path. Defaults to next
	CallbackURLParam string

	Logger *zap.Logger
}

func (m *Middleware) EnsureReasonableDefaults() {
	if m.LoginURL == "" {
		m.LoginURL = "/login/"
	}
	if m.CallbackURLParam == "" {
		m.CallbackURLParam = "next"
	}
	if m.Logger == nil {
		m.Logger = zap.NewNop()
	}
}

// UserFromContext returns the user loaded by ExtractUser or EnsureUser, if any
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}

func withUser(r *http.Request, user *User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey{}, user))
}

/**
 * Loads the logged in user (if any) into the request context.
 *
 * No redirects happen here.  Use EnsureUser on pages that need a user.
 */
func (m *Middleware) ExtractUser(next http.Handler) http.Handler {
	m.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := m.loggedInUser(r); user != nil {
			r = withUser(r, user)
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) EnsureUser(next http.Handler) http.Handler {
	m.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := m.loggedInUser(r)
		if user == nil {
			m.Sessions.Flash(r.Context(), msgLoginRequired)
			redirUrl := fmt.Sprintf("%s?%s=%s", m.LoginURL, m.CallbackURLParam, url.QueryEscape(r.URL.Path))
			http.Redirect(w, r, redirUrl, http.StatusFound)
			return
		}
		next.ServeHTTP(w, withUser(r, user))
	})
}

func (m *Middleware) loggedInUser(r *http.Request) *User {
	if user := UserFromContext(r.Context()); user != nil {
		return user
	}
	userId := m.Sessions.LoggedInUserId(r.Context())
	if userId == "" {
		return nil
	}
	user, err := m.Resolver.ResolveSession(r.Context(), userId)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			m.Logger.Warn("error resolving session", zap.String("user_id", userId), zap.Error(err))
		}
		return nil
	}
	return user
}
