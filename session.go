package loginapp

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

const (
	loggedInUserIdKey = "loggedInUserId"
	flashesKey        = "_flashes"
)

// Sessions wraps the scs session manager with login/logout and flash helpers
type Sessions struct {
	Manager *scs.SessionManager
}

// NewSessions creates a cookie backed session manager using the in-memory store.
// A zero lifetime keeps the scs default of 24 hours.
func NewSessions(lifetime time.Duration, secure bool) *Sessions {
	m := scs.New()
	if lifetime > 0 {
		m.Lifetime = lifetime
	}
	m.Cookie.Name = "loginapp_session"
	m.Cookie.HttpOnly = true
	m.Cookie.Secure = secure
	m.Cookie.SameSite = http.SameSiteLaxMode
	return &Sessions{Manager: m}
}

// LoadAndSave must wrap every handler that touches the session
func (s *Sessions) LoadAndSave(next http.Handler) http.Handler {
	return s.Manager.LoadAndSave(next)
}

// LogIn binds user to the current session. The token is renewed to avoid
// session fixation.
func (s *Sessions) LogIn(ctx context.Context, user *User) error {
	if err := s.Manager.RenewToken(ctx); err != nil {
		return err
	}
	s.Manager.Put(ctx, loggedInUserIdKey, user.ID)
	return nil
}

// LogOut ends the session entirely
func (s *Sessions) LogOut(ctx context.Context) error {
	return s.Manager.Destroy(ctx)
}

// LoggedInUserId returns the id stored by LogIn, or "" for anonymous sessions
func (s *Sessions) LoggedInUserId(ctx context.Context) string {
	return s.Manager.GetString(ctx, loggedInUserIdKey)
}

func (s *Sessions) Flash(ctx context.Context, message string) {
	flashes, _ := s.Manager.Get(ctx, flashesKey).([]string)
	s.Manager.Put(ctx, flashesKey, append(flashes, message))
}

// PopFlashes returns and clears all pending flash messages
func (s *Sessions) PopFlashes(ctx context.Context) []string {
	flashes, _ := s.Manager.Pop(ctx, flashesKey).([]string)
	return flashes
}
