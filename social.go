package loginapp

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/panyam/loginapp/oauth2"
	"go.uber.org/zap"
)

// SocialAuth logs users in through an external OAuth2 provider, creating a
// confirmed account on first login
type SocialAuth struct {
	Store     UserStore
	Sessions  *Sessions
	Providers *oauth2.Registry
	Logger    *zap.Logger
}

func (s *SocialAuth) EnsureDefaults() *SocialAuth {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	if s.Providers == nil {
		s.Providers = oauth2.NewRegistry()
	}
	return s
}

// HandleLogin drives both legs of the provider handshake on /login/{provider}
func (s *SocialAuth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, defaultLoggedInRoute, http.StatusFound)
		return
	}

	name := mux.Vars(r)["provider"]
	provider, ok := s.Providers.Get(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	result := provider.Login(w, r)
	if result == nil {
		// the provider already wrote its redirect
		return
	}

	logger := s.Logger.With(zap.String("provider", name))
	if result.Err != nil || result.User == nil {
		logger.Info("social login failed", zap.Error(result.Err))
		loginAttempts.WithLabelValues(name, "failure").Inc()
		redirectNext(w, r)
		return
	}

	user, created, err := GetOrCreateSocialUser(r.Context(), s.Store, result.User.Email, result.User.Name, LoginType(name))
	if err != nil {
		logger.Error("error loading social user", zap.String("email", result.User.Email), zap.Error(err))
		loginAttempts.WithLabelValues(name, "failure").Inc()
		var authErr *AuthError
		if errors.As(err, &authErr) {
			s.Sessions.Flash(r.Context(), authErr.Message)
		}
		redirectNext(w, r)
		return
	}
	if created {
		logger.Info("created social user", zap.String("user_id", user.ID))
		signups.WithLabelValues("social").Inc()
	}

	if err := establishSession(r.Context(), s.Store, s.Sessions, user, logger); err != nil {
		s.Sessions.Flash(r.Context(), errGenericPersistence)
		loginAttempts.WithLabelValues(name, "failure").Inc()
		redirectNext(w, r)
		return
	}
	loginAttempts.WithLabelValues(name, "success").Inc()
	redirectNext(w, r)
}
