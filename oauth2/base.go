package oauth2

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	ErrStateMismatch = errors.New("oauth state mismatch")
	ErrAccessDenied  = errors.New("provider denied access")
	ErrNoEmail       = errors.New("provider returned no email")
)

// ProviderConfig is the static configuration of one provider
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	Endpoint     oauth2.Endpoint

	// CallbackURL is where the provider sends the user back to. For this app
	// that is the same /login/{provider} route that started the handshake.
	CallbackURL string

	// UserInfoURL overrides the provider's user info endpoint. Mostly for tests.
	UserInfoURL string
}

// UserInfo is the provider profile normalized to what the app stores
type UserInfo struct {
	Name  string
	Email string
}

// Result of a completed handshake. Exactly one of User and Err is set.
type Result struct {
	User *UserInfo
	Err  error
}

// Provider runs the authorization code flow across requests.
//
// Login returns nil when it has written an intermediate response (the
// redirect to the provider) that the caller must pass through untouched.
type Provider interface {
	Name() string
	Login(w http.ResponseWriter, r *http.Request) *Result
}

type fetchUserFunc func(ctx context.Context, token *oauth2.Token) (*UserInfo, error)

type BaseOAuth2 struct {
	name        string
	oauthConfig oauth2.Config
	UserInfoURL string

	// HTTPClient is used for the token exchange and user info calls when set
	HTTPClient *http.Client

	Logger    *zap.Logger
	fetchUser fetchUserFunc
}

func NewBaseOAuth2(name string, cfg ProviderConfig, logger *zap.Logger) *BaseOAuth2 {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseOAuth2{
		name: name,
		oauthConfig: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       cfg.Scopes,
			Endpoint:     cfg.Endpoint,
		},
		UserInfoURL: cfg.UserInfoURL,
		Logger:      logger.With(zap.String("provider", name)),
	}
}

func (b *BaseOAuth2) Name() string { return b.name }

// OAuthConfig exposes the underlying client configuration
func (b *BaseOAuth2) OAuthConfig() *oauth2.Config { return &b.oauthConfig }

// ExchangeContext returns ctx carrying the configured HTTP client for x/oauth2
func (b *BaseOAuth2) ExchangeContext(ctx context.Context) context.Context {
	if b.HTTPClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, b.HTTPClient)
	}
	return ctx
}

func (b *BaseOAuth2) Login(w http.ResponseWriter, r *http.Request) *Result {
	q := r.URL.Query()
	if q.Get("code") == "" && q.Get("error") == "" {
		OauthRedirector(&b.oauthConfig)(w, r)
		return nil
	}
	return b.handleCallback(w, r)
}

func (b *BaseOAuth2) handleCallback(w http.ResponseWriter, r *http.Request) *Result {
	if err := checkOauthState(w, r); err != nil {
		b.Logger.Info("rejecting oauth callback", zap.Error(err))
		return &Result{Err: err}
	}
	if reason := r.FormValue("error"); reason != "" {
		return &Result{Err: fmt.Errorf("%w: %s", ErrAccessDenied, reason)}
	}

	ctx := b.ExchangeContext(r.Context())
	token, err := b.oauthConfig.Exchange(ctx, r.FormValue("code"))
	if err != nil {
		b.Logger.Info("invalid code exchange", zap.Error(err))
		return &Result{Err: fmt.Errorf("code exchange failed: %w", err)}
	}

	info, err := b.fetchUser(ctx, token)
	if err != nil {
		b.Logger.Info("error fetching user info", zap.Error(err))
		return &Result{Err: err}
	}
	if info.Email == "" {
		return &Result{Err: ErrNoEmail}
	}
	return &Result{User: info}
}

// Registry maps provider ids used in /login/{provider} to providers
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	out := &Registry{providers: map[string]Provider{}}
	for _, p := range providers {
		out.Register(p)
	}
	return out
}

func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider ids in sorted order
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
