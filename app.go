package loginapp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/panyam/loginapp/oauth2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App wires the auth workflow, sessions and pages into one HTTP handler
type App struct {
	Store     UserStore
	Tokens    *TokenService
	Mailer    MailSender
	Sessions  *Sessions
	Providers *oauth2.Registry
	Logger    *zap.Logger

	Local      *LocalAuth
	Social     *SocialAuth
	Pages      *Pages
	Middleware *Middleware
	Renderer   *Renderer
}

// NewApp builds the handlers. resolver may be nil, in which case sessions
// are resolved against store.
func NewApp(store UserStore, tokens *TokenService, mail MailSender, sessions *Sessions, providers *oauth2.Registry, resolver SessionResolver, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if providers == nil {
		providers = oauth2.NewRegistry()
	}
	if resolver == nil {
		resolver = StoreResolver{Store: store}
	}
	renderer, err := NewRenderer(sessions, providers.Names(), logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		Store:     store,
		Tokens:    tokens,
		Mailer:    mail,
		Sessions:  sessions,
		Providers: providers,
		Logger:    logger,
		Renderer:  renderer,
	}
	a.Middleware = &Middleware{Sessions: sessions, Resolver: resolver, Logger: logger}
	a.Middleware.EnsureReasonableDefaults()
	a.Local = (&LocalAuth{
		Store:    store,
		Tokens:   tokens,
		Mailer:   mail,
		Sessions: sessions,
		Renderer: renderer,
		Logger:   logger,
	}).EnsureDefaults()
	a.Social = (&SocialAuth{
		Store:     store,
		Sessions:  sessions,
		Providers: providers,
		Logger:    logger,
	}).EnsureDefaults()
	a.Pages = (&Pages{
		Store:    store,
		Sessions: sessions,
		Renderer: renderer,
		Logger:   logger,
	}).EnsureDefaults()
	return a, nil
}

// Router registers every route on a fresh gorilla/mux router
func (a *App) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.logRequests)
	r.NotFoundHandler = a.logRequests(http.NotFoundHandler())

	anyMethod := []string{http.MethodGet, http.MethodPost}
	r.HandleFunc("/signup", a.Local.HandleSignup).Methods(anyMethod...)
	r.HandleFunc("/login/", a.Local.HandleLogin).Methods(anyMethod...)
	r.HandleFunc("/login/{provider}", a.Social.HandleLogin).Methods(anyMethod...)
	r.HandleFunc("/reset", a.Local.HandleReset).Methods(anyMethod...)
	r.HandleFunc("/confirm/{token}", a.Local.HandleConfirm).Methods(anyMethod...)
	r.HandleFunc("/recover/", a.Local.HandleRecover).Methods(anyMethod...)
	r.HandleFunc("/recover/{token}", a.Local.HandleRecover).Methods(anyMethod...)

	ensure := a.Middleware.EnsureUser
	r.Handle("/", ensure(http.HandlerFunc(a.Pages.HandleMain))).Methods(http.MethodGet)
	r.Handle("/profile", ensure(http.HandlerFunc(a.Pages.HandleProfile))).Methods(http.MethodGet)
	r.Handle("/delete_profile", ensure(http.HandlerFunc(a.Pages.HandleDeleteProfile))).Methods(http.MethodPost)
	r.Handle("/logout", ensure(http.HandlerFunc(a.Pages.HandleLogout))).Methods(http.MethodGet)

	r.PathPrefix("/static/").Handler(StaticFiles())
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Handler is the router wrapped with session loading and user extraction
func (a *App) Handler() http.Handler {
	return a.Sessions.LoadAndSave(a.Middleware.ExtractUser(a.Router()))
}

// unmatchedRoute labels requests no route matched, keeping metric labels bounded
const unmatchedRoute = "unmatched"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (a *App) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestId := r.Header.Get("X-Request-Id")
		if requestId == "" {
			requestId = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestId)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := unmatchedRoute
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		a.Logger.Debug("request",
			zap.String("request_id", requestId),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}
