package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/datastore"
	"github.com/gorilla/csrf"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/panyam/loginapp"
	"github.com/panyam/loginapp/config"
	"github.com/panyam/loginapp/mailer"
	"github.com/panyam/loginapp/oauth2"
	"github.com/panyam/loginapp/stores/fs"
	"github.com/panyam/loginapp/stores/gae"
	gormstore "github.com/panyam/loginapp/stores/gorm"
)

// serveCmd starts the web server and the mail dispatcher
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the login web server",
	Long: `Starts the login web server. Usage:

	loginapp serve --config config.yaml
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err := config.NewLogger(cfg.Log)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens := loginapp.NewTokenService(cfg.SecretKey, logger)

	var transport mailer.Transport = &mailer.LogTransport{Logger: logger}
	if cfg.Mail.Transport == "smtp" {
		transport = mailer.NewSMTPTransport(cfg.Mail.Config)
	}
	dispatcher := mailer.NewDispatcher(cfg.Mail.DispatcherConfig, transport, logger)
	mail, err := mailer.New(cfg.Mail.Config, tokens, dispatcher, logger)
	if err != nil {
		return err
	}

	sessions := loginapp.NewSessions(cfg.Session.Lifetime, cfg.Session.CookieSecure)
	app, err := loginapp.NewApp(store, tokens, mail, sessions, buildProviders(cfg, logger), nil, logger)
	if err != nil {
		return err
	}
	app.Local.TrustRecoveryForm = cfg.TrustRecoveryForm

	handler := app.Handler()
	if cfg.CSRFKey != "" {
		if handler, err = protectCSRF(handler, cfg); err != nil {
			return err
		}
	} else {
		logger.Warn("CSRF_KEY not set, forms are not csrf protected")
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.String("base_url", cfg.HTTP.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// protectCSRF wraps handler with csrf checks for the site at BaseURL. Over
// plain http requests are marked as such, otherwise every post fails the
// https-only referer check.
func protectCSRF(handler http.Handler, cfg *config.Config) (http.Handler, error) {
	base, err := url.Parse(cfg.HTTP.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid BASE_URL %q", cfg.HTTP.BaseURL)
	}
	protected := csrf.Protect([]byte(cfg.CSRFKey),
		csrf.Secure(cfg.Session.CookieSecure),
		csrf.Path("/"),
		csrf.TrustedOrigins([]string{base.Host}),
	)(handler)
	if base.Scheme != "http" {
		return protected, nil
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	}), nil
}

// openStore picks the user store for the configured driver. The returned
// func releases whatever connection the store holds.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (loginapp.UserStore, func(), error) {
	driver := cfg.Database.Driver
	logger.Info("opening user store", zap.String("driver", driver))
	switch {
	case driver == "fs":
		return fs.NewUserStore(cfg.Database.DSN), func() {}, nil
	case driver == "datastore":
		client, err := datastore.NewClient(ctx, cfg.Datastore.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating datastore client: %w", err)
		}
		return gae.NewUserStore(client, cfg.Datastore.Namespace), func() { client.Close() }, nil
	case isSQLDriver(driver):
		db, err := gormstore.Open(driver, cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := gormstore.AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("error migrating: %w", err)
		}
		closer := func() {}
		if sqlDB, err := db.DB(); err == nil {
			closer = func() { sqlDB.Close() }
		}
		return gormstore.NewUserStore(db), closer, nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", driver)
}

// buildProviders registers every provider that has credentials. Each one
// calls back to the same /login/{provider} route that started the flow.
func buildProviders(cfg *config.Config, logger *zap.Logger) *oauth2.Registry {
	registry := oauth2.NewRegistry()
	for name, p := range cfg.Social.Providers() {
		if !p.Enabled() {
			continue
		}
		pc := oauth2.ProviderConfig{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			CallbackURL:  cfg.HTTP.BaseURL + "/login/" + name,
		}
		switch name {
		case oauth2.ProviderGoogle:
			registry.Register(oauth2.NewGoogleOAuth2(pc, logger))
		case oauth2.ProviderFacebook:
			registry.Register(oauth2.NewFacebookOAuth2(pc, logger))
		case oauth2.ProviderGithub:
			registry.Register(oauth2.NewGithubOAuth2(pc, logger))
		}
		logger.Info("social login enabled", zap.String("provider", name))
	}
	return registry
}
