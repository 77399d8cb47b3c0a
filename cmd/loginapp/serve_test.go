package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/panyam/loginapp"
	"github.com/panyam/loginapp/config"
	"github.com/panyam/loginapp/mailer"
	"github.com/panyam/loginapp/stores/fs"
)

func TestBuildProvidersOnlyEnabled(t *testing.T) {
	cfg := &config.Config{}
	cfg.HTTP.BaseURL = "https://login.example.com"
	cfg.Social.Google.ClientID = "gid"
	cfg.Social.Google.ClientSecret = "gsecret"
	cfg.Social.Github.ClientID = "only-id"

	registry := buildProviders(cfg, zap.NewNop())
	assert.Equal(t, []string{"google"}, registry.Names())
}

func TestOpenStoreDrivers(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.Database.Driver = "fs"
	cfg.Database.DSN = t.TempDir()
	store, closer, err := openStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer closer()

	user, err := loginapp.CreateUser(ctx, store, "a@example.com", "A", "secret123", loginapp.LoginTypeSite)
	require.NoError(t, err)
	loaded, err := store.GetUserById(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", loaded.Email)

	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	store, closer, err = openStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer closer()
	exists, err := store.UserExists(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	cfg.Database.Driver = "mongo"
	_, _, err = openStore(ctx, cfg, zap.NewNop())
	assert.Error(t, err)
}

type nopMailer struct{}

func (nopMailer) Send(ctx context.Context, kind mailer.Kind, to string) error { return nil }

var csrfFieldPattern = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

// newCSRFServer serves the app behind protectCSRF over plain http
func newCSRFServer(t *testing.T) (*httptest.Server, loginapp.UserStore) {
	t.Helper()
	store := fs.NewUserStore(t.TempDir())
	app, err := loginapp.NewApp(store, loginapp.NewTokenService("secret", nil), nopMailer{},
		loginapp.NewSessions(0, false), nil, nil, zap.NewNop())
	require.NoError(t, err)

	var handler http.Handler
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{CSRFKey: "0123456789abcdef0123456789abcdef"}
	cfg.HTTP.BaseURL = server.URL
	handler, err = protectCSRF(app.Handler(), cfg)
	require.NoError(t, err)
	return server, store
}

func postSignup(t *testing.T, c *http.Client, server *httptest.Server, token string) *http.Response {
	t.Helper()
	form := url.Values{
		"name":     {"Alice"},
		"email":    {"alice@example.com"},
		"password": {"secret123"},
		"confirm":  {"secret123"},
	}
	if token != "" {
		form.Set("gorilla.csrf.Token", token)
	}
	req, err := http.NewRequest(http.MethodPost, server.URL+"/signup", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", server.URL)
	req.Header.Set("Referer", server.URL+"/signup")
	resp, err := c.Do(req)
	require.NoError(t, err)
	return resp
}

func TestCSRFOverPlainHTTP(t *testing.T) {
	server, store := newCSRFServer(t)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	c := &http.Client{Jar: jar}

	resp := postSignup(t, c, server, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = c.Get(server.URL + "/signup")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	match := csrfFieldPattern.FindSubmatch(body)
	require.NotNil(t, match, "signup page should carry a csrf field")

	resp = postSignup(t, c, server, string(match[1]))
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "We just sent you an email to confirm your account.")

	exists, err := store.UserExists(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestProtectCSRFRejectsBadBaseURL(t *testing.T) {
	cfg := &config.Config{CSRFKey: "0123456789abcdef0123456789abcdef"}
	cfg.HTTP.BaseURL = "not a url"
	_, err := protectCSRF(http.NotFoundHandler(), cfg)
	assert.Error(t, err)
}
