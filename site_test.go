package loginapp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/panyam/loginapp"
	"github.com/panyam/loginapp/client"
	"github.com/panyam/loginapp/mailer"
	"github.com/panyam/loginapp/oauth2"
	"github.com/panyam/loginapp/stores/fs"
)

type sentMail struct {
	Kind mailer.Kind
	To   string
}

// recordingMailer stands in for the mail queue
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(ctx context.Context, kind mailer.Kind, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{Kind: kind, To: to})
	return nil
}

func (m *recordingMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type testSite struct {
	App    *loginapp.App
	Store  loginapp.UserStore
	Tokens *loginapp.TokenService
	Mail   *recordingMailer
	Server *httptest.Server
}

func newTestSite(t *testing.T, providers ...oauth2.Provider) *testSite {
	t.Helper()
	return newTestSiteWithStore(t, fs.NewUserStore(t.TempDir()), providers...)
}

func newTestSiteWithStore(t *testing.T, store loginapp.UserStore, providers ...oauth2.Provider) *testSite {
	t.Helper()
	logger := zaptest.NewLogger(t)
	tokens := loginapp.NewTokenService("test-secret", logger)
	mail := &recordingMailer{}
	sessions := loginapp.NewSessions(0, false)

	app, err := loginapp.NewApp(store, tokens, mail, sessions, oauth2.NewRegistry(providers...), nil, logger)
	require.NoError(t, err)

	server := httptest.NewServer(app.Handler())
	t.Cleanup(server.Close)
	return &testSite{App: app, Store: store, Tokens: tokens, Mail: mail, Server: server}
}

func (s *testSite) client(t *testing.T) *client.SiteClient {
	t.Helper()
	c, err := client.NewSiteClient(s.Server.URL)
	require.NoError(t, err)
	return c
}

// token mints the token a mailed link would carry
func (s *testSite) token(t *testing.T, email string) string {
	t.Helper()
	token, err := s.Tokens.Create(email, 0)
	require.NoError(t, err)
	return token
}

// confirmedUser creates a site account that can log in straight away
func (s *testSite) confirmedUser(t *testing.T, email, password string) *loginapp.User {
	t.Helper()
	ctx := context.Background()
	user, err := loginapp.CreateUser(ctx, s.Store, email, "Alice", password, loginapp.LoginTypeSite)
	require.NoError(t, err)
	user.Confirmed = true
	require.NoError(t, s.Store.SaveUser(ctx, user))
	return user
}

// loggedIn returns a client whose session belongs to a fresh confirmed user
func (s *testSite) loggedIn(t *testing.T, email, password string) (*client.SiteClient, *loginapp.User) {
	t.Helper()
	user := s.confirmedUser(t, email, password)
	c := s.client(t)
	resp, err := c.Login(email, password, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, resp.Status)
	require.Equal(t, "/", resp.Location)
	return c, user
}
