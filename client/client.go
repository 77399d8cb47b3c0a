package client

import (
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
)

// SessionCookieName is the cookie the site keeps its session in
const SessionCookieName = "loginapp_session"

// SiteClient drives the login site the way a browser would: form posts, a
// cookie jar holding the session, and redirects reported instead of followed.
//
// Forms are posted without a csrf token, so the server must run without
// CSRF_KEY (as in tests and local development).
type SiteClient struct {
	serverURL     string
	httpClient    *http.Client
	baseTransport http.RoundTripper
}

// Response is one page load
type Response struct {
	Status   int
	Location string // set on redirects
	Body     string
}

// Redirected reports whether the server answered with a redirect
func (r *Response) Redirected() bool {
	return r.Status >= 300 && r.Status < 400
}

// Text is the body with html entities decoded
func (r *Response) Text() string {
	return html.UnescapeString(r.Body)
}

// Contains reports whether the decoded body contains s
func (r *Response) Contains(s string) bool {
	return strings.Contains(r.Text(), s)
}

// ClientOption configures a SiteClient
type ClientOption func(*SiteClient)

// WithHTTPClient copies timeout and transport from client. The jar and redirect
// policy are always the SiteClient's own.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *SiteClient) {
		if client == nil {
			return
		}
		if client.Transport != nil {
			c.baseTransport = client.Transport
		}
		c.httpClient.Timeout = client.Timeout
	}
}

// WithTransport sets a custom base transport
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *SiteClient) {
		c.baseTransport = transport
	}
}

// NewSiteClient creates a client with an empty session for serverURL
func NewSiteClient(serverURL string, opts ...ClientOption) (*SiteClient, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url: %q", serverURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &SiteClient{
		serverURL: fmt.Sprintf("%s://%s", u.Scheme, u.Host),
		httpClient: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseTransport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Transport = &RequestIDTransport{Base: c.baseTransport}
	return c, nil
}

// ServerURL returns the server URL this client is configured for
func (c *SiteClient) ServerURL() string {
	return c.serverURL
}

// HTTPClient returns the underlying client, sharing this client's session
func (c *SiteClient) HTTPClient() *http.Client {
	return c.httpClient
}

// SessionCookie returns the current session cookie, or nil before the
// server has set one
func (c *SiteClient) SessionCookie() *http.Cookie {
	u, _ := url.Parse(c.serverURL)
	for _, cookie := range c.httpClient.Jar.Cookies(u) {
		if cookie.Name == SessionCookieName {
			return cookie
		}
	}
	return nil
}

func (c *SiteClient) Get(path string) (*Response, error) {
	return c.do(http.MethodGet, path, nil)
}

func (c *SiteClient) PostForm(path string, form url.Values) (*Response, error) {
	return c.do(http.MethodPost, path, form)
}

func (c *SiteClient) do(method, path string, form url.Values) (*Response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, c.serverURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &Response{
		Status:   resp.StatusCode,
		Location: resp.Header.Get("Location"),
		Body:     string(data),
	}, nil
}

func (c *SiteClient) Signup(name, email, password, confirm string) (*Response, error) {
	return c.PostForm("/signup", url.Values{
		"name":     {name},
		"email":    {email},
		"password": {password},
		"confirm":  {confirm},
	})
}

// Login posts the login form. next, if not empty, is passed as ?next=.
func (c *SiteClient) Login(email, password, next string) (*Response, error) {
	path := "/login/"
	if next != "" {
		path += "?next=" + url.QueryEscape(next)
	}
	return c.PostForm(path, url.Values{"email": {email}, "password": {password}})
}

// RequestReset asks for a password recovery mail
func (c *SiteClient) RequestReset(email string) (*Response, error) {
	return c.PostForm("/reset", url.Values{"email": {email}})
}

// Confirm follows a confirmation link
func (c *SiteClient) Confirm(token string) (*Response, error) {
	return c.Get("/confirm/" + url.PathEscape(token))
}

// Recover posts the new password form of a recovery link
func (c *SiteClient) Recover(token, email, password, confirm string) (*Response, error) {
	return c.PostForm("/recover/"+url.PathEscape(token), url.Values{
		"email":    {email},
		"password": {password},
		"confirm":  {confirm},
	})
}

func (c *SiteClient) Profile() (*Response, error) {
	return c.Get("/profile")
}

func (c *SiteClient) DeleteProfile() (*Response, error) {
	return c.PostForm("/delete_profile", url.Values{})
}

func (c *SiteClient) Logout() (*Response, error) {
	return c.Get("/logout")
}
