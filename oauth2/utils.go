package oauth2

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const oauthStateCookie = "oauthstate"

func generateStateOauthCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}

func clearStateOauthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Path:   "/",
		MaxAge: -1,
	})
}

// checkOauthState compares the state query param with the cookie set on the
// first leg. The cookie is cleared either way.
func checkOauthState(w http.ResponseWriter, r *http.Request) error {
	cookie, _ := r.Cookie(oauthStateCookie)
	if cookie == nil || cookie.Value == "" {
		return fmt.Errorf("%w: no state cookie", ErrStateMismatch)
	}
	clearStateOauthCookie(w)
	if r.FormValue("state") != cookie.Value {
		return ErrStateMismatch
	}
	return nil
}

// OauthRedirector returns a handler that sets the state cookie and sends the
// user to the provider's consent page
func OauthRedirector(oauthConfig *oauth2.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		oauthState := generateStateOauthCookie(w)
		http.Redirect(w, r, oauthConfig.AuthCodeURL(oauthState), http.StatusFound)
	}
}

// fetchJSON GETs url with the token's credentials and decodes the body into out
func fetchJSON(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := cfg.Client(ctx, token).Do(req)
	if err != nil {
		return fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse user info: %w", err)
	}
	return nil
}
