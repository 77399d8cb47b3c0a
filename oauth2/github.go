package oauth2

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const ProviderGithub = "github"

type GithubOAuth2 struct {
	*BaseOAuth2

	// EmailsURL lists the user's addresses. Used when the profile hides the email.
	EmailsURL string
}

func NewGithubOAuth2(cfg ProviderConfig, logger *zap.Logger) *GithubOAuth2 {
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = github.Endpoint
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"read:user", "user:email"}
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = "https://api.github.com/user"
	}
	out := &GithubOAuth2{
		BaseOAuth2: NewBaseOAuth2(ProviderGithub, cfg, logger),
		EmailsURL:  strings.TrimSuffix(cfg.UserInfoURL, "/") + "/emails",
	}
	out.fetchUser = out.getUserData
	return out
}

func (g *GithubOAuth2) getUserData(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	var profile struct {
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := fetchJSON(ctx, &g.oauthConfig, token, g.UserInfoURL, &profile); err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}
	info := &UserInfo{Name: profile.Name, Email: profile.Email}
	if info.Name == "" {
		info.Name = profile.Login
	}
	if info.Email == "" {
		email, err := g.primaryEmail(ctx, token)
		if err != nil {
			return nil, err
		}
		info.Email = email
	}
	return info, nil
}

// primaryEmail picks the primary verified address, or "" if there is none
func (g *GithubOAuth2) primaryEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := fetchJSON(ctx, &g.oauthConfig, token, g.EmailsURL, &emails); err != nil {
		return "", fmt.Errorf("github emails: %w", err)
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	g.Logger.Info("no primary verified email on github account")
	return "", nil
}
