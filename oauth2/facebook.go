package oauth2

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const ProviderFacebook = "fb"

const facebookUserInfoURL = "https://graph.facebook.com/me?fields=id,name,email"

type FacebookOAuth2 struct {
	*BaseOAuth2
}

func NewFacebookOAuth2(cfg ProviderConfig, logger *zap.Logger) *FacebookOAuth2 {
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = facebook.Endpoint
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"email"}
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = facebookUserInfoURL
	}
	out := &FacebookOAuth2{BaseOAuth2: NewBaseOAuth2(ProviderFacebook, cfg, logger)}
	out.fetchUser = out.getUserData
	return out
}

func (f *FacebookOAuth2) getUserData(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	var data struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := fetchJSON(ctx, &f.oauthConfig, token, f.UserInfoURL, &data); err != nil {
		return nil, fmt.Errorf("facebook: %w", err)
	}
	return &UserInfo{Name: data.Name, Email: data.Email}, nil
}
