package oauth2

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const ProviderGoogle = "google"

type GoogleOAuth2 struct {
	*BaseOAuth2
}

// NewGoogleOAuth2 fills in Google's endpoint and the profile/email scopes
// unless cfg overrides them
func NewGoogleOAuth2(cfg ProviderConfig, logger *zap.Logger) *GoogleOAuth2 {
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = google.Endpoint
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{
			googleoauth2.UserinfoProfileScope,
			googleoauth2.UserinfoEmailScope,
		}
	}
	out := &GoogleOAuth2{BaseOAuth2: NewBaseOAuth2(ProviderGoogle, cfg, logger)}
	out.fetchUser = out.getUserData
	return out
}

func (g *GoogleOAuth2) getUserData(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	opts := []option.ClientOption{option.WithHTTPClient(g.oauthConfig.Client(ctx, token))}
	if g.UserInfoURL != "" {
		opts = append(opts, option.WithEndpoint(g.UserInfoURL))
	}
	svc, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed creating google client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed getting user info from google: %w", err)
	}
	return &UserInfo{Name: info.Name, Email: info.Email}, nil
}
