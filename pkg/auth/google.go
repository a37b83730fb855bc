package auth

import (
	"context"
	"fmt"

	"github.com/klokku/spendwise/internal/config"
	"github.com/klokku/spendwise/pkg/user"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const callbackPath = "/api/auth/google/callback"

// Provider runs the OAuth2 code flow against an identity provider.
type Provider interface {
	AuthCodeURL(state string) string
	// Authenticate exchanges the authorization code and returns the profile of the account.
	Authenticate(ctx context.Context, code string) (user.User, error)
}

type GoogleProvider struct {
	oauthConfig *oauth2.Config
}

func NewGoogleProvider(cfg config.Application) *GoogleProvider {
	return &GoogleProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.Google.ClientId,
			ClientSecret: cfg.Google.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  cfg.Host + callbackPath,
			Scopes:       []string{oauth2api.OpenIDScope, oauth2api.UserinfoEmailScope, oauth2api.UserinfoProfileScope},
		},
	}
}

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *GoogleProvider) Authenticate(ctx context.Context, code string) (user.User, error) {
	token, err := g.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return user.User{}, fmt.Errorf("unable to exchange code for token: %w", err)
	}

	service, err := oauth2api.NewService(ctx, option.WithHTTPClient(g.oauthConfig.Client(ctx, token)))
	if err != nil {
		return user.User{}, fmt.Errorf("unable to create Google userinfo client: %w", err)
	}
	info, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return user.User{}, fmt.Errorf("unable to retrieve Google user info: %w", err)
	}

	return user.User{
		Uid:         info.Id,
		Email:       info.Email,
		DisplayName: info.Name,
		PhotoUrl:    info.Picture,
	}, nil
}
