// Package strava talks to the activity API: the refresh-token exchange and
// the paginated activities listing.
package strava

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/BartekS5/activity-etl/internal/config"
	"golang.org/x/oauth2"
)

// TokenProvider exchanges the stored refresh token for a bearer token.
// The token is cached and refreshed again only once it expires.
type TokenProvider struct {
	source oauth2.TokenSource
}

// NewTokenProvider builds a provider for the configured client credentials.
// httpClient may be nil.
func NewTokenProvider(ctx context.Context, cfg config.StravaConfig, httpClient *http.Client) *TokenProvider {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.AuthEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}
	return &TokenProvider{
		source: conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}),
	}
}

// BearerToken returns a valid access token.
func (p *TokenProvider) BearerToken(_ context.Context) (string, error) {
	tok, err := p.source.Token()
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("token refresh returned an empty access token")
	}
	return tok.AccessToken, nil
}
