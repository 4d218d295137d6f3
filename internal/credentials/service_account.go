package credentials

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes requested for service-account tokens.
var Scopes = []string{
	"https://www.googleapis.com/auth/datastore",
	"https://www.googleapis.com/auth/cloud-platform",
}

// DefaultEarlyExpiry is how long before expiry a cached token is refreshed.
const DefaultEarlyExpiry = 5 * time.Minute

// ServiceAccountProvider hands out cached service-account access tokens and refreshes
// them before they expire.
type ServiceAccountProvider struct {
	source    oauth2.TokenSource
	projectID string
}

// NewServiceAccountProvider builds a provider from a service-account key file.
func NewServiceAccountProvider(ctx context.Context, path string, earlyExpiry time.Duration) (*ServiceAccountProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key %s: %w", path, err)
	}
	return NewServiceAccountProviderFromJSON(ctx, data, earlyExpiry)
}

func NewServiceAccountProviderFromJSON(ctx context.Context, keyJSON []byte, earlyExpiry time.Duration) (*ServiceAccountProvider, error) {
	creds, err := google.CredentialsFromJSON(ctx, keyJSON, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}
	p := NewTokenSourceProvider(creds.TokenSource, earlyExpiry)
	p.projectID = creds.ProjectID
	return p, nil
}

// NewTokenSourceProvider wraps any token source with the same caching policy.
func NewTokenSourceProvider(src oauth2.TokenSource, earlyExpiry time.Duration) *ServiceAccountProvider {
	if earlyExpiry <= 0 {
		earlyExpiry = DefaultEarlyExpiry
	}
	return &ServiceAccountProvider{
		source: oauth2.ReuseTokenSourceWithExpiry(nil, src, earlyExpiry),
	}
}

// AccessToken returns a cached token, fetching a new one when the cached token is
// within the early-expiry window.
func (p *ServiceAccountProvider) AccessToken(ctx context.Context) (string, error) {
	type result struct {
		tok *oauth2.Token
		err error
	}
	done := make(chan result, 1)
	go func() {
		tok, err := p.source.Token()
		done <- result{tok, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("failed to fetch service account token: %w", r.err)
		}
		return r.tok.AccessToken, nil
	}
}

// TokenSource exposes the shared cache so SDK clients reuse the same tokens.
func (p *ServiceAccountProvider) TokenSource() oauth2.TokenSource { return p.source }

// ProjectID is the project named in the key file, if any.
func (p *ServiceAccountProvider) ProjectID() string { return p.projectID }
