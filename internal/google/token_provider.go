package google

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// TokenProvider supplies OAuth tokens for Google API calls.
type TokenProvider interface {
	// GetToken returns a valid token, refreshing it if needed.
	GetToken(ctx context.Context) (*oauth2.Token, error)

	// HasToken reports whether a token is available at all.
	HasToken() bool
}

// FileTokenProvider serves the token kept in a TokenStore and writes
// refreshed tokens back to it.
type FileTokenProvider struct {
	conf  *oauth2.Config
	store *TokenStore
}

// NewFileTokenProvider creates a file-based token provider.
func NewFileTokenProvider(conf *oauth2.Config, store *TokenStore) *FileTokenProvider {
	return &FileTokenProvider{conf: conf, store: store}
}

// GetToken loads the stored token and refreshes it when expired.
func (p *FileTokenProvider) GetToken(ctx context.Context) (*oauth2.Token, error) {
	ts, err := p.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get token from file: %w", err)
	}
	return tok, nil
}

// HasToken checks if the token file exists.
func (p *FileTokenProvider) HasToken() bool {
	return p.store.Exists()
}

// TokenSource returns a source that refreshes the stored token and persists
// every new token it receives.
func (p *FileTokenProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	return &persistingTokenSource{
		base:  p.conf.TokenSource(ctx, tok),
		store: p.store,
		last:  tok.AccessToken,
	}, nil
}

type persistingTokenSource struct {
	mu    sync.Mutex
	base  oauth2.TokenSource
	store *TokenStore
	last  string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		if err := s.store.Save(tok); err != nil {
			return nil, err
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}

// HTTPClient returns an authenticated client for Google APIs. HTTP/2 is
// disabled on the base transport.
func HTTPClient(ctx context.Context, p *FileTokenProvider) (*http.Client, error) {
	ts, err := p.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, ts),
			Base:   &http.Transport{ForceAttemptHTTP2: false},
		},
	}, nil
}
