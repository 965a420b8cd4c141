package google

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const installedClientJSON = `{
  "installed": {
    "client_id": "123.apps.googleusercontent.com",
    "client_secret": "secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

func TestLoadOAuthConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(installedClientJSON), 0600))

	conf, err := LoadOAuthConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "123.apps.googleusercontent.com", conf.ClientID)
	assert.Equal(t, DefaultOAuthScopes, conf.Scopes)

	u, err := url.Parse(AuthCodeURL(conf, "xyz"))
	require.NoError(t, err)
	assert.Equal(t, "offline", u.Query().Get("access_type"))
	assert.Equal(t, "xyz", u.Query().Get("state"))
}

func TestLoadOAuthConfig_Errors(t *testing.T) {
	_, err := LoadOAuthConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"web": 1}`), 0600))
	_, err = LoadOAuthConfig(path)
	assert.Error(t, err)
}

func TestTokenStore(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "nested", "token.json"))
	assert.False(t, store.Exists())

	_, err := store.Load()
	require.ErrorIs(t, err, os.ErrNotExist)

	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour).Round(time.Second)}
	require.NoError(t, store.Save(tok))
	assert.True(t, store.Exists())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)
	assert.True(t, tok.Expiry.Equal(got.Expiry))
}

func TestTokenStore_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewTokenStore(path)

	require.NoError(t, os.WriteFile(path, []byte("access refresh"), 0600))
	_, err := store.Load()
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0600))
	_, err = store.Load()
	assert.Error(t, err)
}

type sequenceSource struct {
	tokens []*oauth2.Token
	i      int
}

func (s *sequenceSource) Token() (*oauth2.Token, error) {
	tok := s.tokens[s.i]
	if s.i < len(s.tokens)-1 {
		s.i++
	}
	return tok, nil
}

func TestPersistingTokenSource(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	ts := &persistingTokenSource{
		base: &sequenceSource{tokens: []*oauth2.Token{
			{AccessToken: "old", RefreshToken: "r"},
			{AccessToken: "new", RefreshToken: "r"},
		}},
		store: store,
		last:  "old",
	}

	_, err := ts.Token()
	require.NoError(t, err)
	assert.False(t, store.Exists(), "unchanged token must not be written")

	_, err = ts.Token()
	require.NoError(t, err)
	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "new", saved.AccessToken)
}

func TestFileTokenProvider(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	p := NewFileTokenProvider(&oauth2.Config{}, store)
	assert.False(t, p.HasToken())

	_, err := p.GetToken(context.Background())
	assert.Error(t, err)

	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: time.Now().Add(time.Hour)}))
	assert.True(t, p.HasToken())

	tok, err := p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)

	client, err := HTTPClient(context.Background(), p)
	require.NoError(t, err)
	transport, ok := client.Transport.(*oauth2.Transport)
	require.True(t, ok)
	base, ok := transport.Base.(*http.Transport)
	require.True(t, ok)
	assert.False(t, base.ForceAttemptHTTP2)
}

func TestCodeReceiver(t *testing.T) {
	r, err := NewCodeReceiver("127.0.0.1:0", "state-1")
	require.NoError(t, err)

	go func() {
		resp, err := http.Get(r.RedirectURL() + "?state=state-1&code=the-code")
		if err == nil {
			resp.Body.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	code, err := r.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "the-code", code)
}

func TestCodeReceiver_StateMismatch(t *testing.T) {
	r, err := NewCodeReceiver("127.0.0.1:0", "expected")
	require.NoError(t, err)

	go func() {
		resp, err := http.Get(r.RedirectURL() + "?state=forged&code=c")
		if err == nil {
			resp.Body.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = r.Wait(ctx)
	assert.ErrorContains(t, err, "state mismatch")
}

func TestCodeReceiver_ContextCancelled(t *testing.T) {
	r, err := NewCodeReceiver("127.0.0.1:0", "s")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
