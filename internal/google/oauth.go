package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// callbackPath is where the loopback server expects the OAuth redirect.
const callbackPath = "/callback"

// LoadOAuthConfig reads an installed-application client file downloaded from
// the Google Cloud console. Without scopes DefaultOAuthScopes are used.
func LoadOAuthConfig(credentialsFile string, scopes ...string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read OAuth client file: %w", err)
	}
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}
	conf, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OAuth client file: %w", err)
	}
	return conf, nil
}

// AuthCodeURL returns the consent page URL. Offline access is requested so
// that the saved token carries a refresh token.
func AuthCodeURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// TokenStore keeps one OAuth token as JSON on disk.
type TokenStore struct {
	path string
}

// NewTokenStore returns a store backed by path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.path
}

// Exists reports whether a token file is present.
func (s *TokenStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the stored token.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no Google OAuth token found at %s, run the auth command first: %w", s.path, err)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", s.path, err)
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" {
		return nil, fmt.Errorf("invalid token file %s: no access or refresh token", s.path)
	}
	return &tok, nil
}

// Save writes tok with owner-only permissions.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	b, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Exchange trades an authorization code for a token and saves it.
func Exchange(ctx context.Context, conf *oauth2.Config, store *TokenStore, code string) (*oauth2.Token, error) {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := store.Save(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// CodeReceiver is a loopback HTTP server that captures the authorization
// code Google redirects to after consent.
type CodeReceiver struct {
	ln     net.Listener
	srv    *http.Server
	state  string
	result chan codeResult
}

type codeResult struct {
	code string
	err  error
}

// NewCodeReceiver listens on addr (for example "127.0.0.1:8085" or
// "127.0.0.1:0") and accepts one redirect carrying state.
func NewCodeReceiver(addr, state string) (*CodeReceiver, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for OAuth redirect: %w", err)
	}

	r := &CodeReceiver{ln: ln, state: state, result: make(chan codeResult, 1)}
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, r.handle)
	r.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = r.srv.Serve(ln) }()
	return r, nil
}

// RedirectURL is the value to set on oauth2.Config.RedirectURL.
func (r *CodeReceiver) RedirectURL() string {
	return "http://" + r.ln.Addr().String() + callbackPath
}

func (r *CodeReceiver) handle(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	var res codeResult
	switch {
	case q.Get("error") != "":
		res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		http.Error(w, "Authorization failed: "+q.Get("error"), http.StatusBadRequest)
	case q.Get("state") != r.state:
		res.err = errors.New("authorization state mismatch")
		http.Error(w, "State mismatch", http.StatusBadRequest)
	case q.Get("code") == "":
		res.err = errors.New("authorization code missing from redirect")
		http.Error(w, "Missing code", http.StatusBadRequest)
	default:
		res.code = q.Get("code")
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
	}

	select {
	case r.result <- res:
	default:
	}
}

// Wait blocks until the redirect arrives or ctx is done, then shuts the
// server down.
func (r *CodeReceiver) Wait(ctx context.Context) (string, error) {
	defer r.Close()
	select {
	case res := <-r.result:
		return res.code, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops the loopback server.
func (r *CodeReceiver) Close() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return r.srv.Shutdown(shutdownCtx)
}
