// Package auth holds the Google access token used for Sheets and Drive
// calls and the identity gate applied to API callers.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/option"
)

var ErrNoToken = errors.New("no access token obtained")

// Scopes requested for every token.
var Scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/spreadsheets.readonly",
	"https://www.googleapis.com/auth/drive.file",
	"https://www.googleapis.com/auth/drive.readonly",
	"https://www.googleapis.com/auth/drive.metadata.readonly",
	"openid",
	"email",
	"profile",
}

const (
	// Skew is subtracted from the expiry before a token is trusted.
	Skew = 60 * time.Second

	defaultTTL = time.Hour
	revokeURL  = "https://oauth2.googleapis.com/revoke"
)

var nowFunc = time.Now

// Session hands out bearer tokens to the Google API adapters.
type Session interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	Refresh(ctx context.Context) (*oauth2.Token, error)
	Revoke(ctx context.Context) error
}

// TokenCache implements Session over an oauth2.TokenSource, keeping the
// last token in memory and in a session file.
type TokenCache struct {
	src  oauth2.TokenSource
	file string

	HTTP      *http.Client
	RevokeURL string
	// Renew builds a fresh source after Revoke. Sources such as
	// google.Credentials.TokenSource cache their token and would hand the
	// revoked one back until it expires.
	Renew func(ctx context.Context) (oauth2.TokenSource, error)

	mu    sync.Mutex
	tok   *oauth2.Token
	group singleflight.Group
}

// NewTokenCache wraps src. file may be empty to keep the token in memory only.
func NewTokenCache(src oauth2.TokenSource, file string) *TokenCache {
	return &TokenCache{src: src, file: file, HTTP: http.DefaultClient, RevokeURL: revokeURL}
}

type sessionFile struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expiry      time.Time `json:"expiry"`
}

func valid(t *oauth2.Token) bool {
	return t != nil && t.AccessToken != "" && nowFunc().Before(t.Expiry.Add(-Skew))
}

// Restore loads the session file. It reports whether a usable token was found.
func (c *TokenCache) Restore() bool {
	if c.file == "" {
		return false
	}
	raw, err := os.ReadFile(c.file)
	if err != nil {
		return false
	}
	var sf sessionFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		log.WithError(err).WithField("file", c.file).Debug("Ignoring unreadable session file")
		return false
	}
	tok := &oauth2.Token{AccessToken: sf.AccessToken, TokenType: sf.TokenType, Expiry: sf.Expiry}
	if !valid(tok) {
		return false
	}
	c.mu.Lock()
	c.tok = tok
	c.mu.Unlock()
	return true
}

// Valid reports whether a cached token can be used without acquiring one.
func (c *TokenCache) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return valid(c.tok)
}

// Token returns the cached token or acquires a new one. Concurrent callers
// share a single acquisition.
func (c *TokenCache) Token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	tok := c.tok
	c.mu.Unlock()
	if valid(tok) {
		return tok, nil
	}
	return c.acquire(ctx)
}

// Refresh acquires a new token regardless of the cached one.
func (c *TokenCache) Refresh(ctx context.Context) (*oauth2.Token, error) {
	return c.acquire(ctx)
}

func (c *TokenCache) acquire(ctx context.Context) (*oauth2.Token, error) {
	ch := c.group.DoChan("token", func() (interface{}, error) {
		c.mu.Lock()
		src := c.src
		c.mu.Unlock()
		tok, err := src.Token()
		if err != nil {
			return nil, fmt.Errorf("acquire token: %w", err)
		}
		if tok == nil || tok.AccessToken == "" {
			return nil, ErrNoToken
		}
		tok = &oauth2.Token{AccessToken: tok.AccessToken, TokenType: tok.TokenType, Expiry: tok.Expiry}
		if tok.Expiry.IsZero() {
			tok.Expiry = nowFunc().Add(defaultTTL)
		}
		c.mu.Lock()
		c.tok = tok
		c.mu.Unlock()
		c.persist(tok)
		return tok, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauth2.Token), nil
	}
}

func (c *TokenCache) persist(tok *oauth2.Token) {
	if c.file == "" {
		return
	}
	raw, err := json.Marshal(sessionFile{AccessToken: tok.AccessToken, TokenType: tok.TokenType, Expiry: tok.Expiry})
	if err == nil {
		err = os.WriteFile(c.file, raw, 0o600)
	}
	if err != nil {
		log.WithError(err).WithField("file", c.file).Warn("Unable to persist session")
	}
}

// Revoke asks Google to revoke the current token, then forgets it and,
// when Renew is set, replaces the source. Renew and session file removal
// errors are reported.
func (c *TokenCache) Revoke(ctx context.Context) error {
	c.mu.Lock()
	tok := c.tok
	c.tok = nil
	c.mu.Unlock()

	if tok != nil && tok.AccessToken != "" {
		c.revoke(ctx, tok.AccessToken)
	}
	if c.Renew != nil {
		src, err := c.Renew(ctx)
		if err != nil {
			return fmt.Errorf("renew token source: %w", err)
		}
		c.mu.Lock()
		c.src = src
		c.mu.Unlock()
	}
	if c.file == "" {
		return nil
	}
	if err := os.Remove(c.file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (c *TokenCache) revoke(ctx context.Context, token string) {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.WithError(err).Debug("Token revoke failed")
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Debug("Token revoke rejected")
	}
}

type cacheSource struct {
	c *TokenCache
}

func (s cacheSource) Token() (*oauth2.Token, error) {
	return s.c.Token(context.Background())
}

// TokenSource adapts the cache for option.WithTokenSource.
func (c *TokenCache) TokenSource() oauth2.TokenSource {
	return cacheSource{c}
}

// ClientOption is shorthand for option.WithTokenSource(c.TokenSource()).
func (c *TokenCache) ClientOption() option.ClientOption {
	return option.WithTokenSource(c.TokenSource())
}

// NewSource builds a token source from a service-account or authorized-user
// credentials file, or from application default credentials when file is empty.
func NewSource(ctx context.Context, file string) (oauth2.TokenSource, error) {
	if file == "" {
		creds, err := google.FindDefaultCredentials(ctx, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("default credentials: %w", err)
		}
		return creds.TokenSource, nil
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, raw, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials file: %w", err)
	}
	return creds.TokenSource, nil
}
