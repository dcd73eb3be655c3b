package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"opsboard/pkg/auth"
	"opsboard/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenVerifier maps raw tokens to claims.
type tokenVerifier map[string]auth.Claims

func (v tokenVerifier) Verify(ctx context.Context, raw string) (auth.Claims, error) {
	c, ok := v[raw]
	if !ok {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return c, nil
}

func testGate() *auth.Gate {
	return &auth.Gate{
		Verifier: tokenVerifier{
			"good":    {Email: "ana@iplan.com.ar", EmailVerified: true},
			"foreign": {Email: "eve@gmail.com", EmailVerified: true},
			"pending": {Email: "bob@iplan.com.ar"},
		},
		Policy: auth.DomainPolicy{Allowed: auth.DefaultDomains},
	}
}

func TestGate(t *testing.T) {
	env := newTestEnv(t, testGate())

	tests := []struct {
		name   string
		path   string
		auth   string
		status int
	}{
		{"health is open", "/healthz", "", http.StatusOK},
		{"metrics are open", "/metrics", "", http.StatusOK},
		{"no token", "/v1/tables/abiertos", "", http.StatusUnauthorized},
		{"wrong scheme", "/v1/tables/abiertos", "Basic good", http.StatusUnauthorized},
		{"unknown token", "/v1/tables/abiertos", "Bearer nope", http.StatusUnauthorized},
		{"foreign domain", "/v1/tables/abiertos", "Bearer foreign", http.StatusForbidden},
		{"unverified email", "/v1/tables/abiertos", "Bearer pending", http.StatusForbidden},
		{"allowed", "/v1/tables/abiertos", "Bearer good", http.StatusOK},
		{"scheme is case-insensitive", "/v1/drive/portals", "bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.auth == "" {
				w = env.do(t, http.MethodGet, tt.path, nil)
			} else {
				w = env.do(t, http.MethodGet, tt.path, nil, "Authorization", tt.auth)
			}
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestGate_ForwardsTokenToChat(t *testing.T) {
	env := newTestEnv(t, testGate())

	w := env.do(t, http.MethodPost, "/v1/chat", map[string]string{"text": "hola"}, "Authorization", "Bearer good")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sent := <-env.chatReq
	assert.Equal(t, "good", sent["idToken"])
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	first := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, first)
	assert.Equal(t, first, seen)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEqual(t, first, w.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	h := RequestID(Logging(Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/x", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bearer(tt.header), tt.header)
	}
}

func TestNewGate(t *testing.T) {
	cfg := &config.Config{}

	assert.Nil(t, NewGate(cfg))

	cfg.Store.Google.ClientID = "client.apps.googleusercontent.com"
	cfg.Store.Google.AllowedDomains = []string{"example.com"}
	g := NewGate(cfg)
	require.NotNil(t, g)
	assert.Equal(t, auth.GoogleVerifier{ClientID: "client.apps.googleusercontent.com"}, g.Verifier)
	assert.Equal(t, []string{"example.com"}, g.Policy.Allowed)

	cfg.Store.Google.SkipTokenVerify = true
	g = NewGate(cfg)
	require.NotNil(t, g)
	assert.Equal(t, auth.UnverifiedVerifier{}, g.Verifier)
}
