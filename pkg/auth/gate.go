package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/idtoken"
)

var (
	ErrDomainNotAllowed = errors.New("email domain not allowed")
	ErrEmailUnverified  = errors.New("email not verified")
	ErrInvalidToken     = errors.New("invalid id token")
)

// DefaultDomains are allowed when no domains are configured.
var DefaultDomains = []string{"iplan.com.ar", "restart-ai.com"}

type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	HostedDomain  string `json:"hd,omitempty"`
	Name          string `json:"name,omitempty"`
}

func claimsFromMap(m map[string]interface{}) Claims {
	c := Claims{}
	c.Email, _ = m["email"].(string)
	c.HostedDomain, _ = m["hd"].(string)
	c.Name, _ = m["name"].(string)
	switch v := m["email_verified"].(type) {
	case bool:
		c.EmailVerified = v
	case string:
		c.EmailVerified = strings.EqualFold(v, "true")
	}
	return c
}

// Verifier checks a raw Google ID token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, raw string) (Claims, error)
}

// GoogleVerifier validates the signature and audience against Google's keys.
type GoogleVerifier struct {
	ClientID string
}

func (v GoogleVerifier) Verify(ctx context.Context, raw string) (Claims, error) {
	p, err := idtoken.Validate(ctx, raw, v.ClientID)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claimsFromMap(p.Claims), nil
}

// UnverifiedVerifier only decodes the token. Expiry is still enforced.
// For local development.
type UnverifiedVerifier struct{}

func (UnverifiedVerifier) Verify(_ context.Context, raw string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, mc); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	exp, err := mc.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if exp != nil && !nowFunc().Before(exp.Time) {
		return Claims{}, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}
	return claimsFromMap(mc), nil
}

type DomainPolicy struct {
	Allowed []string
}

func (p DomainPolicy) domains() []string {
	if len(p.Allowed) == 0 {
		return DefaultDomains
	}
	return p.Allowed
}

func matchDomain(d, allowed string) bool {
	return d == allowed || strings.HasSuffix(d, "."+allowed)
}

// Allows reports whether the email's domain, or the hosted-domain claim,
// is an allowed domain or one of its subdomains.
func (p DomainPolicy) Allows(email, hd string) bool {
	d := strings.ToLower(email[strings.LastIndex(email, "@")+1:])
	hd = strings.ToLower(strings.TrimSpace(hd))
	for _, a := range p.domains() {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if matchDomain(d, a) || (hd != "" && matchDomain(hd, a)) {
			return true
		}
	}
	return false
}

// Gate admits API callers holding a verified ID token from an allowed domain.
type Gate struct {
	Verifier Verifier
	Policy   DomainPolicy
}

func (g Gate) Check(ctx context.Context, raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, ErrNoToken
	}
	c, err := g.Verifier.Verify(ctx, raw)
	if err != nil {
		return Claims{}, err
	}
	if c.Email == "" || !c.EmailVerified {
		return Claims{}, ErrEmailUnverified
	}
	if !g.Policy.Allows(c.Email, c.HostedDomain) {
		return Claims{}, fmt.Errorf("%w: %s", ErrDomainNotAllowed, c.Email)
	}
	return c, nil
}

type claimsKey struct{}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFrom returns the caller identity stored by WithClaims.
func ClaimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}
