// Package oauth verifies Google and Apple ID tokens before the gateway
// forwards them to the backend's oauth-login endpoint.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Supported providers.
const (
	Google = "google"
	Apple  = "apple"
)

var (
	ErrUnsupportedProvider = errors.New("oauth: unsupported provider")
	ErrProviderDisabled    = errors.New("oauth: provider not configured")
	ErrInvalidToken        = errors.New("oauth: invalid ID token")
)

// Identity is what a verified ID token says about its holder.
type Identity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

type provider struct {
	audience string
	issuers  []string
	keys     *keySet
}

// Verifier checks ID token signatures against the providers' published keys.
type Verifier struct {
	providers map[string]*provider
}

// Config carries the OAuth client ids. A provider without one is disabled.
// The certs URLs default to the providers' published key endpoints.
type Config struct {
	GoogleClientID string
	AppleClientID  string
	GoogleCertsURL string
	AppleCertsURL  string
	HTTPClient     *http.Client
}

// NewVerifier creates a Verifier for the configured providers.
func NewVerifier(cfg Config) *Verifier {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.GoogleCertsURL == "" {
		cfg.GoogleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"
	}
	if cfg.AppleCertsURL == "" {
		cfg.AppleCertsURL = "https://appleid.apple.com/auth/keys"
	}
	return &Verifier{providers: map[string]*provider{
		Google: {
			audience: cfg.GoogleClientID,
			issuers:  []string{"accounts.google.com", "https://accounts.google.com"},
			keys:     &keySet{url: cfg.GoogleCertsURL, httpClient: httpClient},
		},
		Apple: {
			audience: cfg.AppleClientID,
			issuers:  []string{"https://appleid.apple.com"},
			keys:     &keySet{url: cfg.AppleCertsURL, httpClient: httpClient},
		},
	}}
}

// Verify validates token for providerName and returns its identity.
func (v *Verifier) Verify(ctx context.Context, providerName, token string) (*Identity, error) {
	providerName = strings.ToLower(strings.TrimSpace(providerName))
	p, ok := v.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, providerName)
	}
	if p.audience == "" {
		return nil, fmt.Errorf("%w: %s", ErrProviderDisabled, providerName)
	}

	// Read the kid from the header before the keyed parse.
	unverified, _, err := new(jwt.Parser).ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	kid, ok := unverified.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: token missing kid header", ErrInvalidToken)
	}
	pubKey, err := p.keys.get(ctx, kid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return pubKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unreadable claims", ErrInvalidToken)
	}

	if !claims.VerifyAudience(p.audience, true) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	if !validIssuer(claims, p.issuers) {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if !claims.VerifyExpiresAt(time.Now().Unix(), true) {
		return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: email claim not found", ErrInvalidToken)
	}
	sub, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	return &Identity{
		Provider: providerName,
		Subject:  sub,
		Email:    strings.ToLower(email),
		Name:     name,
	}, nil
}

func validIssuer(claims jwt.MapClaims, issuers []string) bool {
	for _, iss := range issuers {
		if claims.VerifyIssuer(iss, true) {
			return true
		}
	}
	return false
}
