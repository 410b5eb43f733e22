package oauth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// keyCacheTTL bounds how long fetched provider keys are trusted.
const keyCacheTTL = time.Hour

// jwk is a single JSON Web Key from a provider's keys endpoint.
type jwk struct {
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkResponse struct {
	Keys []jwk `json:"keys"`
}

// keySet fetches and caches one provider's public keys.
type keySet struct {
	url        string
	httpClient *http.Client

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
}

// get returns the key for kid, refetching once when it is unknown so
// provider key rotation is picked up without waiting for expiry.
func (s *keySet) get(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.RLock()
	key, ok := s.keys[kid]
	fresh := time.Now().Before(s.expires)
	s.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	keys, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	key, ok = keys[kid]
	if !ok {
		return nil, fmt.Errorf("no matching public key for kid %q", kid)
	}
	return key, nil
}

func (s *keySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build key request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch public keys: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch public keys: status %d", resp.StatusCode)
	}

	var keyResp jwkResponse
	if err := json.NewDecoder(resp.Body).Decode(&keyResp); err != nil {
		return nil, fmt.Errorf("failed to decode public keys: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(keyResp.Keys))
	for _, k := range keyResp.Keys {
		pub, err := convertJWKToPublicKey(k.N, k.E)
		if err != nil {
			return nil, fmt.Errorf("failed to convert JWK %s: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}

	s.mu.Lock()
	s.keys = keys
	s.expires = time.Now().Add(keyCacheTTL)
	s.mu.Unlock()
	return keys, nil
}

// convertJWKToPublicKey converts a base64url modulus and exponent to an rsa.PublicKey.
func convertJWKToPublicKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	var exp int
	for _, b := range eb {
		exp = exp<<8 + int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: exp}, nil
}
