package middleware

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

	"github.com/sirupsen/logrus"
)

// JWKSCache holds the RSA keys published at a JWKS endpoint. It is refreshed
// by the scheduler and on a lookup miss.
type JWKSCache struct {
	url    string
	client *http.Client
	logger logrus.FieldLogger

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey

	refreshMu sync.Mutex
}

type jwksDocument struct {
	Keys []struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		Use string `json:"use"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func NewJWKSCache(url string, logger logrus.FieldLogger) *JWKSCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &JWKSCache{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
		keys:   make(map[string]*rsa.PublicKey),
	}
}

// Refresh replaces the cached key set with the one currently published.
func (c *JWKSCache) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks endpoint returned status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			c.logger.WithError(err).WithField("kid", k.Kid).Warn("skipping malformed jwks key")
			continue
		}
		keys[k.Kid] = pub
	}

	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()

	c.logger.WithField("keys", len(keys)).Debug("jwks refreshed")
	return nil
}

// PublicKey returns the key for kid, refreshing once if it is not cached.
func (c *JWKSCache) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key := c.lookup(kid); key != nil {
		return key, nil
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	if key := c.lookup(kid); key != nil {
		return key, nil
	}
	return nil, fmt.Errorf("key with kid %s not found", kid)
}

func (c *JWKSCache) lookup(kid string) *rsa.PublicKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keys[kid]
}

// parseRSAPublicKey parses an RSA public key from base64url modulus and exponent.
func parseRSAPublicKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	if len(nb) == 0 || len(eb) == 0 || len(eb) > 4 {
		return nil, fmt.Errorf("invalid rsa key parameters")
	}

	var exp int
	for _, b := range eb {
		exp = exp<<8 | int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: exp}, nil
}
