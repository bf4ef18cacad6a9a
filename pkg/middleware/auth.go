/**
 * @description
 * This package provides middleware for the HTTP server: caller identity,
 * bearer token verification and rate limiting.
 *
 * @notes
 * - With a KeyProvider the middleware requires an RS256 bearer token and uses
 *   its `sub` claim as the user id.
 * - Without one it trusts the gateway-asserted X-User-Id header.
 */
package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AuthContextKey is a custom type for the context key to avoid collisions.
type AuthContextKey string

const (
	// UserIDKey is the key used to store the caller's user id in the request context.
	UserIDKey AuthContextKey = "userID"

	// UserIDHeader carries the caller identity when bearer verification is disabled.
	UserIDHeader = "X-User-Id"
)

var (
	ErrNoAuthHeader      = errors.New("authorization header is required")
	ErrInvalidAuthHeader = errors.New("invalid Authorization header format")
)

// KeyProvider resolves the RSA public key for a token's key id.
type KeyProvider interface {
	PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// AuthOptions configures optional claim checks.
type AuthOptions struct {
	Audience string
	Issuer   string
}

// AuthMiddleware places the caller's user id in the request context or
// responds 401. keys may be nil.
func AuthMiddleware(keys KeyProvider, opts AuthOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			if keys == nil {
				userID = strings.TrimSpace(r.Header.Get(UserIDHeader))
				if userID == "" {
					http.Error(w, "Unauthorized: Missing auth credentials", http.StatusUnauthorized)
					return
				}
			} else {
				sub, err := verifyBearer(r, keys, opts)
				if err != nil {
					http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
					return
				}
				userID = sub
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verifyBearer(r *http.Request, keys KeyProvider, opts AuthOptions) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrNoAuthHeader
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidAuthHeader
	}

	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256"})}
	if opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience))
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}

	token, err := jwt.Parse(strings.TrimSpace(parts[1]), func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("kid not found in token header")
		}
		return keys.PublicKey(r.Context(), kid)
	}, parserOpts...)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("user id not found in token")
	}
	return sub, nil
}

// GetUserIDFromContext retrieves the user ID from the request context.
// It returns an empty string if the user ID is not found.
func GetUserIDFromContext(ctx context.Context) string {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
