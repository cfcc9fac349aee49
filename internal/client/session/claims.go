package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what the client can read out of its own bearer token
// without the signing key. It is informational only.
type TokenClaims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that lies before now.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ParseClaims decodes a JWT without verifying its signature.
func ParseClaims(token string) (TokenClaims, error) {
	if token == "" {
		return TokenClaims{}, errors.New("empty token")
	}

	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return TokenClaims{}, fmt.Errorf("parse token: %w", err)
	}

	c := TokenClaims{Subject: rc.Subject}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, nil
}

// Claims decodes the persisted token.
func (s *Store) Claims(ctx context.Context) (TokenClaims, error) {
	return ParseClaims(s.Token(ctx))
}
