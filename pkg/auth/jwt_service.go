package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrExpiredToken   = errors.New("token has expired")
)

// TokenClaims is what the companion needs to know about a bearer token issued
// by the profile service.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// TTL is the remaining lifetime, or zero when the token never expires.
func (c TokenClaims) TTL(now time.Time) time.Duration {
	if c.ExpiresAt.IsZero() {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// JWTInspector reads bearer tokens without verifying their signature. Only the
// profile service holds the signing key.
type JWTInspector struct {
	parser *jwt.Parser
	now    func() time.Time
}

func NewJWTInspector() *JWTInspector {
	return &JWTInspector{parser: jwt.NewParser(), now: time.Now}
}

func (s *JWTInspector) Inspect(tokenString string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := s.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	out := &TokenClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if out.Subject == "" {
		// access tokens of the profile service carry user_id instead
		if uid, ok := claims["user_id"]; ok {
			out.Subject = fmt.Sprint(uid)
		}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if exp != nil {
		out.ExpiresAt = exp.Time
		if !out.ExpiresAt.After(s.now()) {
			return nil, ErrExpiredToken
		}
	}
	return out, nil
}
