// Package auth issues and verifies the signed tokens that identify the
// acting principal. Tokens are HS256 JWTs whose subject is the user id.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"flashdeck/internal/config"
	"flashdeck/internal/deck"
)

var (
	// ErrInvalidToken is returned for malformed, tampered or foreign tokens.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrExpiredToken is returned when a token is past its expiry.
	ErrExpiredToken = errors.New("auth: token has expired")

	// ErrNoSecret is returned when no signing secret is configured.
	ErrNoSecret = errors.New("auth: no signing secret configured")
)

// Claims are the JWT claims carried by a flashdeck token.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenAuthority signs and verifies principal tokens with a shared secret.
type TokenAuthority struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  deck.Clock
}

// NewTokenAuthority creates a TokenAuthority. A nil clock uses the real clock.
func NewTokenAuthority(secret []byte, issuer string, ttl time.Duration, clock deck.Clock) (*TokenAuthority, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	if clock == nil {
		clock = deck.RealClock{}
	}
	return &TokenAuthority{secret: secret, issuer: issuer, ttl: ttl, clock: clock}, nil
}

// NewTokenAuthorityFromConfig builds a TokenAuthority from the auth config.
// secretOverride, when non-empty, replaces the configured secret.
func NewTokenAuthorityFromConfig(cfg config.AuthConfig, secretOverride string, clock deck.Clock) (*TokenAuthority, error) {
	ttl, err := cfg.TTL()
	if err != nil {
		return nil, err
	}
	secret := cfg.Secret
	if secretOverride != "" {
		secret = secretOverride
	}
	return NewTokenAuthority([]byte(secret), cfg.Issuer, ttl, clock)
}

// Issue returns a signed token naming userID as its subject.
func (a *TokenAuthority) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("issuing token: empty user id")
	}
	now := a.clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature, issuer and lifetime and returns the
// principal it names.
func (a *TokenAuthority) Verify(tokenString string) (deck.Principal, error) {
	if tokenString == "" {
		return deck.Anonymous, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return deck.Anonymous, ErrExpiredToken
		}
		return deck.Anonymous, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return deck.Anonymous, ErrInvalidToken
	}
	return deck.NewPrincipal(claims.Subject), nil
}

// NewSecret returns a random 32-byte secret, hex encoded, for new configs.
func NewSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
