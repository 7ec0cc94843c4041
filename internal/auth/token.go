// Package auth issues and verifies the bearer tokens and password hashes
// used by the account and task endpoints.
//
// Token verification never touches the database: a token is valid when
// its HS256 signature matches the shared signing key and it has not
// expired.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMalformedClaims    = errors.New("malformed token claims")
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "Bearer"
)

// Claims is the payload of an access token: sub, email, iat and exp.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewTokenManager(signingKey []byte, ttl time.Duration) *TokenManager {
	return &TokenManager{
		signingKey: signingKey,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Issue signs a token for the given subject. The returned time is the
// token expiry.
func (m *TokenManager) Issue(subjectID, email string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and expiry of token and returns its claims.
// Every failure is reported as ErrInvalidToken.
func (m *TokenManager) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (any, error) {
			return m.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

// ExtractIdentity reads the bearer token from the Authorization header,
// verifies it and returns the subject identifier.
func (m *TokenManager) ExtractIdentity(header http.Header) (string, error) {
	value := header.Get(authorizationHeader)
	if value == "" {
		return "", ErrMissingCredentials
	}

	scheme, token, ok := strings.Cut(value, " ")
	if !ok || scheme != bearerScheme || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: not a bearer authorization header", ErrMissingCredentials)
	}

	claims, err := m.Verify(strings.TrimSpace(token))
	if err != nil {
		return "", err
	}

	if claims.Subject == "" {
		return "", ErrMalformedClaims
	}
	return claims.Subject, nil
}
