// Package accessgate issues and verifies caller identities and owns user credentials.
package accessgate

import (
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/biddingerrors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: the user id plus the registered claims
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer; tokens expire after ttl
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for userID
func (i *TokenIssuer) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("accessgate: %w - empty user id", biddingerrors.ErrValidation)
	}
	now := i.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("accessgate: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the caller's user id
func (i *TokenIssuer) Verify(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("accessgate: %w - authorization token missing", biddingerrors.ErrUnauthenticated)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("accessgate: %w - token expired", biddingerrors.ErrUnauthenticated)
		}
		return "", fmt.Errorf("accessgate: %w - %v", biddingerrors.ErrUnauthenticated, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return "", fmt.Errorf("accessgate: %w - invalid token", biddingerrors.ErrUnauthenticated)
	}
	return claims.UserID, nil
}
