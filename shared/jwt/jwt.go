// Package jwt inspects tokens issued by the CMS. Signatures are not checked:
// the client never holds the signing secret.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoExpiry = errors.New("token has no exp claim")

var parser = jwt.NewParser()

// ExpiresAt reads the exp claim without verifying the signature.
func ExpiresAt(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("malformed token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// ExpiresWithin reports whether token expires before now+window.
// Unreadable tokens count as expiring; tokens without exp never do.
func ExpiresWithin(token string, window time.Duration, now time.Time) bool {
	exp, err := ExpiresAt(token)
	if errors.Is(err, ErrNoExpiry) {
		return false
	}
	if err != nil {
		return true
	}
	return !exp.After(now.Add(window))
}
