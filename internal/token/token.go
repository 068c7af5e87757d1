// Package token issues and verifies the stateless bearer tokens used for
// authentication. Tokens are HS256-signed JWTs with a fixed validity window;
// no server-side session state exists.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails verification. Malformed,
// tampered and expired tokens are deliberately indistinguishable to callers.
var ErrInvalidToken = errors.New("invalid or expired token")

const (
	// TTL is the fixed validity window for issued tokens.
	TTL = 7 * 24 * time.Hour

	issuer   = "ripple-api"
	audience = "ripple-client"
)

// Issuer issues and verifies signed bearer tokens.
type Issuer struct {
	secret []byte
}

// NewIssuer returns an Issuer signing with the given secret.
func NewIssuer(secret string) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is required")
	}
	return &Issuer{secret: []byte(secret)}, nil
}

// Issue creates a signed token for the given user ID, expiring TTL from now.
func (i *Issuer) Issue(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10), // Subject (user ID as string)
		"iss": issuer,                                 // Issuer
		"aud": audience,                               // Audience
		"exp": now.Add(TTL).Unix(),                    // Expiration
		"iat": now.Unix(),                             // Issued at
		"nbf": now.Unix(),                             // Not before
		"jti": generateJTI(),                          // JWT ID (unique identifier)
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

// Verify checks the token's signature and validity window and returns the
// embedded user ID. Every failure mode returns ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (uint, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	if iss, issOk := claims["iss"].(string); !issOk || iss != issuer {
		return 0, ErrInvalidToken
	}
	if aud, audOk := claims["aud"].(string); !audOk || aud != audience {
		return 0, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, ErrInvalidToken
	}

	return uint(userID), nil
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
