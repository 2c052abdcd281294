package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/shopease/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const ownerIssuer = "storefront"

// OwnerClaims bind a browser to the user the backend returned at sign-in.
type OwnerClaims struct {
	Role domain.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// OwnerSigner issues and checks the storefront's own signed owner token.
// Server-side carts, wishlists and event streams are keyed by its subject,
// never by a cookie the browser can rewrite.
type OwnerSigner struct {
	key []byte
	ttl time.Duration
}

// NewOwnerSigner signs with key. An empty key gets a random one, so owner
// tokens do not survive a restart.
func NewOwnerSigner(key []byte, ttl time.Duration) (*OwnerSigner, error) {
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate owner key: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &OwnerSigner{key: key, ttl: ttl}, nil
}

func (s *OwnerSigner) TTL() time.Duration { return s.ttl }

func (s *OwnerSigner) Sign(userID string, role domain.Role, now time.Time) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}
	claims := OwnerClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    ownerIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Verify returns the owner carried by token. Tampered, foreign or expired
// tokens are rejected.
func (s *OwnerSigner) Verify(token string) (OwnerClaims, error) {
	var c OwnerClaims
	if token == "" {
		return c, errors.New("empty owner token")
	}
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ownerIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return OwnerClaims{}, fmt.Errorf("verify owner token: %w", err)
	}
	if c.Subject == "" {
		return OwnerClaims{}, errors.New("owner token has no subject")
	}
	return c, nil
}
