// Package auth holds the token and password primitives of the service:
// the HS256 claims codec, the token service built on top of it, and the
// bcrypt password hasher.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userauth/internal/common"
	"github.com/dmitrijs2005/userauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// KeyConfig is the signing material shared by the codec and the token
// service. It is read once at startup; replacing Secret invalidates every
// token signed with the old value.
type KeyConfig struct {
	Secret   []byte
	Lifetime time.Duration
}

// Claims is the payload of an issued token. The subject is the username.
type Claims struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// NewClaims builds the claims for u, issued at now and valid for lifetime.
func NewClaims(u *models.User, now time.Time, lifetime time.Duration) *Claims {
	return &Claims{
		UserID: u.ID,
		Role:   u.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.UserName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}
}

// ExpiredAt reports whether the claims are no longer valid at now.
// Claims without an expiry are treated as expired.
func (c *Claims) ExpiredAt(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return !c.ExpiresAt.Time.After(now)
}

// Codec signs and verifies compact HS256 tokens.
//
// Decode checks the signature and the claim structure only; expiry is the
// caller's business.
type Codec struct {
	key    []byte
	parser *jwt.Parser
}

func NewCodec(keys KeyConfig) *Codec {
	return &Codec{
		key: keys.Secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}
}

func (c *Codec) Encode(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Decode verifies token and returns its claims.
//
// It fails with common.ErrTokenSignatureInvalid when the signature does not
// match the key or the algorithm is not HS256, and with
// common.ErrTokenMalformed when the token cannot be split or its payload is
// not a claim set.
func (c *Codec) Decode(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err == nil {
		return claims, nil
	}

	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, common.ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenMalformed):
		// header and payload are fine, so the damage is in the signature segment
		if _, _, uerr := c.parser.ParseUnverified(token, &Claims{}); uerr == nil {
			return nil, common.ErrTokenSignatureInvalid
		}
		return nil, common.ErrTokenMalformed
	default:
		return nil, common.ErrTokenMalformed
	}
}
