package auth

import (
	"time"

	"github.com/dmitrijs2005/userauth/internal/server/models"
)

// TokenService issues tokens for users and answers questions about them.
type TokenService struct {
	codec    *Codec
	lifetime time.Duration
	now      func() time.Time
}

type Option func(*TokenService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(codec *Codec, keys KeyConfig, opts ...Option) *TokenService {
	s := &TokenService{
		codec:    codec,
		lifetime: keys.Lifetime,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Lifetime is the validity of newly issued tokens.
func (s *TokenService) Lifetime() time.Duration { return s.lifetime }

// Issue signs a token for u with subject u.UserName.
func (s *TokenService) Issue(u *models.User) (string, error) {
	return s.codec.Encode(NewClaims(u, s.now(), s.lifetime))
}

// Validate reports whether token carries a good signature, names
// expectedSubject and has not expired. It never returns an error.
func (s *TokenService) Validate(token, expectedSubject string) bool {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return false
	}
	return claims.Subject == expectedSubject && !claims.ExpiredAt(s.now())
}

// Expired reports whether claims have expired by the service clock.
func (s *TokenService) Expired(claims *Claims) bool {
	return claims.ExpiredAt(s.now())
}

// ExtractClaims decodes token without looking at its expiry.
func (s *TokenService) ExtractClaims(token string) (*Claims, error) {
	return s.codec.Decode(token)
}

// ExtractSubject returns the username of token. Expired tokens still yield
// their subject.
func (s *TokenService) ExtractSubject(token string) (string, error) {
	c, err := s.codec.Decode(token)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

func (s *TokenService) ExtractUserID(token string) (int64, error) {
	c, err := s.codec.Decode(token)
	if err != nil {
		return 0, err
	}
	return c.UserID, nil
}

func (s *TokenService) ExtractRole(token string) (string, error) {
	c, err := s.codec.Decode(token)
	if err != nil {
		return "", err
	}
	return c.Role, nil
}
