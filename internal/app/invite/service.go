// Package invite issues and checks signed grants that let a player join a private session.
package invite

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"
)

var (
	ErrInviteInvalid  = errors.New("invite is invalid")
	ErrInviteExpired  = errors.New("invite has expired")
	ErrInviteMismatch = errors.New("invite is for another session")
	ErrNotConfigured  = errors.New("invite service is not configured")
)

// Grant is the verified content of an invite.
type Grant struct {
	ID        string
	SessionID string
	Host      string
	ExpiresAt time.Time
}

// Service signs invites with HS256.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewService returns an invite service. An empty secret disables invites.
func NewService(secret, issuer string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue signs an invite to sessionID on behalf of host.
func (s *Service) Issue(sessionID, host string) (string, error) {
	if s == nil || len(s.secret) == 0 || s.issuer == "" {
		return "", ErrNotConfigured
	}
	if sessionID == "" {
		return "", fmt.Errorf("session id is required")
	}
	now := s.now()
	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": host,
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
		"jti": uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the signature, issuer and expiry of token and that it was issued
// for sessionID.
func (s *Service) Verify(tokenString, sessionID string) (Grant, error) {
	if s == nil || len(s.secret) == 0 {
		return Grant{}, ErrNotConfigured
	}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Grant{}, fmt.Errorf("%w: %v", ErrInviteInvalid, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Grant{}, ErrInviteInvalid
	}
	if iss, _ := claims["iss"].(string); iss != s.issuer {
		return Grant{}, fmt.Errorf("%w: issuer %q", ErrInviteInvalid, iss)
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return Grant{}, fmt.Errorf("%w: missing exp", ErrInviteInvalid)
	}
	expiresAt := time.Unix(int64(exp), 0)
	if !s.now().Before(expiresAt) {
		return Grant{}, ErrInviteExpired
	}
	sid, _ := claims["sid"].(string)
	if sid != sessionID {
		return Grant{}, ErrInviteMismatch
	}
	host, _ := claims["sub"].(string)
	id, _ := claims["jti"].(string)
	return Grant{ID: id, SessionID: sid, Host: host, ExpiresAt: expiresAt}, nil
}
