package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidRole rejects roles outside {customer, seller}.
	ErrInvalidRole = errors.New("token: invalid role")
	// ErrUnauthenticated covers every identity failure: missing upstream
	// bearer, unreachable identity backend, or no matching user.
	ErrUnauthenticated = errors.New("token: unauthenticated")
)

// Identity is the user record resolved from the identity backend.
type Identity struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Role  string  `json:"role"`
}

// Claims are the chat session token claims. Subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	Role  string  `json:"role"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
}

// IdentityResolver exchanges an upstream bearer token for a user record
// matching the requested role.
type IdentityResolver interface {
	Resolve(ctx context.Context, bearer, role string) (*Identity, error)
}

// Service issues and verifies short-lived chat session tokens. Issued tokens
// are not persisted; validity is purely signature plus expiry, so revocation
// is not supported.
type Service struct {
	secret   []byte
	ttl      time.Duration
	resolver IdentityResolver
}

func NewService(secret string, ttlSeconds int, resolver IdentityResolver) *Service {
	if ttlSeconds <= 0 {
		ttlSeconds = 300
	}
	return &Service{
		secret:   []byte(secret),
		ttl:      time.Duration(ttlSeconds) * time.Second,
		resolver: resolver,
	}
}

// TTLSeconds reports the configured token lifetime.
func (s *Service) TTLSeconds() int {
	return int(s.ttl / time.Second)
}

// Issue exchanges an upstream bearer token for a signed session token.
func (s *Service) Issue(ctx context.Context, bearer, role string) (string, *Identity, error) {
	if role != "customer" && role != "seller" {
		return "", nil, ErrInvalidRole
	}
	if bearer == "" || s.resolver == nil {
		return "", nil, ErrUnauthenticated
	}

	user, err := s.resolver.Resolve(ctx, bearer, role)
	if err != nil || user == nil || user.ID == "" {
		return "", nil, ErrUnauthenticated
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Role:  user.Role,
		Name:  user.Name,
		Email: user.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, user, nil
}

// Verify checks signature and expiry. It returns nil on any failure, never an
// error, so callers treat every bad token uniformly as unauthenticated.
func (s *Service) Verify(tokenString string) *Claims {
	if tokenString == "" {
		return nil
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil
	}
	return claims
}
