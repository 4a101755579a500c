package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/pkg/config"
)

// ErrInvalidCredential is returned for any token that cannot be trusted.
// Expired and malformed tokens are indistinguishable to callers.
var ErrInvalidCredential = errors.New("invalid credential")

// Claims is the identity assertion carried by a session token
type Claims struct {
	UserID string        `json:"userId"`
	Email  string        `json:"email"`
	Role   entities.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service from auth configuration
func NewTokenService(cfg config.AuthConfig) (*TokenService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("auth: signing secret is empty")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(cfg.JWTSecret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the validity window of issued tokens
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the given principal
func (s *TokenService) Issue(principalID, email string, role entities.Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("auth: unknown role %q", role)
	}
	now := s.now()
	claims := Claims{
		UserID: principalID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, expiry and role of a token
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidCredential
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredential
	}

	// jwt/v4 validates exp against the wall clock; check again against the injected clock.
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrInvalidCredential
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}
