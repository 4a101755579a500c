package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/pkg/config"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: 24 * time.Hour})
	require.NoError(t, err)
	return svc
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.Issue("u-1", "jane@example.com", entities.RoleUser)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, entities.RoleUser, claims.Role)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService(config.AuthConfig{})
	assert.Error(t, err)
}

func TestTokenService_IssueRejectsUnknownRole(t *testing.T) {
	svc := newTestTokenService(t)
	_, err := svc.Issue("u-1", "jane@example.com", entities.Role("admin"))
	assert.Error(t, err)
}

func TestTokenService_VerifyExpired(t *testing.T) {
	svc := newTestTokenService(t)
	token, err := svc.Issue("u-1", "jane@example.com", entities.RoleUser)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(24*time.Hour + time.Second) }

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestTokenService_VerifyIssuedLongAgo(t *testing.T) {
	svc := newTestTokenService(t)
	svc.now = func() time.Time { return time.Now().Add(-25 * time.Hour) }

	token, err := svc.Issue("u-1", "jane@example.com", entities.RoleUser)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestTokenService_VerifyRejectsTampering(t *testing.T) {
	svc := newTestTokenService(t)
	other, err := NewTokenService(config.AuthConfig{JWTSecret: "other-secret"})
	require.NoError(t, err)

	token, err := other.Issue("p-1", "shop@example.com", entities.RoleProvider)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong key", token},
		{"truncated", token[:len(token)-4]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidCredential)
		})
	}
}

func TestTokenService_VerifyRejectsNoneAlgorithm(t *testing.T) {
	svc := newTestTokenService(t)
	claims := Claims{
		UserID: "u-1",
		Role:   entities.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestTokenService_VerifyRejectsUnknownRole(t *testing.T) {
	svc := newTestTokenService(t)
	claims := Claims{
		UserID: "u-1",
		Role:   entities.Role("admin"),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret!"))
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithClaims(context.Background(), &Claims{UserID: "u-1", Role: entities.RoleUser})
	claims, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u-1", claims.UserID)
}
