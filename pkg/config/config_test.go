package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AuthConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Auth.CookieSecure)
	assert.True(t, cfg.IsProduction())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("ENV", "")
	t.Setenv("TYPESENSE_URL", "")
	t.Setenv("CLOUDINARY_FOLDER", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("TRUSTED_PROXY", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "")
	t.Setenv("DB_CONN_MAX_LIFETIME", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "token", cfg.Auth.CookieName)
	assert.False(t, cfg.Auth.CookieSecure)
	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.Equal(t, "service_marketplace", cfg.Cloudinary.Folder)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Server.TrustedProxy)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Error(t, cfg.Validate(), "missing JWT secret must be rejected")
}

func TestLoad_MailFromFallsBackToUser(t *testing.T) {
	t.Setenv("SMTP_USER", "noreply@servicehub.test")
	t.Setenv("SMTP_PASSWORD", "app-password")
	t.Setenv("MAIL_FROM", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "noreply@servicehub.test", cfg.Mail.From)
	assert.True(t, cfg.Mail.Enabled())
	assert.False(t, cfg.Cloudinary.Enabled())
}

func TestLoad_AllowedOriginsList(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.test, https://b.test,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.Server.AllowedOrigins)
}
