package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/internal/api/middleware"
	"github.com/zatekoja/servicehub/internal/auth"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/pkg/config"
)

func newTokens(t *testing.T, ttl time.Duration) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService(config.AuthConfig{JWTSecret: "gate-secret", TokenTTL: ttl})
	require.NoError(t, err)
	return tokens
}

// echoClaims reports the identity the gate attached
func echoClaims(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"id": claims.UserID, "role": string(claims.Role)})
}

func TestAccessGate(t *testing.T) {
	tokens := newTokens(t, time.Hour)
	gate := middleware.NewAccessGate(tokens, "token")
	handler := gate.Middleware(http.HandlerFunc(echoClaims))

	userToken, err := tokens.Issue("u-1", "alice@example.com", entities.RoleUser)
	require.NoError(t, err)
	providerToken, err := tokens.Issue("p-1", "owner@acme.test", entities.RoleProvider)
	require.NoError(t, err)

	expired, err := newTokens(t, time.Nanosecond).Issue("u-1", "alice@example.com", entities.RoleUser)
	require.NoError(t, err)
	forged, err := auth.NewTokenService(config.AuthConfig{JWTSecret: "other-secret"})
	require.NoError(t, err)
	forgedToken, err := forged.Issue("u-1", "alice@example.com", entities.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name     string
		method   string
		path     string
		bearer   string
		cookie   string
		status   int
		location string
	}{
		{name: "public listing", method: http.MethodGet, path: "/api/services", status: http.StatusNoContent},
		{name: "public service", method: http.MethodGet, path: "/api/services/s-1", status: http.StatusNoContent},
		{name: "public reviews", method: http.MethodGet, path: "/api/reviews", status: http.StatusNoContent},
		{name: "login", method: http.MethodPost, path: "/api/login", status: http.StatusNoContent},
		{name: "preflight", method: http.MethodOptions, path: "/api/bookings", status: http.StatusNoContent},
		{name: "posting a review needs a token", method: http.MethodPost, path: "/api/reviews", status: http.StatusUnauthorized},
		{name: "missing token", method: http.MethodGet, path: "/api/bookings", status: http.StatusUnauthorized},
		{name: "expired token", method: http.MethodGet, path: "/api/bookings", bearer: expired, status: http.StatusUnauthorized},
		{name: "forged token", method: http.MethodGet, path: "/api/bookings", bearer: forgedToken, status: http.StatusUnauthorized},
		{name: "bearer token", method: http.MethodGet, path: "/api/bookings", bearer: userToken, status: http.StatusOK},
		{name: "cookie token", method: http.MethodGet, path: "/api/bookings", cookie: userToken, status: http.StatusOK},
		{name: "user on provider api", method: http.MethodGet, path: "/api/provider/services", bearer: userToken, status: http.StatusForbidden},
		{name: "provider on user api", method: http.MethodGet, path: "/api/user/profile", bearer: providerToken, status: http.StatusForbidden},
		{name: "provider on provider api", method: http.MethodGet, path: "/api/provider/services", bearer: providerToken, status: http.StatusOK},
		{name: "dashboard without token", method: http.MethodGet, path: "/dashboard/user", status: http.StatusFound, location: "/login"},
		{name: "dashboard expired", method: http.MethodGet, path: "/dashboard/user", cookie: expired, status: http.StatusFound, location: "/login"},
		{name: "user on provider dashboard", method: http.MethodGet, path: "/dashboard/provider", cookie: userToken, status: http.StatusFound, location: "/dashboard/user"},
		{name: "provider on user dashboard", method: http.MethodGet, path: "/dashboard/user/bookings", cookie: providerToken, status: http.StatusFound, location: "/dashboard/provider"},
		{name: "dashboard root", method: http.MethodGet, path: "/dashboard", cookie: providerToken, status: http.StatusFound, location: "/dashboard/provider"},
		{name: "own dashboard", method: http.MethodGet, path: "/dashboard/user", cookie: userToken, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, w.Header().Get("Location"))
			}
			if tt.status == http.StatusUnauthorized || tt.status == http.StatusForbidden {
				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, false, body["success"])
			}
		})
	}
}

func TestAccessGate_AttachesClaims(t *testing.T) {
	tokens := newTokens(t, time.Hour)
	handler := middleware.NewAccessGate(tokens, "").Middleware(http.HandlerFunc(echoClaims))

	token, err := tokens.Issue("p-9", "owner@acme.test", entities.RoleProvider)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/provider/bookings", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "p-9", body["id"])
	assert.Equal(t, "provider", body["role"])
}
