package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zatekoja/servicehub/internal/auth"
	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// TokenVerifier verifies a session token and returns its claims
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AccessGate decides, per request, whether a verified identity is needed
// and whether its role may reach the path
type AccessGate struct {
	verifier   TokenVerifier
	cookieName string
}

// NewAccessGate creates an access gate reading tokens from the Authorization
// header or the named cookie
func NewAccessGate(verifier TokenVerifier, cookieName string) *AccessGate {
	if cookieName == "" {
		cookieName = "token"
	}
	return &AccessGate{verifier: verifier, cookieName: cookieName}
}

// Middleware returns the gate handler
func (g *AccessGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublic(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		dashboard := isDashboard(r.URL.Path)

		claims, err := g.verifier.Verify(g.token(r))
		if err != nil {
			if dashboard {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			writeGateError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		if r.URL.Path == "/dashboard" || r.URL.Path == "/dashboard/" {
			http.Redirect(w, r, "/dashboard/"+string(claims.Role), http.StatusFound)
			return
		}

		if role, scoped := requiredRole(r.URL.Path); scoped && claims.Role != role {
			if dashboard {
				http.Redirect(w, r, "/dashboard/"+string(claims.Role), http.StatusFound)
				return
			}
			writeGateError(w, http.StatusForbidden, "Access denied")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	})
}

// token prefers a bearer token and falls back to the session cookie
func (g *AccessGate) token(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if scheme, value, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value)
		}
	}
	if cookie, err := r.Cookie(g.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

var publicPaths = map[string]bool{
	"/":             true,
	"/health":       true,
	"/login":        true,
	"/api/login":    true,
	"/api/logout":   true,
	"/api/register": true,
}

func isPublic(method, path string) bool {
	if publicPaths[path] {
		return true
	}
	if method != http.MethodGet && method != http.MethodHead {
		return false
	}
	return path == "/api/services" ||
		strings.HasPrefix(path, "/api/services/") ||
		path == "/api/reviews"
}

func isDashboard(path string) bool {
	return path == "/dashboard" || strings.HasPrefix(path, "/dashboard/")
}

// requiredRole reports the role a path is reserved for
func requiredRole(path string) (entities.Role, bool) {
	switch {
	case strings.HasPrefix(path, "/api/provider/"), strings.HasPrefix(path, "/dashboard/provider"):
		return entities.RoleProvider, true
	case strings.HasPrefix(path, "/api/user/"), strings.HasPrefix(path, "/dashboard/user"):
		return entities.RoleUser, true
	default:
		return "", false
	}
}

func writeGateError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
