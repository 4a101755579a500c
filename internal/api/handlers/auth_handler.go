package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/pkg/config"
)

// AccountService defines the account operations used by the handler
type AccountService interface {
	Register(ctx context.Context, input services.RegisterInput) (*entities.PrincipalSummary, error)
	Login(ctx context.Context, input services.LoginInput, clientKey string) (*services.LoginResult, error)
}

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	accounts   AccountService
	cookie     config.AuthConfig
	trustProxy bool
}

// NewAuthHandler creates a new auth handler. trustProxy keys login attempts
// by X-Forwarded-For instead of the connection address.
func NewAuthHandler(accounts AccountService, cookie config.AuthConfig, trustProxy bool) *AuthHandler {
	if cookie.CookieName == "" {
		cookie.CookieName = "token"
	}
	if cookie.TokenTTL <= 0 {
		cookie.TokenTTL = 24 * time.Hour
	}
	return &AuthHandler{accounts: accounts, cookie: cookie, trustProxy: trustProxy}
}

// Register handles POST /api/register. The form is multipart so a profile
// image can ride along; a JSON body is accepted when there is no image.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput

	if isMultipart(r) {
		if err := parseMultipart(w, r); err != nil {
			respondWithError(w, r, err)
			return
		}
		input = services.RegisterInput{
			Role:            entities.Role(strings.TrimSpace(r.FormValue("role"))),
			Name:            r.FormValue("name"),
			Email:           r.FormValue("email"),
			Password:        r.FormValue("password"),
			Phone:           r.FormValue("phone"),
			Address:         r.FormValue("address"),
			BusinessName:    r.FormValue("businessName"),
			OwnerName:       r.FormValue("ownerName"),
			PhoneNumber:     r.FormValue("phoneNumber"),
			BusinessAddress: r.FormValue("businessAddress"),
			Cities:          formList(r, "cities"),
			Services:        formList(r, "services"),
			ContactInfo:     r.FormValue("contactInfo"),
			LicenseNumber:   r.FormValue("licenseNumber"),
			Description:     r.FormValue("description"),
		}
		image, err := formImage(r, "profilePhoto", "image")
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		input.Image = image
	} else if err := decodeJSON(w, r, &input); err != nil {
		respondWithError(w, r, err)
		return
	}

	summary, err := h.accounts.Register(r.Context(), input)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	message := "User registered successfully"
	if summary.Role == entities.RoleProvider {
		message = "Provider registered successfully"
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": message,
		"user":    summary,
	})
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := decodeJSON(w, r, &input); err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := h.accounts.Login(r.Context(), input, clientIP(r, h.trustProxy))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    result.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.cookie.TokenTTL.Seconds()),
	})

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful",
		"user":    result.User,
	})
}

// Logout handles POST /api/logout by expiring the session cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	respondWithMessage(w, http.StatusOK, "Logged out")
}
