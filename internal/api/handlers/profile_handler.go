package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// ProfileService defines the profile operations used by the handler
type ProfileService interface {
	GetUserProfile(ctx context.Context, principal entities.Principal) (*entities.User, error)
	UpdateUserProfile(ctx context.Context, principal entities.Principal, update entities.UserProfileUpdate) (*entities.User, error)
	GetProviderProfile(ctx context.Context, principal entities.Principal) (*entities.Provider, error)
	UpdateProviderProfile(ctx context.Context, principal entities.Principal, update entities.ProviderProfileUpdate) (*entities.Provider, error)
}

// ProfileHandler handles profile reads and updates for both roles
type ProfileHandler struct {
	profiles ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GetUserProfile handles GET /api/user/profile
func (h *ProfileHandler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	user, err := h.profiles.GetUserProfile(r.Context(), p)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// UpdateUserProfile handles PUT /api/user/profile
func (h *ProfileHandler) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	var update entities.UserProfileUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		respondWithError(w, r, err)
		return
	}

	user, err := h.profiles.UpdateUserProfile(r.Context(), p, update)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// GetProviderProfile handles GET /api/provider/profile
func (h *ProfileHandler) GetProviderProfile(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	provider, err := h.profiles.GetProviderProfile(r.Context(), p)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, provider)
}

// UpdateProviderProfile handles PUT /api/provider/profile
func (h *ProfileHandler) UpdateProviderProfile(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	var update entities.ProviderProfileUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		respondWithError(w, r, err)
		return
	}

	provider, err := h.profiles.UpdateProviderProfile(r.Context(), p, update)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, provider)
}
