package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/internal/api/handlers"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

func TestProfileHandler_GetUserProfile(t *testing.T) {
	profiles := new(MockProfileService)
	handler := handlers.NewProfileHandler(profiles)

	profiles.On("GetUserProfile", mock.Anything, alice).Return(&entities.User{
		ID: alice.ID, Email: alice.Email, Name: "Alice", PasswordHash: "$2a$10$secret",
	}, nil)

	req := asPrincipal(httptest.NewRequest(http.MethodGet, "/api/user/profile", nil), alice)
	w := httptest.NewRecorder()
	handler.GetUserProfile(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
	assert.Equal(t, "Alice", decodeBody(t, w.Body)["name"])
}

func TestProfileHandler_UpdateUserProfile(t *testing.T) {
	profiles := new(MockProfileService)
	handler := handlers.NewProfileHandler(profiles)

	phone := "555-0101"
	profiles.On("UpdateUserProfile", mock.Anything, alice, entities.UserProfileUpdate{
		Phone: &phone, PaymentMethods: []string{"card"},
	}).Return(&entities.User{ID: alice.ID, Phone: phone}, nil)

	req := asPrincipal(jsonRequest(http.MethodPut, "/api/user/profile",
		`{"phone":"555-0101","paymentMethods":["card"]}`), alice)
	w := httptest.NewRecorder()
	handler.UpdateUserProfile(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	profiles.AssertExpectations(t)
}

func TestProfileHandler_UpdateUserProfile_RejectsProtectedFields(t *testing.T) {
	profiles := new(MockProfileService)
	handler := handlers.NewProfileHandler(profiles)

	req := asPrincipal(jsonRequest(http.MethodPut, "/api/user/profile", `{"email":"evil@example.com"}`), alice)
	w := httptest.NewRecorder()
	handler.UpdateUserProfile(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	profiles.AssertNotCalled(t, "UpdateUserProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileHandler_ProviderProfile(t *testing.T) {
	profiles := new(MockProfileService)
	handler := handlers.NewProfileHandler(profiles)

	profiles.On("GetProviderProfile", mock.Anything, acme).
		Return(&entities.Provider{ID: acme.ID, BusinessName: "Acme Cleaning"}, nil)
	name := "Acme Deluxe"
	profiles.On("UpdateProviderProfile", mock.Anything, acme, entities.ProviderProfileUpdate{BusinessName: &name}).
		Return(&entities.Provider{ID: acme.ID, BusinessName: name}, nil)

	w := httptest.NewRecorder()
	handler.GetProviderProfile(w, asPrincipal(httptest.NewRequest(http.MethodGet, "/api/provider/profile", nil), acme))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Acme Cleaning", decodeBody(t, w.Body)["businessName"])

	w = httptest.NewRecorder()
	handler.UpdateProviderProfile(w, asPrincipal(jsonRequest(http.MethodPut, "/api/provider/profile",
		`{"businessName":"Acme Deluxe"}`), acme))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Acme Deluxe", decodeBody(t, w.Body)["businessName"])
	profiles.AssertExpectations(t)
}

func TestProfileHandler_WrongRole(t *testing.T) {
	profiles := new(MockProfileService)
	handler := handlers.NewProfileHandler(profiles)

	profiles.On("GetProviderProfile", mock.Anything, alice).Return(nil, apperrors.NewForbiddenError("Access denied"))

	w := httptest.NewRecorder()
	handler.GetProviderProfile(w, asPrincipal(httptest.NewRequest(http.MethodGet, "/api/provider/profile", nil), alice))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied", decodeBody(t, w.Body)["message"])
}
