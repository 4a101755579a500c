package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/auth"
	"github.com/zatekoja/servicehub/internal/domain/entities"
)

var (
	alice = entities.Principal{ID: "u-alice", Email: "alice@example.com", Role: entities.RoleUser}
	acme  = entities.Principal{ID: "p-acme", Email: "owner@acme.test", Role: entities.RoleProvider}
)

// asPrincipal attaches verified claims the way the access gate does
func asPrincipal(req *http.Request, p entities.Principal) *http.Request {
	claims := &auth.Claims{UserID: p.ID, Email: p.Email, Role: p.Role}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a multipart form with optional files keyed by field name
func multipartRequest(t *testing.T, method, target string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		part, err := mw.CreateFormFile(name, name+".png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

// MockAccountService is a mock implementation of handlers.AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, input services.RegisterInput) (*entities.PrincipalSummary, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PrincipalSummary), args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, input services.LoginInput, clientKey string) (*services.LoginResult, error) {
	args := m.Called(ctx, input, clientKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LoginResult), args.Error(1)
}

// MockBookingService is a mock implementation of handlers.BookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateBooking(ctx context.Context, principal entities.Principal, input services.CreateBookingInput) (*entities.Booking, error) {
	args := m.Called(ctx, principal, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *MockBookingService) ListBookings(ctx context.Context, principal entities.Principal, query services.BookingQuery) ([]*entities.Booking, error) {
	args := m.Called(ctx, principal, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *MockBookingService) UpdateStatus(ctx context.Context, principal entities.Principal, input services.UpdateBookingStatusInput) (*entities.Booking, error) {
	args := m.Called(ctx, principal, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

// MockReviewService is a mock implementation of handlers.ReviewService
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) SubmitReview(ctx context.Context, principal entities.Principal, input services.SubmitReviewInput) (*entities.Review, error) {
	args := m.Called(ctx, principal, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Review), args.Error(1)
}

func (m *MockReviewService) ListReviews(ctx context.Context, query services.ReviewQuery) ([]*entities.Review, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Review), args.Error(1)
}

func (m *MockReviewService) ListProviderReviews(ctx context.Context, principal entities.Principal) ([]*entities.Review, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Review), args.Error(1)
}

// MockCatalogService is a mock implementation of handlers.CatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) CreateService(ctx context.Context, principal entities.Principal, input entities.ServiceInput, image *services.ImageFile) (*entities.Service, error) {
	args := m.Called(ctx, principal, input, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Service), args.Error(1)
}

func (m *MockCatalogService) UpdateService(ctx context.Context, principal entities.Principal, id string, input entities.ServiceInput, image *services.ImageFile) (*entities.Service, error) {
	args := m.Called(ctx, principal, id, input, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Service), args.Error(1)
}

func (m *MockCatalogService) DeleteService(ctx context.Context, principal entities.Principal, id string) error {
	args := m.Called(ctx, principal, id)
	return args.Error(0)
}

func (m *MockCatalogService) ListProviderServices(ctx context.Context, principal entities.Principal) ([]*entities.Service, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Service), args.Error(1)
}

func (m *MockCatalogService) ListServices(ctx context.Context, query services.ListServicesQuery) ([]*entities.Service, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Service), args.Error(1)
}

func (m *MockCatalogService) GetService(ctx context.Context, id string) (*entities.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Service), args.Error(1)
}

func (m *MockCatalogService) SearchServices(ctx context.Context, query services.SearchServicesQuery) ([]*entities.Service, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Service), args.Error(1)
}

// MockProfileService is a mock implementation of handlers.ProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetUserProfile(ctx context.Context, principal entities.Principal) (*entities.User, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockProfileService) UpdateUserProfile(ctx context.Context, principal entities.Principal, update entities.UserProfileUpdate) (*entities.User, error) {
	args := m.Called(ctx, principal, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockProfileService) GetProviderProfile(ctx context.Context, principal entities.Principal) (*entities.Provider, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Provider), args.Error(1)
}

func (m *MockProfileService) UpdateProviderProfile(ctx context.Context, principal entities.Principal, update entities.ProviderProfileUpdate) (*entities.Provider, error) {
	args := m.Called(ctx, principal, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Provider), args.Error(1)
}

// MockImageUploader is a mock implementation of providers.ImageUploader
type MockImageUploader struct {
	mock.Mock
}

func (m *MockImageUploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	args := m.Called(ctx, data, filename)
	return args.String(0), args.Error(1)
}
