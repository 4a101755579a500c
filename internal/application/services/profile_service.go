package services

import (
	"context"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// ProfileService reads and updates the caller's own profile
type ProfileService struct {
	users     repositories.UserRepository
	providers repositories.ProviderRepository
	events    providers.EventBus
}

// NewProfileService creates a profile service
func NewProfileService(users repositories.UserRepository, providerRepo repositories.ProviderRepository, events providers.EventBus) *ProfileService {
	return &ProfileService{users: users, providers: providerRepo, events: events}
}

// GetUserProfile returns the calling user
func (s *ProfileService) GetUserProfile(ctx context.Context, principal entities.Principal) (*entities.User, error) {
	if !principal.IsUser() {
		return nil, apperrors.NewForbiddenError("Access denied")
	}
	user, err := s.users.GetByID(ctx, principal.ID)
	return user, notFoundAs(err, "User not found")
}

// UpdateUserProfile changes the calling user's contact and payment details
func (s *ProfileService) UpdateUserProfile(ctx context.Context, principal entities.Principal, update entities.UserProfileUpdate) (*entities.User, error) {
	if !principal.IsUser() {
		return nil, apperrors.NewForbiddenError("Access denied")
	}
	if update.PaymentMethods != nil {
		update.PaymentMethods = compact(update.PaymentMethods)
	}
	user, err := s.users.UpdateProfile(ctx, principal.ID, update)
	if err != nil {
		return nil, notFoundAs(err, "User not found")
	}
	return user, nil
}

// GetProviderProfile returns the calling provider
func (s *ProfileService) GetProviderProfile(ctx context.Context, principal entities.Principal) (*entities.Provider, error) {
	if !principal.IsProvider() {
		return nil, apperrors.NewForbiddenError("Access denied")
	}
	provider, err := s.providers.GetByID(ctx, principal.ID)
	return provider, notFoundAs(err, "Provider not found")
}

// UpdateProviderProfile changes the calling provider's business details
func (s *ProfileService) UpdateProviderProfile(ctx context.Context, principal entities.Principal, update entities.ProviderProfileUpdate) (*entities.Provider, error) {
	if !principal.IsProvider() {
		return nil, apperrors.NewForbiddenError("Access denied")
	}
	if update.BusinessName != nil && *update.BusinessName == "" {
		return nil, apperrors.NewValidationError("Validation failed").WithField("businessName", "businessName cannot be empty")
	}

	provider, err := s.providers.UpdateProfile(ctx, principal.ID, update)
	if err != nil {
		return nil, notFoundAs(err, "Provider not found")
	}

	observability.LoggerFromContext(ctx).Info().Str("provider_id", provider.ID).Msg("provider profile updated")
	publishEvent(ctx, s.events, entities.NewMarketplaceEvent(entities.EventTypeProviderUpdated, provider.ID, provider.ID, nil))
	return provider, nil
}
