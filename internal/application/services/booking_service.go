package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	"github.com/zatekoja/servicehub/internal/loaders"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
	"github.com/zatekoja/servicehub/pkg/validation"
)

// CreateBookingInput is a user's booking request
type CreateBookingInput struct {
	ServiceID       string `json:"serviceId" validate:"required"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"required,datetime=15:04"`
	SpecialRequests string `json:"specialRequests" validate:"max=1000"`
}

// BookingQuery selects whose bookings to list. An empty query means the
// caller's own bookings.
type BookingQuery struct {
	UserID     string
	ProviderID string
	Status     entities.BookingStatus
}

// UpdateBookingStatusInput is a provider's status change request
type UpdateBookingStatusInput struct {
	BookingID string                 `json:"bookingId" validate:"required"`
	Status    entities.BookingStatus `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

// BookingDependencies wires the booking service. Notifier, Events and
// Metrics are optional.
type BookingDependencies struct {
	Bookings  repositories.BookingRepository
	Services  repositories.ServiceRepository
	Users     repositories.UserRepository
	Providers repositories.ProviderRepository
	Loaders   *loaders.Factory
	Notifier  *NotificationService
	Events    providers.EventBus
	Metrics   *observability.Metrics
}

// BookingService manages the booking lifecycle
type BookingService struct {
	bookings  repositories.BookingRepository
	services  repositories.ServiceRepository
	users     repositories.UserRepository
	providers repositories.ProviderRepository
	loaders   *loaders.Factory
	notifier  *NotificationService
	events    providers.EventBus
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewBookingService creates a booking service
func NewBookingService(deps BookingDependencies) *BookingService {
	return &BookingService{
		bookings:  deps.Bookings,
		services:  deps.Services,
		users:     deps.Users,
		providers: deps.Providers,
		loaders:   deps.Loaders,
		notifier:  deps.Notifier,
		events:    deps.Events,
		metrics:   deps.Metrics,
		now:       time.Now,
	}
}

// CreateBooking books a service for the calling user. The service price is
// copied onto the booking. The confirmation email is sent after the booking
// is stored and its outcome never affects the result.
func (s *BookingService) CreateBooking(ctx context.Context, principal entities.Principal, input CreateBookingInput) (*entities.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "BookingService.CreateBooking")
	defer span.End()

	if !principal.IsUser() {
		return nil, apperrors.NewForbiddenError("Only users can create bookings")
	}
	input.ServiceID = strings.TrimSpace(input.ServiceID)
	input.SpecialRequests = strings.TrimSpace(input.SpecialRequests)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, principal.ID)
	if err != nil {
		return nil, notFoundAs(err, "User not found")
	}
	service, err := s.services.GetByID(ctx, input.ServiceID)
	if err != nil {
		return nil, notFoundAs(err, "Service not found")
	}
	if !service.IsActive {
		return nil, apperrors.NewValidationError("Service is not available for booking").WithField("serviceId", "service is inactive")
	}
	provider, err := s.providers.GetByID(ctx, service.ProviderID)
	if err != nil {
		return nil, notFoundAs(err, "Provider not found")
	}

	now := s.now().UTC()
	booking := &entities.Booking{
		ID:              uuid.New().String(),
		ServiceID:       service.ID,
		UserID:          user.ID,
		ProviderID:      provider.ID,
		Date:            input.Date,
		Time:            input.Time,
		Status:          entities.BookingStatusPending,
		SpecialRequests: input.SpecialRequests,
		Price:           service.Price,
		Reviewed:        false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	booking.Service = loaders.ServiceRef(service)
	booking.User = loaders.UserRef(user)
	booking.Provider = loaders.ProviderRef(provider)

	if s.metrics != nil {
		observability.IncCounter(ctx, s.metrics.BookingsCreated, attribute.String("category", service.Category))
	}
	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", booking.ID).
		Str("service_id", service.ID).
		Str("provider_id", provider.ID).
		Msg("booking created")

	s.notifier.SendBookingConfirmation(ctx, user.Email, confirmationDetails(booking, user, service, provider))
	publishEvent(ctx, s.events, entities.NewMarketplaceEvent(entities.EventTypeBookingCreated, booking.ID, booking.ProviderID, map[string]interface{}{
		"service_id": booking.ServiceID,
		"user_id":    booking.UserID,
		"status":     string(booking.Status),
	}))

	return booking, nil
}

// ListBookings returns bookings visible to the caller, newest first. Users see
// only their own bookings and providers only bookings made with them; asking
// for anyone else's is forbidden.
func (s *BookingService) ListBookings(ctx context.Context, principal entities.Principal, query BookingQuery) ([]*entities.Booking, error) {
	filter, err := scopeBookingQuery(principal, query)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.loaders.For(ctx).PopulateBookings(ctx, bookings)
	return bookings, nil
}

func scopeBookingQuery(principal entities.Principal, query BookingQuery) (repositories.BookingFilter, error) {
	filter := repositories.BookingFilter{Status: query.Status}
	if query.Status != "" && !query.Status.Valid() {
		return filter, apperrors.NewValidationError("Invalid status").WithField("status", "must be one of: pending confirmed completed cancelled")
	}

	forbidden := apperrors.NewForbiddenError("You can only view your own bookings")
	switch principal.Role {
	case entities.RoleUser:
		if query.ProviderID != "" || (query.UserID != "" && query.UserID != principal.ID) {
			return filter, forbidden
		}
		filter.UserID = principal.ID
	case entities.RoleProvider:
		if query.UserID != "" || (query.ProviderID != "" && query.ProviderID != principal.ID) {
			return filter, forbidden
		}
		filter.ProviderID = principal.ID
	default:
		return filter, forbidden
	}
	return filter, nil
}

// UpdateStatus sets the status of a booking made with the calling provider.
// Any status may follow any other; the last write wins.
func (s *BookingService) UpdateStatus(ctx context.Context, principal entities.Principal, input UpdateBookingStatusInput) (*entities.Booking, error) {
	if !principal.IsProvider() {
		return nil, apperrors.NewForbiddenError("Only providers can update booking status")
	}
	input.BookingID = strings.TrimSpace(input.BookingID)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	booking, err := s.bookings.UpdateStatus(ctx, input.BookingID, principal.ID, input.Status)
	if err != nil {
		return nil, notFoundAs(err, "Booking not found")
	}

	l := s.loaders.For(ctx)
	l.PopulateBookings(ctx, []*entities.Booking{booking})

	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", booking.ID).
		Str("status", string(booking.Status)).
		Msg("booking status updated")

	if booking.User != nil {
		details := entities.BookingConfirmationDetails{
			UserName: booking.User.Name,
			Date:     booking.Date,
			Time:     booking.Time,
			Price:    booking.Price,
		}
		if booking.Service != nil {
			details.ServiceName = booking.Service.Title
		}
		if booking.Provider != nil {
			details.ProviderName = booking.Provider.BusinessName
		}
		s.notifier.SendBookingStatus(ctx, booking.User.Email, details, booking.Status)
	}
	publishEvent(ctx, s.events, entities.NewMarketplaceEvent(entities.EventTypeBookingStatusChanged, booking.ID, booking.ProviderID, map[string]interface{}{
		"status": string(booking.Status),
	}))

	return booking, nil
}

func confirmationDetails(b *entities.Booking, u *entities.User, svc *entities.Service, p *entities.Provider) entities.BookingConfirmationDetails {
	return entities.BookingConfirmationDetails{
		UserName:     u.Name,
		ServiceName:  svc.Title,
		ProviderName: p.DisplayName(),
		Date:         b.Date,
		Time:         b.Time,
		Price:        b.Price,
	}
}

// notFoundAs rewrites the message of a not found error
func notFoundAs(err error, message string) error {
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return apperrors.NewNotFoundError(message)
	}
	return err
}
