package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	"github.com/zatekoja/servicehub/internal/loaders"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
	"github.com/zatekoja/servicehub/pkg/validation"
)

// SubmitReviewInput is a user's review of one booking
type SubmitReviewInput struct {
	BookingID string `json:"booking" validate:"required"`
	Rating    int    `json:"rating" validate:"gte=1,lte=5"`
	Comment   string `json:"comment" validate:"required,max=2000"`
}

// ReviewQuery filters the public review listing
type ReviewQuery struct {
	ProviderID string
	ServiceID  string
	Limit      int
	Offset     int
}

// ProviderReindexer refreshes derived search data after a provider's rating changes
type ProviderReindexer interface {
	ReindexProvider(ctx context.Context, providerID string, rating *entities.ProviderRating) error
}

// ReviewDependencies wires the review service. Reindexer, Events and
// Metrics are optional.
type ReviewDependencies struct {
	Reviews   repositories.ReviewRepository
	Bookings  repositories.BookingRepository
	Loaders   *loaders.Factory
	Reindexer ProviderReindexer
	Events    providers.EventBus
	Metrics   *observability.Metrics
}

// ReviewService accepts reviews for completed bookings and keeps provider
// ratings in step with them
type ReviewService struct {
	reviews   repositories.ReviewRepository
	bookings  repositories.BookingRepository
	loaders   *loaders.Factory
	reindexer ProviderReindexer
	events    providers.EventBus
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewReviewService creates a review service
func NewReviewService(deps ReviewDependencies) *ReviewService {
	return &ReviewService{
		reviews:   deps.Reviews,
		bookings:  deps.Bookings,
		loaders:   deps.Loaders,
		reindexer: deps.Reindexer,
		events:    deps.Events,
		metrics:   deps.Metrics,
		now:       time.Now,
	}
}

// SubmitReview records the caller's review of a completed booking. A booking
// takes at most one review; the flag flip, the insert and the provider's
// rating recompute commit together.
func (s *ReviewService) SubmitReview(ctx context.Context, principal entities.Principal, input SubmitReviewInput) (*entities.Review, error) {
	ctx, span := observability.StartSpan(ctx, "ReviewService.SubmitReview")
	defer span.End()

	if !principal.IsUser() {
		return nil, apperrors.NewForbiddenError("Only users can submit reviews")
	}
	input.BookingID = strings.TrimSpace(input.BookingID)
	input.Comment = strings.TrimSpace(input.Comment)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, notFoundAs(err, "Booking not found")
	}
	if booking.UserID != principal.ID {
		return nil, apperrors.NewForbiddenError("You can only review your own bookings")
	}
	if booking.Status != entities.BookingStatusCompleted {
		return nil, apperrors.NewValidationError("Only completed bookings can be reviewed").WithField("booking", "booking is not completed")
	}
	if booking.Reviewed {
		return nil, apperrors.NewConflictError("booking already reviewed")
	}

	review := &entities.Review{
		ID:         uuid.New().String(),
		BookingID:  booking.ID,
		UserID:     principal.ID,
		ProviderID: booking.ProviderID,
		ServiceID:  booking.ServiceID,
		Rating:     input.Rating,
		Comment:    input.Comment,
		CreatedAt:  s.now().UTC(),
	}

	rating, err := s.reviews.CreateForBooking(ctx, review)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if s.metrics != nil {
		observability.IncCounter(ctx, s.metrics.ReviewsSubmitted)
	}
	logger := observability.LoggerFromContext(ctx)
	logger.Info().
		Str("review_id", review.ID).
		Str("provider_id", rating.ProviderID).
		Float64("rating", rating.Rating).
		Int("review_count", rating.ReviewCount).
		Msg("review submitted")

	publishEvent(ctx, s.events, entities.NewMarketplaceEvent(entities.EventTypeReviewCreated, review.ID, review.ProviderID, map[string]interface{}{
		"booking_id":   review.BookingID,
		"rating":       rating.Rating,
		"review_count": rating.ReviewCount,
	}))
	if s.reindexer != nil {
		if err := s.reindexer.ReindexProvider(ctx, review.ProviderID, rating); err != nil {
			logger.Warn().Err(err).Str("provider_id", review.ProviderID).Msg("failed to refresh provider search documents")
		}
	}

	s.loaders.For(ctx).PopulateReviews(ctx, []*entities.Review{review})
	return review, nil
}

// ListReviews returns reviews newest first with reviewer and service details
func (s *ReviewService) ListReviews(ctx context.Context, query ReviewQuery) ([]*entities.Review, error) {
	reviews, err := s.reviews.List(ctx, repositories.ReviewFilter{
		ProviderID: query.ProviderID,
		ServiceID:  query.ServiceID,
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
	if err != nil {
		return nil, err
	}
	s.loaders.For(ctx).PopulateReviews(ctx, reviews)
	return reviews, nil
}

// ListProviderReviews returns the reviews left for the calling provider
func (s *ReviewService) ListProviderReviews(ctx context.Context, principal entities.Principal) ([]*entities.Review, error) {
	if !principal.IsProvider() {
		return nil, apperrors.NewForbiddenError("Only providers can list their reviews")
	}
	return s.ListReviews(ctx, ReviewQuery{ProviderID: principal.ID})
}

// RecomputeProviderRating rebuilds a provider's rating from its reviews
func (s *ReviewService) RecomputeProviderRating(ctx context.Context, providerID string) (*entities.ProviderRating, error) {
	if strings.TrimSpace(providerID) == "" {
		return nil, apperrors.NewValidationError("Provider ID is required").WithField("providerId", "providerId is required")
	}
	return s.reviews.RecomputeProviderRating(ctx, providerID)
}
