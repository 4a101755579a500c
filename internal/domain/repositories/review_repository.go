package repositories

import (
	"context"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// ReviewRepository defines the interface for review operations
type ReviewRepository interface {
	// CreateForBooking marks the booking reviewed, inserts the review and recomputes the
	// provider aggregate in one transaction. A booking that is already reviewed yields a
	// conflict error and leaves no trace.
	CreateForBooking(ctx context.Context, review *entities.Review) (*entities.ProviderRating, error)

	// List retrieves reviews matching the filter, newest first
	List(ctx context.Context, filter ReviewFilter) ([]*entities.Review, error)

	// RecomputeProviderRating rebuilds a provider's aggregate from its reviews
	RecomputeProviderRating(ctx context.Context, providerID string) (*entities.ProviderRating, error)
}

// ReviewFilter defines filters for listing reviews
type ReviewFilter struct {
	ProviderID string
	ServiceID  string
	UserID     string
	Limit      int
	Offset     int
}
