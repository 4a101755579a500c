package repositories

import (
	"context"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// BookingRepository defines the interface for booking data operations
type BookingRepository interface {
	// Create creates a new booking
	Create(ctx context.Context, booking *entities.Booking) error

	// GetByID retrieves a booking by ID
	GetByID(ctx context.Context, id string) (*entities.Booking, error)

	// List retrieves bookings matching the filter, newest first
	List(ctx context.Context, filter BookingFilter) ([]*entities.Booking, error)

	// UpdateStatus sets the status of a booking owned by providerID and returns the stored row.
	// A booking that does not exist or belongs to another provider yields a not found error.
	UpdateStatus(ctx context.Context, id, providerID string, status entities.BookingStatus) (*entities.Booking, error)
}

// BookingFilter defines filters for listing bookings
type BookingFilter struct {
	UserID     string
	ProviderID string
	Status     entities.BookingStatus
	Limit      int
	Offset     int
}
