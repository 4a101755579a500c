package entities

import (
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// bookingFlow is the intended lifecycle. Providers may still set any status;
// the table documents the happy path and is not enforced on update.
var bookingFlow = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted: nil,
	BookingStatusCancelled: nil,
}

// Valid reports whether s is one of the known statuses
func (s BookingStatus) Valid() bool {
	_, ok := bookingFlow[s]
	return ok
}

// Terminal reports whether the intended flow ends at s
func (s BookingStatus) Terminal() bool {
	next, ok := bookingFlow[s]
	return ok && len(next) == 0
}

// CanTransitionTo reports whether next follows s in the intended flow
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, candidate := range bookingFlow[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Booking is a scheduled instance of a service between a user and a provider
type Booking struct {
	ID              string        `json:"id" db:"id"`
	ServiceID       string        `json:"serviceId" db:"service_id"`
	UserID          string        `json:"userId" db:"user_id"`
	ProviderID      string        `json:"providerId" db:"provider_id"`
	Date            string        `json:"date" db:"date"`
	Time            string        `json:"time" db:"time"`
	Status          BookingStatus `json:"status" db:"status"`
	SpecialRequests string        `json:"specialRequests,omitempty" db:"special_requests"`
	// Price is copied from the service when the booking is made and never follows later edits.
	Price     float64   `json:"price" db:"price"`
	Reviewed  bool      `json:"reviewed" db:"reviewed"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Service  *ServiceRef  `json:"service,omitempty" db:"-"`
	User     *UserRef     `json:"user,omitempty" db:"-"`
	Provider *ProviderRef `json:"provider,omitempty" db:"-"`
}
