package entities

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a rating and comment a user leaves on one completed booking
type Review struct {
	ID         string    `json:"id" db:"id"`
	BookingID  string    `json:"booking" db:"booking_id"`
	UserID     string    `json:"userId" db:"user_id"`
	ProviderID string    `json:"providerId" db:"provider_id"`
	ServiceID  string    `json:"serviceId" db:"service_id"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    string    `json:"comment" db:"comment"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`

	User    *ReviewerRef `json:"user,omitempty" db:"-"`
	Service *ServiceRef  `json:"service,omitempty" db:"-"`
}

// ProviderRating is the aggregate stored on a provider after each review
type ProviderRating struct {
	ProviderID  string  `json:"providerId"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
}
