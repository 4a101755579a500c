package entities

import "time"

// Service is a bookable offering listed by exactly one provider
type Service struct {
	ID          string    `json:"id" db:"id"`
	ProviderID  string    `json:"providerId" db:"provider_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Duration    int       `json:"duration" db:"duration"` // minutes
	Category    string    `json:"category" db:"category"`
	Image       string    `json:"image,omitempty" db:"image"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	Provider *ProviderRef `json:"provider,omitempty" db:"-"`
}

// ProviderRef is the provider projection embedded in listings
type ProviderRef struct {
	ID           string  `json:"_id"`
	BusinessName string  `json:"businessName"`
	Email        string  `json:"email,omitempty"`
	Rating       float64 `json:"rating"`
	ReviewCount  int     `json:"reviewCount"`
}

// ServiceRef is the service projection embedded in bookings and reviews
type ServiceRef struct {
	ID       string  `json:"_id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Duration int     `json:"duration"`
	Category string  `json:"category"`
}

// UserRef is the user projection embedded in bookings and reviews
type UserRef struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}

// ReviewerRef is the public view of a review's author
type ReviewerRef struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}

// ServiceInput carries the writable fields of a service
type ServiceInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"required,max=5000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Duration    int     `json:"duration" validate:"gt=0"`
	Category    string  `json:"category" validate:"required,max=100"`
	IsActive    *bool   `json:"isActive"`
	Image       string  `json:"image" validate:"omitempty,url"`
}
