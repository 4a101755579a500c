package repositories

import (
	"context"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// ServiceRepository defines the interface for service listing operations
type ServiceRepository interface {
	// Create creates a new service
	Create(ctx context.Context, service *entities.Service) error

	// GetByID retrieves a service by ID
	GetByID(ctx context.Context, id string) (*entities.Service, error)

	// GetByIDs retrieves services for a batch of IDs; missing IDs are skipped
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Service, error)

	// List retrieves services matching the filter
	List(ctx context.Context, filter ServiceFilter) ([]*entities.Service, error)

	// Update updates a service owned by service.ProviderID
	Update(ctx context.Context, service *entities.Service) error

	// Delete deletes a service owned by providerID; referenced services yield a conflict error
	Delete(ctx context.Context, id, providerID string) error
}

// ServiceFilter defines filters for listing services
type ServiceFilter struct {
	ProviderID string
	Category   string
	Query      string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ServiceSearchRepository defines the interface for service full-text search (e.g. Typesense)
type ServiceSearchRepository interface {
	// Search searches services
	Search(ctx context.Context, params SearchParams) ([]*entities.Service, error)

	// Index indexes a service with its provider's current aggregate rating
	Index(ctx context.Context, service *entities.Service, rating *entities.ProviderRating) error

	// Delete removes a service from index
	Delete(ctx context.Context, id string) error
}

// SearchParams defines parameters for service search
type SearchParams struct {
	Query      string
	Category   string
	ProviderID string
	Page       int
	PerPage    int
}
