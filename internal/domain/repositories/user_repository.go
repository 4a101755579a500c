package repositories

import (
	"context"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user; a duplicate email yields a conflict error
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// GetByIDs retrieves users for a batch of IDs; missing IDs are skipped
	GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error)

	// UpdateProfile applies the non-nil fields of update and returns the stored user
	UpdateProfile(ctx context.Context, id string, update entities.UserProfileUpdate) (*entities.User, error)
}

// ProviderRepository defines the interface for provider data operations
type ProviderRepository interface {
	// Create creates a new provider; a duplicate email yields a conflict error
	Create(ctx context.Context, provider *entities.Provider) error

	// GetByID retrieves a provider by ID
	GetByID(ctx context.Context, id string) (*entities.Provider, error)

	// GetByEmail retrieves a provider by email
	GetByEmail(ctx context.Context, email string) (*entities.Provider, error)

	// GetByIDs retrieves providers for a batch of IDs; missing IDs are skipped
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error)

	// UpdateProfile applies the non-nil fields of update and returns the stored provider
	UpdateProfile(ctx context.Context, id string, update entities.ProviderProfileUpdate) (*entities.Provider, error)
}
