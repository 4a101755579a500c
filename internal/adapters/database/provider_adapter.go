package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

var providerColumns = []interface{}{
	"id", "email", "password_hash", "name", "business_name", "owner_name",
	"phone_number", "business_address", "cities", "services_offered",
	"contact_info", "license_number", "description", "business_hours",
	"profile_picture", "rating", "review_count", "created_at", "updated_at",
}

// ProviderAdapter implements the ProviderRepository interface
type ProviderAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProviderAdapter creates a new provider adapter
func NewProviderAdapter(client *postgres.Client) repositories.ProviderRepository {
	return &ProviderAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new provider
func (a *ProviderAdapter) Create(ctx context.Context, provider *entities.Provider) error {
	hours, err := encodeBusinessHours(provider.BusinessHours)
	if err != nil {
		return apperrors.NewInternalError("failed to encode business hours", err)
	}

	record := goqu.Record{
		"id":               provider.ID,
		"email":            provider.Email,
		"password_hash":    provider.PasswordHash,
		"name":             provider.Name,
		"business_name":    provider.BusinessName,
		"owner_name":       provider.OwnerName,
		"phone_number":     provider.PhoneNumber,
		"business_address": provider.BusinessAddress,
		"cities":           pq.StringArray(nonNil(provider.Cities)),
		"services_offered": pq.StringArray(nonNil(provider.ServicesOffered)),
		"contact_info":     provider.ContactInfo,
		"license_number":   provider.LicenseNumber,
		"description":      provider.Description,
		"business_hours":   hours,
		"profile_picture":  provider.ProfilePicture,
		"rating":           provider.Rating,
		"review_count":     provider.ReviewCount,
		"created_at":       provider.CreatedAt,
		"updated_at":       provider.UpdatedAt,
	}

	query, args, err := a.db.Insert("providers").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return insertError(err, "a provider with this email already exists", "failed to create provider")
	}

	return nil
}

// GetByID retrieves a provider by ID
func (a *ProviderAdapter) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("provider with id %s not found", id))
}

// GetByEmail retrieves a provider by email
func (a *ProviderAdapter) GetByEmail(ctx context.Context, email string) (*entities.Provider, error) {
	return a.getOne(ctx, goqu.Ex{"email": email}, "provider not found")
}

func (a *ProviderAdapter) getOne(ctx context.Context, where goqu.Ex, notFoundMsg string) (*entities.Provider, error) {
	query, args, err := a.db.Select(providerColumns...).From("providers").Where(where).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	provider, err := scanProvider(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get provider", err)
	}
	return provider, nil
}

// GetByIDs retrieves providers for a batch of IDs
func (a *ProviderAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error) {
	if len(ids) == 0 {
		return []*entities.Provider{}, nil
	}

	query, args, err := a.db.Select(providerColumns...).From("providers").Where(goqu.Ex{"id": ids}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list providers", err)
	}
	defer rows.Close()

	providers := make([]*entities.Provider, 0, len(ids))
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan provider", err)
		}
		providers = append(providers, provider)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating providers", err)
	}
	return providers, nil
}

// UpdateProfile updates the business fields of a provider. Email, password and
// rating columns are never written here.
func (a *ProviderAdapter) UpdateProfile(ctx context.Context, id string, update entities.ProviderProfileUpdate) (*entities.Provider, error) {
	record := goqu.Record{"updated_at": time.Now()}
	setString := func(column string, value *string) {
		if value != nil {
			record[column] = *value
		}
	}
	setString("name", update.Name)
	setString("business_name", update.BusinessName)
	setString("owner_name", update.OwnerName)
	setString("phone_number", update.PhoneNumber)
	setString("business_address", update.BusinessAddress)
	setString("contact_info", update.ContactInfo)
	setString("license_number", update.LicenseNumber)
	setString("description", update.Description)
	setString("profile_picture", update.ProfilePicture)
	if update.Cities != nil {
		record["cities"] = pq.StringArray(update.Cities)
	}
	if update.ServicesOffered != nil {
		record["services_offered"] = pq.StringArray(update.ServicesOffered)
	}
	if update.BusinessHours != nil {
		hours, err := encodeBusinessHours(update.BusinessHours)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to encode business hours", err)
		}
		record["business_hours"] = hours
	}

	query, args, err := a.db.Update("providers").
		Set(record).
		Where(goqu.Ex{"id": id}).
		Returning(providerColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build update query", err)
	}

	provider, err := scanProvider(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update provider", err)
	}
	return provider, nil
}

func scanProvider(row rowScanner) (*entities.Provider, error) {
	provider := &entities.Provider{}
	var cities, servicesOffered pq.StringArray
	var hours []byte
	err := row.Scan(
		&provider.ID,
		&provider.Email,
		&provider.PasswordHash,
		&provider.Name,
		&provider.BusinessName,
		&provider.OwnerName,
		&provider.PhoneNumber,
		&provider.BusinessAddress,
		&cities,
		&servicesOffered,
		&provider.ContactInfo,
		&provider.LicenseNumber,
		&provider.Description,
		&hours,
		&provider.ProfilePicture,
		&provider.Rating,
		&provider.ReviewCount,
		&provider.CreatedAt,
		&provider.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	provider.Cities = nonNil(cities)
	provider.ServicesOffered = nonNil(servicesOffered)
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &provider.BusinessHours); err != nil {
			return nil, fmt.Errorf("decode business hours: %w", err)
		}
	}
	return provider, nil
}

func encodeBusinessHours(hours map[string]entities.BusinessHours) (string, error) {
	if hours == nil {
		return "{}", nil
	}
	b, err := json.Marshal(hours)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
