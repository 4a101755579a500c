package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

var serviceColumns = []interface{}{
	"id", "provider_id", "title", "description", "price", "duration",
	"category", "image", "is_active", "created_at", "updated_at",
}

// ServiceAdapter implements the ServiceRepository interface
type ServiceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewServiceAdapter creates a new service adapter
func NewServiceAdapter(client *postgres.Client) repositories.ServiceRepository {
	return &ServiceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new service
func (a *ServiceAdapter) Create(ctx context.Context, service *entities.Service) error {
	record := goqu.Record{
		"id":          service.ID,
		"provider_id": service.ProviderID,
		"title":       service.Title,
		"description": service.Description,
		"price":       service.Price,
		"duration":    service.Duration,
		"category":    service.Category,
		"image":       service.Image,
		"is_active":   service.IsActive,
		"created_at":  service.CreatedAt,
		"updated_at":  service.UpdatedAt,
	}

	query, args, err := a.db.Insert("services").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return insertError(err, "service already exists", "failed to create service")
	}

	return nil
}

// GetByID retrieves a service by ID
func (a *ServiceAdapter) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	query, args, err := a.db.Select(serviceColumns...).From("services").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	service, err := scanService(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get service", err)
	}
	return service, nil
}

// GetByIDs retrieves services for a batch of IDs
func (a *ServiceAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Service, error) {
	if len(ids) == 0 {
		return []*entities.Service{}, nil
	}
	return a.query(ctx, a.db.Select(serviceColumns...).From("services").Where(goqu.Ex{"id": ids}))
}

// List retrieves services with filters, newest first
func (a *ServiceAdapter) List(ctx context.Context, filter repositories.ServiceFilter) ([]*entities.Service, error) {
	ds := a.db.Select(serviceColumns...).From("services")

	if filter.ProviderID != "" {
		ds = ds.Where(goqu.Ex{"provider_id": filter.ProviderID})
	}
	if filter.Category != "" {
		ds = ds.Where(goqu.Ex{"category": filter.Category})
	}
	if filter.ActiveOnly {
		ds = ds.Where(goqu.Ex{"is_active": true})
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		ds = ds.Where(goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("description").ILike(pattern),
			goqu.C("category").ILike(pattern),
		))
	}

	ds = ds.Order(goqu.I("created_at").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	return a.query(ctx, ds)
}

func (a *ServiceAdapter) query(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.Service, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list services", err)
	}
	defer rows.Close()

	services := []*entities.Service{}
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan service", err)
		}
		services = append(services, service)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating services", err)
	}
	return services, nil
}

// Update updates a service owned by service.ProviderID
func (a *ServiceAdapter) Update(ctx context.Context, service *entities.Service) error {
	service.UpdatedAt = time.Now()

	query, args, err := a.db.Update("services").
		Set(goqu.Record{
			"title":       service.Title,
			"description": service.Description,
			"price":       service.Price,
			"duration":    service.Duration,
			"category":    service.Category,
			"image":       service.Image,
			"is_active":   service.IsActive,
			"updated_at":  service.UpdatedAt,
		}).
		Where(goqu.Ex{"id": service.ID, "provider_id": service.ProviderID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update service", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", service.ID))
	}

	return nil
}

// Delete deletes a service owned by providerID
func (a *ServiceAdapter) Delete(ctx context.Context, id, providerID string) error {
	query, args, err := a.db.Delete("services").
		Where(goqu.Ex{"id": id, "provider_id": providerID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if hasPQCode(err, pqForeignKeyViolation) {
		return apperrors.NewConflictError("service has bookings and cannot be deleted")
	}
	if err != nil {
		return apperrors.NewInternalError("failed to delete service", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", id))
	}

	return nil
}

func scanService(row rowScanner) (*entities.Service, error) {
	service := &entities.Service{}
	err := row.Scan(
		&service.ID,
		&service.ProviderID,
		&service.Title,
		&service.Description,
		&service.Price,
		&service.Duration,
		&service.Category,
		&service.Image,
		&service.IsActive,
		&service.CreatedAt,
		&service.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return service, nil
}
