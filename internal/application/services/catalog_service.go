package services

import (
	"context"
	"encoding/json"
	"errors"
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

const (
	serviceCachePrefix = "service:"
	serviceCacheTTL    = 300 // seconds
	defaultPerPage     = 20
	maxPerPage         = 100
)

// ServiceCacheKey is the read-through cache key for a single service
func ServiceCacheKey(id string) string {
	return serviceCachePrefix + id
}

// CatalogDependencies wires the catalog service. Search, Cache, Uploader,
// Events and Metrics are optional.
type CatalogDependencies struct {
	Services  repositories.ServiceRepository
	Providers repositories.ProviderRepository
	Search    repositories.ServiceSearchRepository
	Cache     providers.CacheProvider
	Uploader  providers.ImageUploader
	Events    providers.EventBus
	Loaders   *loaders.Factory
	Metrics   *observability.Metrics
}

// ListServicesQuery filters the public service listing
type ListServicesQuery struct {
	ProviderID string
	Category   string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// SearchServicesQuery is a public full-text search request
type SearchServicesQuery struct {
	Query    string
	Category string
	Page     int
	PerPage  int
}

// CatalogService manages provider-owned service listings
type CatalogService struct {
	services  repositories.ServiceRepository
	providers repositories.ProviderRepository
	search    repositories.ServiceSearchRepository
	cache     providers.CacheProvider
	uploader  providers.ImageUploader
	events    providers.EventBus
	loaders   *loaders.Factory
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewCatalogService creates a catalog service
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		services:  deps.Services,
		providers: deps.Providers,
		search:    deps.Search,
		cache:     deps.Cache,
		uploader:  deps.Uploader,
		events:    deps.Events,
		loaders:   deps.Loaders,
		metrics:   deps.Metrics,
		now:       time.Now,
	}
}

// CreateService lists a new service for the calling provider
func (s *CatalogService) CreateService(ctx context.Context, principal entities.Principal, input entities.ServiceInput, image *ImageFile) (*entities.Service, error) {
	if !principal.IsProvider() {
		return nil, apperrors.NewForbiddenError("Only providers can manage services")
	}
	input = trimServiceInput(input)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	imageURL, err := s.uploadImage(ctx, image)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	service := &entities.Service{
		ID:          uuid.New().String(),
		ProviderID:  principal.ID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Duration:    input.Duration,
		Category:    input.Category,
		Image:       input.Image,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.IsActive != nil {
		service.IsActive = *input.IsActive
	}
	if imageURL != "" {
		service.Image = imageURL
	}

	if err := s.services.Create(ctx, service); err != nil {
		return nil, err
	}

	s.index(ctx, service)
	publishEvent(ctx, s.events, entities.NewMarketplaceEvent(entities.EventTypeServiceUpdated, service.ID, service.ProviderID, nil))
	return service, nil
}

// UpdateService replaces the writable fields of one of the caller's services.
// A service owned by someone else is reported as not found.
func (s *CatalogService) UpdateService(ctx context.Context, principal entities.Principal, id string, input entities.ServiceInput, image *ImageFile) (*entities.Service, error) {
	if !principal.IsProvider() {
		return nil, apperrors.NewForbiddenError("Only providers can manage services")
	}
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("Service ID is required").WithField("id", "id is required")
	}
	input = trimServiceInput(input)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	service, err := s.ownedService(ctx, principal.ID, id)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.uploadImage(ctx, image)
	if err != nil {
		return nil, err
	}

	service.Title = input.Title
	service.Description = input.Description
	service.Price = input.Price
	service.Duration = input.Duration
	service.Category = input.Category
	if input.Image != "" {
		service.Image = input.Image
	}
	if imageURL != "" {
		service.Image = imageURL
	}
	if input.IsActive != nil {
		service.IsActive = *input.IsActive
	}

	if err := s.services.Update(ctx, service); err != nil {
		return nil, err
	}

	s.invalidate(ctx, service.ID)
	s.index(ctx, service)
	publishEvent(ctx, s.events, entities.NewMarketplaceEvent(entities.EventTypeServiceUpdated, service.ID, service.ProviderID, nil))
	return service, nil
}

// DeleteService removes one of the caller's services
func (s *CatalogService) DeleteService(ctx context.Context, principal entities.Principal, id string) error {
	if !principal.IsProvider() {
		return apperrors.NewForbiddenError("Only providers can manage services")
	}
	if strings.TrimSpace(id) == "" {
		return apperrors.NewValidationError("Service ID is required").WithField("id", "id is required")
	}

	if err := s.services.Delete(ctx, id, principal.ID); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	if s.search != nil {
		if err := s.search.Delete(ctx, id); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("service_id", id).Msg("failed to remove service from search index")
		}
	}
	publishEvent(ctx, s.events, entities.NewMarketplaceEvent(entities.EventTypeServiceDeleted, id, principal.ID, nil))
	return nil
}

// ListProviderServices returns every service owned by the caller
func (s *CatalogService) ListProviderServices(ctx context.Context, principal entities.Principal) ([]*entities.Service, error) {
	if !principal.IsProvider() {
		return nil, apperrors.NewForbiddenError("Only providers can manage services")
	}
	return s.services.List(ctx, repositories.ServiceFilter{ProviderID: principal.ID})
}

// ListServices returns the public listing with provider details attached
func (s *CatalogService) ListServices(ctx context.Context, query ListServicesQuery) ([]*entities.Service, error) {
	services, err := s.services.List(ctx, repositories.ServiceFilter{
		ProviderID: query.ProviderID,
		Category:   query.Category,
		ActiveOnly: query.ActiveOnly,
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
	if err != nil {
		return nil, err
	}
	s.loaders.For(ctx).PopulateServices(ctx, services)
	return services, nil
}

// GetService returns a single service, reading through the cache
func (s *CatalogService) GetService(ctx context.Context, id string) (*entities.Service, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("Service ID is required").WithField("id", "id is required")
	}

	service, err := s.cachedService(ctx, id)
	if err != nil {
		return nil, err
	}
	s.loaders.For(ctx).PopulateServices(ctx, []*entities.Service{service})
	return service, nil
}

// SearchServices runs a full-text search over active services. When the
// search index is unavailable the database is queried instead.
func (s *CatalogService) SearchServices(ctx context.Context, query SearchServicesQuery) ([]*entities.Service, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 {
		query.PerPage = defaultPerPage
	}
	if query.PerPage > maxPerPage {
		query.PerPage = maxPerPage
	}
	query.Query = strings.TrimSpace(query.Query)

	var (
		services []*entities.Service
		err      error
	)
	if s.search != nil {
		services, err = s.search.Search(ctx, repositories.SearchParams{
			Query:    query.Query,
			Category: query.Category,
			Page:     query.Page,
			PerPage:  query.PerPage,
		})
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("search index unavailable, falling back to database")
		}
	}
	if s.search == nil || err != nil {
		services, err = s.services.List(ctx, repositories.ServiceFilter{
			Query:      query.Query,
			Category:   query.Category,
			ActiveOnly: true,
			Limit:      query.PerPage,
			Offset:     (query.Page - 1) * query.PerPage,
		})
		if err != nil {
			return nil, err
		}
	}

	s.loaders.For(ctx).PopulateServices(ctx, services)
	return services, nil
}

// ReindexProvider refreshes the search documents of a provider's services,
// typically after its rating changed
func (s *CatalogService) ReindexProvider(ctx context.Context, providerID string, rating *entities.ProviderRating) error {
	if s.search == nil {
		return nil
	}
	services, err := s.services.List(ctx, repositories.ServiceFilter{ProviderID: providerID})
	if err != nil {
		return err
	}
	s.loaders.For(ctx).PopulateServices(ctx, services)

	var errs []error
	for _, service := range services {
		if err := s.search.Index(ctx, service, rating); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *CatalogService) ownedService(ctx context.Context, providerID, id string) (*entities.Service, error) {
	service, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if service.ProviderID != providerID {
		return nil, apperrors.NewNotFoundError("Service not found")
	}
	return service, nil
}

func (s *CatalogService) cachedService(ctx context.Context, id string) (*entities.Service, error) {
	key := ServiceCacheKey(id)
	logger := observability.LoggerFromContext(ctx)

	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var service entities.Service
			if jsonErr := json.Unmarshal(data, &service); jsonErr == nil {
				observability.RecordCacheHit(ctx, s.metrics, serviceCachePrefix)
				return &service, nil
			}
			logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
		case errors.Is(err, providers.ErrCacheMiss):
		default:
			logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		observability.RecordCacheMiss(ctx, s.metrics, serviceCachePrefix)
	}

	service, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(service); err == nil {
			if err := s.cache.Set(ctx, key, data, serviceCacheTTL); err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
			}
		}
	}
	return service, nil
}

func (s *CatalogService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, ServiceCacheKey(id)); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("service_id", id).Msg("failed to invalidate service cache")
	}
}

// index pushes a service to the search index with its provider's current rating
func (s *CatalogService) index(ctx context.Context, service *entities.Service) {
	if s.search == nil {
		return
	}
	var rating *entities.ProviderRating
	if provider, err := s.providers.GetByID(ctx, service.ProviderID); err == nil {
		rating = &entities.ProviderRating{ProviderID: provider.ID, Rating: provider.Rating, ReviewCount: provider.ReviewCount}
		service.Provider = loaders.ProviderRef(provider)
	}
	if err := s.search.Index(ctx, service, rating); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("service_id", service.ID).Msg("failed to index service")
	}
}

func (s *CatalogService) uploadImage(ctx context.Context, image *ImageFile) (string, error) {
	if image.Empty() {
		return "", nil
	}
	if s.uploader == nil {
		return "", apperrors.NewExternalError("Image upload is not configured", nil)
	}
	url, err := s.uploader.Upload(ctx, image.Data, image.Filename)
	if err != nil {
		return "", apperrors.NewExternalError("Image upload failed", err)
	}
	return url, nil
}

func trimServiceInput(input entities.ServiceInput) entities.ServiceInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	input.Image = strings.TrimSpace(input.Image)
	return input
}
