package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	tsclient "github.com/zatekoja/servicehub/internal/infrastructure/clients/typesense"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// TypesenseAdapter implements service search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.ServiceSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index upserts a service document
func (a *TypesenseAdapter) Index(ctx context.Context, service *entities.Service, rating *entities.ProviderRating) error {
	_, err := a.client.Client().Collection(tsclient.ServicesCollection).Documents().Upsert(ctx, serviceDocument(service, rating))
	if err != nil {
		return fmt.Errorf("failed to index service: %w", err)
	}
	return nil
}

// Delete removes a service from index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.ServicesCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete service from index: %w", err)
	}
	return nil
}

// Search searches active services
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Service, error) {
	result, err := a.client.Client().Collection(tsclient.ServicesCollection).Documents().Search(ctx, searchParams(params))
	if err != nil {
		return nil, fmt.Errorf("failed to search services: %w", err)
	}

	services := []*entities.Service{}
	if result.Hits == nil {
		return services, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		services = append(services, serviceFromDocument(*hit.Document))
	}
	return services, nil
}

func searchParams(params repositories.SearchParams) *api.SearchCollectionParams {
	q := strings.TrimSpace(params.Query)
	if q == "" {
		q = "*"
	}

	perPage := params.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	page := params.Page
	if page < 1 {
		page = 1
	}

	filters := []string{"is_active:=true"}
	if params.Category != "" {
		filters = append(filters, fmt.Sprintf("category:=`%s`", strings.ReplaceAll(params.Category, "`", "")))
	}
	if params.ProviderID != "" {
		filters = append(filters, fmt.Sprintf("provider_id:=`%s`", strings.ReplaceAll(params.ProviderID, "`", "")))
	}

	return &api.SearchCollectionParams{
		Q:        pointer.String(q),
		QueryBy:  pointer.String("title,category,tags,description,provider_name"),
		FilterBy: pointer.String(strings.Join(filters, " && ")),
		SortBy:   pointer.String("_text_match:desc,provider_rating:desc,created_at:desc"),
		Page:     pointer.Int(page),
		PerPage:  pointer.Int(perPage),
	}
}

func serviceDocument(service *entities.Service, rating *entities.ProviderRating) map[string]interface{} {
	doc := map[string]interface{}{
		"id":                    service.ID,
		"provider_id":           service.ProviderID,
		"title":                 service.Title,
		"description":           service.Description,
		"category":              service.Category,
		"price":                 service.Price,
		"duration":              service.Duration,
		"image":                 service.Image,
		"is_active":             service.IsActive,
		"provider_rating":       0.0,
		"provider_review_count": 0,
		"tags":                  buildServiceTags(service),
		"created_at":            service.CreatedAt.Unix(),
	}
	if rating != nil {
		doc["provider_rating"] = rating.Rating
		doc["provider_review_count"] = rating.ReviewCount
	}
	if service.Provider != nil {
		doc["provider_name"] = service.Provider.BusinessName
	}
	return doc
}

func serviceFromDocument(doc map[string]interface{}) *entities.Service {
	service := &entities.Service{
		ID:          stringField(doc, "id"),
		ProviderID:  stringField(doc, "provider_id"),
		Title:       stringField(doc, "title"),
		Description: stringField(doc, "description"),
		Category:    stringField(doc, "category"),
		Image:       stringField(doc, "image"),
	}
	if v, ok := doc["price"].(float64); ok {
		service.Price = v
	}
	if v, ok := doc["duration"].(float64); ok {
		service.Duration = int(v)
	}
	if v, ok := doc["is_active"].(bool); ok {
		service.IsActive = v
	}
	if v, ok := doc["created_at"].(float64); ok {
		service.CreatedAt = time.Unix(int64(v), 0).UTC()
	}

	ref := &entities.ProviderRef{ID: service.ProviderID, BusinessName: stringField(doc, "provider_name")}
	if v, ok := doc["provider_rating"].(float64); ok {
		ref.Rating = v
	}
	if v, ok := doc["provider_review_count"].(float64); ok {
		ref.ReviewCount = int(v)
	}
	service.Provider = ref
	return service
}

func stringField(doc map[string]interface{}, key string) string {
	v, _ := doc[key].(string)
	return v
}

// buildServiceTags lowercases and dedupes the category and title words
func buildServiceTags(service *entities.Service) []string {
	if service == nil {
		return nil
	}
	seen := map[string]struct{}{}
	tags := []string{}
	add := func(values ...string) {
		for _, v := range values {
			v = strings.ToLower(strings.TrimSpace(v))
			if len(v) < 3 {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			tags = append(tags, v)
		}
	}
	add(service.Category)
	add(strings.Fields(service.Title)...)
	return tags
}
