package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// CatalogService defines the catalog operations used by the handler
type CatalogService interface {
	CreateService(ctx context.Context, principal entities.Principal, input entities.ServiceInput, image *services.ImageFile) (*entities.Service, error)
	UpdateService(ctx context.Context, principal entities.Principal, id string, input entities.ServiceInput, image *services.ImageFile) (*entities.Service, error)
	DeleteService(ctx context.Context, principal entities.Principal, id string) error
	ListProviderServices(ctx context.Context, principal entities.Principal) ([]*entities.Service, error)
	ListServices(ctx context.Context, query services.ListServicesQuery) ([]*entities.Service, error)
	GetService(ctx context.Context, id string) (*entities.Service, error)
	SearchServices(ctx context.Context, query services.SearchServicesQuery) ([]*entities.Service, error)
}

// ServiceHandler handles the public catalog and provider service management
type ServiceHandler struct {
	catalog CatalogService
}

// NewServiceHandler creates a new service handler
func NewServiceHandler(catalog CatalogService) *ServiceHandler {
	return &ServiceHandler{catalog: catalog}
}

// serviceRequest is the JSON body of a create or update
type serviceRequest struct {
	ID string `json:"id"`
	entities.ServiceInput
}

// ListServices handles GET /api/services?providerId=&category=&activeOnly=
func (h *ServiceHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	activeOnly, err := queryBool(q, "activeOnly")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	limit, offset, err := pagination(q)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	list, err := h.catalog.ListServices(r.Context(), services.ListServicesQuery{
		ProviderID: q.Get("providerId"),
		Category:   q.Get("category"),
		ActiveOnly: activeOnly,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, nonNilServices(list))
}

// SearchServices handles GET /api/services/search?q=&category=&page=&perPage=
func (h *ServiceHandler) SearchServices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryInt(q, "page")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	perPage, err := queryInt(q, "perPage")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	list, err := h.catalog.SearchServices(r.Context(), services.SearchServicesQuery{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, nonNilServices(list))
}

// GetService handles GET /api/services/{id}
func (h *ServiceHandler) GetService(w http.ResponseWriter, r *http.Request) {
	service, err := h.catalog.GetService(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, service)
}

// ListProviderServices handles GET /api/provider/services
func (h *ServiceHandler) ListProviderServices(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	list, err := h.catalog.ListProviderServices(r.Context(), p)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, nonNilServices(list))
}

// CreateService handles POST /api/provider/services
func (h *ServiceHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	req, image, err := h.readServiceRequest(w, r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	service, err := h.catalog.CreateService(r.Context(), p, req.ServiceInput, image)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, service)
}

// UpdateService handles PUT /api/provider/services and
// PUT /api/provider/services/{id}. Without a path id the body carries it.
func (h *ServiceHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	req, image, err := h.readServiceRequest(w, r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		id = req.ID
	}

	service, err := h.catalog.UpdateService(r.Context(), p, id, req.ServiceInput, image)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, service)
}

// DeleteService handles DELETE /api/provider/services?id= and
// DELETE /api/provider/services/{id}
func (h *ServiceHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}

	if err := h.catalog.DeleteService(r.Context(), p, id); err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithMessage(w, http.StatusOK, "Service deleted successfully")
}

// readServiceRequest accepts either a multipart form with an optional image
// file or a JSON body
func (h *ServiceHandler) readServiceRequest(w http.ResponseWriter, r *http.Request) (*serviceRequest, *services.ImageFile, error) {
	if !isMultipart(r) {
		var req serviceRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return nil, nil, err
		}
		return &req, nil, nil
	}

	if err := parseMultipart(w, r); err != nil {
		return nil, nil, err
	}

	req := &serviceRequest{
		ID: r.FormValue("id"),
		ServiceInput: entities.ServiceInput{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Category:    r.FormValue("category"),
		},
	}

	invalid := apperrors.NewValidationError("Validation failed")
	hasInvalid := false
	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			invalid.WithField("price", "must be a number")
			hasInvalid = true
		}
		req.Price = price
	}
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		duration, err := strconv.Atoi(raw)
		if err != nil {
			invalid.WithField("duration", "must be a whole number of minutes")
			hasInvalid = true
		}
		req.Duration = duration
	}
	if raw := strings.TrimSpace(r.FormValue("isActive")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			invalid.WithField("isActive", "must be true or false")
			hasInvalid = true
		}
		req.IsActive = &active
	}
	if hasInvalid {
		return nil, nil, invalid
	}

	image, err := formImage(r, "image")
	if err != nil {
		return nil, nil, err
	}
	return req, image, nil
}

func nonNilServices(list []*entities.Service) []*entities.Service {
	if list == nil {
		return []*entities.Service{}
	}
	return list
}
