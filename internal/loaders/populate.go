package loaders

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// loadAll resolves keys and drops the ones that failed. References to rows
// that vanished are left empty rather than failing the whole listing.
func loadAll[T comparable](ctx context.Context, loader *dataloader.Loader[string, T], keys []string) map[string]T {
	out := make(map[string]T, len(keys))
	if len(keys) == 0 {
		return out
	}
	var zero T
	values, errs := loader.LoadMany(ctx, keys)()
	for i, key := range keys {
		if i >= len(values) || (i < len(errs) && errs[i] != nil) {
			continue
		}
		if values[i] != zero {
			out[key] = values[i]
		}
	}
	return out
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// UserRef projects a user for embedding
func UserRef(u *entities.User) *entities.UserRef {
	if u == nil {
		return nil
	}
	return &entities.UserRef{ID: u.ID, Name: u.Name, Email: u.Email, ProfilePhoto: u.ProfilePhoto}
}

// ReviewerRef projects a user as a review author, without contact details
func ReviewerRef(u *entities.User) *entities.ReviewerRef {
	if u == nil {
		return nil
	}
	return &entities.ReviewerRef{ID: u.ID, Name: u.Name, ProfilePhoto: u.ProfilePhoto}
}

// ProviderRef projects a provider for embedding
func ProviderRef(p *entities.Provider) *entities.ProviderRef {
	if p == nil {
		return nil
	}
	return &entities.ProviderRef{
		ID:           p.ID,
		BusinessName: p.DisplayName(),
		Email:        p.Email,
		Rating:       p.Rating,
		ReviewCount:  p.ReviewCount,
	}
}

// ServiceRef projects a service for embedding
func ServiceRef(s *entities.Service) *entities.ServiceRef {
	if s == nil {
		return nil
	}
	return &entities.ServiceRef{ID: s.ID, Title: s.Title, Price: s.Price, Duration: s.Duration, Category: s.Category}
}

// PopulateBookings fills the service, user and provider references
func (l *Loaders) PopulateBookings(ctx context.Context, bookings []*entities.Booking) {
	var serviceIDs, userIDs, providerIDs []string
	for _, b := range bookings {
		serviceIDs = append(serviceIDs, b.ServiceID)
		userIDs = append(userIDs, b.UserID)
		providerIDs = append(providerIDs, b.ProviderID)
	}

	services := loadAll(ctx, l.ServiceLoader, unique(serviceIDs))
	users := loadAll(ctx, l.UserLoader, unique(userIDs))
	providers := loadAll(ctx, l.ProviderLoader, unique(providerIDs))

	for _, b := range bookings {
		b.Service = ServiceRef(services[b.ServiceID])
		b.User = UserRef(users[b.UserID])
		b.Provider = ProviderRef(providers[b.ProviderID])
	}
}

// PopulateReviews fills the user and service references
func (l *Loaders) PopulateReviews(ctx context.Context, reviews []*entities.Review) {
	var userIDs, serviceIDs []string
	for _, r := range reviews {
		userIDs = append(userIDs, r.UserID)
		serviceIDs = append(serviceIDs, r.ServiceID)
	}

	users := loadAll(ctx, l.UserLoader, unique(userIDs))
	services := loadAll(ctx, l.ServiceLoader, unique(serviceIDs))

	for _, r := range reviews {
		r.User = ReviewerRef(users[r.UserID])
		r.Service = ServiceRef(services[r.ServiceID])
	}
}

// PopulateServices fills the provider reference
func (l *Loaders) PopulateServices(ctx context.Context, services []*entities.Service) {
	var providerIDs []string
	for _, s := range services {
		providerIDs = append(providerIDs, s.ProviderID)
	}

	providers := loadAll(ctx, l.ProviderLoader, unique(providerIDs))
	for _, s := range services {
		if p, ok := providers[s.ProviderID]; ok {
			s.Provider = ProviderRef(p)
		}
	}
}
