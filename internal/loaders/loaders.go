package loaders

import (
	"context"
	"fmt"
	"net/http"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders batches the reference lookups made while rendering listings.
// A Loaders caches for its lifetime, so one is created per request.
type Loaders struct {
	UserLoader     *dataloader.Loader[string, *entities.User]
	ProviderLoader *dataloader.Loader[string, *entities.Provider]
	ServiceLoader  *dataloader.Loader[string, *entities.Service]
}

// Factory builds Loaders over the repositories
type Factory struct {
	users     repositories.UserRepository
	providers repositories.ProviderRepository
	services  repositories.ServiceRepository
}

// NewFactory creates a loader factory
func NewFactory(users repositories.UserRepository, providers repositories.ProviderRepository, services repositories.ServiceRepository) *Factory {
	return &Factory{users: users, providers: providers, services: services}
}

// New creates a fresh set of loaders
func (f *Factory) New() *Loaders {
	return &Loaders{
		UserLoader: dataloader.NewBatchedLoader(batch("user", f.users.GetByIDs, func(u *entities.User) string {
			return u.ID
		})),
		ProviderLoader: dataloader.NewBatchedLoader(batch("provider", f.providers.GetByIDs, func(p *entities.Provider) string {
			return p.ID
		})),
		ServiceLoader: dataloader.NewBatchedLoader(batch("service", f.services.GetByIDs, func(s *entities.Service) string {
			return s.ID
		})),
	}
}

// For returns the request's loaders, or a fresh set outside a request
func (f *Factory) For(ctx context.Context) *Loaders {
	if l, ok := ctx.Value(loadersKey).(*Loaders); ok && l != nil {
		return l
	}
	return f.New()
}

// Middleware attaches a fresh set of loaders to every request
func (f *Factory) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithLoaders(r.Context(), f.New())))
	})
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

func batch[T any](kind string, get func(context.Context, []string) ([]T, error), id func(T) string) dataloader.BatchFunc[string, T] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[T] {
		results := make([]*dataloader.Result[T], len(keys))
		items, err := get(ctx, keys)

		byID := make(map[string]T, len(items))
		if err == nil {
			for _, item := range items {
				byID[id(item)] = item
			}
		}

		for i, key := range keys {
			if err != nil {
				results[i] = &dataloader.Result[T]{Error: err}
			} else if item, ok := byID[key]; ok {
				results[i] = &dataloader.Result[T]{Data: item}
			} else {
				results[i] = &dataloader.Result[T]{Error: fmt.Errorf("%s %s not found", kind, key)}
			}
		}
		return results
	}
}
