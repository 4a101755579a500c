package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/servicehub/pkg/config"
	"github.com/zatekoja/servicehub/pkg/retry"
)

// ServicesCollection holds one document per service listing
const ServicesCollection = "services"

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client and waits for the health endpoint
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 5
	retryCfg.MaxTotalTimeout = 15 * time.Second

	err := retry.DoWithLog(ctx, retryCfg, "Typesense", func() error {
		healthy, err := client.Health(ctx, 2*time.Second)
		if err != nil {
			return err
		}
		if !healthy {
			return fmt.Errorf("typesense reports unhealthy")
		}
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense connection attempt failed")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("Connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// InitSchema ensures the services collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	if _, err := c.client.Collection(ServicesCollection).Retrieve(ctx); err == nil {
		return nil
	}

	_, err := c.client.Collections().Create(ctx, ServicesSchema())
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", ServicesCollection, err)
	}

	log.Info().Str("collection", ServicesCollection).Msg("Created Typesense collection")
	return nil
}

// ServicesSchema describes the services collection
func ServicesSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: ServicesCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "provider_id", Type: "string", Facet: pointer.True()},
			{Name: "title", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "category", Type: "string", Facet: pointer.True()},
			{Name: "price", Type: "float", Facet: pointer.True()},
			{Name: "duration", Type: "int32"},
			{Name: "image", Type: "string", Optional: pointer.True()},
			{Name: "is_active", Type: "bool"},
			{Name: "provider_name", Type: "string", Optional: pointer.True()},
			{Name: "provider_rating", Type: "float"},
			{Name: "provider_review_count", Type: "int32"},
			{Name: "tags", Type: "string[]", Optional: pointer.True()},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}
}
