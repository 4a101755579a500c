package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/servicehub/internal/adapters/database"
	"github.com/zatekoja/servicehub/internal/adapters/search"
	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	"github.com/zatekoja/servicehub/internal/loaders"
	"github.com/zatekoja/servicehub/pkg/config"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

const seedPassword = "password123"

type seedProvider struct {
	account  services.RegisterInput
	services []entities.ServiceInput
}

func seedData() ([]services.RegisterInput, []seedProvider) {
	active := true

	users := []services.RegisterInput{
		{Role: entities.RoleUser, Name: "Jane Doe", Email: "jane@example.com", Password: seedPassword, Phone: "555-0101", Address: "12 Elm Street"},
		{Role: entities.RoleUser, Name: "Sam Lee", Email: "sam@example.com", Password: seedPassword, Phone: "555-0102", Address: "48 Oak Avenue"},
	}

	providerSeeds := []seedProvider{
		{
			account: services.RegisterInput{
				Role: entities.RoleProvider, Name: "Maria Lopez", Email: "sparkle@example.com", Password: seedPassword,
				BusinessName: "Sparkle Cleaning Co", ContactInfo: "555-0201", LicenseNumber: "CLN-1001",
				Cities: []string{"Austin", "Round Rock"}, Services: []string{"Cleaning"},
				Description: "Residential and move-out cleaning",
			},
			services: []entities.ServiceInput{
				{Title: "Standard Home Cleaning", Description: "Kitchen, bathrooms, floors and dusting", Price: 120, Duration: 120, Category: "Cleaning", IsActive: &active},
				{Title: "Deep Clean", Description: "Inside appliances, baseboards and windows", Price: 240, Duration: 240, Category: "Cleaning", IsActive: &active},
			},
		},
		{
			account: services.RegisterInput{
				Role: entities.RoleProvider, Name: "Tom Becker", Email: "fixit@example.com", Password: seedPassword,
				BusinessName: "FixIt Plumbing", ContactInfo: "555-0202", LicenseNumber: "PLB-2002",
				Cities: []string{"Austin"}, Services: []string{"Plumbing"},
				Description: "Licensed plumbers for repairs and installs",
			},
			services: []entities.ServiceInput{
				{Title: "Leak Repair", Description: "Diagnose and fix leaking pipes or fixtures", Price: 95, Duration: 60, Category: "Plumbing", IsActive: &active},
				{Title: "Water Heater Install", Description: "Remove old unit and install a new tank heater", Price: 450, Duration: 180, Category: "Plumbing", IsActive: &active},
			},
		},
		{
			account: services.RegisterInput{
				Role: entities.RoleProvider, Name: "Ana Kim", Email: "greenthumb@example.com", Password: seedPassword,
				BusinessName: "Green Thumb Gardens", ContactInfo: "555-0203", LicenseNumber: "LND-3003",
				Cities: []string{"Austin", "Cedar Park"}, Services: []string{"Gardening"},
			},
			services: []entities.ServiceInput{
				{Title: "Lawn Mowing", Description: "Mow, edge and blow for yards up to half an acre", Price: 45, Duration: 45, Category: "Gardening", IsActive: &active},
			},
		},
	}

	return users, providerSeeds
}

func seedCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users, providers and services",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runSeed(ctx, reset)
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "truncate marketplace tables before seeding")

	return cmd
}

func runSeed(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	if reset {
		log.Info().Msg("Truncating marketplace tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE reviews, bookings, services, providers, users CASCADE`); err != nil {
			return fmt.Errorf("reset tables: %w", err)
		}
	}

	var searchRepo repositories.ServiceSearchRepository
	if tsClient, err := typesense.NewClient(ctx, &cfg.Typesense); err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable, seeded services will not be indexed")
	} else {
		if err := tsClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to init Typesense schema")
		}
		searchRepo = search.NewTypesenseAdapter(tsClient)
	}

	userRepo := database.NewUserAdapter(pgClient)
	providerRepo := database.NewProviderAdapter(pgClient)
	serviceRepo := database.NewServiceAdapter(pgClient)

	accounts := services.NewAccountService(userRepo, providerRepo, nil, nil, nil)
	catalog := services.NewCatalogService(services.CatalogDependencies{
		Services:  serviceRepo,
		Providers: providerRepo,
		Search:    searchRepo,
		Loaders:   loaders.NewFactory(userRepo, providerRepo, serviceRepo),
	})

	users, providerSeeds := seedData()

	for _, input := range users {
		if _, err := accounts.Register(ctx, input); err != nil {
			logSeedFailure("user", input.Email, err)
		}
	}

	created := 0
	for _, seed := range providerSeeds {
		summary, err := accounts.Register(ctx, seed.account)
		if err != nil {
			logSeedFailure("provider", seed.account.Email, err)
			continue
		}

		principal := entities.Principal{ID: summary.ID, Email: summary.Email, Role: entities.RoleProvider}
		for _, input := range seed.services {
			if _, err := catalog.CreateService(ctx, principal, input, nil); err != nil {
				log.Error().Err(err).Str("provider", summary.Email).Str("title", input.Title).Msg("Failed to create service")
				continue
			}
			created++
		}
	}

	log.Info().
		Int("users", len(users)).
		Int("providers", len(providerSeeds)).
		Int("services_created", created).
		Str("password", seedPassword).
		Msg("Seeding complete")
	return nil
}

func logSeedFailure(kind, email string, err error) {
	if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
		log.Info().Str("kind", kind).Str("email", email).Msg("Already seeded, skipping")
		return
	}
	log.Error().Err(err).Str("kind", kind).Str("email", email).Msg("Failed to seed account")
}
