package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/servicehub/internal/infrastructure/migrations"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	"github.com/zatekoja/servicehub/pkg/config"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *migrations.Migrator) error {
				return m.Up(ctx)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which migrations have been applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *migrations.Migrator) error {
				return m.Status(ctx)
			})
		},
	})

	return cmd
}

func withMigrator(ctx context.Context, fn func(context.Context, *migrations.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

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

	migrator, err := migrations.NewMigrator(pgClient.DB())
	if err != nil {
		return err
	}
	return fn(ctx, migrator)
}
