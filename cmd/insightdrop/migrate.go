package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/InsightDrop/internal/config"
	"github.com/dharsanguruparan/InsightDrop/internal/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations against DATABASE_URL",
	}
	cmd.AddCommand(
		newMigrateStep("up", "Apply all pending migrations", database.EnsureSchema),
		newMigrateStep("down", "Roll back the most recent migration", database.MigrateDown),
	)
	return cmd
}

func newMigrateStep(name, short string, step func(context.Context, *pgxpool.Pool) error) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()
			if err := step(ctx, pool); err != nil {
				return fmt.Errorf("migrate %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", name)
			return nil
		},
	}
}
