package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"schedr/internal/store"
)

func newMigrateCmd(state *cliState) *cobra.Command {
	var dryRun bool
	var inspect bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run or inspect database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if state.cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}
			db, err := store.OpenRaw(state.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if !inspect && !dryRun {
				if err := store.Migrate(db); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}

			plan, err := store.MigrationPlan(db)
			if err != nil {
				return fmt.Errorf("inspect migrations: %w", err)
			}
			if state.jsonOutput {
				return writeJSON(plan)
			}

			if !inspect && !dryRun {
				return writePlain("Migrations applied successfully (version %d).\n", plan.CurrentVersion)
			}
			if err := writePlain("Current version: %d\nAvailable version: %d\n", plan.CurrentVersion, plan.AvailableVersion); err != nil {
				return err
			}
			if len(plan.Pending) == 0 {
				return writePlain("No pending migrations.\n")
			}
			if err := writePlain("Pending migrations: %d\n", len(plan.Pending)); err != nil {
				return err
			}
			for _, m := range plan.Pending {
				if err := writePlain("  %d: %s\n", m.Version, m.Description); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show pending migrations without applying")
	cmd.Flags().BoolVar(&inspect, "inspect", false, "show migration status")

	return cmd
}
