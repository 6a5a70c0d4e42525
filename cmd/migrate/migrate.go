// Package migrate implements the schema migration commands.
package migrate

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/permit-scraper/cmd/common"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/database"
)

// Command returns the migrate command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, db, err := open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			return database.RunMigrations(db.DB, deps.Logger)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, db, err := open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			return database.MigrateDown(db.DB, steps, deps.Logger)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			version, dirty, err := database.MigrationVersion(db.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	})

	return cmd
}

func open(cmd *cobra.Command) (common.CommandDeps, *sqlx.DB, error) {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return deps, nil, err
	}
	db, err := deps.OpenDatabase(cmd.Context())
	if err != nil {
		return deps, nil, err
	}
	return deps, db, nil
}
