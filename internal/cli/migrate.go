package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"florist-storefront/internal/migrate"
)

// NewMigrateCommand creates the migrate command and its up/down/version
// subcommands.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := rootOpts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := migrate.Apply(cmd.Context(), pool); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			pool, err := rootOpts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := migrate.Rollback(cmd.Context(), pool, steps); err != nil {
				return fmt.Errorf("rollback migrations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := rootOpts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			v, dirty, err := migrate.Version(cmd.Context(), pool)
			if err != nil {
				return fmt.Errorf("read version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty=%t\n", v, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}
