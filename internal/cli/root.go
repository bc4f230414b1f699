// Package cli implements storectl, the storefront admin command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"florist-storefront/internal/config"
	"florist-storefront/internal/db"
	categoryrepo "florist-storefront/internal/repository/category"
	productrepo "florist-storefront/internal/repository/product"
	specialitemrepo "florist-storefront/internal/repository/specialitem"
	categorysvc "florist-storefront/internal/service/category"
	productsvc "florist-storefront/internal/service/product"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DSN     string
	Verbose bool
}

// NewRootCommand creates the root command for storectl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	cfg := config.FromEnv()

	cmd := &cobra.Command{
		Use:           "storectl",
		Short:         "Florist storefront administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", cfg.DBConnString, "postgres connection string (defaults to DB_DSN)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewSlugCommand())

	return cmd
}

func (o *RootOptions) logger(cmd *cobra.Command, prefix string) *log.Logger {
	if !o.Verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "["+prefix+"] ", log.LstdFlags|log.LUTC|log.Lshortfile)
}

func (o *RootOptions) connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := db.Connect(ctx, o.DSN, db.PoolOptions{MaxConns: 2})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return pool, nil
}

type catalogServices struct {
	categories *categorysvc.Service
	products   *productsvc.Service
}

func newCatalogServices(pool *pgxpool.Pool, logger *log.Logger) catalogServices {
	categories := categoryrepo.NewPostgres(pool)
	return catalogServices{
		categories: categorysvc.New(categories),
		products:   productsvc.New(productrepo.NewPostgres(pool, logger), specialitemrepo.NewPostgres(pool), categories),
	}
}
