package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"florist-storefront/internal/seed"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML catalog into the database",
		Long: `Load a YAML catalog into the database.

Without --file the catalog bundled with storectl is used. Records are
keyed by slug, so seeding twice is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := loadCatalog(file)
			if err != nil {
				return err
			}

			pool, err := rootOpts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := newCatalogServices(pool, rootOpts.logger(cmd, "seed"))
			res, err := seed.Apply(cmd.Context(), catalog, svc.categories, svc.products)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories, %d products, %d special items\n",
				res.Categories, res.Products, res.SpecialItems)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file")
	return cmd
}

func loadCatalog(path string) (seed.Catalog, error) {
	if path == "" {
		return seed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return seed.Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return seed.Parse(f)
}
