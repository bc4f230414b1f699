package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"florist-storefront/internal/importer"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import categories or products from a CSV file",
		Long: `Import categories or products from a CSV file.

A file with a price column is read as products (type, category, name,
slug, description, price, image, active); otherwise as categories (name,
slug, description, sort_order).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			pool, err := rootOpts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := newCatalogServices(pool, rootOpts.logger(cmd, "import"))
			imp := importer.NewCSVImporter(f, svc.products, svc.categories)

			start := time.Now()
			count, err := imp.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("import failed after %d records: %w", count, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records from %s in %s\n", count, args[0], time.Since(start).Truncate(time.Millisecond))
			return nil
		},
	}
	return cmd
}
