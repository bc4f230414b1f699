package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"florist-storefront/internal/slug"
)

// NewSlugCommand creates the slug command, which prints the slug that
// catalog records with the given name would get.
func NewSlugCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "slug <text>...",
		Short: "Print the slug generated for a name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if check {
				if !slug.IsValid(text) {
					return fmt.Errorf("%q is not a valid slug", text)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			}
			s, err := slug.Derive(text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "validate the argument as a slug instead of generating one")
	return cmd
}
