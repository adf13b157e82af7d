package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rentshed/internal/item"
	"github.com/evcraddock/rentshed/internal/rental"
)

func newMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "Show your items and rentals",
		Long:  "Show the items you registered and the things you rented. Requires login.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMine(cmd.OutOrStdout())
		},
	}
}

func runMine(w io.Writer) error {
	c := newAPIClient()

	items, err := c.ListItems()
	if err != nil {
		return fmt.Errorf("loading items: %w", err)
	}
	rentals, err := c.ListRentals()
	if err != nil {
		return fmt.Errorf("loading rentals: %w", err)
	}

	if isJSON() {
		return printJSON(w, struct {
			Items   []*item.Item     `json:"items"`
			Rentals []*rental.Rental `json:"rentals"`
		}{items, rentals})
	}

	fmt.Fprintln(w, "My items:")
	if err := printItemTable(w, items); err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "My rentals:")
	return printRentalTable(w, rentals)
}
