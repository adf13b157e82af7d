package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newRentCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "rent <id>",
		Short: "Rent an item",
		Long:  "Confirm a rental. The listing stays on the board marked as rented out. When logged in, rentals of registered items are recorded on your account.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRent(cmd.OutOrStdout(), args[0], hours)
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 1, "rental length in hours")

	return cmd
}

func runRent(w io.Writer, id string, hours int) error {
	if hours <= 0 {
		return fmt.Errorf("hours must be positive")
	}

	c := newAPIClient()

	boardID, err := currentBoard(c)
	if err != nil {
		return err
	}

	res, err := c.Rent(boardID, id, hours)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(w, res)
	}

	if !res.Confirmed {
		fmt.Fprintf(w, "Listing #%s is already rented out.\n", id)
		return nil
	}
	fmt.Fprintf(w, "✓ Rented listing #%s.\n", id)
	if res.Rental != nil {
		fmt.Fprintf(w, "  Until: %s\n", res.Rental.EndDate.Local().Format("2006-01-02 15:04"))
		fmt.Fprintf(w, "  Cost:  %s\n", formatPrice(res.Rental.TotalCost))
	}
	return nil
}
