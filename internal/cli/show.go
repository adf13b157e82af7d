package cli

import (
	"io"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show item details",
		Long:  "Show full details for a listing on your board.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.OutOrStdout(), args[0])
		},
	}
}

func runShow(w io.Writer, id string) error {
	c := newAPIClient()

	boardID, err := currentBoard(c)
	if err != nil {
		return err
	}

	l, err := c.GetListing(boardID, id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(w, l)
	}

	printListingSummary(w, l)
	return nil
}
