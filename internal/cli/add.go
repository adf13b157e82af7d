package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rentshed/internal/item"
	"github.com/evcraddock/rentshed/internal/media"
)

func newAddCmd() *cobra.Command {
	var req item.RegisterRequest
	var hourly, daily int64

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Register an item for rent",
		Long:  "Register one of your things so neighbors can rent it. Requires login.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Title = strings.Join(args, " ")
			if cmd.Flags().Changed("hourly") {
				req.HourlyRate = &hourly
			}
			if cmd.Flags().Changed("daily") {
				req.DailyRate = &daily
			}
			return runAdd(cmd.OutOrStdout(), req)
		},
	}

	cmd.Flags().Int64Var(&req.OriginalPrice, "price", 0, "original purchase price in won")
	cmd.Flags().Int64Var(&hourly, "hourly", 0, "rental rate per hour in won")
	cmd.Flags().Int64Var(&daily, "daily", 0, "rental rate per day in won")
	cmd.Flags().IntVar(&req.Quantity, "quantity", 1, "number of units")
	cmd.Flags().StringVar(&req.Category, "category", "", "category (tools, camping, furniture, electronics, sports, kitchen, cleaning, others)")
	cmd.Flags().StringVar(&req.Location, "location", "", "location code or name (e.g. hannam)")
	cmd.Flags().StringVar(&req.Description, "description", "", "description")
	cmd.Flags().StringVar(&req.Image, "image", "", "image URL")

	return cmd
}

func runAdd(w io.Writer, req item.RegisterRequest) error {
	if req.Image != "" && !media.IsRemote(req.Image) {
		return fmt.Errorf("--image must be an http(s) URL")
	}
	if _, err := parseCategory(req.Category, false); err != nil {
		return err
	}
	loc, err := parseLocation(req.Location, false)
	if err != nil {
		return err
	}
	req.Location = loc

	it, err := newAPIClient().AddItem(req)
	if err != nil {
		return fmt.Errorf("registering item: %w", err)
	}

	if isJSON() {
		return printJSON(w, it)
	}

	fmt.Fprintf(w, "✓ Registered %q (#%s).\n", it.Title, it.ID)
	return nil
}
