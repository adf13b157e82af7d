package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rentshed/internal/client"
	"github.com/evcraddock/rentshed/internal/listing"
)

func newListCmd() *cobra.Command {
	var query, category, location string
	var reset bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items for rent",
		Long:  "List the items on your board. Filters are remembered on the board until changed or reset.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts client.ListOptions
			if reset {
				def := listing.DefaultFilter()
				opts = client.ListOptions{Query: &def.Query, Category: &def.Category, Location: &def.Location}
			}
			if cmd.Flags().Changed("search") {
				opts.Query = &query
			}
			if cmd.Flags().Changed("category") {
				c, err := parseCategory(category, true)
				if err != nil {
					return err
				}
				opts.Category = &c
			}
			if cmd.Flags().Changed("location") {
				l, err := parseLocation(location, true)
				if err != nil {
					return err
				}
				opts.Location = &l
			}
			return runList(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&query, "search", "s", "", "search text matched against titles")
	cmd.Flags().StringVar(&category, "category", "", "category (all, tools, camping, furniture, electronics, ...)")
	cmd.Flags().StringVar(&location, "location", "", "location code or name (all, hannam, yongsan, gangnam, ...)")
	cmd.Flags().BoolVar(&reset, "reset", false, "restore the default filter first")

	return cmd
}

func runList(w io.Writer, opts client.ListOptions) error {
	c := newAPIClient()

	boardID, err := currentBoard(c)
	if err != nil {
		return err
	}

	ls, err := c.ListListings(boardID, opts)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(w, ls)
	}

	return printListingTable(w, ls)
}

// parseCategory accepts a category value. allowAll permits "all".
func parseCategory(s string, allowAll bool) (string, error) {
	if allowAll && s == listing.All {
		return s, nil
	}
	if !listing.ValidCategory(s) {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return s, nil
}

// parseLocation accepts a location code or its label and returns the code.
func parseLocation(s string, allowAll bool) (string, error) {
	if allowAll && s == listing.All {
		return s, nil
	}
	if _, ok := listing.DistrictLabel(s); ok {
		return s, nil
	}
	if code, ok := listing.DistrictCode(s); ok {
		return code, nil
	}
	return "", fmt.Errorf("unknown location %q", s)
}
