package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/evcraddock/rentshed/internal/client"
	"github.com/evcraddock/rentshed/internal/item"
	"github.com/evcraddock/rentshed/internal/listing"
	"github.com/evcraddock/rentshed/internal/rental"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printListingSummary prints a single listing in text format.
func printListingSummary(w io.Writer, l *listing.Listing) {
	fmt.Fprintf(w, "Listing #%s\n", l.ID)
	fmt.Fprintf(w, "  Title:     %s\n", l.Title)
	fmt.Fprintf(w, "  Price:     %s\n", formatPrice(l.Price))
	fmt.Fprintf(w, "  Per hour:  %s\n", formatRate(l.HourlyRate))
	fmt.Fprintf(w, "  Category:  %s\n", l.Category.Label())
	fmt.Fprintf(w, "  Location:  %s\n", l.Location)
	if l.TimeAgo != "" {
		fmt.Fprintf(w, "  Posted:    %s\n", l.TimeAgo)
	}
	fmt.Fprintf(w, "  Status:    %s\n", availability(l.Available))
}

// printListingTable prints a board's view as a formatted table.
func printListingTable(w io.Writer, ls *client.Listings) error {
	fmt.Fprintf(w, "Filter: %s\n\n", describeFilter(ls.Filter))

	if len(ls.Listings) == 0 {
		fmt.Fprintln(w, "No items match your search.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tPER HOUR\tLOCATION\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t-----\t-----\t--------\t--------\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, l := range ls.Listings {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(l.ID, 12), truncate(l.Title, 40), formatPrice(l.Price),
			formatRate(l.HourlyRate), l.Location, availability(l.Available)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(w, "\n%d items (of %d)\n", ls.Count, ls.Total)
	return nil
}

// printItemTable prints registered items.
func printItemTable(w io.Writer, items []*item.Item) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "No registered items.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tTITLE\tPER HOUR\tPER DAY\tLOCATION\tAVAILABLE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, it := range items {
		label, ok := listing.DistrictLabel(it.Location)
		if !ok {
			label = it.Location
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d of %d\n",
			truncate(it.ID, 12), truncate(it.Title, 40), formatRate(it.HourlyRate),
			formatRate(it.DailyRate), label, it.AvailableQuantity, it.Quantity); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return tw.Flush()
}

// printRentalTable prints rentals.
func printRentalTable(w io.Writer, rentals []*rental.Rental) error {
	if len(rentals) == 0 {
		fmt.Fprintln(w, "You have not rented anything yet.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ITEM\tFROM\tUNTIL\tCOST\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, r := range rentals {
		title := r.ItemTitle
		if title == "" {
			title = r.ItemID
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			truncate(title, 40), r.StartDate.Local().Format("2006-01-02 15:04"),
			r.EndDate.Local().Format("2006-01-02 15:04"), formatPrice(r.TotalCost), r.Status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return tw.Flush()
}

func describeFilter(f listing.Filter) string {
	category := "all categories"
	if f.Category != "" && f.Category != listing.All {
		category = listing.Category(f.Category).Label()
	}
	location := "all locations"
	if label, ok := listing.DistrictLabel(f.Location); ok {
		location = label
	}
	if f.Query == "" {
		return category + " in " + location
	}
	return fmt.Sprintf("%q, %s in %s", f.Query, category, location)
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "rented out"
}

// formatPrice formats an amount in won with thousands separators.
func formatPrice(won int64) string {
	return humanize.Comma(won) + " won"
}

// formatRate formats an optional rate, "-" when unset.
func formatRate(won *int64) string {
	if won == nil {
		return "-"
	}
	return formatPrice(*won)
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
