package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newMapKeyCmd() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "map-key [key]",
		Short: "Show, set or clear the map API key",
		Long:  "Without arguments, reports whether the server has a map API key. With a key, saves it. Requires login.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			return runMapKey(cmd.OutOrStdout(), key, remove)
		},
	}

	cmd.Flags().BoolVar(&remove, "clear", false, "remove the saved key")

	return cmd
}

func runMapKey(w io.Writer, key string, remove bool) error {
	c := newAPIClient()

	switch {
	case remove && key != "":
		return fmt.Errorf("give a key or --clear, not both")
	case remove:
		if err := c.DeleteMapKey(); err != nil {
			return err
		}
		fmt.Fprintln(w, "✓ Map API key removed.")
		return nil
	case key != "":
		if err := c.SetMapKey(key); err != nil {
			return err
		}
		fmt.Fprintln(w, "✓ Map API key saved.")
		return nil
	}

	configured, err := c.MapKeyConfigured()
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(w, map[string]bool{"configured": configured})
	}
	if configured {
		fmt.Fprintln(w, "Map API key: configured")
	} else {
		fmt.Fprintln(w, "Map API key: not configured")
	}
	return nil
}
