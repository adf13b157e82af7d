// Package cli defines the cobra command tree for rentshed.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rentshed/internal/client"
	"github.com/evcraddock/rentshed/internal/config"
	"github.com/evcraddock/rentshed/internal/db"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shed",
		Short:         "Rent things from your neighbors",
		Long:          "A neighborhood rental board. Browse and rent items near you, chat with owners, and register your own things for rent via CLI, terminal UI or web UI.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "database path or postgres:// URL (default: SHED_DATABASE_URL or ~/.rentshed/shed.db)")

	root.AddCommand(
		newServeCmd(),
		newBrowseCmd(),
		newListCmd(),
		newShowCmd(),
		newRentCmd(),
		newAddCmd(),
		newMineCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newUserCmd(),
		newKeyCmd(),
		newMapKeyCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the database named by --db, then SHED_DATABASE_URL, then
// the default path. Used by the commands that work on local data.
func openDB(cfg config.Config) (*db.DB, error) {
	dsn := flagDB
	if dsn == "" {
		dsn = cfg.DatabaseURL
	}
	if dsn == "" {
		var err error
		dsn, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(dsn)
}

// newAPIClient creates an HTTP client for the rentshed API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *db.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
