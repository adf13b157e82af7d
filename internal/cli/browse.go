package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rentshed/internal/config"
	"github.com/evcraddock/rentshed/internal/db"
	"github.com/evcraddock/rentshed/internal/item"
	"github.com/evcraddock/rentshed/internal/listing"
	"github.com/evcraddock/rentshed/internal/logging"
	"github.com/evcraddock/rentshed/internal/session"
	"github.com/evcraddock/rentshed/internal/settings"
	"github.com/evcraddock/rentshed/internal/tui"
)

func newBrowseCmd() *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse items in the terminal",
		Long:  "Open the interactive terminal UI over the local database: search, filter, view details, chat with owners and rent. Rentals made here last for the session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(logFile)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file (default: logs are discarded)")

	return cmd
}

func runBrowse(logFile string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if logFile != "" {
		closeLog, err := logging.SetupFile(logFile, cfg.DevMode)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer func() {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: closing log file: %v\n", err)
			}
		}()
	} else {
		logging.Discard()
	}

	database, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeDB(database)

	ctrl, err := newLocalController(database, cfg)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	return tui.Run(ctrl)
}

// newLocalController builds a browsing session over the static listings
// and the available registered items in the local database.
func newLocalController(d *db.DB, cfg config.Config) (*session.Controller, error) {
	seed, err := item.NewService(item.NewRepository(d), nil).SeedListings()
	if err != nil {
		return nil, err
	}
	catalog, err := listing.NewCatalog(seed)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}
	return session.NewController(catalog, session.Options{
		Keys: settings.NewStore(d),
		Chat: session.ChatOptions{ReplyDelay: cfg.ChatReplyDelay},
	}), nil
}
