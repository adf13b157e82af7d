package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/rentshed/internal/config"
	"github.com/evcraddock/rentshed/internal/logging"
	"github.com/evcraddock/rentshed/internal/media"
	"github.com/evcraddock/rentshed/internal/web"
)

const sweepInterval = time.Minute

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and API",
		Long:  "Start an HTTP server for the web UI and the JSON API. Configuration comes from .env and SHED_* environment variables.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default: SHED_PORT or 8080)")

	return cmd
}

func runServe(ctx context.Context, port int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Port = port
	}
	logging.Setup(cfg.DevMode)

	database, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeDB(database)

	var uploader media.Uploader
	if cfg.Cloudinary.Configured() {
		cld, err := media.NewCloudinary(cfg.Cloudinary)
		if err != nil {
			return fmt.Errorf("configuring image uploads: %w", err)
		}
		uploader = cld
	} else {
		slog.Info("image uploads disabled, SHED_CLOUDINARY_* not set")
	}
	if !cfg.SMTP.IsConfigured() {
		slog.Info("rental notices disabled, SHED_SMTP_HOST/SHED_SMTP_FROM not set")
	}

	srv, err := web.NewServer(database, cfg, uploader)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		return srv.SweepBoards(ctx, sweepInterval)
	})
	return g.Wait()
}
