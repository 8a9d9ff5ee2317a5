package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/di"
	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/version"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the authentication server",
	Long: `Start the HTTP server that authenticates NetworkSession requests.
The config file is watched and valid changes are applied without a restart.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	path := configPath()

	container, err := di.NewContainer(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to initialize")
		return err
	}

	loggerSvc, err := di.Invoke[*di.LoggerService](container)
	if err != nil {
		return err
	}
	log.Logger = *loggerSvc.Logger
	zerolog.DefaultContextLogger = loggerSvc.Logger

	serverSvc, err := di.Invoke[*di.ServerService](container)
	if err != nil {
		log.Error().Err(err).Msg("failed to build server")
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	di.MustInvoke[*di.ConfigService](container).StartWatching(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("listen", serverSvc.Server.Addr()).
			Str("version", version.String()).
			Msg("starting networksession")
		errCh <- serverSvc.Server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server error")
			_ = container.Shutdown()
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := container.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}
