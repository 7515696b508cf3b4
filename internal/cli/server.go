package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"quiz-battle/internal/app"
	transport "quiz-battle/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the game server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Restore the saved game and serve it to the local presenter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b := &backends{}
	defer b.Close()
	store, err := b.snapshotStore(ctx, cfg)
	if err != nil {
		return err
	}
	poolRepo, err := b.poolRepository(ctx, cfg)
	if err != nil {
		return err
	}
	if _, err := poolRepo.GetPools(ctx); err != nil {
		return err
	}

	logger := log.With().Str("component", "game").Logger()
	service := app.NewGameService(ctx, store, poolRepo,
		app.WithRules(cfg.Rules()),
		app.WithLogger(logger),
	)

	runCtx, stopTicks := context.WithCancel(ctx)
	defer stopTicks()
	go service.Run(runCtx)

	addr := net.JoinHostPort(cfg.Server.Host, finalPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      transport.NewRouter(service, log.With().Str("component", "http").Logger()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("store", cfg.Store.Driver).Str("pools", cfg.Pools.Set).Msg("starting quiz battle")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
