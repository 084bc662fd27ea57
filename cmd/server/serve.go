package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mcoot/drawphone/internal/api"
	"github.com/mcoot/drawphone/internal/factory"
)

func newServeCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic inactivity sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
}

func newSweepCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run a single inactivity sweep and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sweepOnce(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

func serve(ctx context.Context, cfg *Config) error {
	logger := newLogger(cfg)

	app, err := factory.New(ctx, cfg.factoryConfig(logger))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	routerCfg := api.RouterConfig{
		Logger:         logger,
		GameController: app.Games,
		ChatHandler:    app.Chat,
	}
	if cfg.objectStore == factory.ObjectStoreLocal {
		routerCfg.FilesDir = cfg.localStoreDir
	}

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.port
	server := api.NewServer(api.NewRouter(routerCfg), serverConfig, logger)

	if err := server.Listen(); err != nil {
		return err
	}

	if cfg.sweepInterval > 0 {
		go app.Escalator.Run(ctx, cfg.sweepInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}

func sweepOnce(ctx context.Context, cfg *Config, out io.Writer) error {
	logger := newLogger(cfg)

	app, err := factory.New(ctx, cfg.factoryConfig(logger))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	result, err := app.Escalator.Sweep(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "swept %d games: %d reminded, %d dropped\n", result.Games, result.Reminded, result.Dropped)
	return nil
}
