package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/username/vacation-calendar/internal/api"
	"github.com/username/vacation-calendar/internal/board"
	"github.com/username/vacation-calendar/internal/calendar"
	"github.com/username/vacation-calendar/internal/daemon"
	"github.com/username/vacation-calendar/internal/identity"
	"github.com/username/vacation-calendar/internal/repository"
	"github.com/username/vacation-calendar/pkg/random"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")

	return cmd
}

func serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fb := &firebaseApp{cfg: cfg.Firebase}

	docs, err := newDocumentStore(ctx, cfg.Store, fb)
	if err != nil {
		return err
	}
	defer docs.Close()

	provider, err := newIdentityProvider(ctx, cfg.Auth, docs, fb)
	if err != nil {
		return err
	}
	auth := identity.NewService(provider, logger)

	classifier := calendar.NewClassifier(newDayTypeSource(cfg.Calendar), logger)

	registry := board.NewRegistry(auth,
		repository.NewEmployees(docs, logger),
		repository.NewVacations(docs, logger),
		classifier,
		random.NewTimeSeeded(),
		logger)
	defer registry.Close()

	router := api.NewRouter(api.NewHandler(auth, registry, logger), cfg.Server.AllowedOrigins, logger)
	server := api.NewServer(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Daemon.Enabled {
		hour, minute := cfg.Daemon.GetDailyTime()
		preloader := daemon.New(classifier, hour, minute, cfg.Daemon.GetLocation(), logger)
		g.Go(func() error {
			return preloader.Run(gctx)
		})
	}

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", zap.Duration("timeout", cfg.Server.GetShutdownTimeout()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GetShutdownTimeout())
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return err
	}

	logger.Info("Server stopped")
	return nil
}
