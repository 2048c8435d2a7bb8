package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"SOULKNOT_BACK-END/internal/config"
	"SOULKNOT_BACK-END/internal/handlers"
	"SOULKNOT_BACK-END/internal/logger"
	"SOULKNOT_BACK-END/internal/middleware"
	"SOULKNOT_BACK-END/internal/payment"
	"SOULKNOT_BACK-END/internal/routes"
	"SOULKNOT_BACK-END/internal/store"
	"SOULKNOT_BACK-END/internal/store/memstore"
	"SOULKNOT_BACK-END/internal/store/mongostore"
	"SOULKNOT_BACK-END/internal/store/postgres"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// openStore connects the backend named by cfg.Store.Driver
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if err := postgres.MigrateUp(cfg.GetDSN()); err != nil {
			return nil, err
		}
		st, err := postgres.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverMongo:
		st, err := mongostore.Connect(ctx, &cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on exit")
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log.Level)
	defer log.Sync()

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnTimeout*2)
	st, err := openStore(connectCtx, cfg, log)
	cancel()
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Error("store close failed", zap.Error(err))
		}
	}()

	// --- HTTP Handlers ---
	gate := middleware.NewGate(&cfg.JWT, st, log)
	mux := routes.SetupRoutes(routes.Handlers{
		Auth:      handlers.NewAuthHandler(&cfg.JWT, log),
		Health:    handlers.NewHealthHandler(st),
		Users:     handlers.NewUsersHandler(st, log),
		Biodata:   handlers.NewBiodataHandler(st, gate, log),
		Favorites: handlers.NewFavoritesHandler(st, gate, log),
		Premium:   handlers.NewPremiumHandler(st, gate, log),
		Payments:  handlers.NewPaymentsHandler(st, payment.NewStripeBridge(cfg.Payment.StripeSecretKey), cfg.Payment.Currency, gate, log),
		Stories:   handlers.NewStoriesHandler(st, log),
		Admin:     handlers.NewAdminHandler(st, log),
	}, gate)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           middleware.Logging(log, middleware.Recover(log, c.Handler(mux))),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-quit:
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}
