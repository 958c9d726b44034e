package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gochat/internal/api"
	"gochat/internal/auth"
	"gochat/internal/config"
	"gochat/internal/db"
	"gochat/internal/monitor"
	"gochat/internal/realtime"
	"gochat/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run wires every component and blocks until a shutdown signal arrives.
func Run(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if cfg.RoutingRefreshInterval >= cfg.RoutingTTL {
		return errors.New("routing refresh interval must be strictly below the TTL")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// --- Postgres ---
	dbMgr, err := db.NewDBManager(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer dbMgr.Shutdown()

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	// --- Realtime subsystem ---
	registry := realtime.NewRegistry(logger)
	routing := service.NewRoutingRegistry(rdb, cfg.Hostname, cfg.RoutingTTL, logger)
	presence := service.NewPresence(rdb, cfg.PresenceWindow, logger)
	fanout := service.NewFanout(rdb, routing, registry, cfg.Hostname, logger)
	archiver := service.NewArchiver(cfg, logger)
	defer archiver.Close()

	endpoint := realtime.NewEndpoint(
		registry,
		auth.NewVerifier(cfg.JWTSecret),
		api.NewHistoryStore(dbMgr, cfg.HistoryLimit),
		routing,
		cfg.RoutingRefreshInterval,
		logger,
	)

	subscriberDone := make(chan struct{})
	go func() {
		defer close(subscriberDone)
		fanout.StartSubscriber(ctx)
	}()
	go presence.StartSweeper(ctx)

	// --- HTTP ---
	handler := api.New(cfg, dbMgr, endpoint, fanout, presence, archiver, logger)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler.Router(),
		// Request contexts derive from the app context so canceling it also
		// closes every open event stream during shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	monitor.StartHealthCheck(dbMgr, rdb, registry, logger, cfg.HealthAddr)

	go func() {
		logger.Infow("server listening", "addr", srv.Addr, "hostname", cfg.Hostname)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("HTTP server error", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Infow("signal received, shutting down", "signal", sig)

	// Canceling the app context closes every open event stream, which
	// deregisters each connection and withdraws this host from the routing
	// registry before the subscriber stops.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("HTTP server shutdown error", "error", err)
	}

	select {
	case <-subscriberDone:
		logger.Info("subscriber stopped gracefully")
	case <-time.After(10 * time.Second):
		logger.Warn("timeout waiting for subscriber to stop")
	}

	return nil
}
