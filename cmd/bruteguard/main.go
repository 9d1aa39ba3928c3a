package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bruteguard/internal/api"
	"bruteguard/internal/auth"
	"bruteguard/internal/config"
	"bruteguard/internal/lockout"
	"bruteguard/internal/logger"
	"bruteguard/internal/models"
	"bruteguard/internal/observability"
	"bruteguard/internal/throttle"
	"bruteguard/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetInfo().String())
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, version.GetInfo())
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, version.GetInfo())
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// Initialize the brute-force guard
	protector, err := lockout.NewProtector(protectorConfig(cfg.Guard))
	if err != nil {
		slog.Error("Failed to initialize lockout guard", "error", err)
		os.Exit(1)
	}
	defer protector.Close()

	// Wrap the guard with instrumentation if metrics are enabled
	var guard lockout.Guard = protector
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedGuard(protector)
		if err != nil {
			slog.Error("Failed to create instrumented guard", "error", err)
			os.Exit(1)
		}
		guard = instrumented
	}

	// Initialize the credential store
	creds := auth.NewCredentialStore()

	// Initialize HTTP handlers
	handlers := api.NewHandlers(guard, creds, cfg.Security)

	// Setup routes with middleware
	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	// Initialize the request throttle if enabled
	if cfg.Throttle.Enabled {
		limiter := throttle.NewKeyedLimiter(
			cfg.Throttle.RequestsPerMinute,
			cfg.Throttle.BurstSize,
			cfg.Throttle.CleanupInterval,
		)
		defer limiter.Close()

		routeOpts = append(routeOpts, api.WithThrottle(throttle.Middleware(limiter)))
	}

	router := api.SetupRoutes(handlers, cfg, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "addr", server.Addr)

		var err error
		if cfg.Server.TLSEnabled {
			slog.Info("Starting HTTPS server with TLS")
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			slog.Info("Starting HTTP server")
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	// Create a deadline to wait for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown metrics server
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}

// protectorConfig maps the YAML guard section onto the lockout package's
// policy types.
func protectorConfig(gc models.GuardConfig) lockout.ProtectorConfig {
	return lockout.ProtectorConfig{
		IP:       policyConfig(gc.IP),
		Username: policyConfig(gc.Username),
	}
}

func policyConfig(pc models.PolicyConfig) lockout.Config {
	return lockout.Config{
		MaxAttempts:   pc.MaxAttempts,
		Window:        pc.Window,
		Lockout:       pc.Lockout,
		RetentionIdle: pc.RetentionIdle,
		SweepInterval: pc.SweepInterval,
	}
}
