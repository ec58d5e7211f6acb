package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/eventdash/pkg/api"
	"github.com/platinummonkey/eventdash/pkg/app"
	"github.com/platinummonkey/eventdash/pkg/config"
	"github.com/platinummonkey/eventdash/pkg/middleware"
	"github.com/platinummonkey/eventdash/pkg/observability"
)

var corsOrigins = flag.String("cors-origins", os.Getenv("EVENTDASH_CORS_ORIGINS"), "Comma separated origins allowed to call the API")

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("eventdash exited with error")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx := context.Background()

	providers, err := observability.InitOTel(ctx, cfg.Observability.OTel, log,
		observability.ComponentKey.String("api"),
		observability.SearchIndexKey.String(cfg.Search.Index),
	)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	components, err := app.New(ctx, cfg, log, metrics)
	if err != nil {
		return err
	}

	checker := observability.NewHealthChecker(components.Search, components.Redis, cfg.Observability.OTel.ServiceVersion)

	routerCfg := api.RouterConfig{
		Analytics: components.Analytics,
		Board:     components.Board,
		Targets:   components.KPI,
		Health:    checker,
		Metrics:   metrics,
		Logger:    log,
	}
	// a nil *snapshot.Store must not become a non-nil interface
	if components.Snapshots != nil {
		routerCfg.Snapshots = components.Snapshots
	}
	if cfg.Observability.OTel.Enabled {
		routerCfg.ServiceName = cfg.Observability.OTel.ServiceName
	}
	if cfg.RateLimit.Enabled {
		trusted, err := middleware.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
		if err != nil {
			_ = components.Close()
			return err
		}
		routerCfg.RateLimiter = newLimiter(ctx, cfg, components, log)
		routerCfg.TrustedProxies = trusted
	}
	if *corsOrigins != "" {
		routerCfg.CORSOrigins = strings.Split(*corsOrigins, ",")
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health/metrics server (separate port for k8s health checks)
	healthRouter := mux.NewRouter()
	observability.RegisterHealthRoutes(healthRouter, checker)
	if cfg.Observability.MetricsEnabled {
		healthRouter.Handle("/metrics", observability.MetricsHandler(registry)).Methods(http.MethodGet)
	}
	healthServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:           healthRouter,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}

	shutdown := observability.NewShutdownManager(log, server, cfg.Server.ShutdownTimeout)
	shutdown.Register("health-server", healthServer.Shutdown)
	shutdown.Register("components", func(context.Context) error { return components.Close() })
	shutdown.Register("otel", func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, log)
	})

	serveErr := make(chan error, 2)
	for _, srv := range []*http.Server{server, healthServer} {
		go func(srv *http.Server) {
			defer observability.RecoverPanic(log, "http server "+srv.Addr)
			log.WithField("addr", srv.Addr).Info("HTTP server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}(srv)
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var failure error
	go func() {
		select {
		case failure = <-serveErr:
			log.WithError(failure).Error("HTTP server failed")
			cancel()
		case <-waitCtx.Done():
		}
	}()

	if err := shutdown.WaitForShutdown(waitCtx); err != nil {
		return err
	}
	return failure
}

// newLimiter shares counts through Redis when it is available
func newLimiter(ctx context.Context, cfg *config.Config, components *app.Components, log *logrus.Logger) middleware.Limiter {
	if components.Redis != nil {
		log.Info("Rate limiting through Redis")
		return middleware.NewRedisLimiter(components.Redis, cfg.RateLimit.RateLimitConfig, cfg.Snapshot.Redis.KeyPrefix+":ratelimit")
	}
	limiter := middleware.NewMemoryLimiter(cfg.RateLimit.RateLimitConfig)
	limiter.StartCleanup(ctx)
	return limiter
}
