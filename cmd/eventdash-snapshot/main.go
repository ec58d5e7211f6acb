package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/eventdash/pkg/app"
	"github.com/platinummonkey/eventdash/pkg/config"
	"github.com/platinummonkey/eventdash/pkg/gauges"
	"github.com/platinummonkey/eventdash/pkg/observability"
	"github.com/platinummonkey/eventdash/pkg/snapshot"
)

var (
	schedule = flag.String("schedule", "", "Cron schedule overriding EVENTDASH_SNAPSHOT_SCHEDULE")
	runOnce  = flag.Bool("run-once", false, "Take one snapshot and exit")
	days     = flag.Int("days", 0, "Restrict gauges to the last N days (0 for all time)")
	timeout  = flag.Duration("timeout", 5*time.Minute, "Deadline for a single snapshot")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	// this binary exists to write snapshots
	cfg.Snapshot.Enabled = true
	if *schedule != "" {
		cfg.Snapshot.Schedule = *schedule
	}

	log := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("eventdash-snapshot exited with error")
	}
}

// run returns instead of exiting so deferred cleanup always happens
func run(cfg *config.Config, log *logrus.Logger) error {
	ctx := context.Background()

	providers, err := observability.InitOTel(ctx, cfg.Observability.OTel, log,
		observability.ComponentKey.String("snapshot"),
		observability.SearchIndexKey.String(cfg.Search.Index),
	)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := observability.ShutdownOTel(shutdownCtx, providers, log); err != nil {
			log.WithError(err).Warn("OpenTelemetry shutdown failed")
		}
	}()

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	components, err := app.New(ctx, cfg, log, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			log.WithError(err).Warn("Failed to close components")
		}
	}()

	collector := snapshot.NewCollector(components.Board, components.KPI, components.Snapshots, log).WithMetrics(metrics)

	if *runOnce {
		if err := takeSnapshot(collector, log); err != nil {
			return err
		}
		log.Info("Snapshot completed successfully")
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = c.AddFunc(cfg.Snapshot.Schedule, func() {
		defer observability.RecoverPanic(log, "snapshot job")
		if err := takeSnapshot(collector, log); err != nil {
			log.WithError(err).Error("Scheduled snapshot failed")
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	log.WithField("schedule", cfg.Snapshot.Schedule).Info("eventdash snapshot job started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Shutting down gracefully...")

	stopped := c.Stop()
	<-stopped.Done()

	log.Info("Snapshot job stopped")
	return nil
}

func takeSnapshot(collector *snapshot.Collector, log *logrus.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	period := gauges.Period{}
	if *days > 0 {
		end := time.Now().UTC()
		period = gauges.NewPeriod(end.AddDate(0, 0, -*days), end)
	}

	log.WithField("period", period.String()).Info("Taking snapshot")
	_, err := collector.Run(ctx, period)
	return err
}
