// Package app wires the configured services into the components shared by
// the server and the snapshot job.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/eventdash/pkg/analytics"
	"github.com/platinummonkey/eventdash/pkg/config"
	"github.com/platinummonkey/eventdash/pkg/gauges"
	"github.com/platinummonkey/eventdash/pkg/identity"
	"github.com/platinummonkey/eventdash/pkg/kpi"
	"github.com/platinummonkey/eventdash/pkg/observability"
	"github.com/platinummonkey/eventdash/pkg/search"
	"github.com/platinummonkey/eventdash/pkg/snapshot"
)

// Components are the wired services. KPI always exists and answers with an
// empty report when no sheet is configured. Redis and Snapshots are nil
// unless snapshots are enabled.
type Components struct {
	Search    *search.Client
	Analytics *analytics.Service
	Identity  *identity.Client
	Board     *gauges.Board
	KPI       *kpi.Service
	Redis     *redis.Client
	Snapshots *snapshot.Store
}

// New builds the components described by cfg
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger, metrics *observability.Metrics) (*Components, error) {
	searchClient, err := search.NewClient(cfg.Search.Config, search.WithMetrics(metrics), search.WithLogger(log))
	if err != nil {
		return nil, err
	}

	c := &Components{
		Search:    searchClient,
		Analytics: analytics.NewService(searchClient, analytics.WithIndex(cfg.Search.Index), analytics.WithLogger(log)),
		Identity:  identity.NewClient(cfg.Identity, identity.WithMetrics(metrics), identity.WithLogger(log)),
	}

	c.Board, err = newBoard(searchClient, c.Analytics, c.Identity, cfg, log, metrics)
	if err != nil {
		return nil, err
	}

	var reader kpi.ValuesReader
	if cfg.Sheets.Enabled() {
		creds, err := kpi.CredentialsFile(ctx, cfg.Sheets.CredentialsFile)
		if err != nil {
			return nil, err
		}
		sheetsReader, err := kpi.NewSheetsReader(ctx, creds)
		if err != nil {
			return nil, err
		}
		reader = sheetsReader
	} else {
		log.Info("KPI spreadsheet not configured, targets will be empty")
	}
	c.KPI = kpi.NewService(reader, cfg.Sheets.SpreadsheetID, cfg.Sheets.Range, log)

	if cfg.Snapshot.Enabled {
		c.Redis, err = snapshot.NewRedisClient(cfg.Snapshot.Redis)
		if err != nil {
			return nil, err
		}
		c.Snapshots = snapshot.NewStore(c.Redis, cfg.Snapshot.Redis)
	}

	return c, nil
}

func newBoard(searcher search.Searcher, svc *analytics.Service, id *identity.Client, cfg *config.Config, log *logrus.Logger, metrics *observability.Metrics) (*gauges.Board, error) {
	opts := []gauges.Option{gauges.WithIndex(cfg.Search.Index), gauges.WithLogger(log)}

	active, err := gauges.NewChatUsers(searcher, gauges.TierActive, opts...)
	if err != nil {
		return nil, err
	}
	medium, err := gauges.NewChatUsers(searcher, gauges.TierMedium, opts...)
	if err != nil {
		return nil, err
	}

	all := []gauges.Gauge{
		active,
		medium,
		gauges.NewThreadUsers(searcher, opts...),
		gauges.NewProducers(svc, opts...),
		id,
	}
	board, err := gauges.NewBoard(all,
		gauges.WithConcurrency(cfg.Gauges.Concurrency),
		gauges.WithMetrics(metrics),
		gauges.WithBoardLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("build gauge board: %w", err)
	}
	return board, nil
}

// Close releases the Redis connection, if any
func (c *Components) Close() error {
	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	return errors.Join(errs...)
}
