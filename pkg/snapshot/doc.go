// Package snapshot persists point-in-time copies of the gauge board and KPI
// targets in Redis.
//
// A Collector computes every gauge and reads the KPI sheet, and a Store saves
// the result as the latest snapshot plus a bounded history list:
//
//	client, err := snapshot.NewRedisClient(cfg)
//	store := snapshot.NewStore(client, cfg)
//	collector := snapshot.NewCollector(board, targets, store, logger)
//	snap, err := collector.Run(ctx, gauges.Period{})
//
// Readers call Store.Latest, which returns nil with no error when nothing has
// been saved yet.
package snapshot
