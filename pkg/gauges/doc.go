// Package gauges computes named dashboard metrics from the events index.
//
// # Overview
//
// A Gauge runs one query and reports a Result (value, label, description).
// Gauges swallow their failures: an error is logged and the result is
// zero-valued with a description of "Error: <message>", so one broken
// gauge never blanks the dashboard.
//
// # Gauges
//
//   - active_chat_users: users with 21+ in-thread messages
//   - medium_chat_users: users with 5-20 in-thread messages
//   - thread_users: distinct thread creators
//   - producers: distinct sketch uploaders
//   - identity_users: provided by pkg/identity
//
// # Board
//
// Board computes gauges concurrently, merges the results by name, and
// publishes the values to Prometheus.
//
//	board, err := gauges.NewBoard([]gauges.Gauge{active, medium, threads},
//		gauges.WithMetrics(metrics))
//	results := board.Compute(ctx, gauges.NewPeriod(start, end))
//
// # Related Packages
//
//   - pkg/analytics: Producer counts
//   - pkg/identity: Identity provider gauge
package gauges
