// Package metrics collects probe and check statistics for the long-running
// server.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Probe counts per verdict, including kill-switch hits
//   - Runs and failures per check command
//   - Check durations with percentile calculations (P50, P95, P99)
//   - Exit status distribution per check command
//
// The collector runs in a dedicated goroutine and never blocks the probe
// path: handlers emit events with a non-blocking send and drop them when the
// buffer is full.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:     metrics.EventCheckCompleted,
//		Command:  "/usr/lib/nagios/plugins/check_disk",
//		Duration: 150 * time.Millisecond,
//		ExitCode: 0,
//	})
//
//	snapshot := collector.Snapshot()
package metrics
