// Package logging provides structured logging for the simulation processes.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation support for debugging and post-hoc analysis. The
// simulation runs as several cooperating OS processes (director, broker,
// workers, users), each writing its own per-role log file; the aggregation
// utilities merge those files back into one chronological stream.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (role, component, worker seat, service, day)
//   - Log rotation with configurable size limits
//   - Optional gzip compression for rotated logs
//   - Per-role log aggregation and filtering utilities
//   - Export to JSON, text, or CSV formats
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. The [Logger] type
// uses Go's slog internally which is designed for concurrent access. The
// [RotatingWriter] type uses a mutex to protect file operations during
// rotation. Child loggers created via With* methods share the underlying
// writer safely.
//
// # Basic Usage
//
// Create a logger for one process role:
//
//	logger, err := logging.NewLogger("/path/to/logs", "director", "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Debug("detailed info", "key", "value")
//	logger.Info("day completed", "day", 3, "served", 412)
//	logger.Warn("queue depth rising", "service", "packages", "depth", 87)
//	logger.Error("spawn failed", "error", err.Error())
//
// # Context Propagation
//
// Create child loggers with persistent context attributes:
//
//	balancerLog := logger.WithComponent("balancer")
//	seatLog := logger.WithWorker(4).WithService("letters")
//
//	// All logs from seatLog include role, worker, and service fields
//	seatLog.Info("ticket served", "ticket", 1042)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"ticket served","role":"workers","worker":4,"service":"letters","ticket":1042}
//
// # Log Rotation
//
// Rotated files are named: director.log.1, director.log.2, etc., where .1
// is the most recent backup. When compression is enabled, rotated files
// become director.log.1.gz, etc.
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output.
//
// # Aggregation
//
// Merge and analyze logs after a run:
//
//	entries, err := logging.AggregateLogs("/path/to/logs")
//	if err != nil {
//	    return err
//	}
//	filtered := logging.FilterLogs(entries, logging.LogFilter{Role: "workers", Day: 3})
//	logging.ExportLogEntries(filtered, "day3-workers.csv", "csv")
package logging
