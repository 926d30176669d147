// Package log provides structured logging for jobq components.
//
// Loggers carry typed Fields and route records through a slog bridge into a
// formatter/output pipeline. Components receive a derived logger via
// Logger.With(log.Component("name")) so every line is tagged with its origin.
//
// Usage:
//
//	logger, _ := log.ApplyConfig(&log.Config{Level: "info", Format: "text"})
//	logger = logger.With(log.Component("jobs"))
//	logger.Info("job committed", log.Str("queue", "q"), log.Uint64("job_id", id))
package log
