// Package logging provides structured logging for the WordClock bridge.
//
// It wraps the standard library log/slog package with:
//   - Configuration-driven setup (level, format, output)
//   - Default fields (service name, version) on every record
//   - A Default() bootstrap logger for use before config is loaded
//
// All components receive a *Logger (or a narrow local Logger interface)
// rather than using a package-level global, so tests can inject their own.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("stream connected", "host", cfg.Clock.Host)
//
//	syncLog := log.With("component", "supervisor")
package logging
