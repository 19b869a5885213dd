// Package logging provides structured logging for gatekeeper.
//
// This package wraps Go's standard log/slog package so every component logs
// with the same handler, level filtering, and default fields.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "port", 8080)
//	logger.Error("failed to connect", "error", err)
//
// # Security
//
// Never log session cookies, secrets, or passwords. Login failures are logged
// with MaskEmail so the attempted identity is not recorded verbatim.
package logging
