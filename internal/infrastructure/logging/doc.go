// Package logging provides structured logging for the show controller.
//
// It wraps log/slog with JSON or text output and the default fields
// service and version on every entry.
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
//	logger := logging.New(cfg.Logging, version)
//	ctrl.SetLogger(logger.With("component", "output"))
//
// *Logger satisfies the small Logger interfaces declared by the hardware,
// output, execution and mqtt packages.
//
// Never log secrets, tokens or passwords.
package logging
