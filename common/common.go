// Package common holds plumbing shared by every binary in this repository:
// logger construction and build-time version metadata.
package common

import (
	"log/slog"
	"os"
)

var (
	// PackageName identifies this service in logs and metrics.
	PackageName = "contract-instance-registry"

	// Version is overridden at build time via -ldflags.
	Version = "dev"
)

// LoggingOpts configures the process-wide logger.
type LoggingOpts struct {
	// Debug lowers the handler level to slog.LevelDebug.
	Debug bool

	// JSON selects the JSON handler instead of human-readable text.
	JSON bool

	// Service is attached as a "service" attribute to every record when set.
	Service string

	// Version is attached as a "version" attribute to every record when set.
	Version string
}

// SetupLogger builds a slog.Logger writing to stderr according to opts.
func SetupLogger(opts *LoggingOpts) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	log := slog.New(handler)
	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}
	if opts.Version != "" {
		log = log.With("version", opts.Version)
	}
	return log
}
