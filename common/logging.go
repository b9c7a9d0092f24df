// Package common holds helpers shared by the deployer commands.
package common

import (
	"io"
	"log/slog"
	"os"
)

// Version is overridden at build time with -ldflags "-X .../common.Version=...".
var Version = "dev"

// LoggingOpts configures the process-wide structured logger.
type LoggingOpts struct {
	Debug   bool
	JSON    bool
	Service string
	Version string

	// Output defaults to os.Stderr, leaving stdout to command results.
	Output io.Writer
}

// SetupLogger builds a slog logger writing to opts.Output. Service and Version are
// attached to every record when set.
func SetupLogger(opts *LoggingOpts) (log *slog.Logger) {
	logLevel := slog.LevelInfo
	if opts.Debug {
		logLevel = slog.LevelDebug
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	if opts.JSON {
		log = slog.New(slog.NewJSONHandler(output, handlerOpts))
	} else {
		log = slog.New(slog.NewTextHandler(output, handlerOpts))
	}

	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}
	if opts.Version != "" {
		log = log.With("version", opts.Version)
	}
	return log
}
