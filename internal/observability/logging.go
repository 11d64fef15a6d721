// Package observability provides the process-wide zap loggers.
//
// Two named loggers are exposed: CLILogger for command output and
// ServerLogger for the HTTP server. Both default to no-ops so packages
// can log unconditionally; Init installs real loggers at startup.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the logger for CLI commands.
var CLILogger = zap.NewNop()

// ServerLogger is the logger for the HTTP server.
var ServerLogger = zap.NewNop()

// Init builds and installs the process loggers. level is a zap level
// name (debug, info, warn, error); json selects the production JSON
// encoder over the console encoder.
func Init(level string, json bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if json {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	CLILogger = logger.Named("cli")
	ServerLogger = logger.Named("server")
	return nil
}

// Sync flushes buffered log entries. Safe to call on no-op loggers.
func Sync() {
	_ = CLILogger.Sync()
	_ = ServerLogger.Sync()
}
