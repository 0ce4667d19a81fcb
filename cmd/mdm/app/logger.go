package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ledgerline/mdm/pkg/logging"
)

// NewLogger builds the CLI logger. An explicit --log-level (or LOG_LEVEL,
// MDM_LOG_LEVEL) beats -q, which beats -v. Caller info is added at debug
// and trace.
func NewLogger(config *Config) zerolog.Logger {
	level, warning := determineLogLevel(config)
	if warning != "" {
		fmt.Fprintln(os.Stderr, "Warning:", warning)
	}
	return logging.NewLoggerFromConfig(&logging.Config{
		Level:     level,
		Format:    config.LogFormat,
		Output:    config.LogOutput,
		NoColor:   config.NoColor,
		AddCaller: logging.ParseLevel(level) <= zerolog.DebugLevel,
		Component: "cli",
	})
}

// determineLogLevel resolves the level name and a warning for the user, if any.
func determineLogLevel(config *Config) (string, string) {
	switch {
	case config.LogLevel != "":
		if !knownLevel(config.LogLevel) {
			return "info", fmt.Sprintf("invalid log level %q, using \"info\"", config.LogLevel)
		}
		return config.LogLevel, ""
	case config.Quiet && config.Verbose:
		return "warn", "both --verbose and --quiet given, using --quiet"
	case config.Quiet:
		return "warn", ""
	case config.Verbose:
		return "debug", ""
	}
	return "info", ""
}

func knownLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}
