package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgerline/mdm/pkg/constants"
)

// Config describes how the CLI and embedding services want logs written.
type Config struct {
	Level      string         // trace, debug, info, warn, error, off
	Format     string         // json, console, auto
	Output     string         // stderr, stdout, discard, or a file path
	TimeFormat string         // kitchen, rfc3339, rfc3339nano, unix, or a Go layout
	NoColor    bool           // console only
	AddCaller  bool           // always on at debug and below
	Component  string         // added as "component" to every entry when set
	Fields     map[string]any // added to every entry
}

// DefaultConfig returns info-level logging to stderr, console when stderr is a terminal.
func DefaultConfig() *Config {
	return &Config{
		Level:      envOr(constants.EnvLogLevel, "info"),
		Format:     envOr(constants.EnvLogFormat, "auto"),
		Output:     "stderr",
		TimeFormat: "kitchen",
		NoColor:    os.Getenv("NO_COLOR") != "",
	}
}

// NewLoggerFromConfig builds a logger. A nil config means DefaultConfig.
// The zerolog global level is set to the configured level.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level := ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	out := openOutput(cfg.Output)
	zc := zerolog.New(formatWriter(out, cfg)).Level(level).With().Timestamp()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		zc = zc.Caller()
	}
	if cfg.Component != "" {
		zc = zc.Str("component", cfg.Component)
	}
	for k, v := range cfg.Fields {
		zc = addField(zc, k, v)
	}
	return zc.Logger()
}

// Configure replaces the default logger.
func Configure(cfg *Config) {
	SetDefault(NewLoggerFromConfig(cfg))
}

// openOutput resolves an output name. A file that cannot be opened falls
// back to stderr.
func openOutput(name string) io.Writer {
	switch strings.ToLower(name) {
	case "", "stderr":
		return os.Stderr
	case "stdout":
		return os.Stdout
	case "discard", "none":
		return io.Discard
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions) //nolint:gosec
	if err != nil {
		return os.Stderr
	}
	return f
}

func formatWriter(out io.Writer, cfg *Config) io.Writer {
	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if f, ok := out.(*os.File); ok && isTerminal(f) {
			format = "console"
		}
	}
	if format != "console" && format != "pretty" {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: timeLayout(cfg.TimeFormat),
		NoColor:    cfg.NoColor,
	}
}

// ParseLevel maps a level name to a zerolog level. Unknown or empty names are info.
func ParseLevel(level string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	switch name {
	case "":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "none", "off":
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

func timeLayout(name string) string {
	switch strings.ToLower(name) {
	case "", "kitchen":
		return time.Kitchen
	case "rfc3339":
		return time.RFC3339
	case "rfc3339nano":
		return time.RFC3339Nano
	case "unix", "epoch":
		return ""
	}
	// A custom layout must at least mention the reference year or clock.
	if strings.Contains(name, "2006") || strings.Contains(name, "15:04") {
		return name
	}
	return time.Kitchen
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
