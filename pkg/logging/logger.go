// Package logging wraps zerolog for the MDM engine. Engines receive a
// *zerolog.Logger through their options and log decisions at debug level.
// The orchestrating client carries a logger in the context, enriched with
// record, job and operation fields as a request moves through it.
//
//	ctx = logging.WithRecord(ctx, "per-001")
//	logging.FromContext(ctx).Info().Msg("Golden record rebuilt")
//
// Without configuration the default logger writes to stderr, as console
// output on a terminal and JSON otherwise. MDM_LOG_LEVEL and MDM_LOG_FORMAT
// override the level and format.
package logging

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	defaultMu     sync.RWMutex
	defaultLogger *zerolog.Logger
	defaultOnce   sync.Once
)

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defer defaultMu.Unlock()
		if defaultLogger == nil {
			l := NewLoggerFromConfig(DefaultConfig())
			defaultLogger = &l
		}
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger and zerolog's global log.Logger.
func SetDefault(logger zerolog.Logger) {
	defaultOnce.Do(func() {})
	defaultMu.Lock()
	defaultLogger = &logger
	defaultMu.Unlock()
	log.Logger = logger
}

// OrDefault returns l, or the default logger when l is nil.
func OrDefault(l *zerolog.Logger) *zerolog.Logger {
	if l == nil {
		return Default()
	}
	return l
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
