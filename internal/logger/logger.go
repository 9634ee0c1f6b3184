// Package logger provides verbose logging for datacat.
// When verbose mode is enabled via the --verbose flag (or log.level=debug),
// messages are written to stderr to help users follow catalog loading and
// dataset resolution. Output is zerolog, as console text or JSON lines.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	jsonOut bool
	level           = zerolog.DebugLevel
	output  io.Writer = os.Stderr
	log               = build(os.Stderr, false)
)

func build(w io.Writer, asJSON bool) zerolog.Logger {
	if asJSON {
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}
	cw := zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}
	return zerolog.New(cw).Level(level)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	log = build(output, jsonOut)
}

// SetJSON switches between console text and JSON lines.
func SetJSON(v bool) {
	mu.Lock()
	defer mu.Unlock()
	jsonOut = v
	log = build(output, jsonOut)
}

// SetLevel sets the minimum level written in verbose mode.
// Accepts debug, info, warn or error.
func SetLevel(name string) error {
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("log level %q: %w", name, err)
	}
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	log = build(output, jsonOut)
	return nil
}

// Event starts a structured event at the given level.
// Returns nil when verbose mode is off; zerolog treats a nil event as a no-op.
func Event(level zerolog.Level) *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return nil
	}
	return log.WithLevel(level)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	Event(zerolog.DebugLevel).Msg(fmt.Sprintf(format, args...))
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	Event(zerolog.InfoLevel).Str("section", name).Msg("=== " + name + " ===")
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	Event(zerolog.InfoLevel).Msg(fmt.Sprintf(format, args...))
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	Event(zerolog.WarnLevel).Msg(fmt.Sprintf(format, args...))
}
