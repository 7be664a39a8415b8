package log

import (
	"io"
	"strings"
	"time"

	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"github.com/rs/zerolog"
)

// SetupLogger installs the process-wide provider.
// Records are written as JSON lines, or through zerolog.ConsoleWriter when
// pretty is set.
func SetupLogger(level string, w io.Writer, pretty bool) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	out := w
	if pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	SetProvider(NewZerologProvider(out, lvl))
	return nil
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "info", "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValidationError("log_level", "unknown level", level)
	}
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
