// Package log provides a structured logging interface for heightsml.
//
// The interface is slog-compatible and backend-agnostic; the default
// implementation is backed by zerolog (see provider.go). Components obtain a
// named logger and attach the standard attribute keys from attributes.go:
//
//	logger := log.GetLoggerWithName("threshold").With(
//	    log.ModelNameKey, "CutoffClassifier",
//	    log.EstimatorIDKey, id,
//	)
//	logger.Info("Cutoff selected",
//	    log.OperationKey, log.OperationFit,
//	    log.ThresholdKey, 64.0,
//	    log.AccuracyKey, 0.836,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are passed as alternating key/value pairs. With returns a child
// logger carrying the given fields on every subsequent record.
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	//
	// Example:
	//   logger.Info("Split created",
	//       log.SamplesKey, 525,
	//       log.RandomSeedKey, 2007,
	//   )
	Info(msg string, fields ...any)

	// Warn logs a potentially problematic situation that does not stop
	// execution, such as an ill-defined metric.
	Warn(msg string, fields ...any)

	// Error logs an error condition. If the first field is an error value it
	// is attached as the record's error together with its stack trace.
	//
	// Example:
	//   logger.Error("Figure rendering failed",
	//       err,
	//       log.FigureKey, "roc.png",
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	// Use it to skip building expensive fields for disabled levels.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. It allows tests to swap the
// backend without touching the components that log.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
