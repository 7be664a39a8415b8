package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// captureSink is the buffer shared by a TestLogger and every logger derived
// from it through With.
type captureSink struct {
	mu    sync.Mutex
	buf   *bytes.Buffer
	level Level
}

func (s *captureSink) minLevel() Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// TestLogger records each entry as one JSON line in memory so tests can
// assert on messages and fields without touching stderr.
type TestLogger struct {
	sink   *captureSink
	fields []any
}

// NewTestLogger returns a logger that keeps entries at or above level and
// the buffer it writes them to.
//
//	logger, buf := log.NewTestLogger(log.LevelDebug)
//	logger.Info("cutoff selected", log.ThresholdKey, 64.0)
//	_ = buf.String()
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &TestLogger{sink: &captureSink{buf: buf, level: level}}, buf
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.record(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.record(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.record(LevelWarn, msg, fields) }

// Error records a leading error value under the "error" key.
func (t *TestLogger) Error(msg string, fields ...any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			fields = append([]any{"error", err}, fields[1:]...)
		}
	}
	t.record(LevelError, msg, fields)
}

// With returns a logger that adds fields to every entry.
func (t *TestLogger) With(fields ...any) Logger {
	merged := make([]any, 0, len(t.fields)+len(fields))
	merged = append(merged, t.fields...)
	merged = append(merged, fields...)
	return &TestLogger{sink: t.sink, fields: merged}
}

func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return level >= t.sink.minLevel()
}

func (t *TestLogger) record(level Level, msg string, fields []any) {
	if level < t.sink.minLevel() {
		return
	}
	entry := map[string]any{"level": level.String(), "message": msg}
	putPairs(entry, t.fields)
	putPairs(entry, fields)
	line, err := json.Marshal(entry)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"level":%q,"message":%q}`, level.String(), msg))
	}

	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	t.sink.buf.Write(line)
	t.sink.buf.WriteByte('\n')
}

// putPairs copies key/value pairs into entry. Errors are stored as their
// message so they survive the JSON round trip.
func putPairs(entry map[string]any, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		v := fields[i+1]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		entry[fmt.Sprint(fields[i])] = v
	}
}

// GetLogEntries decodes the captured lines. Numbers come back as float64.
func (t *TestLogger) GetLogEntries() ([]map[string]any, error) {
	t.sink.mu.Lock()
	raw := strings.TrimSpace(t.sink.buf.String())
	t.sink.mu.Unlock()

	var entries []map[string]any
	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any entry has the given message.
func (t *TestLogger) ContainsMessage(message string) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e["message"] == message {
			return true
		}
	}
	return false
}

// ContainsField reports whether any entry has key set to value.
func (t *TestLogger) ContainsField(key string, value any) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, e := range entries {
		if v, ok := e[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Clear drops everything captured so far.
func (t *TestLogger) Clear() {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	t.sink.buf.Reset()
}

// TestLoggerProvider hands out loggers that all write to one TestLogger.
// Install it with SetProvider to capture what a package logs.
type TestLoggerProvider struct {
	logger *TestLogger
}

// NewTestLoggerProvider returns a provider and the buffer its loggers share.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buf := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger}, buf
}

func (p *TestLoggerProvider) GetLogger() Logger { return p.logger }

func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

// SetLevel applies to the root logger and everything derived from it.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.sink.mu.Lock()
	defer p.logger.sink.mu.Unlock()
	p.logger.sink.level = level
}

// Logger returns the root TestLogger for assertions.
func (p *TestLoggerProvider) Logger() *TestLogger { return p.logger }
