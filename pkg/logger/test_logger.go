package logger

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log messages for assertions in tests.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	fields   map[string]interface{}
	zerolog  *zerolog.Logger
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	nopLogger := zerolog.Nop()
	return &TestLogger{
		messages: make([]LogMessage, 0),
		fields:   make(map[string]interface{}),
		zerolog:  &nopLogger,
	}
}

func (l *TestLogger) log(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	l.messages = append(l.messages, LogMessage{
		Level:   level,
		Message: msg,
		Fields:  merged,
	})
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.log("FATAL", msg, fields)
}

// WithField returns a test logger sharing the same capture buffer.
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	child := &TestLogger{
		fields:  make(map[string]interface{}, len(l.fields)+1),
		zerolog: l.zerolog,
	}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	child.fields[key] = value
	// Share the message slice through the parent.
	child.messages = l.messages
	return &sharedTestLogger{parent: l, child: child}
}

// WithFields returns a test logger sharing the same capture buffer.
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	result := Logger(l)
	for k, v := range fields {
		result = result.WithField(k, v)
	}
	return result
}

// WithError attaches the error as a field.
func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// GetZerolog returns a no-op zerolog instance.
func (l *TestLogger) GetZerolog() *zerolog.Logger {
	return l.zerolog
}

// Messages returns a copy of all captured messages.
func (l *TestLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// HasMessage reports whether any captured message contains the substring.
func (l *TestLogger) HasMessage(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// Clear discards all captured messages.
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = l.messages[:0]
}

// sharedTestLogger routes log calls from a derived logger back into the
// parent's capture buffer.
type sharedTestLogger struct {
	parent *TestLogger
	child  *TestLogger
}

func (s *sharedTestLogger) emit(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(s.child.fields)+len(fields))
	for k, v := range s.child.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	s.parent.log(level, msg, merged)
}

func (s *sharedTestLogger) Debug(msg string) { s.emit("DEBUG", msg, nil) }
func (s *sharedTestLogger) Info(msg string)  { s.emit("INFO", msg, nil) }
func (s *sharedTestLogger) Warn(msg string)  { s.emit("WARN", msg, nil) }
func (s *sharedTestLogger) Error(msg string) { s.emit("ERROR", msg, nil) }
func (s *sharedTestLogger) Fatal(msg string) { s.emit("FATAL", msg, nil) }

func (s *sharedTestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	s.emit("DEBUG", msg, fields)
}

func (s *sharedTestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	s.emit("INFO", msg, fields)
}

func (s *sharedTestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	s.emit("WARN", msg, fields)
}

func (s *sharedTestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	s.emit("ERROR", msg, fields)
}

func (s *sharedTestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	s.emit("FATAL", msg, fields)
}

func (s *sharedTestLogger) WithField(key string, value interface{}) Logger {
	derived := s.child.WithField(key, value)
	if shared, ok := derived.(*sharedTestLogger); ok {
		shared.parent = s.parent
		return shared
	}
	return derived
}

func (s *sharedTestLogger) WithFields(fields map[string]interface{}) Logger {
	result := Logger(s)
	for k, v := range fields {
		result = result.WithField(k, v)
	}
	return result
}

func (s *sharedTestLogger) WithError(err error) Logger {
	if err == nil {
		return s
	}
	return s.WithField("error", err.Error())
}

func (s *sharedTestLogger) GetZerolog() *zerolog.Logger {
	return s.child.zerolog
}
