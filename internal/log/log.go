package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)

// initLogger initializes the global logger to write to stderr with timestamps.
func initLogger() {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000000Z07:00",
		})
		logger.SetLevel(logrus.InfoLevel)
	})
}

// ParseLevel maps a config string ("debug", "info", "error") to a Level.
// Unknown values fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(LevelDebug):
		return LevelDebug
	case string(LevelError):
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(l Level) {
	initLogger()
	switch l {
	case LevelDebug:
		logger.SetLevel(logrus.DebugLevel)
	case LevelError:
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput redirects log lines, e.g. to a file while the TUI owns the terminal.
func SetOutput(w io.Writer) {
	initLogger()
	logger.SetOutput(w)
}

// SetJSON switches between the text and JSON formatters.
func SetJSON(enabled bool) {
	initLogger()
	if enabled {
		logger.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func Debug(msg string, kv ...any) {
	logWithLevel(logrus.DebugLevel, msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(logrus.InfoLevel, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	logWithLevel(logrus.ErrorLevel, msg, extended...)
}

func logWithLevel(level logrus.Level, msg string, kv ...any) {
	initLogger()
	if !logger.IsLevelEnabled(level) {
		return
	}
	logger.WithFields(fields(kv...)).Log(level, msg)
}

func fields(kv ...any) logrus.Fields {
	out := make(logrus.Fields, len(kv)/2)
	// Expect kv as pairs: key, value, key, value, ...
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if err, isErr := kv[i+1].(error); isErr && err != nil {
			out[key] = err.Error()
			continue
		}
		out[key] = kv[i+1]
	}
	// If odd number of args, last one is ignored.
	return out
}

// cronLogger adapts this package to the cron.Logger interface so the
// scheduler's internal events end up in the same stream.
type cronLogger struct{}

// CronLogger returns a logger usable with cron.WithLogger and the cron
// job wrappers. Cron's own Info chatter is demoted to DEBUG.
func CronLogger() cron.Logger {
	return cronLogger{}
}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	Error("cron: "+msg, err, keysAndValues...)
}
