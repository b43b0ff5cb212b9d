package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the interface for logging
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
}

const timestampFormat = "2006-01-02 15:04:05"

// LogrusLogger satisfies Logger through the methods of the embedded entry
type LogrusLogger struct {
	*logrus.Entry
}

// NewLogger creates a logger writing to stdout
func NewLogger(level, format string) Logger {
	return NewLoggerWithOutput(level, format, os.Stdout)
}

// NewLoggerWithOutput creates a logger writing to w. Levels are debug, info,
// warn and error; anything else is info. Any format other than "json" is text.
func NewLoggerWithOutput(level, format string, w io.Writer) Logger {
	l := logrus.New()
	l.SetOutput(w)

	l.SetLevel(parseLevel(level))

	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timestampFormat})
	}

	return &LogrusLogger{Entry: logrus.NewEntry(l)}
}

func parseLevel(level string) logrus.Level {
	switch level {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() Logger {
	return NewLoggerWithOutput("error", "text", io.Discard)
}
