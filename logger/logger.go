package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Info(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	With(args ...interface{}) Logger
}

// Options configures the process wide logrus logger.
type Options struct {
	Level  string
	Output io.Writer
	JSON   bool
}

// Configure applies opts to the logrus standard logger.
func Configure(opts Options) error {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
		if err != nil {
			return err
		}
		level = parsed
	}
	logrus.SetLevel(level)

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logrus.SetOutput(out)

	if opts.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

type LogrusLogger struct {
	entry *logrus.Entry
}

// New returns a Logger writing through the logrus standard logger.
func New() Logger {
	return &LogrusLogger{entry: logrus.NewEntry(logrus.StandardLogger())}
}

// NewWithLogger returns a Logger writing through l.
func NewWithLogger(l *logrus.Logger) Logger {
	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

func (l *LogrusLogger) Info(msg string, args ...interface{}) {
	l.entry.WithFields(fields(args)).Info(msg)
}

func (l *LogrusLogger) Debug(msg string, args ...interface{}) {
	l.entry.WithFields(fields(args)).Debug(msg)
}

func (l *LogrusLogger) Warn(msg string, args ...interface{}) {
	l.entry.WithFields(fields(args)).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, args ...interface{}) {
	l.entry.WithFields(fields(args)).Error(msg)
}

func (l *LogrusLogger) With(args ...interface{}) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(fields(args))}
}

// fields turns alternating key/value arguments into logrus fields. A
// trailing key without a value is logged under "!BADKEY".
func fields(args []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || i+1 >= len(args) {
			f["!BADKEY"] = args[i]
			continue
		}
		f[key] = args[i+1]
	}
	return f
}
