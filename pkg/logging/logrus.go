// Package logging provides the logrus-backed logger used by go-userstate.
//
// The returned *Logger satisfies userstate.Logger: Debug and Error take a
// message followed by alternating key/value pairs, which become logrus
// fields.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config mirrors the logging section of the userstate configuration file.
type Config struct {
	// Level is the minimum level to output ("debug", "info", "warn", "error").
	Level string `yaml:"level"`
	// Format is "text" (default) or "json".
	Format string `yaml:"format"`
	// Component is attached to every entry; defaults to "userstate".
	Component string `yaml:"component"`
	// Output defaults to os.Stderr.
	Output io.Writer `yaml:"-"`
}

// Logger adapts a *logrus.Entry to key/value style logging.
type Logger struct {
	entry *logrus.Entry
}

// New builds a logger from cfg. Unknown levels fall back to info.
func New(cfg Config) *Logger {
	base := logrus.New()

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		base.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	if cfg.Output != nil {
		base.SetOutput(cfg.Output)
	} else {
		base.SetOutput(os.Stderr)
	}

	component := cfg.Component
	if component == "" {
		component = "userstate"
	}
	return &Logger{entry: base.WithField("component", component)}
}

// Wrap adapts an existing entry.
func Wrap(entry *logrus.Entry) *Logger {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Logger{entry: entry}
}

// Entry exposes the underlying logrus entry.
func (l *Logger) Entry() *logrus.Entry {
	return l.entry
}

// Debug logs msg at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.entry.WithFields(fields(args)).Debug(msg)
}

// Info logs msg at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.entry.WithFields(fields(args)).Info(msg)
}

// Error logs msg at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.entry.WithFields(fields(args)).Error(msg)
}

// fields pairs args into logrus fields. A trailing key without a value is
// stored under "!BADKEY", matching log/slog.
func fields(args []any) logrus.Fields {
	if len(args) == 0 {
		return nil
	}
	out := make(logrus.Fields, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			out["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		out[key] = args[i+1]
	}
	return out
}
