// Package logging builds the logrus logger shared by the CLI and the engine.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/putzplan/putz/internal/config"
	"github.com/sirupsen/logrus"
)

// New returns a logger configured from cfg. Unknown levels fall back to
// warn, unknown formats to text. Output goes to stderr so it never mixes
// with command output.
func New(cfg config.LogConfig) *logrus.Logger {
	return NewTo(os.Stderr, cfg)
}

// NewTo is New with an explicit writer.
func NewTo(w io.Writer, cfg config.LogConfig) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.WarnLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return l
}

// Discard returns a logger that drops everything. Used as the default when
// a component is constructed without one.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// LogError records err with the module, function and context it came from.
func LogError(logger logrus.FieldLogger, module, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   module,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
