// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var levels = map[string]logrus.Level{
	"trace":    logrus.TraceLevel,
	"debug":    logrus.DebugLevel,
	"info":     logrus.InfoLevel,
	"warn":     logrus.WarnLevel,
	"error":    logrus.ErrorLevel,
	"critical": logrus.FatalLevel,
	"off":      logrus.PanicLevel,
}

// ParseLevel maps a level name onto a logrus level.
func ParseLevel(name string) (logrus.Level, error) {
	level, ok := levels[name]
	if !ok {
		return 0, fmt.Errorf("log level must be one of %v, got %q", lo.Keys(levels), name)
	}
	return level, nil
}

// Setup installs the formatter and level on the standard logger and points it at out.
func Setup(level string, out io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.0000",
	})
	logrus.SetOutput(out)
	logrus.SetLevel(lvl)
	return nil
}

// For returns the logger for a module.
func For(module string) *logrus.Entry {
	return logrus.WithField("module", module)
}
