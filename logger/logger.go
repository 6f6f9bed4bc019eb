package logger

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
}

// Get returns the process-wide logger.
func Get() *logrus.Logger {
	return log
}

// Configure applies the level and output format from the configuration.
// Unknown levels fall back to info, unknown formats to text.
func Configure(level, format string) *logrus.Logger {
	switch strings.ToLower(level) {
	case "error":
		log.Level = logrus.ErrorLevel
	case "warn":
		log.Level = logrus.WarnLevel
	case "debug":
		log.Level = logrus.DebugLevel
	default:
		log.Level = logrus.InfoLevel
	}

	switch strings.ToLower(format) {
	case "json":
		log.Formatter = &logrus.JSONFormatter{}
	default:
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	}
	return log
}

// SetOutput redirects the logger, mostly so tests can keep quiet.
func SetOutput(w io.Writer) {
	log.Out = w
}

// WithPrefix returns an entry tagged with the component name.
func WithPrefix(prefix string) *logrus.Entry {
	return log.WithField("prefix", prefix)
}
