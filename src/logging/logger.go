package logging

import (
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

// New builds the process logger. format is "text" or "json".
func New(level, format string) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	l.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}
	return l, nil
}

// Module returns an entry tagged with the component name.
func Module(l *logrus.Logger, name string) *logrus.Entry {
	return l.WithField("module", name)
}

// LogPlatformError logs err at Warn when it is a rate limit and at Error otherwise.
func LogPlatformError(log *logrus.Entry, err error, msg string) {
	if IsRateLimit(err) {
		log.WithError(err).Warn(msg)
		return
	}
	log.WithError(err).Error(msg)
}
