package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Init configures the standard logrus logger for diagnostics.
// Diagnostics always go to stderr so they never interleave with call lines
// on stdout. format "json" selects the JSON formatter; anything else gives
// text.
func Init(level logrus.Level, format string) {
	setup(logrus.StandardLogger(), os.Stderr, level, format)
}

func setup(l *logrus.Logger, w io.Writer, level logrus.Level, format string) {
	l.SetOutput(w)
	l.SetLevel(level)
	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// ParseLevel converts a level name such as "debug" or "warn" to a
// logrus.Level. Unknown names default to InfoLevel.
func ParseLevel(s string) logrus.Level {
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
