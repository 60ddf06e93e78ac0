package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// InitLogger configures the shared logger and the logrus standard logger the same way,
// so code logging through either ends up in one JSON stream.
func InitLogger(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	for _, l := range []*logrus.Logger{Log, logrus.StandardLogger()} {
		// Output to stdout instead of the default stderr
		l.Out = os.Stdout

		// Set JSON formatter for structured logging
		l.SetFormatter(&logrus.JSONFormatter{})

		l.SetLevel(lvl)
	}
}
