// Package logging builds the process-wide structured logger. Components take
// a *logrus.Logger and attach their own fields (component, product, dates).
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New creates a configured logger. Production emits JSON for log shipping;
// everything else uses the human-readable text formatter.
func New(logLevel, environment string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(parseLevel(logLevel))

	if strings.EqualFold(environment, "production") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

func parseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
