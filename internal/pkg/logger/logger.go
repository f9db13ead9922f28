// Package logger configures the process-wide logrus logger.
package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/your-org/food-ordering-backend/internal/config"
)

// Setup applies format and level to the standard logrus logger and returns it
func Setup(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.StandardLogger()
	logger.SetOutput(os.Stdout)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.WithField("level", cfg.Level).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
