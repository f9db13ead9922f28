package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/your-org/food-ordering-backend/internal/config"
)

func TestSetup(t *testing.T) {
	original := logrus.GetLevel()
	t.Cleanup(func() { logrus.SetLevel(original) })

	logger := Setup(config.LoggingConfig{Level: "warn", Format: "json"})
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger = Setup(config.LoggingConfig{Level: "loud", Format: "text"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}
