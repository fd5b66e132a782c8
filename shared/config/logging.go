package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// GetLogConfig returns logging configuration from environment variables
func GetLogConfig() *LogConfig {
	return &LogConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "text"),
	}
}

// NewLogger builds a logrus logger writing to stderr
func NewLogger(config *LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(config.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
