package log

import (
	"os"
	"path/filepath"
	"time"

	"github.com/Termicotra/agendamiento/conf"
	"github.com/sirupsen/logrus"
)

var (
	API     logrus.FieldLogger
	Auth    logrus.FieldLogger
	Request logrus.FieldLogger
	CLI     logrus.FieldLogger
)

func init() {
	SetupLoggers()
}

// SetupLoggers (re)builds every package logger from the current configuration.
func SetupLoggers() {
	env := conf.GetEnv("ENVIRONMENT")
	API = Logger(newLogger(), conf.GetEnv("AGENDA_LOG"), "api", env)
	Auth = Logger(newLogger(), conf.GetEnv("AGENDA_AUTH_LOG"), "auth", env)
	Request = Logger(newLogger(), conf.GetEnv("AGENDA_REQUEST_LOG"), "api", env)
	CLI = Logger(newLogger(), conf.GetEnv("AGENDA_LOG"), "cli", env)
}

// newLogger honors AGENDA_LOG_LEVEL; an unknown or missing level keeps info.
func newLogger() *logrus.Logger {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(conf.GetEnv("AGENDA_LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

func Logger(logger *logrus.Logger, outputFile string,
	application, environment string) logrus.FieldLogger {

	logger.Formatter = &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}

	if outputFile != "" {
		/* #nosec -- 0640 permissions required for log shipping */
		if file, err := os.OpenFile(filepath.Clean(outputFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640); err == nil {
			logger.SetOutput(file)
		} else {
			logger.Infof("Failed to open output file %s. Will use stderr. %s",
				outputFile, err.Error())
		}
	}

	return logger.WithFields(logrus.Fields{
		"application": application,
		"environment": environment})
}

// GetLogger returns the underlying implementation of the field logger
func GetLogger(logger logrus.FieldLogger) *logrus.Logger {
	if entry, ok := logger.(*logrus.Entry); ok {
		return entry.Logger
	}
	// Must be a *logrus.Logger
	return logger.(*logrus.Logger)
}
