package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "socialnet"

// Logger is the process-wide logger instance
var Logger *zap.Logger

// Init builds the process-wide logger. Production gets JSON output at info
// level tagged with the service name; everything else gets a colored
// development console at debug level.
func Init(env string) error {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		config.InitialFields = map[string]interface{}{"service": serviceName}
	} else {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var err error
	Logger, err = config.Build()
	if err != nil {
		return err
	}

	return nil
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Get returns the process-wide logger instance
func Get() *zap.Logger {
	if Logger == nil {
		// Fallback for code paths that log before Init runs (tests, early
		// startup failures)
		logger, _ := zap.NewDevelopment()
		return logger
	}
	return Logger
}

// Named returns the process-wide logger scoped to a component, e.g. "graph"
func Named(component string) *zap.Logger {
	return Get().Named(component)
}
