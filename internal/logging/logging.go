// Package logging wires a process-wide structured logger.
package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once   sync.Once
	logger *zap.SugaredLogger
)

// Init builds the process-wide logger from SERVER_LOG_LEVEL / dev_mode. Safe to call
// more than once; only the first call takes effect.
func Init(devMode bool, level string) *zap.SugaredLogger {
	once.Do(func() {
		logger = build(devMode, level)
	})
	return logger
}

// L returns the process-wide logger, initializing it with defaults if Init was never
// called (useful in tests and short-lived CLI invocations).
func L() *zap.SugaredLogger {
	if logger == nil {
		return Init(false, "info")
	}
	return logger
}

func build(devMode bool, level string) *zap.SugaredLogger {
	var cfg zap.Config
	if devMode {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fall back to a bare core rather than panicking a CLI invocation.
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig()), os.Stderr, zapcore.InfoLevel)
		l = zap.New(core)
	}
	return l.Sugar()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes buffered log entries; call from deferred shutdown paths.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
