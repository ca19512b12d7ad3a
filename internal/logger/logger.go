// Package logger wraps a process-wide zap logger configured from the
// environment (LOG_LEVEL=debug|info|warn|error, default info).
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu          sync.RWMutex
	log         = zap.NewNop()
	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init builds the JSON logger and installs it as the package logger.
func Init() *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.MessageKey = "msg"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	atomicLevel.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.Lock(os.Stdout), atomicLevel)
	l := zap.New(core, zap.AddCaller()).With(zap.String("service", "gamewallet"))

	mu.Lock()
	log = l
	mu.Unlock()
	return l
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Sync flushes buffered log entries.
func Sync() { _ = current().Sync() }
