// Package obslog holds the process-wide zap logger.
package obslog

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger = zap.NewNop()

// L returns the global logger. It is a no-op logger until InitFromEnv runs.
func L() *zap.Logger { return globalLogger }

// Set replaces the global logger; tests use it with zaptest or observer cores.
func Set(l *zap.Logger) { globalLogger = l }

// InitFromEnv builds the logger from LOG_LEVEL, LOG_FORMAT (json|console)
// and LOG_CALLER.
func InitFromEnv() {
	level := parseLevel(getenvDefault("LOG_LEVEL", "info"))
	format := strings.ToLower(strings.TrimSpace(getenvDefault("LOG_FORMAT", "json")))
	showCaller := strings.EqualFold(getenvDefault("LOG_CALLER", "false"), "true")

	var enc zapcore.Encoder
	if format == "console" {
		enc = zapcore.NewConsoleEncoder(consoleEncoderConfig())
	} else {
		enc = zapcore.NewJSONEncoder(jsonEncoderConfig())
	}
	logger := zap.New(zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), level),
		zap.AddStacktrace(zapcore.ErrorLevel))
	if showCaller {
		logger = logger.WithOptions(zap.AddCaller())
	}
	globalLogger = logger
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

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}
