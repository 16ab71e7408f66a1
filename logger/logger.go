package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/isdmx/coderun/config"
)

// ServiceName is attached to every log entry.
const ServiceName = "coderun"

// NewFromConfig builds the application logger from the logging section.
func NewFromConfig(cfg *config.Config) (*zap.Logger, error) {
	return New(cfg.Logging.Mode, cfg.Logging.Level)
}

// New creates a new logger instance for the given mode and level
func New(mode, level string) (*zap.Logger, error) {
	cfg, err := newConfig(mode, level)
	if err != nil {
		return nil, err
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

func newConfig(mode, level string) (zap.Config, error) {
	var cfg zap.Config

	switch mode {
	case "development":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "production":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.Sampling = nil
	default:
		return zap.Config{}, fmt.Errorf("invalid logging mode: %s, must be 'production' or 'development'", mode)
	}

	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return zap.Config{}, fmt.Errorf("invalid logging level: %s, must be one of 'debug', 'info', 'warn', 'error', 'dpanic', 'panic', 'fatal'", level)
	}
	cfg.Level = zap.NewAtomicLevelAt(logLevel)

	// stdout belongs to the MCP stdio transport and to `coderun exec`.
	cfg.OutputPaths = []string{"stderr"}
	cfg.InitialFields = map[string]any{"service": ServiceName}

	return cfg, nil
}
