package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig controls the application logger.
type LoggerConfig struct {
	// Format is "json" or "text".
	Format string
	// Level is a zap level name; empty means info.
	Level string
	// Output paths, stdout when empty.
	Output []string
	// EnableColors colours levels in text output.
	EnableColors bool
}

// InitLogger builds the application logger.
func InitLogger(config ...LoggerConfig) (*zap.SugaredLogger, error) {
	var cfg LoggerConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
	}

	var zcfg zap.Config
	if cfg.Format == "text" {
		zcfg = zap.NewDevelopmentConfig()
		if cfg.EnableColors {
			zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	if len(cfg.Output) > 0 {
		zcfg.OutputPaths = cfg.Output
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar().Named("eroz"), nil
}
