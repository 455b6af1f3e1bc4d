package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"carrent/internal/config"
)

// NewLogger builds the process logger: JSON in production, console
// otherwise, at the configured level.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	level := zapcore.InfoLevel
	if err := level.Set(cfg.Log.Level); err == nil {
		zc.Level = zap.NewAtomicLevelAt(level)
	}

	return zc.Build()
}
