// Package logging builds the process-wide zap logger. The teacher
// uses bare log.Printf throughout; DimaJoyti-go-coffee and
// elchinoo-stormdb both carry go.uber.org/zap for structured logging,
// which this module adopts in the teacher's place (see SPEC_FULL.md
// "Ambient Stack").
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.SugaredLogger from a level string ("debug", "info",
// "warn", "error") and a format ("console" or "json"), mirroring the
// teacher's AppEnv-driven dev/prod split in internal/config.Config.
func New(level, format string) (*zap.SugaredLogger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
