// Package utils provides shared logging setup.
package utils

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, caller and stack traces); otherwise uses production config (JSON).
// level, when non-empty, overrides the config's level ("debug", "info", "warn", "error").
func NewLogger(debug bool, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
