package config

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds a JSON logger in production and a console logger
// elsewhere, both at LOG_LEVEL.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	zc := zap.NewDevelopmentConfig()
	if c.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	return zc.Build(zap.Fields(zap.String("env", c.Environment)))
}
