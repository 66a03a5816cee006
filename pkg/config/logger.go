package config

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds a production zap logger tuned by the log section.
func (c *LogConfig) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
		}
		zc.Level = level
	}
	if c.Encoding != "" {
		zc.Encoding = c.Encoding
	}
	if len(c.OutputPaths) > 0 {
		zc.OutputPaths = c.OutputPaths
	}
	return zc.Build()
}
