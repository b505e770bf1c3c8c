package configs

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger: JSON in production, console
// output everywhere else.
func NewLogger(env ENV) (*zap.Logger, error) {
	var config zap.Config
	if env.IsProduction() {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(env.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", env.LogLevel, err)
	}
	config.Level = zap.NewAtomicLevelAt(level)

	return config.Build()
}
