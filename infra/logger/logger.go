// Package logger wraps zap with the fields the payment service logs on every
// entry. Card numbers and credentials never reach a log line; callers log
// identifiers and normalized statuses only.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger. Production mode emits JSON; anything else
// gets the development console encoder.
func New(environment string) (*zap.Logger, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", "ortakpos")), nil
}

// ForProvider returns a child logger scoped to a payment provider
func ForProvider(base *zap.Logger, providerName string) *zap.Logger {
	return base.With(zap.String("provider", providerName))
}
