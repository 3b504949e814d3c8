// Package logger builds the zap logger shared by every entrypoint.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a zap logger configured for the runtime environment.
// env "prod" (the Lambda default) gets the JSON production encoder;
// anything else gets the development console encoder.
func New(env string) (*zap.Logger, error) {
	var config zap.Config
	if env == "prod" || env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
	}
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	return config.Build()
}

// NewFromEnv reads LAMBDA_ENV (defaulting to prod) and builds the logger.
func NewFromEnv() (*zap.Logger, error) {
	env := os.Getenv("LAMBDA_ENV")
	if env == "" {
		env = "prod"
	}
	return New(env)
}
