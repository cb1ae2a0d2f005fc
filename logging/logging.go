package logging

import (
	"go.uber.org/zap"
)

// NewLogger builds the process logger. Development gets human readable
// console output at debug level, everything else structured JSON.
func NewLogger(env string) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
