package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Debug switches to the human readable
// development encoder and enables debug level output.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment(zap.AddCaller())
	}
	return zap.NewProduction(zap.AddStacktrace(zapcore.ErrorLevel), zap.AddCaller())
}
