// Package infra implements infrastructure concerns (logging, filesystem,
// process lookup, archive storage, export).
package infra

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
)

// ZapDiagnostics implements domain.Diagnostics on top of a zap logger.
type ZapDiagnostics struct {
	logger *zap.Logger
}

// NewZapDiagnostics creates a diagnostics sink writing to logger.
func NewZapDiagnostics(logger *zap.Logger) *ZapDiagnostics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapDiagnostics{logger: logger}
}

func (d *ZapDiagnostics) Info(msg string, fields ...zap.Field)  { d.logger.Info(msg, fields...) }
func (d *ZapDiagnostics) Warn(msg string, fields ...zap.Field)  { d.logger.Warn(msg, fields...) }
func (d *ZapDiagnostics) Error(msg string, fields ...zap.Field) { d.logger.Error(msg, fields...) }

// Note logs contextual detail for the preceding message.
func (d *ZapDiagnostics) Note(msg string, fields ...zap.Field) {
	d.logger.Info(msg, append(fields, zap.Bool("note", true))...)
}

// Logger returns the underlying logger.
func (d *ZapDiagnostics) Logger() *zap.Logger { return d.logger }

// NewLogger builds the CLI logger. Output goes to path when set, stderr
// otherwise; verbose lowers the level to debug.
func NewLogger(path string, verbose bool) *zap.Logger {
	config := zap.NewProductionConfig()
	if path != "" {
		config.OutputPaths = []string{path}
		config.ErrorOutputPaths = []string{path}
	} else {
		config.OutputPaths = []string{"stderr"}
		config.Encoding = "console"
	}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

// Ensure ZapDiagnostics implements domain.Diagnostics.
var _ domain.Diagnostics = (*ZapDiagnostics)(nil)
