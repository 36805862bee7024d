package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger shared by the CLI and the HTTP server.
type Logger struct {
	*zap.SugaredLogger
}

// console logger on stderr; debug output only when verbose
func NewLogger(verbose bool) *Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	if !verbose {
		encoderCfg.CallerKey = ""
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(level),
	)

	return &Logger{SugaredLogger: zap.New(core, zap.AddCaller()).Sugar()}
}

// JSON logger for long running processes such as the API server
func NewJSONLogger(level string) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: base.Sugar()}, nil
}

// discards everything
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// child logger carrying the given key/value pairs on every entry
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...)}
}
