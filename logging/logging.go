package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func encoderConfig(color bool) zapcore.EncoderConfig {
	config := zap.NewDevelopmentEncoderConfig()
	config.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	if color {
		config.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	config.EncodeCaller = zapcore.ShortCallerEncoder
	config.EncodeDuration = zapcore.StringDurationEncoder
	return config
}

// New returns a console logger writing debug output to w, or a no-op logger
// when debug is false.
func New(w io.Writer, debug bool, color bool) *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig(color)),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(zapcore.DebugLevel),
	)
	return zap.New(core, zap.AddCaller()).Named("xh")
}
