// Package logging builds the client's zap loggers.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timeLayout = "01-02 15:04:05.000"

// NewLogger returns a named console logger at the given level. When
// logFile is non-empty, output is duplicated to a size-rotated file.
func NewLogger(name string, level zapcore.Level, logFile string) *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	enc := zapcore.NewConsoleEncoder(encCfg)

	sink := zapcore.AddSync(os.Stdout)
	if logFile != "" {
		rotated := zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    32,
			MaxBackups: 4,
			Compress:   true,
		})
		sink = zapcore.NewMultiWriteSyncer(sink, rotated)
	}

	core := zapcore.NewCore(enc, sink, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddStacktrace(zapcore.FatalLevel)).Sugar().Named(name)
}

// ParseLevel maps a config string to a zap level, defaulting to Info.
func ParseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.Set(s); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
