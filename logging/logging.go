// Package logging contains the zap-backed logger used by the solver, its sessions and the CLI.
package logging

import (
	"io"
	"time"

	"go.uber.org/zap/zapcore"
)

// NewEncoderConfig returns the console encoder config shared by every logger in this package.
// It mirrors zap's development config but with the keys used in production. Levels are not
// colored so the output stays greppable.
func NewEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     utcISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// NewWriterLogger returns a logger writing console-encoded entries at or above level to w.
func NewWriterLogger(name string, w io.Writer, level zapcore.Level) Logger {
	base := zapcore.NewCore(zapcore.NewConsoleEncoder(NewEncoderConfig()), zapcore.Lock(zapcore.AddSync(w)), zapcore.DebugLevel)
	return newImpl(name, base, level)
}

// NewDebugLogger returns a new logger that outputs Debug+ logs to w in UTC.
func NewDebugLogger(name string, w io.Writer) Logger {
	return NewWriterLogger(name, w, zapcore.DebugLevel)
}

// NewBlankLogger returns a new logger that drops everything. Its level can still be read and set.
func NewBlankLogger(name string) Logger {
	return newImpl(name, zapcore.NewNopCore(), zapcore.DebugLevel)
}

// LevelFromString parses a level name such as "debug" or "WARN". The empty string means info.
func LevelFromString(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(level)
}

// zap's ISO8601 encoder uses the local timezone.
func utcISO8601TimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	zapcore.ISO8601TimeEncoder(t.UTC(), enc)
}
