package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface used throughout this module. It is a zap SugaredLogger with
// a per-logger adjustable level and named subloggers.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger named "<name>.<subname>" sharing this logger's outputs. It
	// starts at this logger's current level but is adjusted independently afterwards.
	Sublogger(subname string) Logger
	SetLevel(level zapcore.Level)
	GetLevel() zapcore.Level
	Desugar() *zap.Logger
	Sync() error
}

type impl struct {
	*zap.SugaredLogger

	name  string
	level zap.AtomicLevel
	// base is the unfiltered core; the level is applied on top of it so that subloggers can
	// carry their own level.
	base zapcore.Core
}

func newImpl(name string, base zapcore.Core, level zapcore.Level) *impl {
	atomic := zap.NewAtomicLevelAt(level)
	core, err := zapcore.NewIncreaseLevelCore(base, atomic)
	if err != nil {
		// the base core filters harder than requested, so it is the effective level anyway
		core = base
	}
	logger := zap.New(core, zap.AddCaller())
	if name != "" {
		logger = logger.Named(name)
	}
	return &impl{
		SugaredLogger: logger.Sugar(),
		name:          name,
		level:         atomic,
		base:          base,
	}
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = imp.name + "." + subname
	}
	return newImpl(newName, imp.base, imp.level.Level())
}

func (imp *impl) SetLevel(level zapcore.Level) {
	imp.level.SetLevel(level)
}

func (imp *impl) GetLevel() zapcore.Level {
	return imp.level.Level()
}
