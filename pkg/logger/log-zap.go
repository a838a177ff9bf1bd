package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger writes console-formatted lines to stderr through zap.
type ZapLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

var _ ILogger = (*ZapLogger)(nil)

// NewZapLogger creates a logger named name that emits at level and above.
func NewZapLogger(name string, level LogLevel) *ZapLogger {
	return newZapLogger(name, level, zapcore.Lock(os.Stderr))
}

func newZapLogger(name string, level LogLevel, out zapcore.WriteSyncer) *ZapLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	atom := zap.NewAtomicLevelAt(toZapLevel(level))
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), out, atom)
	return &ZapLogger{sugar: zap.New(core).Named(name).Sugar(), level: atom}
}

func toZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LogDebug:
		return zapcore.DebugLevel
	case LogError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) Printf(level LogLevel, format string, a ...interface{}) {
	switch level {
	case LogDebug:
		l.sugar.Debugf(format, a...)
	case LogError:
		l.sugar.Errorf(format, a...)
	default:
		l.sugar.Infof(format, a...)
	}
}
func (l *ZapLogger) Debugf(format string, a ...interface{}) {
	l.sugar.Debugf(format, a...)
}
func (l *ZapLogger) Infof(format string, a ...interface{}) {
	l.sugar.Infof(format, a...)
}
func (l *ZapLogger) Errorf(format string, a ...interface{}) {
	l.sugar.Errorf(format, a...)
}

func (l *ZapLogger) SetLogLevel(level LogLevel) {
	l.level.SetLevel(toZapLevel(level))
}

// Close flushes buffered entries.
func (l *ZapLogger) Close() {
	l.sugar.Sync()
}
