package auth

import "go.uber.org/zap"

type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger adapts a zap logger to Logger. A nil logger discards
// everything.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return zapLogger{s: l.Sugar()}
}

func (z zapLogger) Debug(msg string, args ...any) {
	z.s.Debugw(msg, args...)
}

func (z zapLogger) Info(msg string, args ...any) {
	z.s.Infow(msg, args...)
}

func (z zapLogger) Warn(msg string, args ...any) {
	z.s.Warnw(msg, args...)
}

func (z zapLogger) Error(msg string, args ...any) {
	z.s.Errorw(msg, args...)
}

func defLogger() Logger {
	return NewZapLogger(nil)
}
