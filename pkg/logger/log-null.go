package logger

// NullLogger - For mocking out in tests
type NullLogger struct {
}

func (l *NullLogger) Printf(level LogLevel, format string, a ...interface{}) {
	// We do nothing!
}
func (l *NullLogger) Debugf(format string, a ...interface{}) {
	// We do nothing!
}
func (l *NullLogger) Infof(format string, a ...interface{}) {
	// We do nothing!
}
func (l *NullLogger) Errorf(format string, a ...interface{}) {
	// We do nothing!
}
