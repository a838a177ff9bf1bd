package logger

// LogLevel - log level type
type LogLevel int

const (
	// LogDebug - DEBUG log level
	LogDebug LogLevel = iota

	// LogInfo - INFO log level
	LogInfo

	// LogError - ERROR log level (does not call os.Exit!)
	LogError
)

var logLevelPrefix = map[LogLevel]string{
	LogDebug: "DEBUG",
	LogInfo:  "INFO",
	LogError: "ERROR",
}

func (l LogLevel) String() string {
	if s, ok := logLevelPrefix[l]; ok {
		return s
	}
	return "UNKNOWN"
}

// ILogger - Generic logger interface
type ILogger interface {
	Printf(level LogLevel, format string, a ...interface{})
	Debugf(format string, a ...interface{})
	Infof(format string, a ...interface{})
	Errorf(format string, a ...interface{})
}
