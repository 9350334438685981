package monitoring

import "log"

// Logf is the package-level diagnostic logger shared by the planner layers.
// It defaults to log.Printf and may be swapped with SetLogger, e.g. to mute
// output in tests or to route lines into a host's own logger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a logger that tags every line with "[component] ".
// The returned func resolves Logf at call time, so a later SetLogger
// still takes effect for loggers created earlier.
func Prefixed(component string) func(format string, v ...interface{}) {
	prefix := "[" + component + "] "
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}
