// Package monitoring holds the process-wide diagnostic logger shared by the
// engine, the recorder and the replay tools.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf.
// Tests mute it with SetLogger(nil); the viewer leaves it on stderr.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
