// Package corelog provides the logging interface shared by the engine,
// the cleaners and the command line tool.
package corelog

import (
	"log"
	"os"
	"runtime/debug"
	"strings"
)

// Logger defines the output interface used by bleanser components.
type Logger interface {
	Debug(...interface{})
	Debugf(string, ...interface{})
	Info(...interface{})
	Infof(string, ...interface{})
	Warn(...interface{})
	Warnf(string, ...interface{})
	Error(...interface{})
	Errorf(string, ...interface{})
	Critical(...interface{})
	Criticalf(string, ...interface{})
}

// DefaultLogger is the default logger used by the engine, and wraps the
// standard log library.
type DefaultLogger struct {
	Verbose bool

	D *log.Logger
	I *log.Logger
	W *log.Logger
	E *log.Logger
}

// NewLogger returns a configured default logger which writes to stderr.
func NewLogger() *DefaultLogger {
	return &DefaultLogger{
		D: log.New(os.Stderr, "[DEBUG] ", log.LstdFlags),
		I: log.New(os.Stderr, "[INFO] ", log.LstdFlags),
		W: log.New(os.Stderr, "[WARN] ", log.LstdFlags),
		E: log.New(os.Stderr, "[ERROR] ", log.LstdFlags),
	}
}

// Debug writes to the "debug" logger, only if Verbose is set.
func (d *DefaultLogger) Debug(v ...interface{}) {
	if d.Verbose {
		d.D.Println(v...)
	}
}

// Debugf writes to the "debug" logger with printf-style formatting, only if Verbose is set.
func (d *DefaultLogger) Debugf(f string, v ...interface{}) {
	if d.Verbose {
		d.D.Printf(f, v...)
	}
}

// Info writes to the "info" logger.
func (d *DefaultLogger) Info(v ...interface{}) { d.I.Println(v...) }

// Infof writes to the "info" logger with printf-style formatting.
func (d *DefaultLogger) Infof(f string, v ...interface{}) { d.I.Printf(f, v...) }

// Warn writes to the "warning" logger.
func (d *DefaultLogger) Warn(v ...interface{}) { d.W.Println(v...) }

// Warnf writes to the "warning" logger with printf-style formatting.
func (d *DefaultLogger) Warnf(f string, v ...interface{}) { d.W.Printf(f, v...) }

// Error writes to the "error" logger.
func (d *DefaultLogger) Error(v ...interface{}) { d.E.Println(v...) }

// Errorf writes to the "error" logger with printf-style formatting.
func (d *DefaultLogger) Errorf(f string, v ...interface{}) { d.E.Printf(f, v...) }

// Critical writes to the "error" logger and logs the current stacktrace.
func (d *DefaultLogger) Critical(v ...interface{}) {
	d.E.Println(v...)
	d.logStacktraceToErr()
}

// Criticalf writes to the "error" logger with printf-style formatting and logs the
// current stacktrace.
func (d *DefaultLogger) Criticalf(f string, v ...interface{}) {
	d.E.Printf(f, v...)
	d.logStacktraceToErr()
}

// logStacktraceToErr prints a stacktrace to the logger's error output.
// It skips 3 levels that aren't meaningful to a logged stacktrace:
// * debug.Stack()
// * captureStacktrace()
// * DefaultLogger.logStacktraceToErr()
func (d *DefaultLogger) logStacktraceToErr() {
	d.E.Println("stacktrace:\n" + strings.Join(captureStacktrace(3), "\n"))
}

func captureStacktrace(skip int) []string {
	stack := string(debug.Stack())
	lines := strings.Split(stack, "\n")
	linesToSkip := 2*skip + 1
	if linesToSkip > len(lines) {
		return lines
	}
	return lines[linesToSkip:]
}
