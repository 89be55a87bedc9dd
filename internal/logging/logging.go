// Package logging provides a minimal structured-enough logger shared by every
// subsystem of the core. It intentionally stays on the standard library: the
// daemon has no log-shipping or JSON-sink requirement, and every subsystem
// just needs a prefixed line on stdout.
package logging

import (
	"log"
	"os"
	"sync/atomic"
)

var (
	disabled atomic.Bool
	logger   = log.New(os.Stdout, "", log.LstdFlags)
)

// Disable turns off all logging (used by tests that assert on stdout).
func Disable() { disabled.Store(true) }

// Enable turns logging back on.
func Enable() { disabled.Store(false) }

func Info(v ...any)                    { println("INFO", v...) }
func Infof(format string, v ...any)    { printlnf("INFO", format, v...) }
func Warn(v ...any)                    { println("WARN", v...) }
func Warnf(format string, v ...any)    { printlnf("WARN", format, v...) }
func Error(v ...any)                   { println("ERROR", v...) }
func Errorf(format string, v ...any)   { printlnf("ERROR", format, v...) }
func Debug(v ...any)                   { println("DEBUG", v...) }
func Debugf(format string, v ...any)   { printlnf("DEBUG", format, v...) }

func println(level string, v ...any) {
	if disabled.Load() {
		return
	}
	args := append([]any{level}, v...)
	logger.Println(args...)
}

func printlnf(level, format string, v ...any) {
	if disabled.Load() {
		return
	}
	logger.Printf(level+" "+format, v...)
}

// Logger tags every line with a component name, e.g. "[router] tier0 miss".
// Subsystems hold one of these rather than calling the package-level
// functions directly, so heartbeat/daemon output reads as one coherent log.
type Logger struct {
	component string
}

// New returns a Logger tagged with the given component name.
func New(component string) Logger {
	return Logger{component: component}
}

func (l Logger) Info(v ...any)                  { println("INFO", l.prefix(v...)...) }
func (l Logger) Infof(format string, v ...any)  { printlnf("INFO", "[%s] "+format, l.prefixf(v)...) }
func (l Logger) Warn(v ...any)                  { println("WARN", l.prefix(v...)...) }
func (l Logger) Warnf(format string, v ...any)  { printlnf("WARN", "[%s] "+format, l.prefixf(v)...) }
func (l Logger) Error(v ...any)                 { println("ERROR", l.prefix(v...)...) }
func (l Logger) Errorf(format string, v ...any) { printlnf("ERROR", "[%s] "+format, l.prefixf(v)...) }

func (l Logger) prefix(v ...any) []any {
	return append([]any{"[" + l.component + "]"}, v...)
}

func (l Logger) prefixf(v []any) []any {
	return append([]any{l.component}, v...)
}
