package rigid

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Logger is what a World reports through. Nothing is logged per contact; the
// hot path stays silent.
type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// Named returns a logger for one part of the simulation (bodies, steps,
	// the runner). It writes to the same place and shares the debug switch.
	Named(subsystem string) Logger
}

// logSink is the output shared by a DefaultLogger and every logger named
// from it.
type logSink struct {
	mu    sync.Mutex
	debug bool
	out   *log.Logger
	err   *log.Logger
}

// DefaultLogger writes "[prefix] LEVEL: msg" lines, debug and info to stdout,
// warnings and errors to stderr. Named children extend the prefix as
// "[prefix/subsystem]".
type DefaultLogger struct {
	sink   *logSink
	prefix string
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		prefix: prefix,
		sink: &logSink{
			debug: debug,
			out:   log.New(os.Stdout, "", flags),
			err:   log.New(os.Stderr, "", flags),
		},
	}
}

func (l *DefaultLogger) Named(subsystem string) Logger {
	prefix := subsystem
	if l.prefix != "" {
		prefix = l.prefix + "/" + subsystem
	}
	return &DefaultLogger{sink: l.sink, prefix: prefix}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.sink.mu.Lock()
	l.sink.debug = enabled
	l.sink.mu.Unlock()
}

func (l *DefaultLogger) format(level string, format string, args ...any) string {
	if l.prefix != "" {
		return fmt.Sprintf("[%s] %s: %s", l.prefix, level, fmt.Sprintf(format, args...))
	}
	return fmt.Sprintf("%s: %s", level, fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.sink.out.Print(l.format("DEBUG", format, args...))
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.sink.out.Print(l.format("INFO", format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.sink.err.Print(l.format("WARN", format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.sink.err.Print(l.format("ERROR", format, args...))
}

// worldLoggers are the per-subsystem loggers a World hands out.
type worldLoggers struct {
	root   Logger
	bodies Logger
	steps  Logger
	runner Logger
}

func newWorldLoggers(root Logger) worldLoggers {
	return worldLoggers{
		root:   root,
		bodies: root.Named("body"),
		steps:  root.Named("step"),
		runner: root.Named("runner"),
	}
}

type nopLogger struct{}

func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool    { return false }
func (nopLogger) SetDebug(bool)         {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
func (nopLogger) Named(string) Logger   { return nopLogger{} }
