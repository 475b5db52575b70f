// Package logger is the small printf-style logging surface shared by every xcreport
// component.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger defines the interface for logging throughout xcreport.
// Components prefix their messages with a tag such as "[IngestAgent]".
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// ConsoleLogger writes human-readable logs: info and debug to out, errors to errOut.
// Debug lines are dropped unless debug output was enabled.
type ConsoleLogger struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	debug  bool
}

// NewConsoleLogger logs to stdout and stderr.
func NewConsoleLogger(debug bool) *ConsoleLogger {
	return NewWriterLogger(os.Stdout, os.Stderr, debug)
}

// NewWriterLogger logs to the given writers. Used by tests and by the stdio MCP server,
// which must keep stdout for the protocol.
func NewWriterLogger(out, errOut io.Writer, debug bool) *ConsoleLogger {
	return &ConsoleLogger{out: out, errOut: errOut, debug: debug}
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	c.write(c.out, "[INFO] ", msg, args)
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	c.write(c.errOut, "[ERROR] ", msg, args)
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if !c.debug {
		return
	}
	c.write(c.out, "[DEBUG] ", msg, args)
}

func (c *ConsoleLogger) write(w io.Writer, level, msg string, args []interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(w, level+msg+"\n", args...)
}

// SilentLogger discards all log messages.
// Used when running in TUI mode to prevent log output from interfering with the display.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}
