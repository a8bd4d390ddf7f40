// Package logging routes the standard logger to the local syslog daemon and,
// when requested, echoes it to the console.
//
// Log lines carry their level as a bracketed prefix, e.g.
//
//	log.Printf("[DEBUG] HTTP Request: %s", url)
package logging

import (
	"bytes"
	"io"
	"log"
	"log/syslog"
	"os"
	"strings"
	"sync"
)

// EnvLogToScreen names the environment variable enabling console echo.
const EnvLogToScreen = "LOGTOSCREEN"

// Level is a log line level parsed from its prefix.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var prefixes = map[string]Level{
	"[TRACE]": LevelTrace,
	"[DEBUG]": LevelDebug,
	"[INFO]":  LevelInfo,
	"[WARN]":  LevelWarn,
	"[ERROR]": LevelError,
}

// ParseLevel returns the level of a log line and the line without its
// prefix. Lines without a known prefix are info.
func ParseLevel(line string) (Level, string) {
	if strings.HasPrefix(line, "[") {
		if end := strings.IndexByte(line, ']'); end > 0 {
			if lvl, ok := prefixes[line[:end+1]]; ok {
				return lvl, strings.TrimLeft(line[end+1:], " ")
			}
		}
	}
	return LevelInfo, line
}

// Sink receives log lines by level.
type Sink interface {
	Debug(m string) error
	Info(m string) error
	Warning(m string) error
	Err(m string) error
}

// Writer is an io.Writer for log.SetOutput.
type Writer struct {
	mu   sync.Mutex
	sink Sink
	echo io.Writer
	min  Level
}

// NewWriter returns a writer forwarding to sink, echoing every line to echo
// when it is not nil. Lines below min are dropped from the sink.
func NewWriter(sink Sink, echo io.Writer, min Level) *Writer {
	return &Writer{sink: sink, echo: echo, min: min}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.echo != nil {
		_, _ = w.echo.Write(p)
	}
	if w.sink == nil {
		return len(p), nil
	}
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte{'\n'}) {
		lvl, msg := ParseLevel(string(line))
		if lvl < w.min {
			continue
		}
		w.send(lvl, msg)
	}
	return len(p), nil
}

func (w *Writer) send(lvl Level, msg string) {
	switch lvl {
	case LevelError:
		_ = w.sink.Err(msg)
	case LevelWarn:
		_ = w.sink.Warning(msg)
	case LevelInfo:
		_ = w.sink.Info(msg)
	default:
		_ = w.sink.Debug(msg)
	}
}

// EchoEnabled reports whether LOGTOSCREEN asks for console output.
func EchoEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogToScreen))) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

// Setup points the standard logger at syslog under tag. With echo set, lines
// are copied to stderr as well. The returned func closes the syslog
// connection.
func Setup(tag string, echo bool) func() {
	log.SetFlags(0)
	var echoTo io.Writer
	if echo {
		echoTo = os.Stderr
	}

	sys, err := syslog.New(syslog.LOG_INFO|syslog.LOG_USER, tag)
	if err != nil {
		if echoTo == nil {
			log.SetOutput(io.Discard)
		} else {
			log.SetOutput(echoTo)
		}
		return func() {}
	}
	log.SetOutput(NewWriter(sys, echoTo, LevelDebug))
	return func() {
		_ = sys.Close()
	}
}
