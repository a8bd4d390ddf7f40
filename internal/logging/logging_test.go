package logging

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordSink struct {
	lines []string
}

func (r *recordSink) add(lvl, m string) error {
	r.lines = append(r.lines, lvl+" "+m)
	return nil
}
func (r *recordSink) Debug(m string) error   { return r.add("debug", m) }
func (r *recordSink) Info(m string) error    { return r.add("info", m) }
func (r *recordSink) Warning(m string) error { return r.add("warning", m) }
func (r *recordSink) Err(m string) error     { return r.add("err", m) }

func TestParseLevel(t *testing.T) {
	lvl, msg := ParseLevel("[ERROR] HTTP Connection error")
	assert.Equal(t, LevelError, lvl)
	assert.Equal(t, "HTTP Connection error", msg)

	lvl, msg = ParseLevel("[NOTICE] x")
	assert.Equal(t, LevelInfo, lvl)
	assert.Equal(t, "[NOTICE] x", msg)

	lvl, _ = ParseLevel("plain")
	assert.Equal(t, LevelInfo, lvl)
}

func TestWriter(t *testing.T) {
	sink := &recordSink{}
	var echo bytes.Buffer
	logger := log.New(NewWriter(sink, &echo, LevelDebug), "", 0)

	logger.Printf("[TRACE] dropped")
	logger.Printf("[DEBUG] HTTP Request: GET")
	logger.Printf("[WARN] slow")
	logger.Printf("[ERROR] failed")
	logger.Printf("started")

	assert.Equal(t, []string{"debug HTTP Request: GET", "warning slow", "err failed", "info started"}, sink.lines)
	assert.Contains(t, echo.String(), "[TRACE] dropped\n")
	assert.Contains(t, echo.String(), "[ERROR] failed\n")
}

func TestWriterNoSink(t *testing.T) {
	var echo bytes.Buffer
	w := NewWriter(nil, &echo, LevelDebug)
	n, err := w.Write([]byte("[INFO] hello\n"))
	assert.NoError(t, err)
	assert.Equal(t, 13, n)
	assert.Equal(t, "[INFO] hello\n", echo.String())
}

func TestEchoEnabled(t *testing.T) {
	for v, want := range map[string]bool{"": false, "0": false, "false": false, "1": true, "yes": true, "True": true} {
		t.Setenv(EnvLogToScreen, v)
		assert.Equal(t, want, EchoEnabled(), v)
	}
}
