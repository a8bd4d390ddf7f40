// Package pager streams rendered CLI output to the terminal, applying the
// shell's pipe filters and pausing at a --more-- prompt every page.
package pager

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/netascode/mgmt-cli/pipe"
)

const (
	DefaultPageLength = 24
	MorePrompt        = "--more--"

	eraseLine = "\r\x1b[K"
	ctrlC     = 0x03
)

// Terminal delivers single keystrokes.
type Terminal interface {
	ReadKey() (byte, error)
}

// TerminalModeError is returned by a Terminal that could not switch modes.
// The writer keeps printing without paging when it sees one.
type TerminalModeError struct {
	Op  string
	Err error
}

func (e *TerminalModeError) Error() string {
	return fmt.Sprintf("terminal %s: %v", e.Op, e.Err)
}

func (e *TerminalModeError) Unwrap() error {
	return e.Err
}

// Context is the pagination state of one CLI invocation.
type Context struct {
	// PageLength is the number of lines per page; 0 disables paging.
	PageLength int
	// LineCount is the number of lines emitted since the last prompt.
	LineCount int
	// Pipe is the shell's pipe directive, nil when there is none.
	Pipe *pipe.Directive
}

// ParsePageLength parses a terminal length setting, falling back to
// DefaultPageLength when s is empty or invalid.
func ParsePageLength(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return DefaultPageLength
	}
	return n
}

type state int

const (
	streaming state = iota
	// awaitingKey is held while the --more-- prompt is shown.
	awaitingKey
	done
)

// readyChecker is implemented by terminals that can tell, before a prompt is
// shown, that keystrokes cannot be read.
type readyChecker interface {
	Ready() error
}

// Writer is the paginated output writer.
type Writer struct {
	ctx  *Context
	out  io.Writer
	term Terminal
	st   state
}

// New returns a writer on out. A nil term disables paging.
func New(ctx *Context, out io.Writer, term Terminal) *Writer {
	if ctx == nil {
		ctx = &Context{PageLength: DefaultPageLength}
	}
	return &Writer{ctx: ctx, out: out, term: term}
}

// Context returns the writer's pagination context.
func (w *Writer) Context() *Context {
	return w.ctx
}

// Stopped reports whether the last Write was aborted by the user.
func (w *Writer) Stopped() bool {
	return w.st == done
}

// Paging reports whether a Write without disablePage would prompt.
func (w *Writer) Paging() bool {
	return w.pageLength(false) > 0
}

// Write emits text line by line and reports whether the user stopped the
// output at a --more-- prompt. disablePage turns off paging for this call.
func (w *Writer) Write(text string, disablePage bool) bool {
	w.ctx.LineCount = 0
	w.ctx.Pipe.Reset()
	w.st = streaming

	pageLength := w.pageLength(disablePage)
	for _, line := range splitLines(text) {
		if !w.ctx.Pipe.ProcessPipes(line) {
			continue
		}
		if pageLength > 0 && w.ctx.LineCount >= pageLength {
			pageLength = w.more(pageLength)
			if w.st == done {
				return true
			}
		}
		if _, err := io.WriteString(w.out, line+"\n"); err != nil {
			log.Printf("[ERROR] writing output: %v", err)
			w.st = done
			return true
		}
		w.ctx.LineCount++
	}
	return false
}

func (w *Writer) pageLength(disablePage bool) int {
	if disablePage || w.term == nil || w.ctx.PageLength <= 0 || w.ctx.Pipe.IsPageDisabled() {
		return 0
	}
	return w.ctx.PageLength
}

// more moves the writer to awaitingKey, shows the prompt and waits for a key.
// It leaves the writer streaming or done and returns the page length to
// continue with; 0 when the terminal cannot deliver keys.
func (w *Writer) more(pageLength int) int {
	if rc, ok := w.term.(readyChecker); ok {
		if err := rc.Ready(); err != nil {
			return w.unpaged(err)
		}
	}
	w.st = awaitingKey
	_, _ = io.WriteString(w.out, MorePrompt)
	for w.st == awaitingKey {
		key, err := w.term.ReadKey()
		if err != nil {
			_, _ = io.WriteString(w.out, eraseLine)
			var merr *TerminalModeError
			if errors.As(err, &merr) {
				return w.unpaged(err)
			}
			log.Printf("[DEBUG] reading key at --more--: %v", err)
			w.st = done
			break
		}
		switch key {
		case ' ':
			w.ctx.LineCount = 0
			w.st = streaming
		case '\r', '\n':
			w.ctx.LineCount = pageLength - 1
			w.st = streaming
		case 'q', 'Q', ctrlC:
			w.st = done
		default:
			continue
		}
		_, _ = io.WriteString(w.out, eraseLine)
	}
	return pageLength
}

// unpaged stops paging for the rest of the Write.
func (w *Writer) unpaged(err error) int {
	log.Printf("[ERROR] %v, paging disabled", err)
	w.ctx.LineCount = 0
	w.st = streaming
	return 0
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
