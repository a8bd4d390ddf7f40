package pager

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

var errNotTerminal = errors.New("not a terminal")

// TTY reads single keystrokes from a terminal. Each ReadKey puts the
// terminal into cbreak mode for exactly one read and restores it afterwards.
type TTY struct {
	f *os.File
}

// NewTTY returns a TTY on f, usually os.Stdin.
func NewTTY(f *os.File) *TTY {
	return &TTY{f: f}
}

// NewStdout returns a writer on os.Stdout. Paging is only enabled when both
// stdin and stdout are terminals.
func NewStdout(ctx *Context) *Writer {
	var t Terminal
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		t = NewTTY(os.Stdin)
	}
	return New(ctx, os.Stdout, t)
}

// Ready returns a *TerminalModeError when t is not a terminal.
func (t *TTY) Ready() error {
	if !term.IsTerminal(int(t.f.Fd())) {
		return &TerminalModeError{Op: "check", Err: errNotTerminal}
	}
	return nil
}

// ReadKey blocks until one byte is available.
func (t *TTY) ReadKey() (byte, error) {
	fd := int(t.f.Fd())
	restore, err := makeCbreak(fd)
	if err != nil {
		return 0, err
	}
	defer restore()

	// Restore the terminal if we are killed while blocked in the read.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	finished := make(chan struct{})
	defer func() {
		signal.Stop(sigs)
		close(finished)
	}()
	go func() {
		select {
		case s := <-sigs:
			restore()
			code := 1
			if sig, ok := s.(syscall.Signal); ok {
				code = 128 + int(sig)
			}
			os.Exit(code)
		case <-finished:
		}
	}()

	var buf [1]byte
	for {
		n, err := t.f.Read(buf[:])
		if n == 1 {
			return buf[0], nil
		}
		if err == syscall.EINTR {
			continue
		}
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
}
