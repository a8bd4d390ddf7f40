//go:build linux

package pager

import (
	"sync"

	"golang.org/x/sys/unix"
)

// makeCbreak disables canonical input, echo and signal generation with a one
// byte minimum blocking read, and flushes pending input. The returned func
// restores the previous mode and is safe to call more than once.
func makeCbreak(fd int) (func(), error) {
	old, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, &TerminalModeError{Op: "get attributes", Err: err}
	}
	raw := *old
	raw.Lflag &^= unix.ICANON | unix.ECHO | unix.ISIG
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, &TerminalModeError{Op: "set attributes", Err: err}
	}
	_ = unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH)

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = unix.IoctlSetTermios(fd, unix.TCSETS, old)
		})
	}, nil
}
