//go:build !linux

package pager

import (
	"sync"

	"golang.org/x/term"
)

func makeCbreak(fd int) (func(), error) {
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, &TerminalModeError{Op: "make raw", Err: err}
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			_ = term.Restore(fd, old)
		})
	}, nil
}
