// Package pipe reads the command line the invoking shell hands over on an
// inherited file descriptor and applies its "| filter" segments to output
// lines.
package pipe

import (
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/shlex"
)

// EnvFD names the environment variable holding the descriptor number.
const EnvFD = "CLI_PIPE_FD"

// Kind is a pipe filter type.
type Kind int

const (
	Unknown Kind = iota
	// Include keeps matching lines (grep, include, match).
	Include
	// Exclude drops matching lines (except, exclude).
	Exclude
	// Begin emits everything from the first matching line on (find, begin).
	Begin
	// NoMore disables pagination.
	NoMore
)

var kinds = map[string]Kind{
	"grep":    Include,
	"include": Include,
	"match":   Include,
	"except":  Exclude,
	"exclude": Exclude,
	"find":    Begin,
	"begin":   Begin,
	"no-more": NoMore,
}

// Filter is one "| name args" segment.
type Filter struct {
	Kind Kind
	Name string
	Arg  string
	re   *regexp.Regexp
}

func (f *Filter) matches(line string) bool {
	if f.re != nil {
		return f.re.MatchString(line)
	}
	return strings.Contains(line, f.Arg)
}

// Directive is the parsed command line. A nil *Directive lets everything
// through.
type Directive struct {
	Command string
	Filters []*Filter

	begun map[*Filter]bool
}

// Parse splits a command line at unquoted '|' characters. The first segment
// is the command; each following one is a filter, split into words with
// shell quoting rules. Patterns containing backslashes or '#' must be single
// quoted.
func Parse(line string) (*Directive, error) {
	segs, err := splitPipes(line)
	if err != nil {
		return nil, err
	}
	d := &Directive{Command: strings.TrimSpace(segs[0])}
	for _, seg := range segs[1:] {
		fields, err := shlex.Split(seg)
		if err != nil {
			return nil, fmt.Errorf("pipe segment %q: %w", strings.TrimSpace(seg), err)
		}
		if len(fields) == 0 {
			return nil, fmt.Errorf("empty pipe segment in %q", line)
		}
		f := &Filter{Name: fields[0], Kind: kinds[fields[0]], Arg: strings.Join(fields[1:], " ")}
		switch f.Kind {
		case Include, Exclude, Begin:
			if f.Arg == "" {
				return nil, fmt.Errorf("pipe %q needs a pattern", f.Name)
			}
			if re, err := regexp.Compile(f.Arg); err == nil {
				f.re = re
			}
		case Unknown:
			log.Printf("[DEBUG] ignoring unsupported pipe %q", f.Name)
		}
		d.Filters = append(d.Filters, f)
	}
	return d, nil
}

// ProcessPipes reports whether line should be emitted.
func (d *Directive) ProcessPipes(line string) bool {
	if d == nil {
		return true
	}
	for _, f := range d.Filters {
		switch f.Kind {
		case Include:
			if !f.matches(line) {
				return false
			}
		case Exclude:
			if f.matches(line) {
				return false
			}
		case Begin:
			if d.begun[f] {
				continue
			}
			if !f.matches(line) {
				return false
			}
			if d.begun == nil {
				d.begun = map[*Filter]bool{}
			}
			d.begun[f] = true
		}
	}
	return true
}

// Reset clears per-output state such as an already triggered begin filter.
func (d *Directive) Reset() {
	if d != nil {
		d.begun = nil
	}
}

// IsPageDisabled reports whether a no-more filter is present.
func (d *Directive) IsPageDisabled() bool {
	if d == nil {
		return false
	}
	for _, f := range d.Filters {
		if f.Kind == NoMore {
			return true
		}
	}
	return false
}

// HasFilters reports whether any line filter is active.
func (d *Directive) HasFilters() bool {
	if d == nil {
		return false
	}
	for _, f := range d.Filters {
		switch f.Kind {
		case Include, Exclude, Begin:
			return true
		}
	}
	return false
}

// Channel reads the directive once from the shell supplied reader.
type Channel struct {
	r    io.Reader
	once sync.Once
	d    *Directive
	err  error
}

// NewChannel returns a channel reading from r. A nil reader yields a nil
// directive.
func NewChannel(r io.Reader) *Channel {
	return &Channel{r: r}
}

// OpenFD returns a channel on an inherited descriptor.
func OpenFD(fd int) *Channel {
	if fd < 0 {
		return NewChannel(nil)
	}
	f := os.NewFile(uintptr(fd), "cli-pipe")
	if f == nil {
		return NewChannel(nil)
	}
	return NewChannel(f)
}

// FromEnv opens the descriptor named by CLI_PIPE_FD, or returns a no-op
// channel when it is unset or invalid.
func FromEnv() *Channel {
	v := strings.TrimSpace(os.Getenv(EnvFD))
	if v == "" {
		return NewChannel(nil)
	}
	fd, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[ERROR] invalid %s %q: %v", EnvFD, v, err)
		return NewChannel(nil)
	}
	return OpenFD(fd)
}

// Read parses the directive on first use and returns the cached result on
// later calls.
func (c *Channel) Read() (*Directive, error) {
	c.once.Do(func() {
		if c.r == nil {
			return
		}
		if closer, ok := c.r.(io.Closer); ok {
			defer closer.Close()
		}
		data, err := io.ReadAll(c.r)
		if err != nil {
			log.Printf("[ERROR] reading pipe directive: %v", err)
			return
		}
		line := strings.TrimSpace(string(data))
		if line == "" {
			return
		}
		c.d, c.err = Parse(line)
		if c.err != nil {
			log.Printf("[ERROR] parsing pipe directive %q: %v", line, c.err)
		}
	})
	return c.d, c.err
}

func splitPipes(line string) ([]string, error) {
	var segs []string
	var quote byte
	start := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '|':
			segs = append(segs, line[start:i])
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in %q", line)
	}
	return append(segs, line[start:]), nil
}
