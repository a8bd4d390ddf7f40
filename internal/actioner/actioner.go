// Package actioner maps CLI function names to handlers that issue RESTCONF
// requests and render the responses.
package actioner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	restconf "github.com/netascode/mgmt-cli"
	"github.com/netascode/mgmt-cli/hostsvc"
	"github.com/netascode/mgmt-cli/render"
)

const (
	// ExitSuccess means nominal status
	ExitSuccess = 0
	// ExitError means an API, validation or rendering error was reported
	ExitError = 1
)

// MsgTransactionFailure is printed for failures that are not API errors.
const MsgTransactionFailure = "%Error: Transaction Failure"

// Env is what handlers act on.
type Env struct {
	Client   *restconf.Client
	Renderer *render.Renderer
	// Host dials the host service.
	Host   func() (*hostsvc.Client, error)
	ErrOut io.Writer
	// Formatter formats API errors; nil uses restconf.DefaultErrorFormatter.
	Formatter restconf.ErrorFormatter
}

// Handler runs one CLI function.
type Handler func(ctx context.Context, env *Env, args []string) error

// Command is a registry entry.
type Command struct {
	Name    string
	Args    string
	Short   string
	MinArgs int
	Run     Handler
}

// APIError is a non-2xx RESTCONF response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// UsageError is a bad command invocation.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

var commands = map[string]Command{}

func register(c Command) {
	if _, dup := commands[c.Name]; dup {
		panic("actioner: duplicate command " + c.Name)
	}
	commands[c.Name] = c
}

// Lookup returns the command registered under name.
func Lookup(name string) (Command, bool) {
	c, ok := commands[name]
	return c, ok
}

// Commands returns all commands sorted by name.
func Commands() []Command {
	out := make([]Command, 0, len(commands))
	for _, c := range commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Run executes the function name with args and returns the process exit code.
func Run(ctx context.Context, env *Env, name string, args []string) int {
	c, ok := Lookup(name)
	if !ok {
		fmt.Fprintf(env.ErrOut, "%%Error: unknown command %q\n", name)
		return ExitError
	}
	if len(args) < c.MinArgs {
		fmt.Fprintf(env.ErrOut, "%%Error: usage: %s %s\n", c.Name, c.Args)
		return ExitError
	}
	log.Printf("[DEBUG] running %s %s", name, strings.Join(args, " "))
	return env.exitCode(c.Run(ctx, env, args))
}

func (env *Env) exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var apiErr *APIError
	var usageErr *UsageError
	var notFound *render.TemplateNotFoundError
	var renderErr *render.TemplateRenderError
	switch {
	case errors.As(err, &apiErr):
		fmt.Fprintln(env.ErrOut, apiErr.Message)
	case errors.As(err, &usageErr):
		fmt.Fprintf(env.ErrOut, "%%Error: %s\n", usageErr.Msg)
	case errors.As(err, &notFound), errors.As(err, &renderErr):
		// already reported by the renderer
	default:
		log.Printf("[ERROR] %v", err)
		fmt.Fprintf(env.ErrOut, "%s\n", MsgTransactionFailure)
	}
	return ExitError
}

// check turns a response into an APIError when it is not 2xx.
func (env *Env) check(res *restconf.Res, err error) (*restconf.Res, error) {
	if err != nil {
		return nil, err
	}
	if !res.Ok() {
		return res, &APIError{StatusCode: res.StatusCode, Message: res.ErrorMessage(env.Formatter)}
	}
	return res, nil
}

// parseParams reads key=value arguments.
func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, &UsageError{Msg: fmt.Sprintf("expected key=value, got %q", a)}
		}
		params[k] = v
	}
	return params, nil
}
