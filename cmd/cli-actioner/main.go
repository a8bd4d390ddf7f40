/*
Command cli-actioner runs one CLI function against the local management API.

The shell invokes it as

	cli-actioner <function> [args...]

and passes the original command line, including any "| include ..." pipe
filters, on the descriptor named by CLI_PIPE_FD. Output goes to stdout through
the --more-- pager; errors go to stderr.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	restconf "github.com/netascode/mgmt-cli"
	"github.com/netascode/mgmt-cli/hostsvc"
	"github.com/netascode/mgmt-cli/internal/actioner"
	"github.com/netascode/mgmt-cli/internal/config"
	"github.com/netascode/mgmt-cli/internal/logging"
	"github.com/netascode/mgmt-cli/pager"
	"github.com/netascode/mgmt-cli/pipe"
	"github.com/netascode/mgmt-cli/render"
)

const logTag = "mgmt-cli"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%%Error: %v\n", err)
		return actioner.ExitError
	}
	closeLog := logging.Setup(logTag, cfg.LogToScreen)
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	err = actioner.GetCommand(func() (*actioner.Env, error) {
		return newEnv(cfg)
	}).ExecuteContext(ctx)

	var exit *actioner.ExitCodeError
	switch {
	case err == nil:
		return actioner.ExitSuccess
	case errors.As(err, &exit):
		return exit.Code
	default:
		log.Printf("[ERROR] %v", err)
		fmt.Fprintf(os.Stderr, "%%Error: %v\n", err)
		return actioner.ExitError
	}
}

func newEnv(cfg config.Config) (*actioner.Env, error) {
	directive, err := pipe.FromEnv().Read()
	if err != nil {
		return nil, fmt.Errorf("invalid pipe: %w", err)
	}
	client, err := restconf.NewClient(cfg.RestconfURL, cfg.Insecure, cfg.ClientOptions()...)
	if err != nil {
		return nil, err
	}
	out := pager.NewStdout(&pager.Context{PageLength: cfg.PageLength, Pipe: directive})
	return &actioner.Env{
		Client:   &client,
		Renderer: render.New(cfg.TemplatePath, out),
		Host:     hostsvc.Dial,
		ErrOut:   os.Stderr,
	}, nil
}
