package actioner

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ExitCodeError carries a non-zero exit code out of cobra.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// GetCommand returns the root command with one subcommand per registered
// function. newEnv is called once, when a subcommand runs.
func GetCommand(newEnv func() (*Env, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cli-actioner <function> [args]",
		Short:         "Run a CLI function against the management API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	for _, c := range Commands() {
		cmd.AddCommand(getFunctionCommand(c, newEnv))
	}
	return cmd
}

func getFunctionCommand(c Command, newEnv func() (*Env, error)) *cobra.Command {
	use := c.Name
	if c.Args != "" {
		use += " " + c.Args
	}
	return &cobra.Command{
		Use:   use,
		Short: c.Short,
		// arguments are positional and may look like flags, e.g. JSON or negative numbers
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv()
			if err != nil {
				return err
			}
			if code := Run(cmd.Context(), env, c.Name, args); code != ExitSuccess {
				return &ExitCodeError{Code: code}
			}
			return nil
		},
	}
}
