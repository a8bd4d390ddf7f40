package actioner

import (
	"context"
	"fmt"
	"strings"

	"github.com/netascode/mgmt-cli/hostsvc"
)

func init() {
	register(Command{
		Name:    "host",
		Args:    "<module> <method> [args...]",
		Short:   "Call a host service method",
		MinArgs: 2,
		Run:     hostCall,
	})
	register(Command{
		Name:    "image_install",
		Args:    "<path-or-url>",
		Short:   "Install a software image",
		MinArgs: 1,
		Run: hostAction(func(ctx context.Context, c *hostsvc.Client, args []string) (hostsvc.Result, error) {
			return c.ImageInstall(ctx, args[0])
		}),
	})
	register(Command{
		Name:    "image_remove",
		Args:    "<image>",
		Short:   "Remove an installed image",
		MinArgs: 1,
		Run: hostAction(func(ctx context.Context, c *hostsvc.Client, args []string) (hostsvc.Result, error) {
			return c.ImageRemove(ctx, args[0])
		}),
	})
	register(Command{
		Name:    "image_set_default",
		Args:    "<image>",
		Short:   "Set the default boot image",
		MinArgs: 1,
		Run: hostAction(func(ctx context.Context, c *hostsvc.Client, args []string) (hostsvc.Result, error) {
			return c.SetDefaultImage(ctx, args[0])
		}),
	})
	register(Command{
		Name:    "image_set_next_boot",
		Args:    "<image>",
		Short:   "Set the image used on the next boot only",
		MinArgs: 1,
		Run: hostAction(func(ctx context.Context, c *hostsvc.Client, args []string) (hostsvc.Result, error) {
			return c.SetNextBoot(ctx, args[0])
		}),
	})
	register(Command{
		Name:    "kdump_config",
		Args:    "<enable|disable>",
		Short:   "Enable or disable kernel crash dumps",
		MinArgs: 1,
		Run: hostAction(func(ctx context.Context, c *hostsvc.Client, args []string) (hostsvc.Result, error) {
			return c.KdumpConfig(ctx, args[0] == "enable")
		}, 0),
	})
	register(Command{
		Name:    "ztp",
		Args:    "<enable|disable>",
		Short:   "Enable or disable zero touch provisioning",
		MinArgs: 1,
		Run: hostAction(func(ctx context.Context, c *hostsvc.Client, args []string) (hostsvc.Result, error) {
			return c.ZTP(ctx, args[0] == "enable")
		}, 0),
	})
	register(Command{
		Name:  "show_env",
		Short: "Show the platform environment",
		Run: hostAction(func(ctx context.Context, c *hostsvc.Client, args []string) (hostsvc.Result, error) {
			return c.GetEnv(ctx)
		}),
	})
	register(Command{
		Name:  "show_techsupport",
		Args:  "[since]",
		Short: "Collect a tech support archive",
		Run: hostAction(func(ctx context.Context, c *hostsvc.Client, args []string) (hostsvc.Result, error) {
			since := ""
			if len(args) > 0 {
				since = args[0]
			}
			return c.TechSupport(ctx, since)
		}),
	})
}

type hostFunc func(ctx context.Context, c *hostsvc.Client, args []string) (hostsvc.Result, error)

func hostCall(ctx context.Context, env *Env, args []string) error {
	return hostAction(func(ctx context.Context, c *hostsvc.Client, args []string) (hostsvc.Result, error) {
		return c.Call(ctx, args[0], args[1], args[2:])
	})(ctx, env, args)
}

// hostAction runs fn against the host service and prints its output
// unpaged. A non-zero status is reported like an API error. Each index in
// toggles names an argument that must be "enable" or "disable".
func hostAction(fn hostFunc, toggles ...int) Handler {
	return func(ctx context.Context, env *Env, args []string) error {
		for _, i := range toggles {
			if args[i] != "enable" && args[i] != "disable" {
				return &UsageError{Msg: fmt.Sprintf("expected enable or disable, got %q", args[i])}
			}
		}
		if env.Host == nil {
			return fmt.Errorf("host service not configured")
		}
		c, err := env.Host()
		if err != nil {
			return err
		}
		defer c.Close()
		res, err := fn(ctx, c, args)
		if err != nil {
			return err
		}
		if !res.Ok() {
			msg := strings.TrimSpace(res.Output)
			if msg == "" {
				msg = fmt.Sprintf("host service returned status %d", res.Status)
			}
			return &APIError{StatusCode: res.Status, Message: "%Error: " + msg}
		}
		if res.Output != "" {
			out := res.Output
			if !strings.HasSuffix(out, "\n") {
				out += "\n"
			}
			env.Renderer.Out.Write(out, true)
		}
		return nil
	}
}
