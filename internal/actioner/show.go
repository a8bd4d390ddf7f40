package actioner

import (
	"context"
	"strconv"

	"github.com/tidwall/gjson"

	restconf "github.com/netascode/mgmt-cli"
)

const (
	interfacesPath = "/data/openconfig-interfaces:interfaces"
	interfacePath  = "/data/openconfig-interfaces:interfaces/interface={name}"
	interfaceMTU   = "/data/openconfig-interfaces:interfaces/interface={name}/config/mtu"
	clockPath      = "/data/openconfig-system:system/state"

	showInterfaceTemplate   = "show_interface.tmpl"
	showSystemClockTemplate = "show_system_clock.tmpl"
)

func init() {
	register(Command{
		Name:  "show_interface",
		Args:  "[name]",
		Short: "Show interface status",
		Run:   showInterface,
	})
	register(Command{
		Name:    "interface_mtu",
		Args:    "<name> <mtu>",
		Short:   "Set the MTU of an interface",
		MinArgs: 2,
		Run:     interfaceMtu,
	})
	register(Command{
		Name:  "show_system_clock",
		Short: "Show the system clock and boot time",
		Run:   showSystemClock,
	})
}

func showInterface(ctx context.Context, env *Env, args []string) error {
	path := interfacesPath
	if len(args) > 0 {
		var err error
		path, err = restconf.ResolvePath(interfacePath, map[string]string{"name": args[0]})
		if err != nil {
			return err
		}
	}
	res, err := env.check(env.Client.Get(ctx, path, nil))
	if err != nil {
		return err
	}
	list := res.JSON().Get("openconfig-interfaces:interfaces.interface")
	if !list.Exists() {
		list = res.JSON().Get("openconfig-interfaces:interface")
	}
	_, err = env.Renderer.RenderCLI(showInterfaceTemplate, interfaceRows(list), nil, false)
	return err
}

// interfaceRows flattens openconfig interface entries into
// {"interface": [{name, admin, oper, mtu, description}]}.
func interfaceRows(list gjson.Result) gjson.Result {
	rows := restconf.Body{}.SetRaw("interface", "[]")
	list.ForEach(func(_, intf gjson.Result) bool {
		state := intf.Get("state")
		if !state.Exists() {
			state = intf.Get("config")
		}
		row := restconf.Body{}.
			Set("name", intf.Get("name").String()).
			Set("admin", state.Get("admin-status").String()).
			Set("oper", state.Get("oper-status").String()).
			Set("mtu", state.Get("mtu").Int()).
			Set("description", state.Get("description").String())
		rows = rows.SetRaw("interface.-1", row.Str)
		return true
	})
	return rows.Res()
}

func interfaceMtu(ctx context.Context, env *Env, args []string) error {
	mtu, err := strconv.Atoi(args[1])
	if err != nil || mtu <= 0 {
		return &UsageError{Msg: "invalid MTU " + strconv.Quote(args[1])}
	}
	path, err := restconf.ResolvePath(interfaceMTU, map[string]string{"name": args[0]})
	if err != nil {
		return err
	}
	body := restconf.Body{}.Set("openconfig-interfaces:mtu", mtu)
	_, err = env.check(env.Client.Patch(ctx, path, body))
	return err
}

func showSystemClock(ctx context.Context, env *Env, args []string) error {
	res, err := env.check(env.Client.Get(ctx, clockPath, nil))
	if err != nil {
		return err
	}
	state := res.JSON().Get("openconfig-system:state")
	if !state.Exists() {
		return nil
	}
	// boot-time is nanoseconds since the epoch
	data := restconf.Body{}.
		Set("hostname", state.Get("hostname").String()).
		Set("current_datetime", state.Get("current-datetime").String()).
		Set("boot_time", state.Get("boot-time").Int()/1e9)
	_, err = env.Renderer.RenderCLI(showSystemClockTemplate, data.Res(), nil, false)
	return err
}
