package actioner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"

	restconf "github.com/netascode/mgmt-cli"
	"github.com/netascode/mgmt-cli/hostsvc"
	"github.com/netascode/mgmt-cli/pager"
	"github.com/netascode/mgmt-cli/render"
)

const (
	testURL      = "https://localhost"
	templatesDir = "../../templates"
)

func init() {
	gock.BodyTypes = append(gock.BodyTypes, `application/yang-data\+json`)
}

func newTestEnv(t *testing.T, templateDir string) (*Env, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	client, err := restconf.NewClient(testURL, true)
	require.NoError(t, err)
	gock.InterceptClient(client.HttpClient)

	var out, errOut bytes.Buffer
	r := render.New(templateDir, pager.New(&pager.Context{}, &out, nil))
	r.ErrOut = &errOut
	return &Env{Client: &client, Renderer: r, ErrOut: &errOut}, &out, &errOut
}

func writeTemplate(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestRegistry(t *testing.T) {
	for _, name := range []string{
		"get_data", "patch_data", "post_data", "put_data", "delete_data",
		"show_interface", "interface_mtu", "show_system_clock", "host",
		"image_install", "image_remove", "image_set_default", "image_set_next_boot",
		"kdump_config", "ztp", "show_env", "show_techsupport",
	} {
		_, ok := Lookup(name)
		assert.True(t, ok, name)
	}
	_, ok := Lookup("no_such_function")
	assert.False(t, ok)

	cmds := Commands()
	assert.True(t, sort.SliceIsSorted(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name }))
}

func TestRunUsage(t *testing.T) {
	env, _, errOut := newTestEnv(t, t.TempDir())

	assert.Equal(t, ExitError, Run(context.Background(), env, "no_such_function", nil))
	assert.Equal(t, "%Error: unknown command \"no_such_function\"\n", errOut.String())

	errOut.Reset()
	assert.Equal(t, ExitError, Run(context.Background(), env, "get_data", []string{"show_vlan.tmpl"}))
	assert.Equal(t, "%Error: usage: get_data <template> <path> [key=value...]\n", errOut.String())

	errOut.Reset()
	assert.Equal(t, ExitError, Run(context.Background(), env, "delete_data", []string{"/data/x", "novalue"}))
	assert.Equal(t, "%Error: expected key=value, got \"novalue\"\n", errOut.String())

	errOut.Reset()
	assert.Equal(t, ExitError, Run(context.Background(), env, "delete_data", []string{"/data/x={k}"}))
	assert.Equal(t, "%Error: path \"/data/x={k}\": missing value for {k}\n", errOut.String())
}

func TestGetData(t *testing.T) {
	defer gock.Off()
	dir := t.TempDir()
	env, out, errOut := newTestEnv(t, dir)
	writeTemplate(t, dir, "show_vlan.tmpl", `{{range .json_output.VLAN_LIST}}
{{.name}} {{.vlanid}} ({{$.scope}})
{{end}}
`)

	gock.New(testURL).Get("/restconf/data/sonic-vlan:sonic-vlan/VLAN/VLAN_LIST=Vlan10").
		Reply(200).
		BodyString(`{"VLAN_LIST":[{"name":"Vlan10","vlanid":10}]}`)

	code := Run(context.Background(), env, "get_data", []string{
		"show_vlan.tmpl", "/data/sonic-vlan:sonic-vlan/VLAN/VLAN_LIST={name}", "name=Vlan10", "scope=local",
	})
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "Vlan10 10 (local)\n", out.String())
	assert.Empty(t, errOut.String())
	assert.True(t, gock.IsDone())
}

func TestGetDataEmpty(t *testing.T) {
	defer gock.Off()
	dir := t.TempDir()
	env, out, _ := newTestEnv(t, dir)
	writeTemplate(t, dir, "show_vlan.tmpl", `never`)

	gock.New(testURL).Get("/restconf/data/x").Reply(204)
	assert.Equal(t, ExitSuccess, Run(context.Background(), env, "get_data", []string{"show_vlan.tmpl", "/data/x"}))
	assert.Empty(t, out.String())
}

func TestGetDataErrors(t *testing.T) {
	defer gock.Off()
	dir := t.TempDir()
	env, out, errOut := newTestEnv(t, dir)

	// API error
	gock.New(testURL).Get("/restconf/data/x").
		Reply(404).
		BodyString(`{"ietf-restconf:errors":{"error":[{"error-type":"application","error-tag":"invalid-value","error-message":"Resource not found"}]}}`)
	assert.Equal(t, ExitError, Run(context.Background(), env, "get_data", []string{"show.tmpl", "/data/x"}))
	assert.Equal(t, "Resource not found\n", errOut.String())

	// Transport error
	errOut.Reset()
	gock.New(testURL).Get("/restconf/data/x").ReplyError(errors.New("connection refused"))
	assert.Equal(t, ExitError, Run(context.Background(), env, "get_data", []string{"show.tmpl", "/data/x"}))
	assert.Equal(t, MsgTransactionFailure+"\n", errOut.String())

	// Missing template is reported once by the renderer
	errOut.Reset()
	gock.New(testURL).Get("/restconf/data/x").Reply(200).BodyString(`{"a":1}`)
	assert.Equal(t, ExitError, Run(context.Background(), env, "get_data", []string{"missing.tmpl", "/data/x"}))
	assert.Equal(t, "%Error: Unable to render output using template missing.tmpl\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestWriteData(t *testing.T) {
	defer gock.Off()
	env, _, errOut := newTestEnv(t, t.TempDir())

	gock.New(testURL).Patch("/restconf/data/openconfig-interfaces:interfaces/interface=Ethernet0/config").
		MatchHeader("Content-Type", `application/yang-data\+json`).
		Reply(204)
	assert.Equal(t, ExitSuccess, Run(context.Background(), env, "patch_data", []string{
		"/data/openconfig-interfaces:interfaces/interface={name}/config", `{"openconfig-interfaces:config":{"enabled":true}}`, "name=Ethernet0",
	}))

	gock.New(testURL).Post("/restconf/data/sonic-vlan:sonic-vlan/VLAN").
		BodyString(`{"VLAN_LIST":[{"name":"Vlan20"}]}`).
		Reply(201)
	assert.Equal(t, ExitSuccess, Run(context.Background(), env, "post_data", []string{
		"/data/sonic-vlan:sonic-vlan/VLAN", `{"VLAN_LIST":[{"name":"Vlan20"}]}`,
	}))

	gock.New(testURL).Put("/restconf/data/x").
		Reply(400).
		BodyString(`{"ietf-restconf:errors":{"error":[{"error-tag":"operation-not-supported"}]}}`)
	assert.Equal(t, ExitError, Run(context.Background(), env, "put_data", []string{"/data/x", `{}`}))
	assert.Equal(t, restconf.MsgNotSupported+"\n", errOut.String())
	assert.True(t, gock.IsDone())

	errOut.Reset()
	assert.Equal(t, ExitError, Run(context.Background(), env, "put_data", []string{"/data/x", `{"a":`}))
	assert.Equal(t, "%Error: invalid JSON payload\n", errOut.String())
}

func TestDeleteData(t *testing.T) {
	defer gock.Off()
	env, _, errOut := newTestEnv(t, t.TempDir())

	gock.New(testURL).Delete("/restconf/data/sonic-vlan:sonic-vlan/VLAN/VLAN_LIST=Vlan10").Reply(204)
	assert.Equal(t, ExitSuccess, Run(context.Background(), env, "delete_data", []string{
		"/data/sonic-vlan:sonic-vlan/VLAN/VLAN_LIST={name}", "name=Vlan10",
	}))
	assert.Empty(t, errOut.String())

	gock.New(testURL).Delete("/restconf/data/x").Reply(403).BodyString(`{"ietf-restconf:errors":{"error":[{"error-tag":"access-denied"}]}}`)
	assert.Equal(t, ExitError, Run(context.Background(), env, "delete_data", []string{"/data/x"}))
	assert.Equal(t, restconf.MsgNotAuthorized+"\n", errOut.String())
}

const interfacesReply = `{"openconfig-interfaces:interfaces":{"interface":[
{"name":"Ethernet0","state":{"admin-status":"UP","oper-status":"UP","mtu":9100,"description":"uplink"}},
{"name":"Ethernet4","state":{"admin-status":"DOWN","oper-status":"DOWN","mtu":1500}}]}}`

func interfaceLine(name, admin, oper string, mtu int, desc string) string {
	return fmt.Sprintf("%-16s %-8s %-8s %-6v %s\n", name, admin, oper, mtu, desc)
}

func TestShowInterface(t *testing.T) {
	defer gock.Off()
	env, out, errOut := newTestEnv(t, templatesDir)

	gock.New(testURL).Get("/restconf/data/openconfig-interfaces:interfaces").
		Reply(200).
		BodyString(interfacesReply)
	require.Equal(t, ExitSuccess, Run(context.Background(), env, "show_interface", nil))
	assert.Empty(t, errOut.String())
	assert.Equal(t,
		fmt.Sprintf("%-16s %-8s %-8s %-6s %s\n", "Name", "Admin", "Oper", "MTU", "Description")+
			fmt.Sprintf("%-16s %-8s %-8s %-6s %s\n", "----", "-----", "----", "---", "-----------")+
			interfaceLine("Ethernet0", "up", "up", 9100, "uplink")+
			interfaceLine("Ethernet4", "down", "down", 1500, ""),
		out.String())

	out.Reset()
	gock.New(testURL).Get("/restconf/data/openconfig-interfaces:interfaces/interface=Ethernet0").
		Reply(200).
		BodyString(`{"openconfig-interfaces:interface":[{"name":"Ethernet0","state":{"admin-status":"UP","oper-status":"DOWN","mtu":9100}}]}`)
	require.Equal(t, ExitSuccess, Run(context.Background(), env, "show_interface", []string{"Ethernet0"}))
	assert.Contains(t, out.String(), interfaceLine("Ethernet0", "up", "down", 9100, ""))
}

func TestInterfaceRows(t *testing.T) {
	list := restconf.Body{Str: interfacesReply}.Res().Get("openconfig-interfaces:interfaces.interface")
	rows := interfaceRows(list)
	assert.Equal(t, int64(2), rows.Get("interface.#").Int())
	assert.Equal(t, "Ethernet4", rows.Get("interface.1.name").String())
	assert.Equal(t, int64(1500), rows.Get("interface.1.mtu").Int())

	rows = interfaceRows(restconf.Body{}.Res())
	assert.Equal(t, `{"interface":[]}`, rows.Raw)
}

func TestInterfaceMTU(t *testing.T) {
	defer gock.Off()
	env, _, errOut := newTestEnv(t, templatesDir)

	gock.New(testURL).Patch("/restconf/data/openconfig-interfaces:interfaces/interface=Ethernet0/config/mtu").
		BodyString(`{"openconfig-interfaces:mtu":9100}`).
		Reply(204)
	assert.Equal(t, ExitSuccess, Run(context.Background(), env, "interface_mtu", []string{"Ethernet0", "9100"}))
	assert.True(t, gock.IsDone())

	assert.Equal(t, ExitError, Run(context.Background(), env, "interface_mtu", []string{"Ethernet0", "big"}))
	assert.Equal(t, "%Error: invalid MTU \"big\"\n", errOut.String())
}

func TestShowSystemClock(t *testing.T) {
	defer gock.Off()
	env, out, _ := newTestEnv(t, templatesDir)

	gock.New(testURL).Get("/restconf/data/openconfig-system:system/state").
		Reply(200).
		BodyString(`{"openconfig-system:state":{"hostname":"sonic","current-datetime":"2024-05-01T10:00:00Z","boot-time":"1714550400000000000"}}`)
	require.Equal(t, ExitSuccess, Run(context.Background(), env, "show_system_clock", nil))
	assert.Equal(t,
		"Hostname:     sonic\n"+
			"Current time: 2024-05-01T10:00:00Z\n"+
			"Boot time:    "+time.Unix(1714550400, 0).Format(render.TimeFormat)+"\n",
		out.String())
}

type fakeObject struct {
	calls *[]string
	args  *[][]interface{}
	reply *dbus.Call
}

func (f fakeObject) CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	*f.calls = append(*f.calls, method)
	*f.args = append(*f.args, args)
	return f.reply
}

func withHost(env *Env, reply *dbus.Call) *[]string {
	calls, _ := withHostArgs(env, reply)
	return calls
}

func withHostArgs(env *Env, reply *dbus.Call) (*[]string, *[][]interface{}) {
	calls := &[]string{}
	args := &[][]interface{}{}
	env.Host = func() (*hostsvc.Client, error) {
		return hostsvc.NewClient(func(string) hostsvc.BusObject {
			return fakeObject{calls: calls, args: args, reply: reply}
		}), nil
	}
	return calls, args
}

func TestHost(t *testing.T) {
	env, out, errOut := newTestEnv(t, templatesDir)
	calls := withHost(env, &dbus.Call{Body: []interface{}{int32(0), "Installed"}})

	assert.Equal(t, ExitSuccess, Run(context.Background(), env, "host", []string{"image_mgmt", "install", "/tmp/sonic.bin"}))
	assert.Equal(t, "Installed\n", out.String())
	assert.Equal(t, []string{"org.SONiC.HostService.image_mgmt.install"}, *calls)

	out.Reset()
	assert.Equal(t, ExitSuccess, Run(context.Background(), env, "image_install", []string{"/tmp/sonic.bin"}))
	assert.Equal(t, "Installed\n", out.String())

	withHost(env, &dbus.Call{Body: []interface{}{int32(2), "image not found\n"}})
	assert.Equal(t, ExitError, Run(context.Background(), env, "image_remove", []string{"sonic-1"}))
	assert.Equal(t, "%Error: image not found\n", errOut.String())

	errOut.Reset()
	withHost(env, &dbus.Call{Err: errors.New("no such service")})
	assert.Equal(t, ExitError, Run(context.Background(), env, "show_techsupport", nil))
	assert.Equal(t, MsgTransactionFailure+"\n", errOut.String())

	errOut.Reset()
	env.Host = func() (*hostsvc.Client, error) { return nil, errors.New("no system bus") }
	assert.Equal(t, ExitError, Run(context.Background(), env, "image_set_default", []string{"sonic-1"}))
	assert.Equal(t, MsgTransactionFailure+"\n", errOut.String())
}

func TestHostToggles(t *testing.T) {
	env, out, errOut := newTestEnv(t, templatesDir)
	calls, args := withHostArgs(env, &dbus.Call{Body: []interface{}{int32(0), ""}})

	assert.Equal(t, ExitSuccess, Run(context.Background(), env, "kdump_config", []string{"enable"}))
	assert.Equal(t, ExitSuccess, Run(context.Background(), env, "ztp", []string{"disable"}))
	assert.Equal(t, ExitSuccess, Run(context.Background(), env, "image_set_next_boot", []string{"sonic-2"}))
	assert.Equal(t, []string{
		"org.SONiC.HostService.kdump.command",
		"org.SONiC.HostService.ztp.disable",
		"org.SONiC.HostService.image_mgmt.set_next_boot",
	}, *calls)
	assert.Equal(t, []interface{}{true}, (*args)[0])
	assert.Empty(t, out.String())

	assert.Equal(t, ExitError, Run(context.Background(), env, "kdump_config", []string{"on"}))
	assert.Equal(t, "%Error: expected enable or disable, got \"on\"\n", errOut.String())
	assert.Len(t, *calls, 3)

	withHost(env, &dbus.Call{Body: []interface{}{int32(0), "platform=x86_64-kvm_x86_64-r0"}})
	assert.Equal(t, ExitSuccess, Run(context.Background(), env, "show_env", nil))
	assert.Equal(t, "platform=x86_64-kvm_x86_64-r0\n", out.String())
}

func TestGetCommand(t *testing.T) {
	defer gock.Off()
	env, _, errOut := newTestEnv(t, t.TempDir())
	newEnv := func() (*Env, error) { return env, nil }

	gock.New(testURL).Delete("/restconf/data/x").Reply(204)
	cmd := GetCommand(newEnv)
	cmd.SetArgs([]string{"delete_data", "/data/x"})
	assert.NoError(t, cmd.Execute())

	gock.New(testURL).Delete("/restconf/data/x").Reply(500)
	cmd = GetCommand(newEnv)
	cmd.SetArgs([]string{"delete_data", "/data/x"})
	var exit *ExitCodeError
	require.ErrorAs(t, cmd.Execute(), &exit)
	assert.Equal(t, ExitError, exit.Code)
	assert.Equal(t, restconf.MsgOperationFailed+"\n", errOut.String())

	cmd = GetCommand(func() (*Env, error) { return nil, errors.New("bad config") })
	cmd.SetArgs([]string{"show_system_clock"})
	assert.EqualError(t, cmd.Execute(), "bad config")
}
