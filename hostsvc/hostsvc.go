// Package hostsvc calls the privileged host service over the system bus so
// that actions running inside the management container can trigger host
// operations such as image install or tech-support collection.
package hostsvc

import (
	"context"
	"fmt"
	"log"

	"github.com/godbus/dbus/v5"
)

const (
	Destination = "org.SONiC.HostService"
	BasePath    = "/org/SONiC/HostService"
	Interface   = "org.SONiC.HostService"
)

// Host service modules.
const (
	ModuleImage    = "image_mgmt"
	ModuleKdump    = "kdump"
	ModuleShowTech = "showtech"
	ModuleZTP      = "ztp"
	ModuleFetchEnv = "fetch_env"
)

// BusObject is the part of dbus.BusObject the client needs.
type BusObject interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Result is the reply of a host service method.
type Result struct {
	Status int
	Output string
}

// Ok reports a zero status.
func (r Result) Ok() bool {
	return r.Status == 0
}

// Client is a host service client.
type Client struct {
	conn   *dbus.Conn
	object func(module string) BusObject
}

// Dial connects to the system bus.
func Dial() (*Client, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}
	return &Client{
		conn: conn,
		object: func(module string) BusObject {
			return conn.Object(Destination, dbus.ObjectPath(BasePath+"/"+module))
		},
	}, nil
}

// NewClient returns a client resolving module objects with object.
func NewClient(object func(module string) BusObject) *Client {
	return &Client{object: object}
}

// Close releases the bus connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Call invokes module.method and decodes the (status, output) reply.
func (c *Client) Call(ctx context.Context, module, method string, args ...interface{}) (Result, error) {
	name := Interface + "." + module + "." + method
	log.Printf("[DEBUG] host service call: %s %v", name, args)
	call := c.object(module).CallWithContext(ctx, name, 0, args...)
	if call == nil {
		return Result{}, fmt.Errorf("host service %s: no reply", name)
	}
	var status int32
	var output string
	if err := call.Store(&status, &output); err != nil {
		return Result{}, fmt.Errorf("host service %s: %w", name, err)
	}
	log.Printf("[DEBUG] host service reply: %s status=%d", name, status)
	return Result{Status: int(status), Output: output}, nil
}

// ImageInstall installs an image from a path or url.
func (c *Client) ImageInstall(ctx context.Context, source string) (Result, error) {
	return c.Call(ctx, ModuleImage, "install", []string{source})
}

// ImageRemove removes an installed image.
func (c *Client) ImageRemove(ctx context.Context, image string) (Result, error) {
	return c.Call(ctx, ModuleImage, "remove", []string{image})
}

// SetDefaultImage selects the image booted by default.
func (c *Client) SetDefaultImage(ctx context.Context, image string) (Result, error) {
	return c.Call(ctx, ModuleImage, "set_default", []string{image})
}

// SetNextBoot selects the image for the next boot only.
func (c *Client) SetNextBoot(ctx context.Context, image string) (Result, error) {
	return c.Call(ctx, ModuleImage, "set_next_boot", []string{image})
}

// KdumpConfig enables or disables kdump.
func (c *Client) KdumpConfig(ctx context.Context, enabled bool) (Result, error) {
	return c.Call(ctx, ModuleKdump, "command", enabled)
}

// TechSupport generates a tech-support bundle; since may be empty.
func (c *Client) TechSupport(ctx context.Context, since string) (Result, error) {
	args := []string{}
	if since != "" {
		args = append(args, since)
	}
	return c.Call(ctx, ModuleShowTech, "info", args)
}

// ZTP enables or disables zero touch provisioning.
func (c *Client) ZTP(ctx context.Context, enable bool) (Result, error) {
	method := "disable"
	if enable {
		method = "enable"
	}
	return c.Call(ctx, ModuleZTP, method, []string{})
}

// GetEnv fetches the host environment.
func (c *Client) GetEnv(ctx context.Context) (Result, error) {
	return c.Call(ctx, ModuleFetchEnv, "get", []string{})
}
