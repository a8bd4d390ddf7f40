package actioner

import (
	"context"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	restconf "github.com/netascode/mgmt-cli"
)

func init() {
	register(Command{
		Name:    "get_data",
		Args:    "<template> <path> [key=value...]",
		Short:   "GET a resource and render it through a template",
		MinArgs: 2,
		Run:     getData,
	})
	for _, method := range []string{http.MethodPatch, http.MethodPost, http.MethodPut} {
		register(Command{
			Name:    strings.ToLower(method) + "_data",
			Args:    "<path> <json> [key=value...]",
			Short:   method + " a JSON payload to a resource",
			MinArgs: 2,
			Run:     writeData(method),
		})
	}
	register(Command{
		Name:    "delete_data",
		Args:    "<path> [key=value...]",
		Short:   "DELETE a resource",
		MinArgs: 1,
		Run:     deleteData,
	})
}

func getData(ctx context.Context, env *Env, args []string) error {
	name := args[0]
	params, err := parseParams(args[2:])
	if err != nil {
		return err
	}
	path, err := restconf.ResolvePath(args[1], params)
	if err != nil {
		return &UsageError{Msg: err.Error()}
	}
	res, err := env.check(env.Client.Get(ctx, path, nil))
	if err != nil {
		return err
	}
	_, err = env.Renderer.RenderCLI(name, res.JSON(), templateParams(params), false)
	return err
}

func writeData(method string) Handler {
	return func(ctx context.Context, env *Env, args []string) error {
		payload := args[1]
		if !gjson.Valid(payload) {
			return &UsageError{Msg: "invalid JSON payload"}
		}
		params, err := parseParams(args[2:])
		if err != nil {
			return err
		}
		path, err := restconf.ResolvePath(args[0], params)
		if err != nil {
			return &UsageError{Msg: err.Error()}
		}
		_, err = env.check(env.Client.Send(ctx, method, path, restconf.Body{Str: payload}))
		return err
	}
}

func deleteData(ctx context.Context, env *Env, args []string) error {
	params, err := parseParams(args[1:])
	if err != nil {
		return err
	}
	path, err := restconf.ResolvePath(args[0], params)
	if err != nil {
		return &UsageError{Msg: err.Error()}
	}
	_, err = env.check(env.Client.Delete(ctx, path))
	return err
}

func templateParams(params map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
