package restconf

import (
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Body wraps SJSON for building JSON body strings.
// Usage example:
//
//	Body{}.Set("openconfig-interfaces:config.mtu", 9100).Str
type Body struct {
	Str string
}

// Set sets a JSON path to a value.
func (body Body) Set(path string, value interface{}) Body {
	res, _ := sjson.Set(body.Str, path, value)
	body.Str = res
	return body
}

// SetRaw sets a JSON path to a raw string value.
// This is primarily used for building up nested structures, e.g.:
//
//	Body{}.SetRaw("openconfig-interfaces:interface", Body{}.Set("0.name", "Ethernet0").Str).Str
func (body Body) SetRaw(path, rawValue string) Body {
	res, _ := sjson.SetRaw(body.Str, path, rawValue)
	body.Str = res
	return body
}

// Res parses the body into a GJSON result.
func (body Body) Res() gjson.Result {
	return gjson.Parse(body.Str)
}

// Req wraps http.Request for API requests.
type Req struct {
	// HttpReq is the *http.Request object.
	HttpReq *http.Request
}

// Query sets an HTTP query parameter.
//
//	client.Get(ctx, "/data/openconfig-interfaces:interfaces", nil, restconf.Query("depth", "3"))
func Query(k, v string) func(req *Req) {
	return func(req *Req) {
		q := req.HttpReq.URL.Query()
		q.Add(k, v)
		req.HttpReq.URL.RawQuery = q.Encode()
	}
}

// Header sets an HTTP request header.
func Header(k, v string) func(req *Req) {
	return func(req *Req) {
		req.HttpReq.Header.Set(k, v)
	}
}
