package restconf

import (
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	ErrTagInvalidValue          = "invalid-value"
	ErrTagOperationNotSupported = "operation-not-supported"
	ErrTagAccessDenied          = "access-denied"

	MsgValidationFailed = "%Error: validation failed"
	MsgNotSupported     = "%Error: not supported"
	MsgNotAuthorized    = "%Error: not authorized"
	MsgOperationFailed  = "%Error: operation failed"
)

// errorContainers are the keys unwrapped one level by Res.Errors.
var errorContainers = []string{"ietf-restconf:errors", "errors"}

// Error is a single entry of a RESTCONF errors envelope.
type Error struct {
	ErrorType    string          `json:"error-type"`
	ErrorTag     string          `json:"error-tag"`
	ErrorAppTag  string          `json:"error-app-tag"`
	ErrorPath    string          `json:"error-path"`
	ErrorMessage string          `json:"error-message"`
	ErrorInfo    json.RawMessage `json:"error-info,omitempty"`
}

// ErrorFormatter turns an error entry into a printable message.
type ErrorFormatter func(statusCode int, e Error) string

// ContentKind tells how a response body was decoded.
type ContentKind int

const (
	ContentEmpty ContentKind = iota
	ContentJSON
	ContentText
)

// Content is the decoded response body.
type Content struct {
	Kind ContentKind
	// JSON is set for ContentJSON.
	JSON gjson.Result
	// Text is the raw body for ContentText.
	Text string
}

// Res is an API response returned by client requests.
// Decoding is lazy; the body is decoded at most once.
type Res struct {
	StatusCode int
	Header     http.Header
	Raw        []byte

	decoded bool
	content Content
}

// NewRes builds a response from a status code and body.
func NewRes(statusCode int, body []byte) *Res {
	return &Res{StatusCode: statusCode, Raw: body}
}

// Ok reports whether the status code is 2xx.
func (res *Res) Ok() bool {
	return res.StatusCode >= 200 && res.StatusCode <= 299
}

// Content returns the decoded body. Bodies that are not valid JSON are kept as
// text.
func (res *Res) Content() Content {
	if res.decoded {
		return res.content
	}
	res.decoded = true
	switch {
	case len(res.Raw) == 0:
		res.content = Content{Kind: ContentEmpty}
	case gjson.ValidBytes(res.Raw):
		res.content = Content{Kind: ContentJSON, JSON: gjson.ParseBytes(res.Raw)}
	default:
		res.content = Content{Kind: ContentText, Text: string(res.Raw)}
	}
	return res.content
}

// JSON returns the decoded JSON body, or a null result when the body is empty
// or not JSON.
func (res *Res) JSON() gjson.Result {
	c := res.Content()
	if c.Kind != ContentJSON {
		return gjson.Result{}
	}
	return c.JSON
}

// Errors returns the normalized error envelope {"error": ...}.
// A body exposing an errors container is unwrapped one level; any other
// content is wrapped as the "error" value. The result is empty for 2xx.
func (res *Res) Errors() gjson.Result {
	if res.Ok() {
		return gjson.Result{}
	}
	c := res.Content()
	raw := "null"
	switch c.Kind {
	case ContentJSON:
		if c.JSON.IsObject() {
			for _, key := range errorContainers {
				if v := c.JSON.Get(key); v.Exists() {
					return v
				}
			}
		}
		raw = c.JSON.Raw
	case ContentText:
		b, _ := json.Marshal(c.Text)
		raw = string(b)
	}
	env, _ := sjson.SetRaw("", "error", raw)
	return gjson.Parse(env)
}

// ErrorMessage returns a printable message for a failed response, formatted by
// formatter or DefaultErrorFormatter when formatter is nil. It is empty for 2xx
// responses and never empty otherwise.
func (res *Res) ErrorMessage(formatter ErrorFormatter) string {
	if res.Ok() {
		return ""
	}
	if formatter == nil {
		formatter = DefaultErrorFormatter
	}
	entry := res.Errors().Get("error")
	if entry.IsArray() {
		entry = entry.Get("0")
	}
	switch {
	case entry.IsObject():
		return formatter(res.StatusCode, newError(entry))
	case entry.Exists() && entry.Type != gjson.Null && entry.String() != "":
		return entry.String()
	}
	return formatter(res.StatusCode, Error{})
}

// newError reads an error entry field by field so that one field of an
// unexpected type does not hide the others.
func newError(entry gjson.Result) Error {
	e := Error{
		ErrorType:    entry.Get("error-type").String(),
		ErrorTag:     entry.Get("error-tag").String(),
		ErrorAppTag:  entry.Get("error-app-tag").String(),
		ErrorPath:    entry.Get("error-path").String(),
		ErrorMessage: entry.Get("error-message").String(),
	}
	if info := entry.Get("error-info"); info.Exists() {
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(info.Raw), &raw); err == nil {
			e.ErrorInfo = raw
		}
	}
	return e
}

// DefaultErrorFormatter prefers error-message and otherwise maps well-known
// error-tag values.
func DefaultErrorFormatter(statusCode int, e Error) string {
	if e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	switch e.ErrorTag {
	case ErrTagInvalidValue:
		return MsgValidationFailed
	case ErrTagOperationNotSupported:
		return MsgNotSupported
	case ErrTagAccessDenied:
		return MsgNotAuthorized
	}
	return MsgOperationFailed
}
