package restconf

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResOk(t *testing.T) {
	for _, code := range []int{200, 204, 299} {
		assert.True(t, NewRes(code, nil).Ok(), code)
	}
	for _, code := range []int{300, 400, 404, 500} {
		assert.False(t, NewRes(code, nil).Ok(), code)
	}
}

func TestResContent(t *testing.T) {
	for _, code := range []int{200, 404, 500} {
		assert.Equal(t, ContentEmpty, NewRes(code, nil).Content().Kind)
	}

	res := NewRes(200, []byte(`{"openconfig-system:clock":{"state":{"timezone-name":"UTC"}}}`))
	c := res.Content()
	assert.Equal(t, ContentJSON, c.Kind)
	assert.Equal(t, "UTC", c.JSON.Get("openconfig-system:clock.state.timezone-name").String())

	res = NewRes(500, []byte(`<html>Internal error</html>`))
	assert.Equal(t, ContentText, res.Content().Kind)
	assert.Equal(t, "<html>Internal error</html>", res.Content().Text)
	assert.False(t, res.JSON().Exists())

	res = NewRes(200, []byte(`{"broken":`))
	assert.Equal(t, ContentText, res.Content().Kind)
}

func TestResErrors(t *testing.T) {
	res := NewRes(200, []byte(`{"ietf-restconf:errors":{"error":[]}}`))
	assert.False(t, res.Errors().Exists())

	res = NewRes(400, []byte(`{"ietf-restconf:errors":{"error":[{"error-tag":"invalid-value"}]}}`))
	assert.JSONEq(t, `{"error":[{"error-tag":"invalid-value"}]}`, res.Errors().Raw)

	res = NewRes(400, []byte(`{"error-message":"bad thing"}`))
	assert.JSONEq(t, `{"error":{"error-message":"bad thing"}}`, res.Errors().Raw)

	res = NewRes(502, []byte(`Bad Gateway`))
	assert.JSONEq(t, `{"error":"Bad Gateway"}`, res.Errors().Raw)

	res = NewRes(500, nil)
	assert.JSONEq(t, `{"error":null}`, res.Errors().Raw)
}

func TestResErrorMessage(t *testing.T) {
	tests := []struct {
		code int
		body string
		want string
	}{
		{400, `{"ietf-restconf:errors":{"error":[{"error-tag":"invalid-value"}]}}`, "%Error: validation failed"},
		{400, `{"error-message":"bad thing"}`, "bad thing"},
		{405, `{"ietf-restconf:errors":{"error":[{"error-tag":"operation-not-supported"}]}}`, "%Error: not supported"},
		{401, `{"ietf-restconf:errors":{"error":{"error-tag":"access-denied"}}}`, "%Error: not authorized"},
		{500, `{"ietf-restconf:errors":{"error":[{"error-tag":"resource-denied"}]}}`, "%Error: operation failed"},
		{400, `{"ietf-restconf:errors":{"error":[{"error-tag":"invalid-value","error-message":"VLAN 5000 out of range"}]}}`, "VLAN 5000 out of range"},
		{400, `{"ietf-restconf:errors":{"error":[{"error-tag":"invalid-value","error-app-tag":5,"error-message":"VLAN out of range"}]}}`, "VLAN out of range"},
		{400, `{"ietf-restconf:errors":{"error":[{"error-tag":"invalid-value","error-path":{"x":1}}]}}`, "%Error: validation failed"},
		{502, `Bad Gateway`, "Bad Gateway"},
		{500, ``, "%Error: operation failed"},
		{200, `{"error-message":"ignored"}`, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewRes(tt.code, []byte(tt.body)).ErrorMessage(nil), tt.body)
	}
}

func TestResErrorMessageFormatter(t *testing.T) {
	res := NewRes(409, []byte(`{"ietf-restconf:errors":{"error":[{"error-tag":"data-exists","error-path":"/vlan=10"}]}}`))
	msg := res.ErrorMessage(func(code int, e Error) string {
		return fmt.Sprintf("%d %s %s", code, e.ErrorTag, e.ErrorPath)
	})
	assert.Equal(t, "409 data-exists /vlan=10", msg)

	res = NewRes(400, []byte(`{"ietf-restconf:errors":{"error":[{"error-app-tag":7,"error-info":{"bad-element":"vlanid"}}]}}`))
	var got Error
	res.ErrorMessage(func(code int, e Error) string {
		got = e
		return ""
	})
	assert.Equal(t, "7", got.ErrorAppTag)
	assert.JSONEq(t, `{"bad-element":"vlanid"}`, string(got.ErrorInfo))
}
