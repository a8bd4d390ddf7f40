package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/tidwall/gjson"

	"github.com/netascode/mgmt-cli/jsontools"
)

// TimeFormat is the layout used by the timestamp helper.
const TimeFormat = "2006-01-02 15:04:05"

// FuncMap returns the helpers available to every template: the sprig text
// functions plus timestamp, jsonGet, jsonContains and toJSON.
func FuncMap() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["timestamp"] = Timestamp
	fm["jsonGet"] = JSONGet
	fm["jsonContains"] = JSONContains
	fm["toJSON"] = ToJSON
	return fm
}

// Timestamp formats epoch seconds as local time. Values that are not
// numeric are returned unchanged.
func Timestamp(v interface{}) string {
	var secs float64
	switch t := v.(type) {
	case float64:
		secs = t
	case float32:
		secs = float64(t)
	case int:
		secs = float64(t)
	case int64:
		secs = float64(t)
	case uint64:
		secs = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		secs = f
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return t
		}
		secs = f
	case gjson.Result:
		return Timestamp(t.Value())
	default:
		return fmt.Sprint(v)
	}
	return time.Unix(int64(secs), 0).Format(TimeFormat)
}

// JSONGet is jsontools.Get for template values. It returns nil when the path
// does not resolve.
func JSONGet(data interface{}, path string) interface{} {
	v := jsontools.Get(toResult(data), path)
	if !v.Exists() {
		return nil
	}
	return v.Value()
}

// JSONContains is jsontools.Contains for template values.
func JSONContains(data interface{}, path string) bool {
	return jsontools.Contains(toResult(data), path)
}

// ToJSON encodes v, returning an empty string on failure.
func ToJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func toResult(v interface{}) gjson.Result {
	switch t := v.(type) {
	case gjson.Result:
		return t
	case nil:
		return gjson.Result{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return gjson.Result{}
	}
	return gjson.ParseBytes(b)
}
