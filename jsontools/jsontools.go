// Package jsontools looks up values in decoded JSON with slash separated
// paths that may filter list entries by key, e.g.
//
//	interfaces/interface[name=Ethernet0]/state/oper-status
//
// Lookups never fail: anything that cannot be resolved yields a null result.
package jsontools

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

type filter struct {
	key   string
	value interface{}
}

type segment struct {
	name    string
	filters []filter
}

// Get walks data along path and returns the value found, or a result that
// does not exist.
func Get(data gjson.Result, path string) gjson.Result {
	segs, ok := parse(path)
	if !ok {
		return gjson.Result{}
	}
	cur := data
	for _, seg := range segs {
		if !cur.IsObject() {
			return gjson.Result{}
		}
		next, found := child(cur, seg.name)
		if !found {
			return gjson.Result{}
		}
		if len(seg.filters) > 0 {
			if !next.IsArray() {
				return gjson.Result{}
			}
			next, found = selectEntry(next, seg.filters)
			if !found {
				return gjson.Result{}
			}
		}
		cur = next
	}
	if cur.Type == gjson.Null {
		return gjson.Result{}
	}
	return cur
}

// Contains reports whether Get finds a non-null value.
func Contains(data gjson.Result, path string) bool {
	return Get(data, path).Exists()
}

// child looks up a key literally; gjson path syntax in keys is not
// interpreted.
func child(obj gjson.Result, key string) (gjson.Result, bool) {
	var out gjson.Result
	found := false
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			out, found = v, true
			return false
		}
		return true
	})
	return out, found
}

func selectEntry(list gjson.Result, filters []filter) (gjson.Result, bool) {
	var out gjson.Result
	found := false
	list.ForEach(func(_, entry gjson.Result) bool {
		if !entry.IsObject() {
			return true
		}
		for _, f := range filters {
			v, ok := child(entry, f.key)
			if !ok || !equal(v, f.value) {
				return true
			}
		}
		out, found = entry, true
		return false
	})
	return out, found
}

func equal(v gjson.Result, want interface{}) bool {
	switch w := want.(type) {
	case bool:
		return (v.Type == gjson.True && w) || (v.Type == gjson.False && !w)
	case int64:
		return v.Type == gjson.Number && v.Num == float64(w)
	case float64:
		return v.Type == gjson.Number && v.Num == w
	case string:
		return v.Type == gjson.String && v.Str == w
	}
	return false
}

// coerce converts a filter value: true/false become booleans, digit-only
// strings integers, other numeric strings floats.
func coerce(s string) interface{} {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if s != "" && strings.Trim(s, "0123456789") == "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}

func parse(path string) ([]segment, bool) {
	if path == "" {
		return nil, false
	}
	var segs []segment
	for _, part := range split(path) {
		if part == "" {
			return nil, false
		}
		seg, ok := parseSegment(part)
		if !ok {
			return nil, false
		}
		segs = append(segs, seg)
	}
	return segs, true
}

// split cuts path on '/' outside of brackets so that filter values such as
// Ethernet1/1 stay intact.
func split(path string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '/':
			if depth == 0 {
				parts = append(parts, path[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, path[start:])
}

func parseSegment(s string) (segment, bool) {
	idx := strings.IndexByte(s, '[')
	if idx < 0 {
		if strings.ContainsRune(s, ']') {
			return segment{}, false
		}
		return segment{name: s}, true
	}
	seg := segment{name: s[:idx]}
	if seg.name == "" {
		return segment{}, false
	}
	rest := s[idx:]
	for rest != "" {
		if rest[0] != '[' {
			return segment{}, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return segment{}, false
		}
		kv := rest[1:end]
		eq := strings.IndexByte(kv, '=')
		if eq <= 0 || strings.ContainsRune(kv, '[') {
			return segment{}, false
		}
		seg.filters = append(seg.filters, filter{key: kv[:eq], value: coerce(kv[eq+1:])})
		rest = rest[end+1:]
	}
	return seg, true
}
