package restconf

import (
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([^{}/]+)\}`)

// ResolvePath substitutes every {name} placeholder in template with the
// percent-encoded value of params[name], e.g.
//
//	ResolvePath("/data/openconfig-interfaces:interfaces/interface={name}",
//	    map[string]string{"name": "Ethernet1/1"})
//
// yields ".../interface=Ethernet1%2F1". Every byte outside the RFC 3986
// unreserved set is escaped, including '/', ',' and '='.
func ResolvePath(template string, params map[string]string) (string, error) {
	return resolve(template, params, false)
}

// ResolvePathRaw is like ResolvePath but keeps '/' in values literal, for
// values that intentionally span several path segments.
func ResolvePathRaw(template string, params map[string]string) (string, error) {
	return resolve(template, params, true)
}

func resolve(template string, params map[string]string, keepSlash bool) (string, error) {
	var missing *MissingParameterError
	out := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := params[name]
		if !ok {
			if missing == nil {
				missing = &MissingParameterError{Template: template, Name: name}
			}
			return m
		}
		return escapeSegment(v, keepSlash)
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}

const upperhex = "0123456789ABCDEF"

func escapeSegment(s string, keepSlash bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || (keepSlash && c == '/') {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
