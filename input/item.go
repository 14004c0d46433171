package input

import (
	"strings"

	"github.com/pkg/errors"
)

// Characters that lose their special meaning when preceded by a backslash.
const specialChars = "=@:;\\"

// Separators in the order they are tried at each position.
var separators = []string{"==", ":=", "=", "@", ":"}

// RequestItem is one parsed command line token. The set of implementations
// is closed: HTTPHeader, HTTPHeaderToUnset, URLParam, DataField, JSONField
// and FormFile.
type RequestItem interface {
	requestItem()
}

// HTTPHeader is "name:value", or "name;" for a header with an empty value.
type HTTPHeader struct {
	Name  string
	Value string
}

// HTTPHeaderToUnset is "name:" and removes a header that would otherwise be
// sent by default.
type HTTPHeaderToUnset struct {
	Name string
}

// URLParam is "name==value".
type URLParam struct {
	Name  string
	Value string
}

// DataField is "name=value".
type DataField struct {
	Name  string
	Value string
}

// JSONField is "name:=json". Numbers are kept as json.Number and objects
// as *JSONObject.
type JSONField struct {
	Name  string
	Value interface{}
}

// FormFile is "name@path" or "name@path;type=mime". An empty MIMEType means
// no override was given.
type FormFile struct {
	Name     string
	Path     string
	MIMEType string
}

func (HTTPHeader) requestItem()        {}
func (HTTPHeaderToUnset) requestItem() {}
func (URLParam) requestItem()          {}
func (DataField) requestItem()         {}
func (JSONField) requestItem()         {}
func (FormFile) requestItem()          {}

// ParseItem parses a single request item such as "key=value", "key:=[1,2]",
// "key==value", "Header:value", "Header:", "Header;" or "field@file".
func ParseItem(s string) (RequestItem, error) {
	key, sep, value, ok := splitItem(s)
	if !ok {
		if name, ok := cutUnescapedSuffix(s, ';'); ok {
			return HTTPHeader{Name: unescape(name), Value: ""}, nil
		}
		return nil, errors.WithStack(&SyntaxError{Item: s})
	}

	switch sep {
	case "==":
		return URLParam{Name: key, Value: value}, nil
	case "=":
		return DataField{Name: key, Value: value}, nil
	case ":=":
		v, err := parseJSONValue(value)
		if err != nil {
			return nil, errors.WithStack(&InvalidJSONError{Item: s, Err: err})
		}
		return JSONField{Name: key, Value: v}, nil
	case "@":
		// The rightmost ";type=" wins, so a path containing ";type=" keeps
		// everything but the last occurrence.
		if i := strings.LastIndex(value, ";type="); i >= 0 {
			return FormFile{Name: key, Path: value[:i], MIMEType: value[i+len(";type="):]}, nil
		}
		return FormFile{Name: key, Path: value}, nil
	case ":":
		if value == "" {
			return HTTPHeaderToUnset{Name: key}, nil
		}
		return HTTPHeader{Name: key, Value: value}, nil
	default:
		return nil, errors.Errorf("unknown separator %q in request item: %s", sep, s)
	}
}

// splitItem finds the first unescaped separator. The rune following a
// backslash is never considered as the start of a separator.
func splitItem(s string) (string, string, string, bool) {
	escaped := false
	for i, c := range s {
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		for _, sep := range separators {
			if strings.HasPrefix(s[i:], sep) {
				return unescape(s[:i]), sep, unescape(s[i+len(sep):]), true
			}
		}
	}
	return "", "", "", false
}

func cutUnescapedSuffix(s string, suffix rune) (string, bool) {
	escaped := false
	last := -1
	for i, c := range s {
		switch {
		case escaped:
			escaped = false
			last = -1
		case c == '\\':
			escaped = true
			last = -1
		case c == suffix:
			last = i
		default:
			last = -1
		}
	}
	if last < 0 || escaped {
		return "", false
	}
	return s[:last], true
}

func unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, c := range s {
		if escaped {
			if !strings.ContainsRune(specialChars, c) {
				b.WriteRune('\\')
			}
			b.WriteRune(c)
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(c)
	}
	if escaped {
		b.WriteRune('\\')
	}
	return b.String()
}
