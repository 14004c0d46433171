package input

import "net/url"

type Input struct {
	Method      Method // empty when the method was not given
	URL         *url.URL
	Items       RequestItems
	RequestType RequestType
	Stdin       []byte // nil unless the body was read from stdin
}

type Method string

// RequestType is the body encoding requested on the command line.
type RequestType int

const (
	UnspecifiedRequest RequestType = iota
	JSONRequest
	FormRequest
	MultipartRequest
)

func (t RequestType) String() string {
	switch t {
	case JSONRequest:
		return "json"
	case FormRequest:
		return "form"
	case MultipartRequest:
		return "multipart"
	default:
		return "unspecified"
	}
}

type Field struct {
	Name  string
	Value string
}
