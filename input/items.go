package input

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/http/httpguts"
)

// RequestItems is the ordered list of items given on the command line.
type RequestItems []RequestItem

// Header is an ordered, case-insensitive set of header fields. Setting a
// name that is already present replaces its value in place.
type Header struct {
	Fields []Field
}

func (h *Header) Set(name, value string) {
	for i := range h.Fields {
		if strings.EqualFold(h.Fields[i].Name, name) {
			h.Fields[i].Value = value
			return
		}
	}
	h.Fields = append(h.Fields, Field{Name: name, Value: value})
}

func (h *Header) Get(name string) (string, bool) {
	for _, field := range h.Fields {
		if strings.EqualFold(field.Name, name) {
			return field.Value, true
		}
	}
	return "", false
}

// Headers returns the headers to send and, separately, the names of the
// headers to remove. A later item for the same name wins.
func (items RequestItems) Headers() (*Header, []string, error) {
	header := &Header{}
	var unset []string
	for _, item := range items {
		switch item := item.(type) {
		case HTTPHeader:
			if err := validateHeader(item.Name, item.Value); err != nil {
				return nil, nil, err
			}
			header.Set(item.Name, item.Value)
		case HTTPHeaderToUnset:
			if err := validateHeader(item.Name, ""); err != nil {
				return nil, nil, err
			}
			unset = append(unset, item.Name)
		}
	}
	return header, unset, nil
}

func validateHeader(name, value string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return errors.WithStack(&HeaderSyntaxError{Name: name, Value: value, Field: "name"})
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return errors.WithStack(&HeaderSyntaxError{Name: name, Value: value, Field: "value"})
	}
	return nil
}

// Query returns the URL parameters in command line order.
func (items RequestItems) Query() []Field {
	var query []Field
	for _, item := range items {
		if param, ok := item.(URLParam); ok {
			query = append(query, Field{Name: param.Name, Value: param.Value})
		}
	}
	return query
}

func (items RequestItems) HasFormFiles() bool {
	for _, item := range items {
		if _, ok := item.(FormFile); ok {
			return true
		}
	}
	return false
}

// HasBodyItems reports whether any item contributes to the request body.
func (items RequestItems) HasBodyItems() bool {
	for _, item := range items {
		switch item.(type) {
		case DataField, JSONField, FormFile:
			return true
		}
	}
	return false
}

// PickMethod guesses the method without building the body. Prefer the
// method derived from the built body when one is available.
func (items RequestItems) PickMethod(requestType RequestType) Method {
	if requestType == MultipartRequest || items.HasBodyItems() {
		return Method("POST")
	}
	return Method("GET")
}
