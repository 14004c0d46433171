package input

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// JSONObject is a JSON object that remembers the order its keys were first
// set in. Setting an existing key replaces the value in place.
type JSONObject struct {
	keys   []string
	values map[string]interface{}
}

func NewJSONObject() *JSONObject {
	return &JSONObject{values: map[string]interface{}{}}
}

func (o *JSONObject) Set(key string, value interface{}) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *JSONObject) Get(key string) (interface{}, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *JSONObject) Keys() []string {
	return o.keys
}

func (o *JSONObject) Len() int {
	return len(o.keys)
}

// MarshalJSON encodes the object compactly without HTML escaping. Nested
// objects keep their key order.
func (o *JSONObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	out := []byte{'{'}
	for i, key := range o.keys {
		if i > 0 {
			out = append(out, ',')
		}
		buf.Reset()
		if err := encoder.Encode(key); err != nil {
			return nil, errors.Wrap(err, "encoding JSON key")
		}
		out = append(out, bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})...)
		out = append(out, ':')
		buf.Reset()
		if err := encoder.Encode(o.values[key]); err != nil {
			return nil, errors.Wrapf(err, "encoding JSON value of '%s'", key)
		}
		out = append(out, bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})...)
	}
	return append(out, '}'), nil
}

// decodeJSONValue reads one value from the token stream. Objects become
// *JSONObject, arrays []interface{} and numbers json.Number.
func decodeJSONValue(decoder *json.Decoder) (interface{}, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := token.(json.Delim)
	if !ok {
		return token, nil
	}
	switch delim {
	case '{':
		object := NewJSONObject()
		for decoder.More() {
			keyToken, err := decoder.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyToken.(string)
			if !ok {
				return nil, errors.Errorf("unexpected object key %v", keyToken)
			}
			value, err := decodeJSONValue(decoder)
			if err != nil {
				return nil, err
			}
			object.Set(key, value)
		}
		if err := expectDelim(decoder, '}'); err != nil {
			return nil, err
		}
		return object, nil
	case '[':
		array := []interface{}{}
		for decoder.More() {
			value, err := decodeJSONValue(decoder)
			if err != nil {
				return nil, err
			}
			array = append(array, value)
		}
		if err := expectDelim(decoder, ']'); err != nil {
			return nil, err
		}
		return array, nil
	default:
		return nil, errors.Errorf("unexpected %v", delim)
	}
}

func expectDelim(decoder *json.Decoder, expected json.Delim) error {
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if token != expected {
		return errors.Errorf("expected %v, got %v", expected, token)
	}
	return nil
}

func parseJSONValue(s string) (interface{}, error) {
	decoder := json.NewDecoder(strings.NewReader(s))
	decoder.UseNumber()
	v, err := decodeJSONValue(decoder)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.New("unexpected end of JSON input")
		}
		return nil, err
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, errors.New("invalid character after top-level value")
	}
	return v, nil
}
