package exchange

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sthagen/ducaale-xh/input"
	"github.com/sthagen/ducaale-xh/version"
)

func BuildHTTPRequest(in *input.Input, options *Options) (*http.Request, error) {
	u := BuildURL(in.URL, in.Items.Query())

	header, unset, err := in.Items.Headers()
	if err != nil {
		return nil, err
	}

	var body Body
	if in.Stdin != nil {
		body = &RawBody{Data: in.Stdin}
	} else {
		body, err = BuildBody(in.Items, in.RequestType)
		if err != nil {
			return nil, err
		}
	}

	bodyTuple, err := buildHTTPBody(body, in.RequestType)
	if err != nil {
		closeBody(body)
		return nil, err
	}

	httpHeader := buildHTTPHeader(header, unset, bodyTuple)

	method := in.Method
	if method == "" {
		method = PickMethod(body)
	}

	r := http.Request{
		Method:        string(method),
		URL:           u,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        httpHeader,
		Host:          httpHeader.Get("Host"),
		Body:          bodyTuple.body,
		ContentLength: bodyTuple.contentLength,
	}
	applyAuth(&r, header, &options.Auth)
	return &r, nil
}

// BuildURL appends the query parameters to the URL in the given order,
// keeping any query string that is already present.
func BuildURL(u *url.URL, query []input.Field) *url.URL {
	v := *u
	if len(query) == 0 {
		return &v
	}
	if v.RawQuery == "" {
		v.RawQuery = EncodeForm(query)
	} else {
		v.RawQuery += "&" + EncodeForm(query)
	}
	return &v
}

func buildHTTPHeader(header *input.Header, unset []string, bodyTuple bodyTuple) http.Header {
	httpHeader := make(http.Header)
	httpHeader.Set("User-Agent", fmt.Sprintf("xh/%s", version.Current()))
	if bodyTuple.contentType != "" {
		httpHeader.Set("Content-Type", bodyTuple.contentType)
	}
	if bodyTuple.accept != "" {
		httpHeader.Set("Accept", bodyTuple.accept)
	}
	for _, field := range header.Fields {
		httpHeader.Set(field.Name, field.Value)
	}
	for _, name := range unset {
		httpHeader.Del(name)
	}
	return httpHeader
}

func applyAuth(r *http.Request, header *input.Header, auth *AuthOptions) {
	if _, ok := header.Get("Authorization"); ok {
		return
	}
	if auth.BearerToken != "" {
		r.Header.Set("Authorization", "Bearer "+auth.BearerToken)
	} else if auth.Enabled {
		r.SetBasicAuth(auth.UserName, auth.Password)
	}
}

// closeBody releases the files held by a body that will not be sent.
func closeBody(body Body) {
	if closer, ok := body.(io.Closer); ok {
		closer.Close()
	}
}

type bodyTuple struct {
	body          io.ReadCloser
	contentLength int64
	contentType   string
	accept        string
}

func buildHTTPBody(body Body, requestType input.RequestType) (bodyTuple, error) {
	switch body := body.(type) {
	case *JSONBody:
		return encodeJSONBody(body, requestType)
	case *FormBody:
		return encodeFormBody(body)
	case *MultipartBody:
		return encodeMultipartBody(body)
	case *RawBody:
		return encodeRawBody(body, requestType)
	default:
		return bodyTuple{}, errors.Errorf("unknown body type: %T", body)
	}
}

func encodeJSONBody(body *JSONBody, requestType input.RequestType) (bodyTuple, error) {
	if body.IsEmpty() {
		if requestType == input.JSONRequest {
			return bodyTuple{contentType: JSONContentType, accept: JSONAccept}, nil
		}
		return bodyTuple{}, nil
	}
	b, err := body.MarshalJSON()
	if err != nil {
		return bodyTuple{}, errors.Wrap(err, "marshaling JSON of HTTP body")
	}
	return bodyTuple{
		body:          ioutil.NopCloser(bytes.NewReader(b)),
		contentLength: int64(len(b)),
		contentType:   JSONContentType,
		accept:        JSONAccept,
	}, nil
}

func encodeFormBody(body *FormBody) (bodyTuple, error) {
	s := EncodeForm(body.Fields)
	tuple := bodyTuple{contentType: FormContentType}
	if s != "" {
		tuple.body = ioutil.NopCloser(strings.NewReader(s))
		tuple.contentLength = int64(len(s))
	}
	return tuple, nil
}

func encodeRawBody(body *RawBody, requestType input.RequestType) (bodyTuple, error) {
	if body.IsEmpty() {
		return bodyTuple{}, nil
	}
	tuple := bodyTuple{
		body:          ioutil.NopCloser(bytes.NewReader(body.Data)),
		contentLength: int64(len(body.Data)),
	}
	if requestType == input.FormRequest {
		tuple.contentType = FormContentType
	} else {
		tuple.contentType = JSONContentType
		tuple.accept = JSONAccept
	}
	return tuple, nil
}

// EncodeForm encodes the fields as application/x-www-form-urlencoded,
// keeping their order.
func EncodeForm(fields []input.Field) string {
	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(FormEscape(field.Name))
		b.WriteByte('=')
		b.WriteString(FormEscape(field.Value))
	}
	return b.String()
}

// Only ASCII alphanumerics and "*-._" stay literal in form values.
var formEscaper = strings.NewReplacer("%2A", "*", "~", "%7E")

// FormEscape escapes s for a form value. Spaces become "+".
func FormEscape(s string) string {
	return formEscaper.Replace(url.QueryEscape(s))
}
