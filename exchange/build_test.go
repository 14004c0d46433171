package exchange

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sthagen/ducaale-xh/input"
	"github.com/sthagen/ducaale-xh/version"
)

func parseURL(t *testing.T, rawurl string) *url.URL {
	u, err := url.Parse(rawurl)
	if err != nil {
		t.Fatalf("failed to parse URL: %s", err)
	}
	return u
}

func TestBuildHTTPRequest(t *testing.T) {
	// Setup
	in := &input.Input{
		Method: input.Method("POST"),
		URL:    parseURL(t, "https://localhost:4000/foo"),
		Items: input.RequestItems{
			input.URLParam{Name: "q", Value: "hello world"},
			input.HTTPHeader{Name: "X-Foo", Value: "fizz buzz"},
			input.HTTPHeader{Name: "Host", Value: "example.com:8080"},
			input.DataField{Name: "hoge", Value: "fuga"},
		},
	}
	options := Options{
		Auth: AuthOptions{
			Enabled:  true,
			UserName: "alice",
			Password: "open sesame",
		},
	}

	// Exercise
	actual, err := BuildHTTPRequest(in, &options)
	if err != nil {
		t.Fatalf("unexpected error: err=%v", err)
	}

	// Verify
	if actual.Method != "POST" {
		t.Errorf("unexpected method: expected=%v, actual=%v", "POST", actual.Method)
	}
	expectedURL := parseURL(t, "https://localhost:4000/foo?q=hello+world")
	if !reflect.DeepEqual(actual.URL, expectedURL) {
		t.Errorf("unexpected URL: expected=%v, actual=%v", expectedURL, actual.URL)
	}
	expectedHeader := http.Header{
		"X-Foo":         []string{"fizz buzz"},
		"Content-Type":  []string{"application/json"},
		"Accept":        []string{"application/json, */*;q=0.5"},
		"User-Agent":    []string{fmt.Sprintf("xh/%s", version.Current())},
		"Host":          []string{"example.com:8080"},
		"Authorization": []string{"Basic YWxpY2U6b3BlbiBzZXNhbWU="},
	}
	if diff := cmp.Diff(expectedHeader, actual.Header); diff != "" {
		t.Errorf("unexpected header (-expected +actual):\n%s", diff)
	}
	expectedHost := "example.com:8080"
	if actual.Host != expectedHost {
		t.Errorf("unexpected host: expected=%v, actual=%v", expectedHost, actual.Host)
	}
	expectedBody := `{"hoge":"fuga"}`
	actualBody := readAll(t, actual.Body)
	if actualBody != expectedBody {
		t.Errorf("unexpected body: expected=%v, actual=%v", expectedBody, actualBody)
	}
}

func TestBuildHTTPRequest_MethodInference(t *testing.T) {
	testCases := []struct {
		title       string
		items       input.RequestItems
		requestType input.RequestType
		stdin       []byte
		expected    string
	}{
		{title: "No items", expected: "GET"},
		{title: "Data field", items: input.RequestItems{input.DataField{Name: "a", Value: "b"}}, expected: "POST"},
		{title: "Empty form", requestType: input.FormRequest, expected: "GET"},
		{title: "Empty multipart", requestType: input.MultipartRequest, expected: "POST"},
		{title: "Stdin", stdin: []byte("data"), expected: "POST"},
		{title: "Empty stdin", stdin: []byte{}, expected: "GET"},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			in := &input.Input{
				URL:         parseURL(t, "http://example.com/"),
				Items:       tt.items,
				RequestType: tt.requestType,
				Stdin:       tt.stdin,
			}
			r, err := BuildHTTPRequest(in, &Options{})
			if err != nil {
				t.Fatalf("unexpected error: err=%+v", err)
			}
			if r.Method != tt.expected {
				t.Errorf("unexpected method: expected=%s, actual=%s", tt.expected, r.Method)
			}
		})
	}
}

func TestBuildHTTPRequest_UnsetHeader(t *testing.T) {
	// Setup
	in := &input.Input{
		URL: parseURL(t, "http://example.com/"),
		Items: input.RequestItems{
			input.HTTPHeaderToUnset{Name: "User-Agent"},
			input.HTTPHeader{Name: "X-Empty", Value: ""},
			input.HTTPHeader{Name: "Authorization", Value: "Token abc"},
		},
	}
	options := Options{Auth: AuthOptions{BearerToken: "ignored"}}

	// Exercise
	r, err := BuildHTTPRequest(in, &options)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	expected := http.Header{
		"X-Empty":       []string{""},
		"Authorization": []string{"Token abc"},
	}
	if diff := cmp.Diff(expected, r.Header); diff != "" {
		t.Errorf("unexpected header (-expected +actual):\n%s", diff)
	}
}

func TestBuildHTTPRequest_BearerToken(t *testing.T) {
	in := &input.Input{URL: parseURL(t, "http://example.com/")}
	r, err := BuildHTTPRequest(in, &Options{Auth: AuthOptions{BearerToken: "secret"}})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if r.Header.Get("Authorization") != "Bearer secret" {
		t.Errorf("unexpected Authorization header: %s", r.Header.Get("Authorization"))
	}
}

func TestBuildURL(t *testing.T) {
	testCases := []struct {
		title      string
		url        string
		parameters []input.Field
		expected   string
	}{
		{
			title: "Typical case",
			url:   "http://example.com/hello",
			parameters: []input.Field{
				{Name: "foo", Value: "bar"},
				{Name: "fizz", Value: "buzz"},
			},
			expected: "http://example.com/hello?foo=bar&fizz=buzz",
		},
		{
			title: "Both URL and Parameters have query string",
			url:   "http://example.com/hello?hoge=fuga",
			parameters: []input.Field{
				{Name: "foo", Value: "bar"},
				{Name: "fizz", Value: "buzz"},
			},
			expected: "http://example.com/hello?hoge=fuga&foo=bar&fizz=buzz",
		},
		{
			title: "Multiple values with a key",
			url:   "http://example.com/hello",
			parameters: []input.Field{
				{Name: "foo", Value: "value 1"},
				{Name: "foo", Value: "value 2"},
				{Name: "foo", Value: "value 3"},
			},
			expected: "http://example.com/hello?foo=value+1&foo=value+2&foo=value+3",
		},
		{
			title: "Form escaping",
			url:   "http://example.com/hello",
			parameters: []input.Field{
				{Name: "a*b~c", Value: "x/y&z"},
			},
			expected: "http://example.com/hello?a*b%7Ec=x%2Fy%26z",
		},
		{
			title:    "No parameters",
			url:      "http://example.com/hello?foo=a",
			expected: "http://example.com/hello?foo=a",
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			u := BuildURL(parseURL(t, tt.url), tt.parameters)
			if u.String() != tt.expected {
				t.Errorf("unexpected URL: expected=%s, actual=%s", tt.expected, u)
			}
		})
	}
}

func makeTempFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := ioutil.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write to temporary file: %v", err)
	}
	return path
}

func readAll(t *testing.T, reader io.Reader) string {
	b, err := ioutil.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read all: %s", err)
	}
	return string(b)
}

func isEquivalentJSON(t *testing.T, json1, json2 string) bool {
	var obj1, obj2 interface{}
	if err := json.Unmarshal([]byte(json1), &obj1); err != nil {
		t.Fatalf("failed to unmarshal json1: %v", err)
	}
	if err := json.Unmarshal([]byte(json2), &obj2); err != nil {
		t.Fatalf("failed to unmarshal json2: %v", err)
	}
	return reflect.DeepEqual(obj1, obj2)
}

func TestBuildHTTPBody_JSONBody(t *testing.T) {
	// Setup
	body := NewJSONBody()
	body.Set("foo", "bar")
	body.Set("boolean", true)
	body.Set("array", []interface{}{json.Number("1"), nil, "hello"})
	body.Set("html", "<a & b>")

	// Exercise
	bodyTuple, err := buildHTTPBody(body, input.UnspecifiedRequest)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	expectedBody := `{"foo":"bar","boolean":true,"array":[1,null,"hello"],"html":"<a & b>"}`
	actualBody := readAll(t, bodyTuple.body)
	if actualBody != expectedBody {
		t.Errorf("unexpected body: expected=%s, actual=%s", expectedBody, actualBody)
	}
	if !isEquivalentJSON(t, expectedBody, actualBody) {
		t.Errorf("body is not equivalent JSON: %s", actualBody)
	}
	if bodyTuple.contentType != JSONContentType {
		t.Errorf("unexpected content type: expected=%s, actual=%s", JSONContentType, bodyTuple.contentType)
	}
	if bodyTuple.contentLength != int64(len(actualBody)) {
		t.Errorf("invalid content length: len(body)=%v, actual=%v", len(actualBody), bodyTuple.contentLength)
	}
}

func TestBuildHTTPBody_EmptyJSONBody(t *testing.T) {
	testCases := []struct {
		title       string
		requestType input.RequestType
		expected    bodyTuple
	}{
		{title: "Implicit", requestType: input.UnspecifiedRequest, expected: bodyTuple{}},
		{title: "Explicit --json", requestType: input.JSONRequest, expected: bodyTuple{contentType: JSONContentType, accept: JSONAccept}},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			actual, err := buildHTTPBody(NewJSONBody(), tt.requestType)
			if err != nil {
				t.Fatalf("unexpected error: err=%+v", err)
			}
			if !reflect.DeepEqual(actual, tt.expected) {
				t.Errorf("unexpected body tuple: expected=%+v, actual=%+v", tt.expected, actual)
			}
		})
	}
}

func TestBuildHTTPBody_FormBody(t *testing.T) {
	// Setup
	body := &FormBody{
		Fields: []input.Field{
			{Name: "foo", Value: "bar"},
			{Name: "love", Value: "love & peace"},
			{Name: "foo", Value: "baz"},
		},
	}

	// Exercise
	bodyTuple, err := buildHTTPBody(body, input.FormRequest)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	expectedBody := `foo=bar&love=love+%26+peace&foo=baz`
	actualBody := readAll(t, bodyTuple.body)
	if actualBody != expectedBody {
		t.Errorf("unexpected body: expected=%s, actual=%s", expectedBody, actualBody)
	}
	if bodyTuple.contentType != FormContentType {
		t.Errorf("unexpected content type: expected=%s, actual=%s", FormContentType, bodyTuple.contentType)
	}
	if bodyTuple.contentLength != int64(len(actualBody)) {
		t.Errorf("invalid content length: len(body)=%v, actual=%v", len(actualBody), bodyTuple.contentLength)
	}
}

func TestBuildHTTPBody_Multipart(t *testing.T) {
	// Setup
	fileName := makeTempFile(t, "upload.json", `{"sushi":"🍣"}`)
	items := input.RequestItems{
		input.DataField{Name: "hello", Value: "🍺 world!"},
		input.DataField{Name: `"double-quoted"`, Value: "should be escaped"},
		input.FormFile{Name: "file1", Path: fileName},
		input.FormFile{Name: "file2", Path: fileName, MIMEType: "image/png"},
	}
	body, err := BuildBody(items, input.FormRequest)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Exercise
	bodyTuple, err := buildHTTPBody(body, input.FormRequest)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	expectedBody := regexp.MustCompile("^" + strings.Join([]string{
		`--[0-9a-f]+`,
		regexp.QuoteMeta(`Content-Disposition: form-data; name="hello"`),
		``,
		regexp.QuoteMeta(`🍺 world!`),
		`--[0-9a-f]+`,
		regexp.QuoteMeta(`Content-Disposition: form-data; name="\"double-quoted\""`),
		``,
		regexp.QuoteMeta(`should be escaped`),
		`--[0-9a-f]+`,
		regexp.QuoteMeta(`Content-Disposition: form-data; name="file1"; filename="upload.json"`),
		regexp.QuoteMeta(`Content-Type: application/json`),
		``,
		regexp.QuoteMeta(`{"sushi":"🍣"}`),
		`--[0-9a-f]+`,
		regexp.QuoteMeta(`Content-Disposition: form-data; name="file2"; filename="upload.json"`),
		regexp.QuoteMeta(`Content-Type: image/png`),
		``,
		regexp.QuoteMeta(`{"sushi":"🍣"}`),
		`--[0-9a-f]+--`,
		``,
	}, "\r\n") + "$")

	actualBody := readAll(t, bodyTuple.body)
	if !expectedBody.MatchString(actualBody) {
		t.Errorf("unexpected body: expected='%s', actual='%s'", expectedBody, actualBody)
	}
	expectedContentType := "multipart/form-data; boundary="
	if !strings.HasPrefix(bodyTuple.contentType, expectedContentType) {
		t.Errorf("unexpected content type: expected=%s, actual=%s", expectedContentType, bodyTuple.contentType)
	}
	if bodyTuple.contentLength != int64(len(actualBody)) {
		t.Errorf("invalid content length: len(body)=%v, actual=%v", len(actualBody), bodyTuple.contentLength)
	}
	if err := bodyTuple.body.Close(); err != nil {
		t.Errorf("unexpected error on close: %v", err)
	}
}

func TestBuildHTTPBody_RawBody(t *testing.T) {
	// Setup
	body := &RawBody{Data: []byte("Hello, World!!")}

	// Exercise
	bodyTuple, err := buildHTTPBody(body, input.UnspecifiedRequest)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	expectedBody := "Hello, World!!"
	actualBody := readAll(t, bodyTuple.body)
	if actualBody != expectedBody {
		t.Errorf("unexpected body: expected=%s, actual=%s", expectedBody, actualBody)
	}
	if bodyTuple.contentType != JSONContentType {
		t.Errorf("unexpected content type: expected=%s, actual=%s", JSONContentType, bodyTuple.contentType)
	}
	if bodyTuple.contentLength != int64(len(actualBody)) {
		t.Errorf("invalid content length: len(body)=%v, actual=%v", len(actualBody), bodyTuple.contentLength)
	}
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (r *closeRecorder) Close() error {
	r.closed = true
	return nil
}

func TestCloseBody(t *testing.T) {
	// Setup
	file1 := &closeRecorder{Reader: strings.NewReader("a")}
	file2 := &closeRecorder{Reader: strings.NewReader("b")}
	body := &MultipartBody{
		Parts: []Part{
			{Name: "text", Text: "x"},
			{Name: "f1", File: file1, Length: 1},
			{Name: "f2", File: file2, Length: 1},
		},
	}

	// Exercise
	closeBody(body)
	closeBody(NewJSONBody())
	closeBody(&RawBody{})

	// Verify
	if !file1.closed || !file2.closed {
		t.Errorf("file parts were not closed: f1=%v, f2=%v", file1.closed, file2.closed)
	}
}
