package httpie

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invocation struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func run(t *testing.T, inv *invocation, args ...string) error {
	t.Setenv("XH_CONFIG_DIR", t.TempDir())
	return Main(&Options{
		Args:   append([]string{"xh", "--ignore-stdin"}, args...),
		Stdin:  strings.NewReader(""),
		Stdout: &inv.stdout,
		Stderr: &inv.stderr,
	})
}

func echoServer(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := ioutil.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"method":      r.Method,
			"query":       r.URL.RawQuery,
			"contentType": r.Header.Get("Content-Type"),
			"body":        string(body),
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestMain_SendsJSON(t *testing.T) {
	// Setup
	server := echoServer(t)
	var inv invocation

	// Exercise
	err := run(t, &inv, "-b", server.URL+"/post", "name=xh", "n:=1", "q==a b")

	// Verify
	require.NoError(t, err)
	var echoed map[string]string
	require.NoError(t, json.Unmarshal(inv.stdout.Bytes(), &echoed), inv.stdout.String())
	assert.Equal(t, "POST", echoed["method"])
	assert.Equal(t, "q=a+b", echoed["query"])
	assert.Equal(t, "application/json", echoed["contentType"])
	assert.Equal(t, `{"name":"xh","n":1}`, echoed["body"])
}

func TestMain_Offline(t *testing.T) {
	var inv invocation

	err := run(t, &inv, "--offline", "--pretty", "none", "--form", "example.com/submit", "a=1", "X-Test:yes")

	require.NoError(t, err)
	out := inv.stdout.String()
	assert.Contains(t, out, "POST /submit HTTP/1.1\n")
	assert.Contains(t, out, "Host: example.com\n")
	assert.Contains(t, out, "X-Test: yes\n")
	assert.Contains(t, out, "Content-Type: application/x-www-form-urlencoded\n")
	assert.Contains(t, out, "a=1")
}

func TestMain_Curl(t *testing.T) {
	var inv invocation

	err := run(t, &inv, "--curl", "--offline", "httpbin.org/post", "x=3")

	require.NoError(t, err)
	assert.Equal(t,
		`curl 'http://httpbin.org/post' -H 'content-type: application/json' -H 'accept: application/json, */*;q=0.5' -d '{"x":"3"}'`+"\n",
		inv.stdout.String())
	assert.Equal(t, "Warning: Ignored --offline\n\n", inv.stderr.String())
}

func TestMain_CurlWindowsDialect(t *testing.T) {
	var inv invocation

	err := run(t, &inv, "--curl", "--curl-dialect", "windows", "httpbin.org/post", "x=3")

	require.NoError(t, err)
	assert.Equal(t,
		`curl http://httpbin.org/post -H "content-type: application/json" -H "accept: application/json, */*;q=0.5" -d "{\"x\":\"3\"}"`+"\n",
		inv.stdout.String())
}

func TestMain_CheckStatus(t *testing.T) {
	testCases := []struct {
		title    string
		status   int
		expected int
	}{
		{title: "Redirect", status: http.StatusNotModified, expected: 3},
		{title: "Client error", status: http.StatusNotFound, expected: 4},
		{title: "Server error", status: http.StatusBadGateway, expected: 5},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()
			var inv invocation

			err := run(t, &inv, "--check-status", server.URL)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr), "unexpected error: %+v", err)
			assert.Equal(t, tt.expected, statusErr.ExitCode())
		})
	}
}

func TestMain_Download(t *testing.T) {
	// Setup
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("file content"))
	}))
	defer server.Close()
	outputFile := filepath.Join(t.TempDir(), "saved.txt")
	var inv invocation

	// Exercise
	err := run(t, &inv, "-d", "-o", outputFile, server.URL+"/file.txt")

	// Verify
	require.NoError(t, err)
	b, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Equal(t, "file content", string(b))
	assert.Contains(t, inv.stderr.String(), "Downloading 12B")
	assert.Empty(t, inv.stdout.String())
}

func TestMain_DefaultOptionsFromConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "config.yaml"), []byte("default_options: [--curl]\n"), 0o600))
	t.Setenv("XH_CONFIG_DIR", dir)
	var inv invocation

	err := Main(&Options{
		Args:   []string{"xh", "--ignore-stdin", "example.com/get"},
		Stdout: &inv.stdout,
		Stderr: &inv.stderr,
	})

	require.NoError(t, err)
	assert.Equal(t, "curl 'http://example.com/get'\n", inv.stdout.String())
}

func TestMain_DefaultScheme(t *testing.T) {
	t.Setenv("XH_CONFIG_DIR", t.TempDir())
	var inv invocation

	err := Main(&Options{
		DefaultScheme: "https",
		Args:          []string{"xh", "-I", "--curl", "example.com/get"},
		Stdout:        &inv.stdout,
		Stderr:        &inv.stderr,
	})

	require.NoError(t, err)
	assert.Equal(t, "curl 'https://example.com/get'\n", inv.stdout.String())
}

func TestMain_Errors(t *testing.T) {
	testCases := []struct {
		title string
		args  []string
	}{
		{title: "Missing URL", args: nil},
		{title: "Invalid item", args: []string{"example.com", "nonsense"}},
		{title: "Invalid JSON", args: []string{"--offline", "example.com", "a:=[1"}},
		{title: "File with JSON body", args: []string{"--offline", "example.com", "f@/nonexistent/file"}},
		{title: "Missing file", args: []string{"--offline", "--form", "example.com", "f@/nonexistent/file"}},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			var inv invocation
			assert.Error(t, run(t, &inv, tt.args...))
		})
	}
}
