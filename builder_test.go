package main

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestReadRequest(t *testing.T) {
	in := reader("POST /submit?debug=1 HTTP/1.0\r\n" +
		"Host: example.org\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Length: 5\r\n" +
		"X-Forwarded-For:  10.0.0.1, 10.0.0.2\r\n" +
		"\r\n" +
		"hello")

	req, err := readRequest(in, Ambient{LocalIP: "192.0.2.1", LocalPort: "8080"}, parseOptions{})
	require.NoError(t, err)

	assert.Equal(t, int64(5), req.ContentLength)
	assert.Equal(t, Environ{
		"GATEWAY_INTERFACE":    "CGI/1.1",
		"SERVER_SOFTWARE":      serverSoftware,
		"SERVER_NAME":          "192.0.2.1",
		"SERVER_PORT":          "8080",
		"REQUEST_METHOD":       "POST",
		"SCRIPT_NAME":          "",
		"PATH_INFO":            "/submit",
		"QUERY_STRING":         "debug=1",
		"REQUEST_URI":          "/cgi-bin/app.cgi",
		"SERVER_PROTOCOL":      "HTTP/1.0",
		"HTTP_HOST":            "example.org",
		"CONTENT_TYPE":         "text/plain",
		"CONTENT_LENGTH":       "5",
		"HTTP_X_FORWARDED_FOR": "10.0.0.1, 10.0.0.2",
	}, req.Env)

	// the body is left for the relay
	body, err := io.ReadAll(in)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestReadRequest_AmbientDefaults(t *testing.T) {
	req, err := readRequest(reader("GET / HTTP/1.0\n\n"), Ambient{}, parseOptions{})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", req.Env["SERVER_NAME"])
	assert.Equal(t, "80", req.Env["SERVER_PORT"])
	assert.Equal(t, int64(0), req.ContentLength)
	_, ok := req.Env.Get("CONTENT_LENGTH")
	assert.False(t, ok)
	_, ok = req.Env.Get("CONTENT_TYPE")
	assert.False(t, ok)
}

func TestReadRequest_LastHeaderWins(t *testing.T) {
	req, err := readRequest(reader("GET / HTTP/1.0\nX-A: one\nx-a: two\n\n"), Ambient{}, parseOptions{})
	require.NoError(t, err)
	assert.Equal(t, "two", req.Env["HTTP_X_A"])
}

func TestReadRequest_EOFEndsHeaders(t *testing.T) {
	req, err := readRequest(reader("GET /x HTTP/1.0\nHost: a"), Ambient{}, parseOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a", req.Env["HTTP_HOST"])
	assert.Equal(t, "HTTP/1.0", req.Env["SERVER_PROTOCOL"])
}

func TestReadRequest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		opts   parseOptions
		target error
	}{
		{"header without colon", "GET / HTTP/1.0\nBroken header\n\n", parseOptions{}, errMalformedHeader},
		{"non numeric content length", "POST / HTTP/1.0\nContent-Length: abc\n\n", parseOptions{}, errMalformedHeader},
		{"negative content length", "POST / HTTP/1.0\nContent-Length: -3\n\n", parseOptions{}, errMalformedHeader},
		{"empty request line", "\n\n", parseOptions{}, errMalformedRequest},
		{"method only", "GET\n\n", parseOptions{}, errMalformedRequest},
		{"strict rejects bad name", "GET / HTTP/1.0\nBad Name: x\n\n", parseOptions{Strict: true}, errMalformedHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := readRequest(reader(tt.input), Ambient{}, tt.opts)
			assert.Nil(t, req)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestReadRequest_LenientNames(t *testing.T) {
	req, err := readRequest(reader("GET / HTTP/1.0\nBad Name: x\n\n"), Ambient{}, parseOptions{})
	require.NoError(t, err)
	assert.Equal(t, "x", req.Env["HTTP_BAD NAME"])
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestReadLine_ReadError(t *testing.T) {
	_, _, err := readLine(bufio.NewReader(failingReader{}))
	assert.ErrorIs(t, err, errTransfer)
}

func TestEnvironPairs(t *testing.T) {
	env := Environ{}
	env.Set("B", "2")
	env.Set("A", "1")
	env.Set("B", "3")
	assert.Equal(t, []string{"A=1", "B=3"}, env.Pairs())
}
