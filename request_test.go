package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want RequestLine
	}{
		{
			name: "path with query",
			line: "GET /foo/bar?x=1 HTTP/1.0",
			want: RequestLine{Method: "GET", PathInfo: "/foo/bar", QueryString: "x=1", Protocol: "HTTP/1.0"},
		},
		{
			name: "no query",
			line: "POST /submit HTTP/1.0",
			want: RequestLine{Method: "POST", PathInfo: "/submit", Protocol: "HTTP/1.0"},
		},
		{
			name: "empty query",
			line: "GET /a? HTTP/1.0",
			want: RequestLine{Method: "GET", PathInfo: "/a", Protocol: "HTTP/1.0"},
		},
		{
			name: "second question mark belongs to the query",
			line: "GET /a?b?c HTTP/1.0",
			want: RequestLine{Method: "GET", PathInfo: "/a", QueryString: "b?c", Protocol: "HTTP/1.0"},
		},
		{
			name: "protocol keeps trailing text",
			line: "GET / HTTP/1.0 extra",
			want: RequestLine{Method: "GET", PathInfo: "/", Protocol: "HTTP/1.0 extra"},
		},
		{
			name: "stops at line break",
			line: "GET / HTTP/1.0\nHost: x",
			want: RequestLine{Method: "GET", PathInfo: "/", Protocol: "HTTP/1.0"},
		},
		{
			name: "no protocol",
			line: "GET /",
			want: RequestLine{Method: "GET", PathInfo: "/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRequestLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRequestLine_Malformed(t *testing.T) {
	for _, line := range []string{"", "GET", "GET ", " /path HTTP/1.0", "GET ?x=1 HTTP/1.0"} {
		t.Run(line, func(t *testing.T) {
			_, err := parseRequestLine(line)
			assert.ErrorIs(t, err, errMalformedRequest)
		})
	}
}

func TestRequestParserStep(t *testing.T) {
	var p requestParser
	for _, c := range []byte("GET /") {
		assert.True(t, p.step(c))
	}
	assert.Equal(t, statePathInfo, p.state)
	assert.True(t, p.step('?'))
	assert.Equal(t, stateQueryString, p.state)
	assert.True(t, p.step(' '))
	assert.Equal(t, stateProtocol, p.state)
	assert.False(t, p.step('\n'))
	assert.False(t, p.step('x'))
	assert.Equal(t, RequestLine{Method: "GET", PathInfo: "/"}, p.result())
}

func TestRequestLineApply(t *testing.T) {
	env := Environ{}
	RequestLine{Method: "GET", PathInfo: "/foo", QueryString: "a=b", Protocol: "HTTP/1.0"}.apply(env)

	assert.Equal(t, Environ{
		"REQUEST_METHOD":  "GET",
		"SCRIPT_NAME":     "",
		"PATH_INFO":       "/foo",
		"QUERY_STRING":    "a=b",
		"REQUEST_URI":     "/cgi-bin/app.cgi",
		"SERVER_PROTOCOL": "HTTP/1.0",
	}, env)
}
