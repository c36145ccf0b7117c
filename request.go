package main

import (
	"fmt"
	"log/slog"
	"strings"
)

// placeholder REQUEST_URI, the gateway does not map paths to scripts
const requestURI = "/cgi-bin/app.cgi"

type requestState int

const (
	stateMethod requestState = iota
	statePathInfo
	stateQueryString
	stateProtocol
	stateRequestDone
)

// RequestLine is the parsed first line of a request
type RequestLine struct {
	Method      string
	PathInfo    string
	QueryString string
	Protocol    string
}

type requestParser struct {
	state    requestState
	method   strings.Builder
	pathInfo strings.Builder
	query    strings.Builder
	protocol strings.Builder
}

// step feeds one byte into the parser. It returns false once the line end was
// consumed and no further input is accepted.
func (p *requestParser) step(c byte) bool {
	switch p.state {
	case stateMethod:
		if c == ' ' {
			slog.Debug("request line", "METHOD", p.method.String())
			p.state = statePathInfo
		} else {
			p.method.WriteByte(c)
		}
	case statePathInfo:
		switch c {
		case '?':
			slog.Debug("request line", "PATH_INFO", p.pathInfo.String())
			p.state = stateQueryString
		case ' ':
			slog.Debug("request line", "PATH_INFO", p.pathInfo.String())
			p.state = stateProtocol
		default:
			p.pathInfo.WriteByte(c)
		}
	case stateQueryString:
		if c == ' ' {
			slog.Debug("request line", "QUERY_STRING", p.query.String())
			p.state = stateProtocol
		} else {
			p.query.WriteByte(c)
		}
	case stateProtocol:
		if c == '\n' {
			slog.Debug("request line", "SERVER_PROTOCOL", p.protocol.String())
			p.state = stateRequestDone
			return false
		}
		p.protocol.WriteByte(c)
	case stateRequestDone:
		return false
	}
	return true
}

func (p *requestParser) result() RequestLine {
	return RequestLine{
		Method:      p.method.String(),
		PathInfo:    p.pathInfo.String(),
		QueryString: p.query.String(),
		Protocol:    p.protocol.String(),
	}
}

// parseRequestLine runs the request line state machine over line. A line
// that does not yield both a method and a path is rejected.
func parseRequestLine(line string) (RequestLine, error) {
	var p requestParser
	for i := 0; i < len(line); i++ {
		if !p.step(line[i]) {
			break
		}
	}
	rl := p.result()
	if rl.Method == "" {
		return rl, fmt.Errorf("%w: missing method in %q", errMalformedRequest, line)
	}
	if rl.PathInfo == "" {
		return rl, fmt.Errorf("%w: missing path in %q", errMalformedRequest, line)
	}
	return rl, nil
}

// apply writes the request line variables into env
func (rl RequestLine) apply(env Environ) {
	env.Set("REQUEST_METHOD", rl.Method)
	env.Set("SCRIPT_NAME", "")
	env.Set("PATH_INFO", rl.PathInfo)
	env.Set("QUERY_STRING", rl.QueryString)
	env.Set("REQUEST_URI", requestURI)
	env.Set("SERVER_PROTOCOL", rl.Protocol)
}
