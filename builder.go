// SPDX-FileCopyrightText: 2025 2025 Lukas Heindl
//
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	serverSoftware = "cgid-go/0.1.0"

	defaultServerName = "127.0.0.1"
	defaultServerPort = "80"
)

// Ambient holds the values the listener layer provides about the accepted connection
type Ambient struct {
	LocalIP   string
	LocalPort string
}

// parseOptions tunes how strictly header lines are checked
type parseOptions struct {
	Strict bool
}

// Request is everything needed to launch the CGI program for one request
type Request struct {
	Env           Environ
	ContentLength int64
}

func serverIdentity(env Environ, amb Ambient) {
	env.Set("GATEWAY_INTERFACE", "CGI/1.1")
	env.Set("SERVER_SOFTWARE", serverSoftware)

	name := amb.LocalIP
	if name == "" {
		slog.Warn("TCPLOCALIP not set (not running under UCSPI?), using default", "default", defaultServerName)
		name = defaultServerName
	}
	env.Set("SERVER_NAME", name)

	port := amb.LocalPort
	if port == "" {
		slog.Warn("TCPLOCALPORT not set (not running under UCSPI?), using default", "default", defaultServerPort)
		port = defaultServerPort
	}
	env.Set("SERVER_PORT", port)
}

// readLine reads one line and strips its terminator. atEOF reports whether
// the input ended before a line break was seen.
func readLine(r *bufio.Reader) (line string, atEOF bool, err error) {
	line, err = r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return strings.TrimSuffix(line, "\r"), true, nil
		}
		return "", false, fmt.Errorf("%w: reading request: %v", errTransfer, err)
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, false, nil
}

// applyHeader writes one header into env and returns the content length if
// the header declared one
func applyHeader(env Environ, line string, opts parseOptions) (int64, bool, error) {
	field, err := parseHeaderLine(line)
	if err != nil {
		return 0, false, err
	}
	if opts.Strict {
		if err := validHeaderName(field.Name); err != nil {
			return 0, false, err
		}
	}

	key := cgiKey(field.Name)
	var (
		length int64
		isLen  bool
	)
	if key == "CONTENT_LENGTH" {
		length, err = parseContentLength(field.Value)
		if err != nil {
			return 0, false, err
		}
		isLen = true
	}

	slog.Debug("header", "HEADER", key+"="+field.Value)
	env.Set(key, field.Value)
	return length, isLen, nil
}

// readRequest parses the request line and header block from r. The body is
// left unread in r. Nothing is returned unless the whole head parsed.
func readRequest(r *bufio.Reader, amb Ambient, opts parseOptions) (*Request, error) {
	req := &Request{Env: Environ{}}
	serverIdentity(req.Env, amb)

	line, atEOF, err := readLine(r)
	if err != nil {
		return nil, err
	}
	rl, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}
	rl.apply(req.Env)
	slog.Debug("request line parsed", "method", rl.Method, "path", rl.PathInfo)

	for !atEOF {
		line, atEOF, err = readLine(r)
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		n, isLen, err := applyHeader(req.Env, line, opts)
		if err != nil {
			return nil, err
		}
		if isLen {
			req.ContentLength = n
		}
	}

	slog.Debug("all headers set", "content_length", req.ContentLength)
	return req, nil
}
