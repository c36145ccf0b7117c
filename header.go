package main

import (
	"fmt"
	"strings"
	"unicode"

	"go4.org/strutil"
	"golang.org/x/net/http/httpguts"
)

type headerState int

const (
	stateKey headerState = iota
	stateWhitespace
	stateValue
)

// HeaderField is one parsed header line. Name keeps the case it was sent in.
type HeaderField struct {
	Name  string
	Value string
}

type headerParser struct {
	state headerState
	valid bool
	key   []byte
	value []byte
}

// step feeds one byte of a header line into the parser
func (p *headerParser) step(c byte) {
	switch p.state {
	case stateKey:
		if c == ':' {
			p.valid = true
			p.state = stateWhitespace
		} else {
			p.key = append(p.key, c)
		}
	case stateWhitespace:
		// only ' ' is skipped, a tab starts the value
		if c != ' ' {
			p.value = append(p.value, c)
			p.state = stateValue
		}
	case stateValue:
		p.value = append(p.value, c)
	}
}

// parseHeaderLine splits a header line (without its terminator) into name and value
func parseHeaderLine(line string) (HeaderField, error) {
	p := headerParser{
		key:   make([]byte, 0, len(line)),
		value: make([]byte, 0, len(line)),
	}
	for i := 0; i < len(line); i++ {
		p.step(line[i])
	}
	if !p.valid {
		return HeaderField{}, fmt.Errorf("%w: no colon in %q", errMalformedHeader, line)
	}
	return HeaderField{Name: string(p.key), Value: string(p.value)}, nil
}

func upperCaseAndUnderscore(r rune) rune {
	if r == '-' {
		return '_'
	}
	return unicode.ToUpper(r)
}

// cgiKey returns the environment variable a header is exposed under
func cgiKey(name string) string {
	key := "HTTP_" + strings.Map(upperCaseAndUnderscore, name)
	switch key {
	case "HTTP_CONTENT_TYPE":
		return "CONTENT_TYPE"
	case "HTTP_CONTENT_LENGTH":
		return "CONTENT_LENGTH"
	}
	return key
}

// parseContentLength accepts a plain non-negative decimal integer
func parseContentLength(v string) (int64, error) {
	n, err := strutil.ParseUintBytes([]byte(v), 10, 63)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid Content-Length %q: %v", errMalformedHeader, v, err)
	}
	return int64(n), nil
}

func validHeaderName(name string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("%w: invalid header name %q", errMalformedHeader, name)
	}
	return nil
}
