package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	errMalformedRequest = errors.New("malformed request line")
	errMalformedHeader  = errors.New("malformed header")
	errTransfer         = errors.New("transfer fault")
)

// statusError carries the status line reported to the client when a request
// is aborted before the CGI program took over the output stream
type statusError struct {
	Code   int
	Reason string
	Err    error
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%d %s: %v", e.Code, e.Reason, e.Err)
}

func (e *statusError) Unwrap() error {
	return e.Err
}

func badRequest(reason string, err error) *statusError {
	return &statusError{Code: http.StatusBadRequest, Reason: reason, Err: err}
}

func internalError(err error) *statusError {
	return &statusError{Code: http.StatusInternalServerError, Reason: http.StatusText(http.StatusInternalServerError), Err: err}
}

// asStatusError maps any error onto the status line written to the client.
// Parse errors become 400, everything else 500.
func asStatusError(err error) *statusError {
	var se *statusError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, errMalformedHeader):
		return badRequest("Invalid Header", err)
	case errors.Is(err, errMalformedRequest):
		return badRequest(http.StatusText(http.StatusBadRequest), err)
	}
	return internalError(err)
}

// writeStatusLine writes the minimal response preamble used for early exits
func writeStatusLine(w io.Writer, se *statusError) error {
	_, err := fmt.Fprintf(w, "HTTP/1.0 %d %s\r\n", se.Code, se.Reason)
	return err
}
