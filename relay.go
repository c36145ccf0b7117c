package main

import (
	"errors"
	"fmt"
	"io"
)

// size of the reusable buffer for the request body
const bodyBufferSize = 64 * 1024

// copyExact copies exactly n bytes from src to dst through one fixed size
// buffer. A source that ends early is a transfer fault; only bytes that were
// actually read are written.
func copyExact(dst io.Writer, src io.Reader, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	buf := make([]byte, min(n, bodyBufferSize))

	var written int64
	left := n
	for left > 0 {
		chunk := buf
		if left < int64(len(buf)) {
			chunk = buf[:left]
		}
		nr, rerr := io.ReadFull(src, chunk)
		if nr > 0 {
			nw, werr := dst.Write(chunk[:nr])
			written += int64(nw)
			if werr != nil {
				return written, fmt.Errorf("%w: writing body: %v", errTransfer, werr)
			}
			if nw != nr {
				return written, fmt.Errorf("%w: writing body: %v", errTransfer, io.ErrShortWrite)
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
				return written, fmt.Errorf("%w: body ended after %d of %d bytes", errTransfer, written, n)
			}
			return written, fmt.Errorf("%w: reading body: %v", errTransfer, rerr)
		}
		left -= int64(nr)
	}
	return written, nil
}

// copyStream relays src to dst until src reports end of stream
func copyStream(dst io.Writer, src io.Reader) (int64, error) {
	n, err := io.Copy(dst, src)
	if err != nil {
		return n, fmt.Errorf("%w: relaying output: %v", errTransfer, err)
	}
	return n, nil
}
