package wire

import (
	"fmt"
	"io"
)

// WriteChunk writes p as one chunked-transfer chunk: "HEX CRLF data CRLF".
func WriteChunk(w io.Writer, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if _, err := fmt.Fprintf(w, "%x\r\n", len(p)); err != nil {
		return 0, err
	}
	n, err := w.Write(p)
	if err != nil {
		return n, err
	}
	if _, err := w.Write(crlf); err != nil {
		return n, err
	}
	return n, nil
}

// WriteLastChunk writes the terminating zero-size chunk with no trailers.
func WriteLastChunk(w io.Writer) error {
	_, err := w.Write(lastChunk)
	return err
}

var (
	crlf      = []byte("\r\n")
	lastChunk = []byte("0\r\n\r\n")
)
