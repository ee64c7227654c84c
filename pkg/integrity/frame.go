package integrity

import (
	"bufio"
	"fmt"
	"io"
)

// DefaultMaxFrameSize bounds a single frame, newline excluded.
const DefaultMaxFrameSize = 1 << 20

// Ack answers every message frame.
type Ack struct {
	Status Outcome `json:"status"`
	Hash   string  `json:"hash,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// newFrameScanner splits r into newline-delimited frames. A stream that ends
// without a final newline still yields its last frame.
func newFrameScanner(r io.Reader, maxSize int) *bufio.Scanner {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}
	initial := 4096
	if maxSize < initial {
		initial = maxSize
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initial), maxSize+1)
	return sc
}

// writeFrame encodes v as compact JSON followed by a newline.
func writeFrame(w io.Writer, v any) error {
	data, err := marshalJSON(v)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}
