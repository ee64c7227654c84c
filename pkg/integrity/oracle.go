package integrity

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const oracleChunkSize = 32 * 1024

// RespondWithDigest answers every chunk read from rw with the hex digest of
// that chunk, until EOF. Chunk boundaries follow the transport: a payload
// split across several reads yields several digests.
func RespondWithDigest(ctx context.Context, rw io.ReadWriter) (int, error) {
	buf := make([]byte, oracleChunkSize)
	chunks := 0
	for {
		if err := ctx.Err(); err != nil {
			return chunks, err
		}
		n, err := rw.Read(buf)
		if n > 0 {
			if _, werr := io.WriteString(rw, Digest(buf[:n])); werr != nil {
				return chunks, fmt.Errorf("failed to write digest: %w", werr)
			}
			chunks++
		}
		if errors.Is(err, io.EOF) {
			return chunks, nil
		}
		if err != nil {
			return chunks, fmt.Errorf("failed to read chunk: %w", err)
		}
	}
}
