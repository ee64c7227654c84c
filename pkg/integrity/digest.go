package integrity

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestLength is the length of a hex-encoded digest.
const DigestLength = sha256.Size * 2

// Digest returns the lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
