// Package checksum computes content digests for artifact integrity
// checks and HTTP caching validators.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns the digest of data formatted as a strong HTTP ETag.
func ETag(data []byte) string {
	return `"` + Sum(data) + `"`
}
