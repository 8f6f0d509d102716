// Package checksum derives content fingerprints used as HTTP validators.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns a strong entity tag for a digest produced by Sum.
func ETag(sum string) string {
	if len(sum) > 32 {
		sum = sum[:32]
	}
	return `"` + sum + `"`
}

// Match reports whether an If-None-Match header value matches etag.
// Weak tags compare equal to their strong form.
func Match(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
