package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key derives a stable cache key from template source text
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return "crowdgen:v1:" + hex.EncodeToString(h.Sum(nil))
}
