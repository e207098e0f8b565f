package domains

import (
	"crypto/sha256"
	"strings"

	"github.com/mr-tron/base58"
)

// RequestHash returns a stable content address for a request text:
// base58-encoded SHA-256 of the normalized text. Normalization collapses
// whitespace and lowercases, so trivially reformatted requests share a
// hash. The domain context is deliberately excluded; cache keys are
// context-independent.
func RequestHash(requestText string) string {
	normalized := NormalizeRequest(requestText)
	sum := sha256.Sum256([]byte(normalized))
	return base58.Encode(sum[:])
}

// NormalizeRequest collapses runs of whitespace to single spaces, trims,
// and lowercases.
func NormalizeRequest(requestText string) string {
	return strings.ToLower(strings.Join(strings.Fields(requestText), " "))
}
