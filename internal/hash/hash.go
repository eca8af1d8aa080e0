package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ZeroDigest is the 64-character all-zero digest used by the genesis block
// for both its content hash and its previous-hash link.
const ZeroDigest = "0000000000000000000000000000000000000000000000000000000000000000"

// Content returns the SHA-256 digest of the document's UTF-8 bytes as
// lower-case hex.
func Content(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Canonical hashes a field set over its deterministic serialization.
// json.Marshal emits map keys in sorted order, so the same fields always
// produce the same digest regardless of insertion order.
func Canonical(fields map[string]any) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to marshal fields: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Truncate shortens a digest for display in histories and audit reports.
func Truncate(digest string) string {
	if len(digest) <= 16 {
		return digest
	}
	return digest[:16] + "..."
}
