// Package fileid provides deterministic fingerprints for uploaded workbook content.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
)

const prefix = "sha256:"

// ContentID returns a stable identifier for content. Identical bytes always yield the
// same ID, so repeated uploads of one workbook can be correlated in logs and responses.
func ContentID(content []byte) string {
	hash := sha256.Sum256(content)
	return prefix + hex.EncodeToString(hash[:])
}
