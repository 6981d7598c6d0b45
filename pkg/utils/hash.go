package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes computes the hex SHA-256 of a response body, used to detect unchanged pages.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
