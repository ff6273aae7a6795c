package utils

import (
	"crypto/sha1"
	"encoding/hex"
)

// HashString returns the hex SHA1 of s. Rulesets use it as their revision
// fingerprint, which in turn namespaces area cache keys.
func HashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}
