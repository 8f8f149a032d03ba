package security

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// DigitsOnly strips everything but ASCII digits, so "000.000.000-00" and
// "00000000000" normalize to the same value.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HashIdentifier returns the lowercase hex SHA-256 of the normalized
// identifier. It is the lookup key for encrypted national IDs.
func HashIdentifier(s string) string {
	sum := sha256.Sum256([]byte(DigitsOnly(s)))
	return hex.EncodeToString(sum[:])
}
