package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ShortenString cuts s after l runes and appends "...". l == 0 means no
// limit.
func ShortenString(s string, l int) string {
	r := []rune(s)
	if len(r) > l && l != 0 {
		return fmt.Sprintf("%s...", string(r[:l]))
	}
	return s
}

// RandomString returns base followed by a dash and 16 random hex characters.
func RandomString(base string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", base, hex.EncodeToString(b)), nil
}
