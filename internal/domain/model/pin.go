package model

import (
	"crypto/rand"
	"io"
	"strings"
	"unicode"
)

const (
	MinPinLength = 6
	MaxPinLength = 9
)

// NormalizePin strips formatting (dashes, spaces, dots) and upper-cases letters,
// so "2468-13" and "246813" identify the same plan.
func NormalizePin(pin string) string {
	var b strings.Builder
	b.Grow(len(pin))
	for _, r := range pin {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// ValidPinFormat expects an already normalized PIN.
func ValidPinFormat(pin string) bool {
	return len(pin) >= MinPinLength && len(pin) <= MaxPinLength
}

// MaskPin hides all but the last two characters of a PIN.
func MaskPin(pin string) string {
	if len(pin) <= 2 {
		return "****"
	}
	return strings.Repeat("*", len(pin)-2) + pin[len(pin)-2:]
}

// GeneratePin creates a random numeric PIN of the given length.
func GeneratePin(length int) (string, error) {
	if length < MinPinLength || length > MaxPinLength {
		length = 8
	}
	return randomFrom("0123456789", length)
}

// GenerateVerificationCode creates a human-readable lookup code for a redemption.
// Format: XXXX-XXXX-XXXX
func GenerateVerificationCode() (string, error) {
	// A character set that avoids ambiguous characters like O/0, I/1, l.
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	s, err := randomFrom(chars, 12)
	if err != nil {
		return "", err
	}
	return s[0:4] + "-" + s[4:8] + "-" + s[8:12], nil
}

func randomFrom(chars string, n int) (string, error) {
	buffer := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	for i := range buffer {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}
	return string(buffer), nil
}
