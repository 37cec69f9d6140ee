package domain

import (
	"crypto/rand"
	"encoding/hex"
)

// guestTokenLength is the length of a guest token in hex characters.
// Tokens carry 256 bits of entropy and are generated exactly once per
// guest cart; they are never rotated by themselves.
const guestTokenLength = 64

// GuestToken is an opaque credential identifying an anonymous cart owner.
type GuestToken string

// NewGuestToken generates a fresh 256-bit guest token.
func NewGuestToken() (GuestToken, error) {
	buf := make([]byte, guestTokenLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", Internal(err, "guest_token.new", "failed to generate guest token")
	}
	return GuestToken(hex.EncodeToString(buf)), nil
}

// ParseGuestToken validates a guest token's length and charset.
func ParseGuestToken(s string) (GuestToken, error) {
	if len(s) != guestTokenLength {
		return "", Errorf(EINVALID, "guest_token.parse", "guest token must be %d characters, got %d", guestTokenLength, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", Invalid("guest_token.parse", "guest token must be lowercase hex")
	}
	for _, r := range s {
		if r >= 'A' && r <= 'F' {
			return "", Invalid("guest_token.parse", "guest token must be lowercase hex")
		}
	}
	return GuestToken(s), nil
}

// String returns the token value.
func (t GuestToken) String() string {
	return string(t)
}
