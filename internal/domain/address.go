package domain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Address identifies a party or a collection. It is always stored in
// EIP-55 checksummed form so that equal addresses compare equal.
type Address string

const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// ParseAddress validates a 20-byte hex address (with or without 0x prefix,
// any letter case) and returns its checksummed form.
func ParseAddress(s string) (Address, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(raw) != 40 {
		return "", fmt.Errorf("%w: %q has %d hex digits, want 40", ErrInvalidAddress, s, len(raw))
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	return Address(checksum(strings.ToLower(raw))), nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string { return string(a) }

func (a Address) IsZero() bool { return a == "" || a == ZeroAddress }

func checksum(lowerHex string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lowerHex))
	digest := h.Sum(nil)

	out := make([]byte, 0, 42)
	out = append(out, '0', 'x')
	for i := 0; i < len(lowerHex); i++ {
		c := lowerHex[i]
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if c >= 'a' && c <= 'f' && nibble&0x0f >= 8 {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
