// Package identity canonicalises wallet addresses used as caller identities.
package identity

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ErrMalformed is returned for anything that is not a 20-byte hex address.
var ErrMalformed = errors.New("identity must be a 0x-prefixed 40 character hex address")

// ErrBadChecksum is returned when a mixed-case address fails EIP-55.
var ErrBadChecksum = errors.New("identity checksum mismatch")

// Normalize validates addr and returns its lower-case canonical form.
// All-lower and all-upper hex are accepted as-is; mixed case must carry a
// valid EIP-55 checksum.
func Normalize(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if len(addr) != 42 || !(strings.HasPrefix(addr, "0x") || strings.HasPrefix(addr, "0X")) {
		return "", ErrMalformed
	}
	body := addr[2:]
	if _, err := hex.DecodeString(body); err != nil {
		return "", ErrMalformed
	}

	lower := strings.ToLower(body)
	if body != lower && body != strings.ToUpper(body) {
		if Checksum("0x"+lower) != "0x"+body {
			return "", ErrBadChecksum
		}
	}
	return "0x" + lower, nil
}

// Checksum renders a lower-case address in EIP-55 mixed case.
func Checksum(addr string) string {
	body := strings.ToLower(strings.TrimPrefix(addr, "0x"))

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(body))
	digest := hex.EncodeToString(h.Sum(nil))

	out := []byte(body)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			out[i] = c - 32
		}
	}
	return "0x" + string(out)
}

// Equal reports whether two addresses denote the same identity.
func Equal(a, b string) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return na == nb
}
