// Package identity implements the Principal type: the opaque, public-key
// derived identifier used both to authenticate callers and to key accounts.
//
// A principal is a 32-byte ed25519 public key. Its canonical textual form is
//
//	lp_<52 base32 chars of the key><8 base32 chars of checksum>
//
// using a custom base32 alphabet and a 5-byte blake2b checksum, so a single
// mistyped character is rejected before any state lookup.
package identity

import (
	"crypto/ed25519"
	"encoding/base32"
	"errors"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Encoding is the base32 alphabet used for the textual form. The alphabet
// omits characters that are easy to confuse (0/o, 2/z, l/1, v/u).
var Encoding = base32.NewEncoding("13456789abcdefghijkmnopqrstuwxyz")

const (
	// Prefix starts every canonical principal string.
	Prefix = "lp_"

	// encodedLen is the length of the textual form without the prefix:
	// 52 characters of key material plus 8 characters of checksum.
	encodedLen = 60
)

var (
	ErrInvalidEncoding = errors.New("invalid principal encoding")
	ErrInvalidChecksum = errors.New("invalid principal checksum")
)

// Principal is a 32-byte ed25519 public key identifying an account owner.
type Principal [32]byte

// checksum returns the 5-byte blake2b digest of pubkey with reversed byte
// order, matching the order used in the textual form.
func checksum(pubkey []byte) ([]byte, error) {
	hash, err := blake2b.New(5, nil)
	if err != nil {
		return nil, err
	}
	hash.Write(pubkey)

	var sum []byte
	for _, b := range hash.Sum(nil) {
		sum = append([]byte{b}, sum...)
	}
	return sum, nil
}

// FromPublicKey wraps an ed25519 public key as a Principal.
func FromPublicKey(pub ed25519.PublicKey) (Principal, error) {
	if len(pub) != ed25519.PublicKeySize {
		return Principal{}, ErrInvalidEncoding
	}
	var p Principal
	copy(p[:], pub)
	return p, nil
}

// PublicKey returns the principal as an ed25519 public key.
func (p Principal) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(p[:])
}

// String renders the canonical textual form.
//
// The 256-bit key does not fall on a base32 boundary, so three zero bytes are
// prepended before encoding and the corresponding four leading characters are
// stripped, the same trick nano-style addresses use.
func (p Principal) String() string {
	sum, err := checksum(p[:])
	if err != nil {
		return ""
	}

	padded := append([]byte{0, 0, 0}, p[:]...)

	return Prefix + Encoding.EncodeToString(padded)[4:] + Encoding.EncodeToString(sum)
}

// FromText parses the canonical textual form, verifying the checksum.
func FromText(s string) (Principal, error) {
	if !strings.HasPrefix(s, Prefix) {
		return Principal{}, ErrInvalidEncoding
	}

	body := s[len(Prefix):]
	if len(body) != encodedLen {
		return Principal{}, ErrInvalidEncoding
	}

	keyPart := "1111" + body[:52]
	sumPart := body[52:]

	keyBytes, err := Encoding.DecodeString(keyPart)
	if err != nil {
		return Principal{}, ErrInvalidEncoding
	}
	// Strip the three padding bytes added during encoding.
	keyBytes = keyBytes[3:]

	wantSum, err := checksum(keyBytes)
	if err != nil {
		return Principal{}, ErrInvalidEncoding
	}
	if Encoding.EncodeToString(wantSum) != sumPart {
		return Principal{}, ErrInvalidChecksum
	}

	var p Principal
	copy(p[:], keyBytes)
	return p, nil
}

// IsZero reports whether the principal is the zero value.
func (p Principal) IsZero() bool {
	return p == Principal{}
}

// Less defines the canonical ordering used when two account locks must be
// taken together.
func (p Principal) Less(other Principal) bool {
	for i := range p {
		if p[i] != other[i] {
			return p[i] < other[i]
		}
	}
	return false
}

func (p Principal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

func (p *Principal) UnmarshalJSON(data []byte) error {
	parsed, err := FromText(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
