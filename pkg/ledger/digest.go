// Package ledger holds the client-side representation of the ledger's
// cryptographic objects: notes, inclusion proofs, accounts and transaction
// results, together with their canonical binary codec. The store persists
// these objects and relies on the round-trip guarantee of EncodeBinary /
// Decode* pairs; it never inspects the encoded bytes itself.
package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Digest is a 32-byte content-derived hash. Note ids, nullifiers, account
// state hashes, script hashes and merkle nodes are all Digests.
type Digest [32]byte

var ZeroDigest Digest

var ErrBadDigest = errors.New("ledger: malformed digest encoding")

// String renders the digest as 0x-prefixed lowercase hex, the form used
// for text columns and JSON.
func (d Digest) String() string {
	return "0x" + hex.EncodeToString(d[:])
}

func (d Digest) IsZero() bool {
	return d == ZeroDigest
}

func (d Digest) bytes() []byte {
	return d[:]
}

// ParseDigest parses the 0x-prefixed hex form produced by String.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	if !strings.HasPrefix(s, "0x") {
		return d, fmt.Errorf("%w: missing 0x prefix in %q", ErrBadDigest, s)
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrBadDigest, err)
	}
	if len(b) != len(d) {
		return d, fmt.Errorf("%w: %d hex bytes, want %d", ErrBadDigest, len(b), len(d))
	}
	copy(d[:], b)
	return d, nil
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// hash computes a domain-separated blake2b digest over the given chunks.
// Distinct tags keep note ids, nullifiers and recipients from colliding
// even when derived from the same preimage fields.
func hash(tag string, chunks ...[]byte) Digest {
	h, err := blake2b.New256([]byte(tag))
	if err != nil {
		// blake2b only rejects keys longer than 64 bytes; tags are short literals.
		panic(err)
	}
	for _, c := range chunks {
		h.Write(c)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
