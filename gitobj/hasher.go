package gitobj

import (
	"hash"
	"strconv"

	"github.com/pjbgf/sha1cd"
)

// Hasher computes the SHA-1 identity of a Git object envelope
// ("<type> <size>\0<payload>"). It wraps sha1cd, the same collision-detecting
// SHA-1 implementation go-git itself wires in, rather than crypto/sha1,
// since object identity is a security-relevant value an attacker-supplied
// blob can target with a crafted collision.
type Hasher struct {
	h hash.Hash
}

// NewHasher returns a Hasher ready to hash a fresh object envelope.
func NewHasher() *Hasher {
	return &Hasher{h: sha1cd.New()}
}

// Reset prepares the hasher for a new object of the given type and
// declared size, writing the envelope header.
func (h *Hasher) Reset(t ObjectType, size int64) {
	h.h.Reset()
	h.h.Write(t.Bytes())
	h.h.Write([]byte(" "))
	h.h.Write([]byte(strconv.FormatInt(size, 10)))
	h.h.Write([]byte{0})
}

// Write feeds payload bytes into the hash, after Reset has written the
// envelope header.
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Sum finalizes the hash and returns the resulting ObjectID. The Hasher may
// be reused for another object after a call to Reset.
func (h *Hasher) Sum() ObjectID {
	var id ObjectID
	copy(id[:], h.h.Sum(nil))
	return id
}

// HashObject is a convenience wrapper computing the id of a complete,
// already-buffered payload, equivalent to spec.md §8 property 1's
// `SHA1("<t> <|b|>\0" || b)`.
func HashObject(t ObjectType, payload []byte) ObjectID {
	h := NewHasher()
	h.Reset(t, int64(len(payload)))
	h.Write(payload)
	return h.Sum()
}

// NewStreamHasher returns a plain streaming SHA-1 hash.Hash, used for
// whole-file checksums (pack trailers, index trailers) that are not Git
// object envelopes.
func NewStreamHasher() hash.Hash {
	return sha1cd.New()
}
