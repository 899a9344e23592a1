// Package gitobj implements the core types shared by every layer of gitkit:
// object identity, object types, the collaborator interfaces (FilesApi,
// Compression, Hasher) that higher layers depend on, and the error taxonomy
// every public operation returns.
package gitobj

import (
	"bytes"
	"encoding/hex"
	"sort"
)

// idSize is the length in bytes of a SHA-1 object id. gitkit, per spec,
// never computes SHA-256 object names.
const idSize = 20

// hexSize is the length of the hexadecimal string form of an ObjectID.
const hexSize = idSize * 2

// ObjectID is the content address of a Git object: the SHA-1 of its full
// envelope ("<type> <size>\0<payload>"), represented as a fixed 20-byte
// array. The zero value is ZeroHash.
type ObjectID [idSize]byte

// ZeroHash is an ObjectID with all bytes zero.
var ZeroHash ObjectID

// EmptyTreeID is the well-known id of the empty tree object.
var EmptyTreeID = NewID("4b825dc642cb6eb9a060e54bf8d69288fbee4904")

// EmptyBlobID is the well-known id of the zero-byte blob object.
var EmptyBlobID = NewID("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")

// NewID parses a hexadecimal string into an ObjectID, panicking if it is not
// a valid 40-character hex string. Intended for well-known constants; use
// FromHex for untrusted input.
func NewID(s string) ObjectID {
	id, ok := FromHex(s)
	if !ok {
		panic("gitobj: invalid hex object id: " + s)
	}
	return id
}

// FromHex parses a hexadecimal string and returns an ObjectID and a boolean
// confirming whether the operation succeeded. Invalid input returns
// (ZeroHash, false).
func FromHex(s string) (ObjectID, bool) {
	var id ObjectID
	if len(s) != hexSize {
		return id, false
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return id, false
	}

	copy(id[:], b)
	return id, true
}

// FromBytes builds an ObjectID from a 20-byte raw hash. It returns false if
// in is not exactly 20 bytes long.
func FromBytes(in []byte) (ObjectID, bool) {
	var id ObjectID
	if len(in) != idSize {
		return id, false
	}
	copy(id[:], in)
	return id, true
}

// IsHash reports whether s is a syntactically valid 40-character hex object
// id. It does not check that any object with that id actually exists.
func IsHash(s string) bool {
	if len(s) != hexSize {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// IsZero reports whether id is the all-zero hash.
func (id ObjectID) IsZero() bool {
	return id == ZeroHash
}

// String returns the lowercase hexadecimal representation of id.
func (id ObjectID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 20-byte hash. The returned slice aliases id's
// backing array and must not be mutated.
func (id ObjectID) Bytes() []byte {
	return id[:]
}

// Compare compares id's bytes against b, following bytes.Compare semantics.
func (id ObjectID) Compare(b []byte) int {
	return bytes.Compare(id[:], b)
}

// HasPrefix reports whether id starts with the given raw byte prefix.
func (id ObjectID) HasPrefix(prefix []byte) bool {
	return bytes.HasPrefix(id[:], prefix)
}

// SortIDs sorts a slice of ObjectID in increasing byte order, in place.
func SortIDs(ids []ObjectID) {
	sort.Sort(idSlice(ids))
}

type idSlice []ObjectID

func (s idSlice) Len() int           { return len(s) }
func (s idSlice) Less(i, j int) bool { return bytes.Compare(s[i][:], s[j][:]) < 0 }
func (s idSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
