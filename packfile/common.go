package packfile

import (
	"encoding/binary"
	"io"

	"github.com/kitforge/gitkit/gitobj"
)

// Magic is the 4-byte signature every pack file begins with.
var Magic = [4]byte{'P', 'A', 'C', 'K'}

// Version is the only pack format version gitkit writes or reads.
const Version uint32 = 2

// ChecksumSize is the length in bytes of the trailing pack SHA-1.
const ChecksumSize = 20

// OFSDeltaObject and REFDeltaObject are the two pack-only delta entry
// types, re-exported from gitobj for use by pack code and its callers.
const (
	OFSDeltaObject = gitobj.OFSDeltaObject
	REFDeltaObject = gitobj.REFDeltaObject
)

// WriteFileHeader writes the "PACK", version, and object-count fields.
func WriteFileHeader(w io.Writer, objectCount uint32) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return gitobj.WrapBackend(err)
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], Version)
	if _, err := w.Write(b[:]); err != nil {
		return gitobj.WrapBackend(err)
	}
	binary.BigEndian.PutUint32(b[:], objectCount)
	if _, err := w.Write(b[:]); err != nil {
		return gitobj.WrapBackend(err)
	}
	return nil
}

// ReadFileHeader reads and validates the "PACK"/version fields and returns
// the declared object count.
func ReadFileHeader(r io.Reader) (uint32, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, gitobj.NewCorruptionError("truncated pack header", err)
	}
	if magic != Magic {
		return 0, gitobj.NewCorruptionError("bad pack magic", nil)
	}

	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, gitobj.NewCorruptionError("truncated pack version", err)
	}
	if v := binary.BigEndian.Uint32(b[:]); v != Version {
		return 0, gitobj.NewCorruptionError("unsupported pack version", nil)
	}

	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, gitobj.NewCorruptionError("truncated pack object count", err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// EncodeObjectHeader writes the variable-length (type, uncompressed size)
// header Git uses to prefix every pack entry: the first byte holds 3 type
// bits and 4 size bits, with MSB-continuation size bits 7 at a time in
// subsequent bytes (spec.md §4.3).
func EncodeObjectHeader(w io.Writer, t gitobj.ObjectType, size int64) error {
	first := byte(t&0x7) << 4
	rest := uint64(size) >> 4
	if rest != 0 {
		first |= 0x80
	}
	first |= byte(size) & 0x0f

	if err := writeByte(w, first); err != nil {
		return err
	}

	for rest != 0 {
		b := byte(rest & 0x7f)
		rest >>= 7
		if rest != 0 {
			b |= 0x80
		}
		if err := writeByte(w, b); err != nil {
			return err
		}
	}
	return nil
}

// DecodeObjectHeader reads a pack entry's (type, uncompressed size) header.
func DecodeObjectHeader(r io.ByteReader) (gitobj.ObjectType, int64, error) {
	b, err := r.ReadByte()
	if err != nil {
		return gitobj.InvalidObject, 0, gitobj.NewCorruptionError("truncated pack object header", err)
	}

	t := gitobj.ObjectType((b >> 4) & 0x7)
	size := int64(b & 0x0f)
	shift := uint(4)

	for b&0x80 != 0 {
		b, err = r.ReadByte()
		if err != nil {
			return gitobj.InvalidObject, 0, gitobj.NewCorruptionError("truncated pack object header", err)
		}
		size |= int64(b&0x7f) << shift
		shift += 7
	}

	return t, size, nil
}

// EncodeOfsDeltaOffset writes an OFS_DELTA negative-offset field: each byte
// carries 7 bits with MSB continuation, accumulated on decode via
// `(val+1) << 7 | next` (spec.md §4.3) — a distinct varint dialect from the
// object header's, chosen by Git to make every encoding strictly minimal.
func EncodeOfsDeltaOffset(w io.Writer, offset int64) error {
	var stack []byte
	v := uint64(offset)
	stack = append(stack, byte(v&0x7f))
	v >>= 7
	for v != 0 {
		v--
		stack = append(stack, byte(v&0x7f)|0x80)
		v >>= 7
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if err := writeByte(w, stack[i]); err != nil {
			return err
		}
	}
	return nil
}

// DecodeOfsDeltaOffset reads an OFS_DELTA negative-offset field.
func DecodeOfsDeltaOffset(r io.ByteReader) (int64, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, gitobj.NewCorruptionError("truncated ofs-delta offset", err)
	}
	v := uint64(b & 0x7f)
	for b&0x80 != 0 {
		b, err = r.ReadByte()
		if err != nil {
			return 0, gitobj.NewCorruptionError("truncated ofs-delta offset", err)
		}
		v = (v+1)<<7 | uint64(b&0x7f)
	}
	return int64(v), nil
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return gitobj.WrapBackend(err)
}
