package packfile

import (
	"hash"
	"hash/crc32"
	"io"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/idxfile"
)

// Entry is one object queued for writing into a pack: either full content
// (Type is one of the four storable kinds) or a delta program against a
// base identified by offset (OFSDeltaObject) or id (REFDeltaObject).
type Entry struct {
	ID      gitobj.ObjectID
	Type    gitobj.ObjectType
	Content []byte // full content for a non-delta Type, delta program bytes otherwise

	// BaseOffset is the absolute offset of the OFS_DELTA base within this
	// same pack (already written earlier in the stream). Only meaningful
	// when Type == OFSDeltaObject.
	BaseOffset int64
	// BaseID is the REF_DELTA base's object id. Only meaningful when
	// Type == REFDeltaObject.
	BaseID gitobj.ObjectID
}

// Writer is the streaming pack encoder (spec.md §4.3): it flushes each
// entry's encoded bytes to the underlying io.Writer as soon as it is added,
// suitable for unbounded object counts. WritePack wraps Writer for the
// common case of writing an already-collected slice of Entry in one call.
type Writer struct {
	w           io.Writer
	compression gitobj.Compression
	packHash    hash.Hash
	offset      int64
	entries     []idxfile.Entry
}

// NewWriter writes the pack file header (declaring objectCount entries
// will follow) and returns a Writer ready to accept that many AddObject/
// AddOfsDelta/AddRefDelta calls before Finish.
func NewWriter(w io.Writer, objectCount uint32, compression gitobj.Compression) (*Writer, error) {
	packHash := gitobj.NewStreamHasher()
	tee := io.MultiWriter(w, packHash)

	if err := WriteFileHeader(tee, objectCount); err != nil {
		return nil, err
	}

	return &Writer{w: tee, compression: compression, packHash: packHash, offset: int64(len(Magic)) + 8}, nil
}

// AddObject appends a full (non-delta) object.
func (pw *Writer) AddObject(id gitobj.ObjectID, t gitobj.ObjectType, content []byte) error {
	return pw.addEntry(id, t, content, 0, gitobj.ZeroHash)
}

// AddOfsDelta appends an OFS_DELTA entry whose base was already written at
// baseOffset earlier in this same pack.
func (pw *Writer) AddOfsDelta(id gitobj.ObjectID, baseOffset int64, deltaBytes []byte) error {
	return pw.addEntry(id, OFSDeltaObject, deltaBytes, baseOffset, gitobj.ZeroHash)
}

// AddRefDelta appends a REF_DELTA entry against baseID, which may or may
// not be present in this same pack.
func (pw *Writer) AddRefDelta(id gitobj.ObjectID, baseID gitobj.ObjectID, deltaBytes []byte) error {
	return pw.addEntry(id, REFDeltaObject, deltaBytes, 0, baseID)
}

func (pw *Writer) addEntry(id gitobj.ObjectID, t gitobj.ObjectType, payload []byte, baseOffset int64, baseID gitobj.ObjectID) error {
	startOffset := pw.offset
	crc := crc32.NewIEEE()
	counting := &countingWriter{w: io.MultiWriter(pw.w, crc)}

	if err := EncodeObjectHeader(counting, t, int64(len(payload))); err != nil {
		return err
	}

	switch t {
	case OFSDeltaObject:
		if err := EncodeOfsDeltaOffset(counting, startOffset-baseOffset); err != nil {
			return err
		}
	case REFDeltaObject:
		if _, err := counting.Write(baseID.Bytes()); err != nil {
			return gitobj.WrapBackend(err)
		}
	}

	deflated, err := pw.compression.Deflate(counting, true)
	if err != nil {
		return err
	}
	if _, err := deflated.Write(payload); err != nil {
		deflated.Close()
		return gitobj.WrapBackend(err)
	}
	if err := deflated.Close(); err != nil {
		return gitobj.WrapBackend(err)
	}

	pw.offset = startOffset + counting.n
	pw.entries = append(pw.entries, idxfile.Entry{ID: id, Offset: uint64(startOffset), CRC32: crc.Sum32()})
	return nil
}

// countingWriter tracks how many bytes have actually flowed through it, so
// Writer can derive each entry's true on-wire length (header plus
// compressed payload) without a second measuring pass.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Finish writes the trailing pack checksum and returns it along with the
// index entries accumulated for every object written.
func (pw *Writer) Finish() (gitobj.ObjectID, []idxfile.Entry, error) {
	sum := pw.packHash.Sum(nil)
	if _, err := pw.w.Write(sum); err != nil {
		return gitobj.ZeroHash, nil, gitobj.WrapBackend(err)
	}
	id, _ := gitobj.FromBytes(sum)
	return id, pw.entries, nil
}

// WritePack is the buffered writer (spec.md §4.3): it writes all of
// entries, in the given order, as a single pack to w.
func WritePack(w io.Writer, entries []Entry, compression gitobj.Compression) (gitobj.ObjectID, []idxfile.Entry, error) {
	pw, err := NewWriter(w, uint32(len(entries)), compression)
	if err != nil {
		return gitobj.ZeroHash, nil, err
	}

	for _, e := range entries {
		var err error
		switch e.Type {
		case OFSDeltaObject:
			err = pw.AddOfsDelta(e.ID, e.BaseOffset, e.Content)
		case REFDeltaObject:
			err = pw.AddRefDelta(e.ID, e.BaseID, e.Content)
		default:
			err = pw.AddObject(e.ID, e.Type, e.Content)
		}
		if err != nil {
			return gitobj.ZeroHash, nil, err
		}
	}

	return pw.Finish()
}

// PendingBuilder batches Entry values and reports when accumulated count or
// byte size crosses a configurable threshold (spec.md §4.3: "flush when
// either pending object count >= N (default 100) or pending bytes >= M
// (default 10 MiB)"), letting a caller assembling a large pack decide when
// to hand a batch off to WritePack/Writer without holding unbounded memory.
type PendingBuilder struct {
	MaxCount int
	MaxBytes int64

	pending []Entry
	bytes   int64
}

// DefaultMaxPendingCount and DefaultMaxPendingBytes are spec.md §4.3's
// stated defaults.
const (
	DefaultMaxPendingCount = 100
	DefaultMaxPendingBytes = 10 * 1024 * 1024
)

// NewPendingBuilder returns a PendingBuilder using the spec's default
// thresholds.
func NewPendingBuilder() *PendingBuilder {
	return &PendingBuilder{MaxCount: DefaultMaxPendingCount, MaxBytes: DefaultMaxPendingBytes}
}

// Add queues e and reports whether the caller should now flush (via
// Drain) before adding more.
func (b *PendingBuilder) Add(e Entry) bool {
	b.pending = append(b.pending, e)
	b.bytes += int64(len(e.Content))
	return len(b.pending) >= b.MaxCount || b.bytes >= b.MaxBytes
}

// Drain returns and clears the pending batch.
func (b *PendingBuilder) Drain() []Entry {
	p := b.pending
	b.pending = nil
	b.bytes = 0
	return p
}

// Len reports the number of entries currently pending.
func (b *PendingBuilder) Len() int { return len(b.pending) }
