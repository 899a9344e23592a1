package packfile

import (
	"bufio"
	"bytes"
	"io"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/idxfile"
)

// DefaultMaxChainDepth is the delta chain depth Reader enforces when
// resolving a REF_DELTA/OFS_DELTA chain before giving up with a
// *gitobj.ChainTooDeepError (spec.md §4.3: "50 for Git pack compatibility").
const DefaultMaxChainDepth = 50

// Reader is a lazy pack reader (spec.md §4.3): it opens a pack and its
// sidecar index and resolves objects on demand, caching intermediate
// delta-resolution results so long chains aren't resolved repeatedly.
type Reader struct {
	pack          io.ReaderAt
	idx           *idxfile.Index
	compression   gitobj.Compression
	cache         *ristretto.Cache[int64, resolved]
	maxChainDepth int
}

type resolved struct {
	typ     gitobj.ObjectType
	content []byte
}

// NewReader opens a Reader over pack (a complete pack file's bytes) using
// idx for id-to-offset lookup. cacheBytes bounds the intermediate-delta
// cache's byte budget (spec.md §9: "make LRU capacity ... explicit
// construction parameters"); pass 0 to disable caching.
func NewReader(pack io.ReaderAt, idx *idxfile.Index, compression gitobj.Compression, cacheBytes int64) (*Reader, error) {
	r := &Reader{pack: pack, idx: idx, compression: compression, maxChainDepth: DefaultMaxChainDepth}

	if cacheBytes > 0 {
		c, err := ristretto.NewCache(&ristretto.Config[int64, resolved]{
			NumCounters: cacheBytes / 100 * 10, // ~10 keys tracked per 100 bytes of budget
			MaxCost:     cacheBytes,
			BufferItems: 64,
		})
		if err != nil {
			return nil, gitobj.WrapBackend(err)
		}
		r.cache = c
	}

	return r, nil
}

// SetMaxChainDepth overrides DefaultMaxChainDepth.
func (r *Reader) SetMaxChainDepth(n int) { r.maxChainDepth = n }

// Clear empties the intermediate-delta cache (spec.md §9's explicit
// `clear()` entry point).
func (r *Reader) Clear() {
	if r.cache != nil {
		r.cache.Clear()
	}
}

// Has reports whether id is present in this pack's index.
func (r *Reader) Has(id gitobj.ObjectID) bool {
	return r.idx.Contains(id)
}

// IDs returns every object id this pack's index lists, for historystore's
// GC pass to decide whether the whole pack has become unreachable.
func (r *Reader) IDs() []gitobj.ObjectID {
	ids := make([]gitobj.ObjectID, r.idx.Len())
	for i := range ids {
		ids[i] = r.idx.EntryAt(i).ID
	}
	return ids
}

// Get resolves id to its type, uncompressed size, and full content,
// satisfying objstore.PackBackend.
func (r *Reader) Get(id gitobj.ObjectID) (gitobj.ObjectType, int64, io.ReadCloser, error) {
	offset, ok := r.idx.FindOffset(id)
	if !ok {
		return gitobj.InvalidObject, 0, nil, gitobj.NewNotFoundError("pack entry " + id.String())
	}

	res, err := r.resolve(int64(offset), 0)
	if err != nil {
		return gitobj.InvalidObject, 0, nil, err
	}
	return res.typ, int64(len(res.content)), io.NopCloser(bytes.NewReader(res.content)), nil
}

// ReadObjectHeader returns the type, declared size, (for deltas) base
// reference, and the body's start offset within the pack, without resolving
// or materializing the payload.
func (r *Reader) ReadObjectHeader(offset int64) (t gitobj.ObjectType, size int64, baseOffset int64, baseID gitobj.ObjectID, bodyOffset int64, err error) {
	cr := &countingByteReader{br: bufio.NewReader(io.NewSectionReader(r.pack, offset, 1<<62))}

	t, size, err = DecodeObjectHeader(cr)
	if err != nil {
		return
	}

	switch t {
	case OFSDeltaObject:
		var neg int64
		neg, err = DecodeOfsDeltaOffset(cr)
		if err != nil {
			return
		}
		baseOffset = offset - neg
	case REFDeltaObject:
		var raw [20]byte
		for i := range raw {
			b, e := cr.ReadByte()
			if e != nil {
				err = gitobj.NewCorruptionError("truncated ref-delta base id", e)
				return
			}
			raw[i] = b
		}
		baseID, _ = gitobj.FromBytes(raw[:])
	}

	bodyOffset = offset + cr.n
	return
}

func (r *Reader) resolve(offset int64, depth int) (resolved, error) {
	if depth > r.maxChainDepth {
		return resolved{}, gitobj.NewChainTooDeepError("pack delta chain", r.maxChainDepth)
	}

	if r.cache != nil {
		if v, ok := r.cache.Get(offset); ok {
			return v, nil
		}
	}

	t, size, baseOffset, baseID, bodyOffset, err := r.ReadObjectHeader(offset)
	if err != nil {
		return resolved{}, err
	}

	if !t.IsDelta() {
		content, err := r.inflateAt(bodyOffset, size)
		if err != nil {
			return resolved{}, err
		}
		res := resolved{typ: t, content: content}
		r.store(offset, size, res)
		return res, nil
	}

	var base resolved
	if t == OFSDeltaObject {
		base, err = r.resolve(baseOffset, depth+1)
	} else {
		baseOff, ok := r.idx.FindOffset(baseID)
		if !ok {
			return resolved{}, gitobj.NewNotFoundError("ref-delta base " + baseID.String())
		}
		base, err = r.resolve(int64(baseOff), depth+1)
	}
	if err != nil {
		return resolved{}, err
	}

	deltaBytes, err := r.inflateAt(bodyOffset, size)
	if err != nil {
		return resolved{}, err
	}

	target, err := ApplyDelta(base.content, deltaBytes)
	if err != nil {
		return resolved{}, err
	}

	res := resolved{typ: base.typ, content: target}
	r.store(offset, int64(len(target)), res)
	return res, nil
}

func (r *Reader) store(offset, cost int64, res resolved) {
	if r.cache != nil {
		r.cache.Set(offset, res, cost)
	}
}

type countingByteReader struct {
	br *bufio.Reader
	n  int64
}

func (c *countingByteReader) ReadByte() (byte, error) {
	b, err := c.br.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

func (r *Reader) inflateAt(offset, size int64) ([]byte, error) {
	sr := io.NewSectionReader(r.pack, offset, 1<<62)
	inflated, err := r.compression.Inflate(sr, true)
	if err != nil {
		return nil, gitobj.NewCorruptionError("malformed pack entry payload", err)
	}
	defer inflated.Close()

	content := make([]byte, size)
	if _, err := io.ReadFull(inflated, content); err != nil {
		return nil, gitobj.NewCorruptionError("truncated pack entry payload", err)
	}
	return content, nil
}
