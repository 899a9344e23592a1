package idxfile

import (
	"bufio"
	"encoding/binary"
	"io"
	"sort"

	"github.com/kitforge/gitkit/gitobj"
)

// magic is the pack index v2 signature, 0xff followed by "tOc".
var magic = [4]byte{0xff, 't', 'O', 'c'}

// version is the only pack index version gitkit writes or reads.
const version uint32 = 2

// largeOffsetFlag marks an offset-table slot as an index into the
// large-offset table rather than a direct 31-bit offset.
const largeOffsetFlag uint32 = 0x80000000

// Entry is one object's index record: its id, its byte offset within the
// pack, and the CRC32 of its encoded (header+compressed payload) bytes.
type Entry struct {
	ID     gitobj.ObjectID
	Offset uint64
	CRC32  uint32
}

// Index is a fully decoded pack index v2, ready for id-to-offset lookup.
type Index struct {
	fanout       [256]uint32
	ids          []gitobj.ObjectID
	crcs         []uint32
	offsets      []uint64
	PackChecksum gitobj.ObjectID
	IdxChecksum  gitobj.ObjectID
}

// Encode writes entries (which need not be pre-sorted; Encode sorts a copy)
// as a pack index v2 to w, trailed by packChecksum and then the SHA-1 of
// every byte written before it (spec.md §4.3).
func Encode(w io.Writer, entries []Entry, packChecksum gitobj.ObjectID) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID.Compare(sorted[j].ID.Bytes()) < 0
	})

	h := gitobj.NewStreamHasher()
	mw := io.MultiWriter(w, h)
	bw := bufio.NewWriter(mw)

	if _, err := bw.Write(magic[:]); err != nil {
		return gitobj.WrapBackend(err)
	}
	if err := writeU32(bw, version); err != nil {
		return err
	}

	var fanout [256]uint32
	for _, e := range sorted {
		fanout[e.ID.Bytes()[0]]++
	}
	for i := 1; i < 256; i++ {
		fanout[i] += fanout[i-1]
	}
	for _, v := range fanout {
		if err := writeU32(bw, v); err != nil {
			return err
		}
	}

	for _, e := range sorted {
		if _, err := bw.Write(e.ID.Bytes()); err != nil {
			return gitobj.WrapBackend(err)
		}
	}

	for _, e := range sorted {
		if err := writeU32(bw, e.CRC32); err != nil {
			return err
		}
	}

	var large []uint64
	for _, e := range sorted {
		if e.Offset < uint64(largeOffsetFlag) {
			if err := writeU32(bw, uint32(e.Offset)); err != nil {
				return err
			}
			continue
		}
		idx := uint32(len(large))
		large = append(large, e.Offset)
		if err := writeU32(bw, largeOffsetFlag|idx); err != nil {
			return err
		}
	}

	for _, off := range large {
		if err := writeU64(bw, off); err != nil {
			return err
		}
	}

	if _, err := bw.Write(packChecksum.Bytes()); err != nil {
		return gitobj.WrapBackend(err)
	}

	if err := bw.Flush(); err != nil {
		return gitobj.WrapBackend(err)
	}

	sum := h.Sum(nil)
	if _, err := w.Write(sum); err != nil {
		return gitobj.WrapBackend(err)
	}

	return nil
}

// Decode parses a pack index v2 stream fully into memory.
func Decode(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)
	h := gitobj.NewStreamHasher()
	tr := io.TeeReader(br, h)

	var gotMagic [4]byte
	if _, err := io.ReadFull(tr, gotMagic[:]); err != nil {
		return nil, gitobj.NewCorruptionError("truncated pack index header", err)
	}
	if gotMagic != magic {
		return nil, gitobj.NewCorruptionError("bad pack index magic", nil)
	}

	v, err := readU32(tr)
	if err != nil {
		return nil, gitobj.NewCorruptionError("truncated pack index version", err)
	}
	if v != version {
		return nil, gitobj.NewCorruptionError("unsupported pack index version", nil)
	}

	idx := &Index{}
	for i := 0; i < 256; i++ {
		fo, err := readU32(tr)
		if err != nil {
			return nil, gitobj.NewCorruptionError("truncated pack index fanout table", err)
		}
		idx.fanout[i] = fo
	}

	n := int(idx.fanout[255])
	idx.ids = make([]gitobj.ObjectID, n)
	for i := 0; i < n; i++ {
		var raw [20]byte
		if _, err := io.ReadFull(tr, raw[:]); err != nil {
			return nil, gitobj.NewCorruptionError("truncated pack index id table", err)
		}
		id, _ := gitobj.FromBytes(raw[:])
		idx.ids[i] = id
	}

	idx.crcs = make([]uint32, n)
	for i := 0; i < n; i++ {
		c, err := readU32(tr)
		if err != nil {
			return nil, gitobj.NewCorruptionError("truncated pack index crc table", err)
		}
		idx.crcs[i] = c
	}

	rawOffsets := make([]uint32, n)
	var largeCount int
	for i := 0; i < n; i++ {
		o, err := readU32(tr)
		if err != nil {
			return nil, gitobj.NewCorruptionError("truncated pack index offset table", err)
		}
		rawOffsets[i] = o
		if o&largeOffsetFlag != 0 {
			idxVal := int(o &^ largeOffsetFlag)
			if idxVal+1 > largeCount {
				largeCount = idxVal + 1
			}
		}
	}

	large := make([]uint64, largeCount)
	for i := 0; i < largeCount; i++ {
		v, err := readU64(tr)
		if err != nil {
			return nil, gitobj.NewCorruptionError("truncated pack index large-offset table", err)
		}
		large[i] = v
	}

	idx.offsets = make([]uint64, n)
	for i, o := range rawOffsets {
		if o&largeOffsetFlag != 0 {
			idx.offsets[i] = large[o&^largeOffsetFlag]
		} else {
			idx.offsets[i] = uint64(o)
		}
	}

	var packSumRaw [20]byte
	if _, err := io.ReadFull(tr, packSumRaw[:]); err != nil {
		return nil, gitobj.NewCorruptionError("truncated pack checksum trailer", err)
	}
	idx.PackChecksum, _ = gitobj.FromBytes(packSumRaw[:])

	computed := h.Sum(nil)

	var idxSumRaw [20]byte
	if _, err := io.ReadFull(br, idxSumRaw[:]); err != nil {
		return nil, gitobj.NewCorruptionError("truncated index checksum trailer", err)
	}
	idx.IdxChecksum, _ = gitobj.FromBytes(idxSumRaw[:])

	if !bytesEqual(computed, idxSumRaw[:]) {
		return nil, gitobj.NewCorruptionError("pack index checksum mismatch", nil)
	}

	return idx, nil
}

// FindOffset looks up id's byte offset in the pack via fanout bucket then
// binary search, returning ok=false if id is absent.
func (idx *Index) FindOffset(id gitobj.ObjectID) (uint64, bool) {
	i, ok := idx.findIndex(id)
	if !ok {
		return 0, false
	}
	return idx.offsets[i], true
}

// FindCRC32 looks up id's stored CRC32, returning ok=false if absent.
func (idx *Index) FindCRC32(id gitobj.ObjectID) (uint32, bool) {
	i, ok := idx.findIndex(id)
	if !ok {
		return 0, false
	}
	return idx.crcs[i], true
}

// Contains reports whether id is present in the index.
func (idx *Index) Contains(id gitobj.ObjectID) bool {
	_, ok := idx.findIndex(id)
	return ok
}

func (idx *Index) findIndex(id gitobj.ObjectID) (int, bool) {
	b := id.Bytes()[0]
	lo := 0
	if b > 0 {
		lo = int(idx.fanout[b-1])
	}
	hi := int(idx.fanout[b])

	i := sort.Search(hi-lo, func(i int) bool {
		return idx.ids[lo+i].Compare(id.Bytes()) >= 0
	}) + lo

	if i < hi && idx.ids[i] == id {
		return i, true
	}
	return 0, false
}

// Len returns the number of objects indexed.
func (idx *Index) Len() int { return len(idx.ids) }

// EntryAt returns the i'th entry in id-sorted order.
func (idx *Index) EntryAt(i int) Entry {
	return Entry{ID: idx.ids[i], Offset: idx.offsets[i], CRC32: idx.crcs[i]}
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return gitobj.WrapBackend(err)
}

func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return gitobj.WrapBackend(err)
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
