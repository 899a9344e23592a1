package stage

import (
	"bufio"
	"encoding/binary"
	"io"
	"time"

	"github.com/kitforge/gitkit/gitobj"
)

// signature is the Git index file's leading 4 bytes.
var signature = [4]byte{'D', 'I', 'R', 'C'}

// version2 is the base index format (spec.md §4.5): a 62-byte fixed entry
// header per record, no per-entry extension word. version3 additionally
// carries one 16-bit extended-flags word per entry that needed it — real
// Git upgrades a v2 index to v3 the moment any entry sets intent-to-add or
// skip-worktree, since those flags have no home in v2's 16-bit flags
// field; Encode reproduces that same conditional upgrade rather than
// silently dropping the flags or always paying the extra word.
const (
	version2 uint32 = 2
	version3 uint32 = 3
)

const (
	flagAssumeValid = 1 << 15
	flagExtended    = 1 << 14
	flagStageShift  = 12
	flagStageMask   = 0x3
	flagNameMask    = 0xfff

	extFlagSkipWorktree = 1 << 14
	extFlagIntentToAdd  = 1 << 5
)

// Encode writes idx's entries in Git index binary format (spec.md §4.5):
// a 12-byte header, one fixed-size record per entry, and a trailing SHA-1
// of every preceding byte.
func Encode(w io.Writer, idx *Index) error {
	entries := idx.Entries()
	sortEntries(entries)

	version := version2
	for _, e := range entries {
		if e.IntentToAdd || e.SkipWorktree {
			version = version3
			break
		}
	}

	h := gitobj.NewStreamHasher()
	mw := io.MultiWriter(w, h)
	bw := bufio.NewWriter(mw)

	if _, err := bw.Write(signature[:]); err != nil {
		return gitobj.WrapBackend(err)
	}
	if err := writeU32(bw, version); err != nil {
		return err
	}
	if err := writeU32(bw, uint32(len(entries))); err != nil {
		return err
	}

	for _, e := range entries {
		if err := encodeEntry(bw, e, version); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return gitobj.WrapBackend(err)
	}
	if _, err := w.Write(h.Sum(nil)); err != nil {
		return gitobj.WrapBackend(err)
	}
	return nil
}

func encodeEntry(w io.Writer, e StagingEntry, version uint32) error {
	var buf [62]byte

	putTime(buf[0:8], e.CTime)
	putTime(buf[8:16], e.MTime)
	binary.BigEndian.PutUint32(buf[16:20], e.Dev)
	binary.BigEndian.PutUint32(buf[20:24], e.Ino)
	binary.BigEndian.PutUint32(buf[24:28], uint32(e.Mode))
	binary.BigEndian.PutUint32(buf[28:32], e.UID)
	binary.BigEndian.PutUint32(buf[32:36], e.GID)
	binary.BigEndian.PutUint32(buf[36:40], e.Size)
	copy(buf[40:60], e.ID.Bytes())

	nameLen := len(e.Path)
	flagNameLen := nameLen
	if flagNameLen > flagNameMask {
		flagNameLen = flagNameMask
	}
	flags := uint16(flagNameLen) & flagNameMask
	flags |= uint16(e.Stage&flagStageMask) << flagStageShift
	if e.AssumeValid {
		flags |= flagAssumeValid
	}
	extended := version >= version3 && (e.IntentToAdd || e.SkipWorktree)
	if extended {
		flags |= flagExtended
	}
	binary.BigEndian.PutUint16(buf[60:62], flags)

	if _, err := w.Write(buf[:]); err != nil {
		return gitobj.WrapBackend(err)
	}

	written := 62
	if extended {
		var ext uint16
		if e.SkipWorktree {
			ext |= extFlagSkipWorktree
		}
		if e.IntentToAdd {
			ext |= extFlagIntentToAdd
		}
		var extBuf [2]byte
		binary.BigEndian.PutUint16(extBuf[:], ext)
		if _, err := w.Write(extBuf[:]); err != nil {
			return gitobj.WrapBackend(err)
		}
		written += 2
	}

	if _, err := io.WriteString(w, e.Path); err != nil {
		return gitobj.WrapBackend(err)
	}
	if _, err := w.Write([]byte{0}); err != nil {
		return gitobj.WrapBackend(err)
	}
	written += nameLen + 1

	pad := (8 - written%8) % 8
	if pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return gitobj.WrapBackend(err)
		}
	}
	return nil
}

// Decode parses an index file written by Encode, verifying the trailing
// SHA-1 against the bytes preceding it.
func Decode(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)
	h := gitobj.NewStreamHasher()
	tr := io.TeeReader(br, h)

	var sig [4]byte
	if _, err := io.ReadFull(tr, sig[:]); err != nil {
		return nil, gitobj.WrapBackend(err)
	}
	if sig != signature {
		return nil, gitobj.NewCorruptionError("index: bad signature", nil)
	}

	version, err := readU32(tr)
	if err != nil {
		return nil, gitobj.WrapBackend(err)
	}
	if version != version2 && version != version3 {
		return nil, gitobj.NewCorruptionError("index: unsupported version", nil)
	}

	count, err := readU32(tr)
	if err != nil {
		return nil, gitobj.WrapBackend(err)
	}

	idx := &Index{}
	for i := uint32(0); i < count; i++ {
		e, err := decodeEntry(tr)
		if err != nil {
			return nil, err
		}
		idx.entries = append(idx.entries, e)
	}

	sum := h.Sum(nil)
	var trailer [20]byte
	if _, err := io.ReadFull(br, trailer[:]); err != nil {
		return nil, gitobj.WrapBackend(err)
	}
	for i := range sum {
		if sum[i] != trailer[i] {
			return nil, gitobj.NewCorruptionError("index: trailing checksum mismatch", nil)
		}
	}

	idx.loadedAt = time.Now()
	return idx, nil
}

func decodeEntry(r io.Reader) (StagingEntry, error) {
	var buf [62]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return StagingEntry{}, gitobj.WrapBackend(err)
	}

	var e StagingEntry
	e.CTime = readTime(buf[0:8])
	e.MTime = readTime(buf[8:16])
	e.Dev = binary.BigEndian.Uint32(buf[16:20])
	e.Ino = binary.BigEndian.Uint32(buf[20:24])
	e.Mode = gitobj.FileMode(binary.BigEndian.Uint32(buf[24:28]))
	e.UID = binary.BigEndian.Uint32(buf[28:32])
	e.GID = binary.BigEndian.Uint32(buf[32:36])
	e.Size = binary.BigEndian.Uint32(buf[36:40])

	id, ok := gitobj.FromBytes(buf[40:60])
	if !ok {
		return StagingEntry{}, gitobj.NewCorruptionError("index: malformed entry id", nil)
	}
	e.ID = id

	flags := binary.BigEndian.Uint16(buf[60:62])
	e.AssumeValid = flags&flagAssumeValid != 0
	e.Stage = int((flags >> flagStageShift) & flagStageMask)
	nameLen := int(flags & flagNameMask)

	read := 62
	if flags&flagExtended != 0 {
		var extBuf [2]byte
		if _, err := io.ReadFull(r, extBuf[:]); err != nil {
			return StagingEntry{}, gitobj.WrapBackend(err)
		}
		ext := binary.BigEndian.Uint16(extBuf[:])
		e.SkipWorktree = ext&extFlagSkipWorktree != 0
		e.IntentToAdd = ext&extFlagIntentToAdd != 0
		read += 2
	}

	name, err := readName(r, nameLen)
	if err != nil {
		return StagingEntry{}, err
	}
	e.Path = name
	read += len(name) + 1

	pad := (8 - read%8) % 8
	if pad > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(pad)); err != nil {
			return StagingEntry{}, gitobj.WrapBackend(err)
		}
	}
	return e, nil
}

// readName reads a NUL-terminated path. When the flags field's 12-bit
// name-length saturated at flagNameMask, the true length is unknown in
// advance, so the NUL terminator is located by reading one byte at a
// time regardless; this keeps readName correct over a plain io.Reader
// (the TeeReader decoding depends on) without a second buffering layer.
func readName(r io.Reader, nameLen int) (string, error) {
	var buf []byte
	if nameLen < flagNameMask {
		buf = make([]byte, 0, nameLen)
	}
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", gitobj.WrapBackend(err)
		}
		if b[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, b[0])
	}
}

func putTime(b []byte, t time.Time) {
	if t.IsZero() {
		return
	}
	binary.BigEndian.PutUint32(b[0:4], uint32(t.Unix()))
	binary.BigEndian.PutUint32(b[4:8], uint32(t.Nanosecond()))
}

func readTime(b []byte) time.Time {
	sec := binary.BigEndian.Uint32(b[0:4])
	nsec := binary.BigEndian.Uint32(b[4:8])
	if sec == 0 && nsec == 0 {
		return time.Time{}
	}
	return time.Unix(int64(sec), int64(nsec)).UTC()
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
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
