package packfile

import (
	"bufio"
	"io"

	"github.com/kitforge/gitkit/gitobj"
)

// ScannedObject is one pack entry as it is encountered by sequential scan,
// before delta resolution: its header, its position in the pack, and its
// inflated bytes (full object content for non-delta types, or the raw
// delta program bytes for OFS_DELTA/REF_DELTA).
type ScannedObject struct {
	Type   gitobj.ObjectType
	Size   int64 // declared uncompressed size
	Offset int64 // byte offset of this entry's header within the pack

	// BaseOffset is valid, and BaseID the zero hash, when Type is
	// OFSDeltaObject: it is the absolute offset of the base entry within the
	// pack (Offset minus the entry's encoded negative offset).
	BaseOffset int64
	// BaseID is valid, and BaseOffset zero, when Type is REFDeltaObject.
	BaseID gitobj.ObjectID

	Content []byte
}

// Scanner reads a pack file's entries sequentially from a non-seekable
// stream, used by historystore's pack-ingestion path (parsePackEntries,
// spec.md §6). Reader does not use it: Reader always works from a sidecar
// idxfile.Index.
type Scanner struct {
	r           *countingReader
	br          *bufio.Reader
	compression gitobj.Compression
	objectCount uint32
	read        uint32
}

// NewScanner reads the pack file header from r and returns a Scanner ready
// to yield ObjectCount() entries via Next.
func NewScanner(r io.Reader, compression gitobj.Compression) (*Scanner, error) {
	cr := &countingReader{r: r}
	count, err := ReadFileHeader(cr)
	if err != nil {
		return nil, err
	}
	return &Scanner{r: cr, br: bufio.NewReader(cr), compression: compression, objectCount: count}, nil
}

// ObjectCount returns the pack's declared object count.
func (s *Scanner) ObjectCount() uint32 { return s.objectCount }

// Next returns the next entry, or io.EOF once ObjectCount entries have been
// read (the trailing pack checksum is left unconsumed; callers read it with
// ReadTrailer).
func (s *Scanner) Next() (*ScannedObject, error) {
	if s.read >= s.objectCount {
		return nil, io.EOF
	}

	offset := s.r.n - int64(s.br.Buffered())
	t, size, err := DecodeObjectHeader(s.br)
	if err != nil {
		return nil, err
	}

	obj := &ScannedObject{Type: t, Size: size, Offset: offset}

	switch t {
	case OFSDeltaObject:
		negOffset, err := DecodeOfsDeltaOffset(s.br)
		if err != nil {
			return nil, err
		}
		obj.BaseOffset = offset - negOffset
	case REFDeltaObject:
		var raw [20]byte
		if _, err := io.ReadFull(s.br, raw[:]); err != nil {
			return nil, gitobj.NewCorruptionError("truncated ref-delta base id", err)
		}
		obj.BaseID, _ = gitobj.FromBytes(raw[:])
	}

	inflated, err := s.compression.Inflate(s.br, true)
	if err != nil {
		return nil, gitobj.NewCorruptionError("malformed pack entry payload", err)
	}
	content := make([]byte, size)
	if _, err := io.ReadFull(inflated, content); err != nil {
		inflated.Close()
		return nil, gitobj.NewCorruptionError("truncated pack entry payload", err)
	}
	inflated.Close()
	obj.Content = content

	s.read++
	return obj, nil
}

// ReadTrailer reads and returns the pack's 20-byte trailing checksum,
// called after Next has returned io.EOF.
func (s *Scanner) ReadTrailer() (gitobj.ObjectID, error) {
	var raw [20]byte
	if _, err := io.ReadFull(s.br, raw[:]); err != nil {
		return gitobj.ZeroHash, gitobj.NewCorruptionError("truncated pack trailer", err)
	}
	id, _ := gitobj.FromBytes(raw[:])
	return id, nil
}

// countingReader tracks the total number of bytes read, so Scanner can
// record each entry's byte offset for OFS_DELTA base resolution.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
