package objstore

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/rawstore"
)

// Header is the parsed form of an object envelope's leading
// "<type> <size>\0" line.
type Header struct {
	Type gitobj.ObjectType
	Size int64
}

// PackBackend is the narrow read-only surface an ObjectStore needs from a
// pack reader. packfile.Reader implements this; ObjectStore depends only on
// the interface so the two packages don't import each other.
type PackBackend interface {
	// Get returns the type, uncompressed size, and a reader over the fully
	// resolved (delta-applied) payload of id, or a *gitobj.NotFoundError if
	// this pack does not contain id.
	Get(id gitobj.ObjectID) (gitobj.ObjectType, int64, io.ReadCloser, error)
	// Has reports whether this pack's index lists id, without resolving
	// its content.
	Has(id gitobj.ObjectID) bool
}

// ObjectStore is the content-addressed object store (spec.md §4.2): it maps
// ObjectID to (type, payload) over a loose rawstore.RawStorage plus any
// number of attached read-only PackBackends.
type ObjectStore struct {
	raw   rawstore.RawStorage
	packs []PackBackend

	// dedup collapses concurrent writes of identical content into a
	// single raw-storage write, using the computed id as the dedup key
	// (spec.md §9's content-addressing idempotence carried into the
	// concurrent case).
	dedup singleflight.Group
}

// New returns an ObjectStore backed by raw, with no pack backends attached
// yet. Use AddPack to register packs, typically in most-recently-written
// order so newer packs shadow older ones on duplicate lookups.
func New(raw rawstore.RawStorage) *ObjectStore {
	return &ObjectStore{raw: raw}
}

// AddPack registers a pack backend. Packs are searched in the order added
// after the loose backend misses.
func (s *ObjectStore) AddPack(p PackBackend) {
	s.packs = append(s.packs, p)
}

// Raw returns the loose raw-storage backend, for callers (historystore's
// GC pass) that need to enumerate or remove loose objects directly rather
// than through the id-addressed Load/WriteObject surface.
func (s *ObjectStore) Raw() rawstore.RawStorage {
	return s.raw
}

// Packs returns the attached pack backends, in search order, for callers
// (historystore's GC pass) that need to decide whether a whole pack has
// become unreachable.
func (s *ObjectStore) Packs() []PackBackend {
	return s.packs
}

// WriteObject buffers r fully (spec.md §4.2: the envelope needs a size
// up front, so unknown-length streams must be measured before the header
// can be written), computes the object's id, and stores it if not already
// present. It returns the id regardless of whether a write actually
// occurred (spec.md §8 property 2).
func (s *ObjectStore) WriteObject(t gitobj.ObjectType, r io.Reader) (gitobj.ObjectID, error) {
	if !t.Valid() {
		return gitobj.ZeroHash, gitobj.NewInvalidArgumentError("WriteObject: invalid object type: " + t.String())
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return gitobj.ZeroHash, gitobj.WrapBackend(err)
	}

	id := gitobj.HashObject(t, content)

	_, err, _ = s.dedup.Do(id.String(), func() (any, error) {
		if has, hasErr := s.raw.Has(id.String()); hasErr == nil && has {
			return nil, nil
		}

		var env bytes.Buffer
		env.WriteString(t.String())
		env.WriteByte(' ')
		env.WriteString(strconv.FormatInt(int64(len(content)), 10))
		env.WriteByte(0)
		env.Write(content)

		return nil, s.raw.Store(id.String(), &env)
	})
	if err != nil {
		return gitobj.ZeroHash, err
	}

	return id, nil
}

// WriteBytes is a convenience wrapper around WriteObject for already
// in-memory content.
func (s *ObjectStore) WriteBytes(t gitobj.ObjectType, content []byte) (gitobj.ObjectID, error) {
	return s.WriteObject(t, bytes.NewReader(content))
}

// LoadWithHeader streams id's stored bytes from raw storage (falling
// through to each attached pack in order on a loose miss), parses its
// envelope header, and returns the header alongside a reader positioned at
// the start of the payload. A NotFound from every backend is returned as a
// single *gitobj.NotFoundError (spec.md §7).
func (s *ObjectStore) LoadWithHeader(id gitobj.ObjectID) (Header, io.ReadCloser, error) {
	raw, err := s.raw.Load(id.String(), rawstore.ReadRange{Length: -1})
	if err == nil {
		hdr, body, perr := parseEnvelope(raw)
		if perr != nil {
			raw.Close()
			return Header{}, nil, perr
		}
		return hdr, body, nil
	}
	if !gitobj.IsNotFound(err) {
		return Header{}, nil, err
	}

	for _, p := range s.packs {
		t, size, body, perr := p.Get(id)
		if perr == nil {
			return Header{Type: t, Size: size}, body, nil
		}
		if !gitobj.IsNotFound(perr) {
			return Header{}, nil, perr
		}
	}

	return Header{}, nil, gitobj.NewNotFoundError("object " + id.String())
}

// Load returns just the payload stream for id, discarding the header.
func (s *ObjectStore) Load(id gitobj.ObjectID) (io.ReadCloser, error) {
	_, body, err := s.LoadWithHeader(id)
	return body, err
}

// LoadBytes fully buffers id's payload.
func (s *ObjectStore) LoadBytes(id gitobj.ObjectID) (Header, []byte, error) {
	hdr, body, err := s.LoadWithHeader(id)
	if err != nil {
		return Header{}, nil, err
	}
	defer body.Close()

	b, err := io.ReadAll(body)
	if err != nil {
		return Header{}, nil, gitobj.WrapBackend(err)
	}
	return hdr, b, nil
}

// GetHeader parses and returns just id's envelope header, closing the
// underlying stream immediately afterward to free resources (spec.md
// §4.2).
func (s *ObjectStore) GetHeader(id gitobj.ObjectID) (Header, error) {
	hdr, body, err := s.LoadWithHeader(id)
	if err != nil {
		return Header{}, err
	}
	body.Close()
	return hdr, nil
}

// Has reports whether id is present in loose storage or any attached pack.
func (s *ObjectStore) Has(id gitobj.ObjectID) (bool, error) {
	if ok, err := s.raw.Has(id.String()); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}
	for _, p := range s.packs {
		if p.Has(id) {
			return true, nil
		}
	}
	return false, nil
}

// parseEnvelope reads "<type> <size>\0" from r and returns the parsed
// header plus a reader over the remaining payload bytes.
func parseEnvelope(r io.ReadCloser) (Header, io.ReadCloser, error) {
	br := bufio.NewReader(r)

	typeStr, err := br.ReadString(' ')
	if err != nil {
		r.Close()
		return Header{}, nil, gitobj.NewCorruptionError("malformed object envelope: missing type", err)
	}
	typeStr = strings.TrimSuffix(typeStr, " ")

	sizeStr, err := br.ReadString(0)
	if err != nil {
		r.Close()
		return Header{}, nil, gitobj.NewCorruptionError("malformed object envelope: missing size terminator", err)
	}
	sizeStr = strings.TrimSuffix(sizeStr, "\x00")

	t, err := gitobj.ParseObjectType(typeStr)
	if err != nil {
		r.Close()
		return Header{}, nil, gitobj.NewCorruptionError("malformed object envelope: unknown type "+typeStr, err)
	}

	size, err := strconv.ParseInt(sizeStr, 10, 64)
	if err != nil || size < 0 {
		r.Close()
		return Header{}, nil, gitobj.NewCorruptionError("malformed object envelope: invalid size "+sizeStr, err)
	}

	return Header{Type: t, Size: size}, envelopeBody{br: br, underlying: r}, nil
}

// envelopeBody chains the buffered reader positioned after the header with
// the original stream's Close, so callers that only hold the returned
// io.ReadCloser still release the underlying resource correctly.
type envelopeBody struct {
	br         *bufio.Reader
	underlying io.ReadCloser
}

func (e envelopeBody) Read(p []byte) (int, error) { return e.br.Read(p) }
func (e envelopeBody) Close() error               { return e.underlying.Close() }
