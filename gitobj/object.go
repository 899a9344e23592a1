package gitobj

import (
	"bytes"
	"io"
)

// ObjectType identifies which of the four Git object kinds (or two delta
// encodings used only inside pack files) a GitObject represents. The integer
// values match the type tag used in the pack-file object header (spec.md
// §4.3).
type ObjectType int8

const (
	// InvalidObject is the zero value and never a valid stored object.
	InvalidObject ObjectType = 0
	// CommitObject identifies a commit.
	CommitObject ObjectType = 1
	// TreeObject identifies a tree.
	TreeObject ObjectType = 2
	// BlobObject identifies a blob.
	BlobObject ObjectType = 3
	// TagObject identifies an annotated tag.
	TagObject ObjectType = 4
	// OFSDeltaObject identifies a pack entry encoded as a delta against a
	// base at a known negative offset in the same pack.
	OFSDeltaObject ObjectType = 6
	// REFDeltaObject identifies a pack entry encoded as a delta against a
	// base identified by ObjectID.
	REFDeltaObject ObjectType = 7

	// AnyObject is used by lookups that accept any of the four storable
	// types.
	AnyObject ObjectType = -1
)

// String returns the Git envelope spelling of t ("blob", "tree", ...), or
// "unknown" for a value with no envelope spelling.
func (t ObjectType) String() string {
	switch t {
	case CommitObject:
		return "commit"
	case TreeObject:
		return "tree"
	case BlobObject:
		return "blob"
	case TagObject:
		return "tag"
	case OFSDeltaObject:
		return "ofs-delta"
	case REFDeltaObject:
		return "ref-delta"
	case AnyObject:
		return "any"
	default:
		return "unknown"
	}
}

// Bytes returns the byte representation of the envelope spelling of t.
func (t ObjectType) Bytes() []byte {
	return []byte(t.String())
}

// Valid reports whether t is one of the four storable object kinds.
func (t ObjectType) Valid() bool {
	return t == CommitObject || t == TreeObject || t == BlobObject || t == TagObject
}

// IsDelta reports whether t is one of the two pack-only delta encodings.
func (t ObjectType) IsDelta() bool {
	return t == OFSDeltaObject || t == REFDeltaObject
}

// ParseObjectType parses the envelope spelling of an object type.
func ParseObjectType(s string) (ObjectType, error) {
	switch s {
	case "commit":
		return CommitObject, nil
	case "tree":
		return TreeObject, nil
	case "blob":
		return BlobObject, nil
	case "tag":
		return TagObject, nil
	case "ofs-delta":
		return OFSDeltaObject, nil
	case "ref-delta":
		return REFDeltaObject, nil
	default:
		return InvalidObject, NewInvalidArgumentError("unknown object type: " + s)
	}
}

// GitObject is a generic, content-addressed Git object: a type tag plus a
// byte payload, readable and writable as streams. Concrete object kinds
// (blob/tree/commit/tag) are decoded from a GitObject's payload by the
// gitobj/objects package; GitObject itself carries no structure beyond the
// envelope.
type GitObject interface {
	// ID returns the object's content address. It is only valid once the
	// object has been written or loaded; a freshly constructed MemoryObject
	// returns ZeroHash until its id is set.
	ID() ObjectID
	// Type returns the object's kind.
	Type() ObjectType
	// SetType sets the object's kind.
	SetType(ObjectType)
	// Size returns the declared payload length.
	Size() int64
	// SetSize sets the declared payload length.
	SetSize(int64)
	// Reader returns a fresh reader over the payload bytes.
	Reader() (io.ReadCloser, error)
	// Writer returns a writer that streams payload bytes into the object.
	Writer() (io.WriteCloser, error)
}

// DeltaObject is a GitObject that was produced by resolving a pack delta; it
// additionally knows the id of the base it was computed against.
type DeltaObject interface {
	GitObject
	// BaseID returns the id of the object this delta was computed against.
	BaseID() ObjectID
}

// MemoryObject is an in-memory GitObject backed by a byte buffer. It is the
// default concrete GitObject used when building objects to store, and when
// reading small objects back out of a store.
type MemoryObject struct {
	id    ObjectID
	typ   ObjectType
	size  int64
	buf   bytes.Buffer
	idSet bool
}

// NewMemoryObject returns an empty MemoryObject of the given type.
func NewMemoryObject(t ObjectType) *MemoryObject {
	return &MemoryObject{typ: t}
}

// ID returns the object's id, or ZeroHash if SetID has never been called.
func (o *MemoryObject) ID() ObjectID { return o.id }

// SetID sets the object's id. Callers compute this with a Hasher; MemoryObject
// does not hash its own content.
func (o *MemoryObject) SetID(id ObjectID) { o.id, o.idSet = id, true }

// Type returns the object's kind.
func (o *MemoryObject) Type() ObjectType { return o.typ }

// SetType sets the object's kind.
func (o *MemoryObject) SetType(t ObjectType) { o.typ = t }

// Size returns the declared payload length.
func (o *MemoryObject) Size() int64 { return o.size }

// SetSize sets the declared payload length. It does not truncate or grow the
// underlying buffer; it exists so headers can be declared before Writer is
// used to stream content in.
func (o *MemoryObject) SetSize(s int64) { o.size = s }

// Reader returns a new reader over the buffered payload from the start.
func (o *MemoryObject) Reader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(o.buf.Bytes())), nil
}

// Writer returns a writer that appends to the payload buffer; writes grow
// Size() automatically. Callers that want to replace content should build a
// new MemoryObject.
func (o *MemoryObject) Writer() (io.WriteCloser, error) {
	return nopWriteCloser{&o.buf, o}, nil
}

// Bytes returns the buffered payload directly without copying.
func (o *MemoryObject) Bytes() []byte {
	return o.buf.Bytes()
}

type nopWriteCloser struct {
	buf *bytes.Buffer
	o   *MemoryObject
}

func (w nopWriteCloser) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	w.o.size = int64(w.buf.Len())
	return n, err
}

func (w nopWriteCloser) Close() error { return nil }
