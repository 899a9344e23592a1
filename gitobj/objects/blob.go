package objects

import (
	"io"

	"github.com/kitforge/gitkit/gitobj"
)

// Blob is an opaque byte payload: its encoding is the identity function, so
// Blob exists mainly so callers have a typed name for "the content of a
// gitobj.GitObject of type BlobObject" rather than reading raw bytes.
type Blob struct {
	Size int64
	obj  gitobj.GitObject
}

// DecodeBlob wraps an already-loaded GitObject of BlobObject type as a Blob.
// It does not copy or validate the payload beyond checking the type tag.
func DecodeBlob(obj gitobj.GitObject) (*Blob, error) {
	if obj.Type() != gitobj.BlobObject {
		return nil, gitobj.NewInvalidArgumentError("DecodeBlob: not a blob: " + obj.Type().String())
	}
	return &Blob{Size: obj.Size(), obj: obj}, nil
}

// Reader returns a fresh reader over the blob's content.
func (b *Blob) Reader() (io.ReadCloser, error) {
	return b.obj.Reader()
}

// NewBlob builds a MemoryObject of type BlobObject from raw content. The
// returned object's id is unset; callers hash and SetID it once written.
func NewBlob(content []byte) *gitobj.MemoryObject {
	o := gitobj.NewMemoryObject(gitobj.BlobObject)
	w, _ := o.Writer()
	_, _ = w.Write(content)
	_ = w.Close()
	return o
}
