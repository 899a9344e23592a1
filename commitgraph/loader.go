package commitgraph

import (
	"bytes"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/gitobj/objects"
	"github.com/kitforge/gitkit/objstore"
)

// CommitLoader resolves a commit id to its decoded form. The walker
// depends only on this narrow interface, not on objstore.ObjectStore
// directly, so it can be exercised against a stub in tests without
// standing up a real object store.
type CommitLoader interface {
	LoadCommit(id gitobj.ObjectID) (*objects.Commit, error)
}

// ObjectStoreLoader adapts an objstore.ObjectStore into a CommitLoader.
type ObjectStoreLoader struct {
	Store *objstore.ObjectStore
}

// LoadCommit loads and decodes the commit named by id.
func (l ObjectStoreLoader) LoadCommit(id gitobj.ObjectID) (*objects.Commit, error) {
	hdr, content, err := l.Store.LoadBytes(id)
	if err != nil {
		return nil, err
	}
	if hdr.Type != gitobj.CommitObject {
		return nil, gitobj.NewInvalidArgumentError("commitgraph: " + id.String() + " is not a commit")
	}
	return objects.DecodeCommit(bytes.NewReader(content))
}
