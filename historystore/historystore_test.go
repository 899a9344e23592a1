package historystore

import (
	"bytes"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/gitobj/objects"
	"github.com/kitforge/gitkit/objstore"
	"github.com/kitforge/gitkit/rawstore"
	"github.com/kitforge/gitkit/refstore"
)

// newTestStore returns a Store over fresh in-memory object and ref stores,
// suitable for tests that don't need real loose-file timestamps.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	objects := objstore.New(rawstore.NewMemoryRawStorage())
	refs := refstore.New(memfs.New())
	return New(objects, refs, nil)
}

// newLooseTestStore returns a Store backed by a real filesystem-rooted
// LooseRawStorage, for tests (GC's age check) that need ModTime support.
func newLooseTestStore(t *testing.T) *Store {
	t.Helper()
	fs := memfs.New()
	objects := objstore.New(rawstore.NewLooseRawStorage(fs, "objects", nil))
	refs := refstore.New(fs)
	return New(objects, refs, nil)
}

func person(name string, ts int64) gitobj.PersonIdent {
	return gitobj.PersonIdent{Name: name, Email: name + "@example.com", Timestamp: ts, TZOffset: "+0000"}
}

// putBlob stores content as a blob and returns its id.
func putBlob(t *testing.T, s *Store, content string) gitobj.ObjectID {
	t.Helper()
	id, err := s.Objects.WriteBytes(gitobj.BlobObject, []byte(content))
	require.NoError(t, err)
	return id
}

// putTree stores a flat tree of name->blob-id entries and returns its id.
func putTree(t *testing.T, s *Store, entries map[string]gitobj.ObjectID) gitobj.ObjectID {
	t.Helper()
	tree := &objects.Tree{}
	for name, id := range entries {
		tree.Entries = append(tree.Entries, objects.TreeEntry{Name: name, Mode: gitobj.Regular, ID: id})
	}
	var buf bytes.Buffer
	require.NoError(t, tree.Encode(&buf))
	id, err := s.Objects.WriteBytes(gitobj.TreeObject, buf.Bytes())
	require.NoError(t, err)
	return id
}

// putCommit stores a commit pointing at treeID with the given parents and
// returns its id.
func putCommit(t *testing.T, s *Store, treeID gitobj.ObjectID, ts int64, msg string, parents ...gitobj.ObjectID) gitobj.ObjectID {
	t.Helper()
	c := &objects.Commit{
		TreeID:    treeID,
		ParentIDs: parents,
		Author:    person("tester", ts),
		Committer: person("tester", ts),
		Message:   msg,
	}
	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf))
	id, err := s.Objects.WriteBytes(gitobj.CommitObject, buf.Bytes())
	require.NoError(t, err)
	return id
}

// putTag stores an annotated tag pointing at target and returns its id.
func putTag(t *testing.T, s *Store, target gitobj.ObjectID, targetType gitobj.ObjectType, name string) gitobj.ObjectID {
	t.Helper()
	tag := &objects.Tag{
		ObjectID:   target,
		ObjectType: targetType,
		Name:       name,
		Tagger:     person("tester", 1000),
		Message:    "tag " + name,
	}
	var buf bytes.Buffer
	require.NoError(t, tag.Encode(&buf))
	id, err := s.Objects.WriteBytes(gitobj.TagObject, buf.Bytes())
	require.NoError(t, err)
	return id
}
