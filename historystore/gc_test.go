package historystore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/refstore"
)

func TestGCProtectsReachableObjects(t *testing.T) {
	s := newLooseTestStore(t)

	blob := putBlob(t, s, "kept")
	tree := putTree(t, s, map[string]gitobj.ObjectID{"f.txt": blob})
	commit := putCommit(t, s, tree, 100, "kept commit")

	require.NoError(t, s.Refs.Set("refs/heads/main", commit, refstore.ReflogMeta{Message: "create"}))

	result, err := s.GC(GCOptions{Now: time.Now().Add(30 * 24 * time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, 0, result.ObjectsRemoved)
	has, err := s.Objects.Has(blob)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestGCRemovesOldUnreachableLooseObjects(t *testing.T) {
	s := newLooseTestStore(t)

	// A reachable commit to anchor a ref.
	keptBlob := putBlob(t, s, "kept")
	keptTree := putTree(t, s, map[string]gitobj.ObjectID{"f.txt": keptBlob})
	keptCommit := putCommit(t, s, keptTree, 100, "kept commit")
	require.NoError(t, s.Refs.Set("refs/heads/main", keptCommit, refstore.ReflogMeta{Message: "create"}))

	// An orphaned blob nothing references.
	orphan := putBlob(t, s, "nobody points at me")

	result, err := s.GC(GCOptions{Now: time.Now().Add(30 * 24 * time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ObjectsRemoved)
	assert.Greater(t, result.BytesFreed, int64(0))

	has, err := s.Objects.Has(orphan)
	require.NoError(t, err)
	assert.False(t, has)

	has, err = s.Objects.Has(keptBlob)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestGCRespectsGracePeriodForYoungUnreachableObjects(t *testing.T) {
	s := newLooseTestStore(t)

	orphan := putBlob(t, s, "too young to collect")

	result, err := s.GC(GCOptions{Now: time.Now()})
	require.NoError(t, err)

	assert.Equal(t, 0, result.ObjectsRemoved)
	has, err := s.Objects.Has(orphan)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestGCProtectsReflogTipWithNoLiveRef(t *testing.T) {
	s := newLooseTestStore(t)

	blob := putBlob(t, s, "referenced only by a reflog entry")
	tree := putTree(t, s, map[string]gitobj.ObjectID{"f.txt": blob})
	commit := putCommit(t, s, tree, 100, "reflog-only commit")

	// Set and then delete the ref: the reflog file remains, recording the
	// old tip, even though no live ref points at it any more.
	require.NoError(t, s.Refs.Set("refs/heads/feature", commit, refstore.ReflogMeta{Message: "create"}))
	require.NoError(t, s.Refs.Remove("refs/heads/feature"))

	result, err := s.GC(GCOptions{Now: time.Now().Add(30 * 24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ObjectsRemoved)

	has, err := s.Objects.Has(blob)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestGCRemovesFullyUnreachablePack(t *testing.T) {
	s := newLooseTestStore(t)

	orphanBlob := putBlob(t, s, "in an unreachable pack")

	removed := false
	packs := []PackInventory{
		{IDs: []gitobj.ObjectID{orphanBlob}, Remove: func() error { removed = true; return nil }},
	}

	result, err := s.GC(GCOptions{Now: time.Now(), Packs: packs})
	require.NoError(t, err)
	assert.Equal(t, 1, result.PacksRemoved)
	assert.True(t, removed)
}

func TestGCKeepsPackWithAnyReachableObject(t *testing.T) {
	s := newLooseTestStore(t)

	blob := putBlob(t, s, "kept")
	tree := putTree(t, s, map[string]gitobj.ObjectID{"f.txt": blob})
	commit := putCommit(t, s, tree, 100, "kept commit")
	require.NoError(t, s.Refs.Set("refs/heads/main", commit, refstore.ReflogMeta{Message: "create"}))

	removed := false
	packs := []PackInventory{
		{IDs: []gitobj.ObjectID{blob, commit}, Remove: func() error { removed = true; return nil }},
	}

	result, err := s.GC(GCOptions{Now: time.Now().Add(30 * 24 * time.Hour), Packs: packs})
	require.NoError(t, err)
	assert.Equal(t, 0, result.PacksRemoved)
	assert.False(t, removed)
}
